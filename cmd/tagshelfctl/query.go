package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tagshelf/tagshelf/internal/domain"
)

func queryCommand(a *app) *cobra.Command {
	var (
		state  domain.SearchState
		mode   string
		sort   string
		where  []string
		active bool
		save   bool
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search items by tags, structured values and text",
		Example: `  tagshelfctl query --tag sea --tag night
  tagshelfctl query --tag boats --tag harbour --mode or --sort oldest
  tagshelfctl query --where camera=Leica --text "golden hour"
  tagshelfctl query --active`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}

			var items []*domain.MediaItem
			if active {
				items = c.Search()
			} else {
				if mode != string(domain.FilterAnd) && mode != string(domain.FilterOr) {
					return fmt.Errorf("unknown mode %q (must be and or or)", mode)
				}
				if sort != string(domain.SortNewest) && sort != string(domain.SortOldest) {
					return fmt.Errorf("unknown sort %q (must be newest or oldest)", sort)
				}
				state.Mode = domain.FilterMode(mode)
				state.Sort = domain.SortOrder(sort)
				state.Structured, err = parseWhere(where)
				if err != nil {
					return err
				}
				if save {
					if _, err := c.SetSearchState(cmd.Context(), state); err != nil {
						return err
					}
					items = c.Search()
				} else {
					items = c.Query(state.WithDefaults())
				}
			}

			total := len(items)
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}

			if asJSON {
				out := make([]*domain.MediaItem, len(items))
				for i, it := range items {
					// Image bytes stay out of listings.
					light := *it
					light.Thumbnail, light.Original = nil, nil
					out[i] = &light
				}
				return printJSON(cmd.OutOrStdout(), out)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tCREATED\tTAGS\tMEMO")
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					it.ID, it.CreatedAt.Format("2006-01-02 15:04"), strings.Join(it.FreeTags, ", "), oneLine(it.Memo, 60))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d items\n", len(items), total)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&state.Tags, "tag", "t", nil, "Free tag filter (repeatable)")
	flags.StringVar(&mode, "mode", string(domain.FilterAnd), "Tag filter mode: and or or")
	flags.StringArrayVarP(&where, "where", "w", nil, "Structured filter KEY=VALUE (repeatable)")
	flags.StringVar(&state.Text, "text", "", "Search text, every term must match")
	flags.StringVar(&sort, "sort", string(domain.SortNewest), "Sort order: newest or oldest")
	flags.BoolVar(&active, "active", false, "Run the saved active search instead")
	flags.BoolVar(&save, "save", false, "Also save this query as the active search")
	flags.IntVarP(&limit, "limit", "n", 0, "Maximum items to print (0 for all)")
	flags.BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.MarkFlagsMutuallyExclusive("active", "save")

	return cmd
}

// parseWhere turns KEY=VALUE pairs into a structured filter. Repeating a key
// accepts any of its values.
func parseWhere(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("invalid --where %q (want KEY=VALUE)", p)
		}
		out[key] = append(out[key], value)
	}
	return out, nil
}

func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
