package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/normalize"
)

func tagsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Inspect and edit the tag vocabulary",
	}
	cmd.AddCommand(
		tagsListCommand(a),
		tagsRecentCommand(a),
		tagsAddCommand(a),
		tagsRenameCommand(a),
		tagsDeleteCommand(a),
	)
	return cmd
}

func tagsListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every tag with its usage count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			vocab := c.Tags().Vocabulary()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), vocab)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "TAG\tITEMS\tCREATED")
			for _, t := range vocab {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Name, t.UsageCount, t.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func tagsRecentCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List the most recently used tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			for _, t := range c.Tags().Recent() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func tagsAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Add a tag to the vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			name := normalize.TagName(args[0])
			if name == "" {
				return errors.New("tag name is required")
			}
			added, err := c.Tags().AddTag(cmd.Context(), name)
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "Tag %q already exists\n", name)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added tag %q\n", name)
			return nil
		},
	}
}

func tagsRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename FROM TO",
		Short: "Rename a tag on every item, merging into TO when it exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			res, err := c.Tags().RenameTag(cmd.Context(), args[0], args[1])
			if p, partial := domainerrors.ProgressOf(err); partial {
				return fmt.Errorf("rename stopped after %d items, %d failed: %w", p.Succeeded, p.Failed, err)
			}
			if err != nil {
				return err
			}

			verb := "Renamed"
			if res.Merged {
				verb = "Merged"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q into %q on %d items (%q now on %d items)\n",
				verb, res.From, res.To, res.ItemsAffected, res.To, res.UsageTo)
			return nil
		},
	}
}

func tagsDeleteCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a tag from every item and the vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			tags := c.Tags()

			entry, err := tags.Tag(args[0])
			if err != nil {
				return err
			}
			if entry.UsageCount > 0 && !yes {
				return fmt.Errorf("tag %q is on %d items, pass --yes to delete it", entry.Name, entry.UsageCount)
			}

			n, err := tags.DeleteTag(cmd.Context(), entry.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %q from %d items\n", entry.Name, n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete even when items carry the tag")
	return cmd
}
