package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func categoriesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cats"},
		Short:   "Inspect and edit structured categories",
	}
	cmd.AddCommand(
		categoriesListCommand(a),
		categoriesAddCommand(a),
		categoriesDeleteCommand(a),
	)
	return cmd
}

func categoriesListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			cats := c.Tags().Categories()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), cats)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "KEY\tLABEL\tKIND\tVALUES")
			for _, cat := range cats {
				kind := "single"
				if cat.Multi {
					kind = "multi"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cat.Key, cat.Label, kind, strings.Join(cat.Values, ", "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func categoriesAddCommand(a *app) *cobra.Command {
	var (
		values []string
		multi  bool
	)

	cmd := &cobra.Command{
		Use:   "add LABEL",
		Short: "Create a category",
		Example: `  tagshelfctl categories add "Film Stock" --value "Portra 400" --value HP5 --multi
  tagshelfctl categories add Camera --value Leica,Nikon`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			key, err := c.Tags().AddCategory(cmd.Context(), args[0], values, multi)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %q\n", key)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&values, "value", nil, "Allowed value (repeatable or comma separated)")
	cmd.Flags().BoolVar(&multi, "multi", false, "Allow several values per item")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func categoriesDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEY",
		Short: "Delete a category and every item's answer for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			if err := c.Tags().DeleteCategory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %q\n", args[0])
			return nil
		},
	}
}
