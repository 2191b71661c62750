package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tagshelf/tagshelf/internal/backup"
	"github.com/tagshelf/tagshelf/internal/domain"
)

func exportCommand(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole catalog to a file",
		Long: `Export writes every item, the tag vocabulary, the category schema and the
recent tags to a JSON document or a zip archive. Use -o - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "zip" {
				return fmt.Errorf("unknown format %q (must be json or zip)", format)
			}
			if output == "" {
				output = fmt.Sprintf("tagshelf-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
			}

			exporter, err := a.exporter()
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if format == "zip" {
				if _, err := exporter.ExportArchive(cmd.Context(), &buf); err != nil {
					return fmt.Errorf("export: %w", err)
				}
			} else {
				snap, err := exporter.Export(cmd.Context())
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				if err := backup.WriteJSON(&buf, snap); err != nil {
					return fmt.Errorf("export: %w", err)
				}
			}

			if output == "-" {
				_, err := io.Copy(cmd.OutOrStdout(), &buf)
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported catalog to %s (%d bytes)\n", output, buf.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Export format: json or zip")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: tagshelf-<timestamp>.<format>)")
	return cmd
}

func importCommand(a *app) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load an export into the catalog",
		Long: `Import reads a JSON document or zip archive written by export.

In merge mode local items win on ID collisions, incoming categories replace
local ones with the same key and the vocabularies are joined. Overwrite mode
replaces the whole catalog.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readExport(args[0])
			if err != nil {
				return err
			}

			importer, err := a.importer()
			if err != nil {
				return err
			}
			res, err := importer.Import(cmd.Context(), snap, backup.ImportMode(mode))
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Import %s (%s) finished in %s\n", res.ImportID, res.Mode, res.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "  imported: %d items, %d tags, %d categories\n", res.Imported.Items, res.Imported.Tags, res.Imported.Categories)
			fmt.Fprintf(out, "  skipped:  %d items, %d tags\n", res.Skipped.Items, res.Skipped.Tags)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(backup.ImportModeMerge), "Import mode: merge or overwrite")
	return cmd
}

// readExport opens path as a zip archive when it carries the zip signature,
// otherwise as a JSON document.
func readExport(path string) (*domain.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if string(magic) == "PK\x03\x04" {
		return backup.ReadArchive(f, info.Size())
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return backup.ReadJSON(f)
}
