package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagshelf/tagshelf/internal/backup"
	"github.com/tagshelf/tagshelf/internal/domain"
)

// zipMagic opens every zip archive.
var zipMagic = []byte("PK\x03\x04")

func (s *Server) registerBackupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "exportCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/export",
		Summary:     "Export catalog",
		Description: "Downloads the whole catalog as one JSON document or a zip archive",
		Tags:        []string{"Backup"},
	}, s.handleExport)

	huma.Register(s.api, huma.Operation{
		OperationID:  "importCatalog",
		Method:       http.MethodPost,
		Path:         "/api/v1/import",
		Summary:      "Import catalog",
		Description:  "Loads an export. merge keeps local items on ID collisions; overwrite replaces everything",
		Tags:         []string{"Backup"},
		MaxBodyBytes: s.opts.MaxUploadBytes * 8,
	}, s.handleImport)
}

// === DTOs ===

// ExportInput selects the export framing.
type ExportInput struct {
	Format string `query:"format" enum:"json,zip" default:"json" doc:"json document or zip archive"`
}

// ExportOutput is the export file.
type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	CacheControl       string `header:"Cache-Control"`
	Body               []byte
}

// ImportInput carries an export file. Zip archives are recognized by their
// signature, anything else is read as a JSON document.
type ImportInput struct {
	Mode    string `query:"mode" enum:"merge,overwrite" default:"merge" doc:"merge or overwrite"`
	RawBody []byte `contentType:"application/octet-stream"`
}

// ImportOutput wraps the import result for Huma.
type ImportOutput struct {
	Body *backup.ImportResult
}

// === Handlers ===

func (s *Server) handleExport(ctx context.Context, input *ExportInput) (*ExportOutput, error) {
	var buf bytes.Buffer
	stamp := time.Now().UTC().Format("20060102-150405")

	if input.Format == "zip" {
		archiveID, err := s.services.Exporter.ExportArchive(ctx, &buf)
		if err != nil {
			return nil, s.fail(ctx, "export", err)
		}
		s.logger.InfoContext(ctx, "Export archive served", "archive_id", archiveID, "bytes", buf.Len())
		return &ExportOutput{
			ContentType:        "application/zip",
			ContentDisposition: attachment("tagshelf-" + stamp + ".zip"),
			CacheControl:       CacheNoStore,
			Body:               buf.Bytes(),
		}, nil
	}

	snap, err := s.services.Exporter.Export(ctx)
	if err != nil {
		return nil, s.fail(ctx, "export", err)
	}
	if err := backup.WriteJSON(&buf, snap); err != nil {
		return nil, s.fail(ctx, "export", err)
	}
	return &ExportOutput{
		ContentType:        "application/json",
		ContentDisposition: attachment("tagshelf-" + stamp + ".json"),
		CacheControl:       CacheNoStore,
		Body:               buf.Bytes(),
	}, nil
}

func (s *Server) handleImport(ctx context.Context, input *ImportInput) (*ImportOutput, error) {
	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("request body is empty")
	}

	var (
		snap *domain.Snapshot
		err  error
	)
	if bytes.HasPrefix(input.RawBody, zipMagic) {
		snap, err = backup.ReadArchive(bytes.NewReader(input.RawBody), int64(len(input.RawBody)))
	} else {
		snap, err = backup.ReadJSON(bytes.NewReader(input.RawBody))
	}
	if err != nil {
		return nil, s.fail(ctx, "import", err)
	}

	res, err := s.services.Importer.Import(ctx, snap, backup.ImportMode(input.Mode))
	if err != nil {
		return nil, s.fail(ctx, "import", err)
	}
	return &ImportOutput{Body: res}, nil
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
