package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"sketchdataset/internal/core/domain"
	"sketchdataset/internal/core/ports"
)

// Exporter exports every artboard of one document into <output_root>/<stem>.
type Exporter struct {
	source  ports.ArtboardSource
	storage ports.Storage
	logger  *log.Logger
	verbose bool
}

// NewExporter creates a new Exporter.
func NewExporter(source ports.ArtboardSource, storage ports.Storage, logger *log.Logger, verbose bool) *Exporter {
	return &Exporter{source: source, storage: storage, logger: logger, verbose: verbose}
}

// Export lists the document's artboards across all pages and exports them,
// overwriting earlier files. Failures never escape as errors: they are
// recorded on the result and its Diagnostics so the batch can continue.
func (e *Exporter) Export(ctx context.Context, documentPath string) *domain.ExportResult {
	doc := domain.Document(documentPath)
	result := &domain.ExportResult{
		Job: domain.ExportJob{
			ID:           uuid.New().String(),
			DocumentPath: documentPath,
		},
		Items: map[string]bool{},
	}
	jobID := result.Job.ID
	e.debugf("[JOB %s] Listing artboards of %s", jobID, documentPath)

	pages, err := e.source.ListArtboards(ctx, documentPath)
	if err != nil {
		return e.fail(result, fmt.Errorf("failed to list artboards: %w", err))
	}
	var ids []string
	for _, page := range pages {
		for _, artboard := range page.Artboards {
			ids = append(ids, artboard.ID)
		}
	}

	dir, err := e.storage.DocumentDir(ctx, doc.Stem())
	if err != nil {
		return e.fail(result, err)
	}
	result.Job.OutputDir = dir

	if len(ids) == 0 {
		e.debugf("[JOB %s] No artboards in %s", jobID, documentPath)
		result.CompletedAt = time.Now().UTC()
		return result
	}

	e.debugf("[JOB %s] Exporting %d artboards to %s", jobID, len(ids), dir)
	out, err := e.source.ExportArtboards(ctx, documentPath, dir, ids, true)
	if out != nil {
		result.Items = out.Items
		result.Diagnostics = out.Stderr
	}
	if err != nil {
		return e.fail(result, err)
	}

	result.CompletedAt = time.Now().UTC()
	e.debugf("[JOB %s] Exported %s", jobID, documentPath)
	return result
}

func (e *Exporter) fail(result *domain.ExportResult, err error) *domain.ExportResult {
	result.Err = fmt.Errorf("%w: %s: %w", domain.ErrExportFailed, result.Job.DocumentPath, err)
	if result.Diagnostics == "" {
		result.Diagnostics = result.Err.Error()
	}
	result.CompletedAt = time.Now().UTC()
	e.logger.Printf("[JOB %s] ERROR: %v", result.Job.ID, result.Err)
	return result
}

func (e *Exporter) debugf(format string, args ...any) {
	if e.verbose {
		e.logger.Printf(format, args...)
	}
}
