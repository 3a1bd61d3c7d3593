package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"sketchdataset/internal/core/domain"
	"sketchdataset/internal/core/ports"
)

// DefaultWorkers is the number of concurrent export workers.
const DefaultWorkers = 8

// ProgressFunc is called by the collector after each finished job.
type ProgressFunc func(done, total int)

// PoolOptions configures an ExportPool.
type PoolOptions struct {
	Workers int
	// Limiter throttles job starts; nil means unlimited.
	Limiter  *rate.Limiter
	Progress ProgressFunc
}

// ExportPool runs export jobs over a bounded set of workers.
type ExportPool struct {
	exporter *Exporter
	storage  ports.Storage
	logger   *log.Logger
	opts     PoolOptions
}

// NewExportPool creates a new ExportPool.
func NewExportPool(exporter *Exporter, storage ports.Storage, logger *log.Logger, opts PoolOptions) *ExportPool {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &ExportPool{exporter: exporter, storage: storage, logger: logger, opts: opts}
}

// Run exports every document and returns once the queue is drained. Jobs are
// never retried and one failing job does not stop the others. Diagnostic
// lines from all jobs are deduplicated and written to the error log.
func (p *ExportPool) Run(ctx context.Context, documents []string) (*domain.ExportSummary, error) {
	summary := &domain.ExportSummary{
		RunID:        uuid.New().String(),
		Total:        len(documents),
		ErrorLogPath: p.storage.ErrorLogPath(),
	}
	p.logger.Printf("[RUN %s] Exporting %d documents with %d workers", summary.RunID, len(documents), p.opts.Workers)

	jobs := make(chan string, len(documents))
	for _, doc := range documents {
		jobs <- doc
	}
	close(jobs)

	results := make(chan *domain.ExportResult, p.opts.Workers)
	var wg sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				results <- p.runJob(ctx, doc)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]struct{})
	done := 0
	for res := range results {
		done++
		if !res.Success() {
			summary.Failed++
		}
		for _, line := range diagnosticLines(res.Diagnostics) {
			seen[line] = struct{}{}
		}
		if p.opts.Progress != nil {
			p.opts.Progress(done, summary.Total)
		}
	}

	summary.DiagnosticLines = make([]string, 0, len(seen))
	for line := range seen {
		summary.DiagnosticLines = append(summary.DiagnosticLines, line)
	}
	sort.Strings(summary.DiagnosticLines)

	if err := p.storage.SaveErrorLog(ctx, summary.DiagnosticLines); err != nil {
		return summary, err
	}
	p.logger.Printf("[RUN %s] Export finished: %d/%d documents failed, %d diagnostic lines in %s",
		summary.RunID, summary.Failed, summary.Total, len(summary.DiagnosticLines), summary.ErrorLogPath)
	return summary, nil
}

// runJob exports one document. A panic is turned into a failed result so the
// worker goes on draining the queue.
func (p *ExportPool) runJob(ctx context.Context, doc string) (res *domain.ExportResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %s: panic: %v", domain.ErrExportFailed, doc, r)
			res = &domain.ExportResult{
				Job:         domain.ExportJob{DocumentPath: doc},
				Err:         err,
				Diagnostics: err.Error(),
				CompletedAt: time.Now().UTC(),
			}
			p.logger.Printf("ERROR: %v", err)
		}
	}()

	if p.opts.Limiter != nil {
		if err := p.opts.Limiter.Wait(ctx); err != nil {
			err = fmt.Errorf("%w: %s: %w", domain.ErrExportFailed, doc, err)
			return &domain.ExportResult{
				Job:         domain.ExportJob{DocumentPath: doc},
				Err:         err,
				Diagnostics: err.Error(),
				CompletedAt: time.Now().UTC(),
			}
		}
	}
	return p.exporter.Export(ctx, doc)
}

// diagnosticLines splits trimmed diagnostic text into its non-empty lines.
func diagnosticLines(diagnostics string) []string {
	trimmed := strings.TrimSpace(diagnostics)
	if trimmed == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
