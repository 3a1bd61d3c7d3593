package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"sketchdataset/internal/core/domain"
	"sketchdataset/internal/core/ports"
	"sketchdataset/internal/imaging"
)

// Options tunes the orchestrator's phases.
type Options struct {
	Workers    int
	CacheSize  int
	Threshold  float64
	ExportRate float64 // export starts per second, 0 = unlimited
	Verbose    bool
	Progress   ProgressFunc
}

// Orchestrator coordinates the export, grouping and materialization phases.
type Orchestrator struct {
	source  ports.ArtboardSource
	storage ports.Storage
	logger  *log.Logger
	opts    Options
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	source ports.ArtboardSource,
	storage ports.Storage,
	logger *log.Logger,
	opts Options,
) *Orchestrator {
	if opts.CacheSize <= 0 {
		opts.CacheSize = imaging.DefaultCacheSize
	}
	if opts.Threshold <= 0 {
		opts.Threshold = imaging.DefaultThreshold
	}
	return &Orchestrator{
		source:  source,
		storage: storage,
		logger:  logger,
		opts:    opts,
	}
}

// RunExport exports every artboard of every document.
func (o *Orchestrator) RunExport(ctx context.Context, documents []string) (*domain.ExportSummary, error) {
	var limiter *rate.Limiter
	if o.opts.ExportRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.opts.ExportRate), 1)
	}
	exporter := NewExporter(o.source, o.storage, o.logger, o.opts.Verbose)
	pool := NewExportPool(exporter, o.storage, o.logger, PoolOptions{
		Workers:  o.opts.Workers,
		Limiter:  limiter,
		Progress: o.opts.Progress,
	})
	return pool.Run(ctx, documents)
}

// RunGrouping groups every exported artboard and persists the manifest.
// Each run owns a fresh image cache.
func (o *Orchestrator) RunGrouping(ctx context.Context) (domain.Manifest, domain.GroupingStats, error) {
	runID := uuid.New().String()
	start := time.Now()

	paths, err := o.storage.ListArtboardImages(ctx)
	if err != nil {
		return nil, domain.GroupingStats{}, err
	}
	o.logger.Printf("[RUN %s] Grouping %d artboard images", runID, len(paths))

	cache, err := imaging.NewCache(o.opts.CacheSize)
	if err != nil {
		return nil, domain.GroupingStats{}, err
	}
	engine := NewGroupingEngine(cache, imaging.Comparator{Threshold: o.opts.Threshold}, o.logger, o.opts.Verbose)

	manifest, stats, err := engine.Group(ctx, paths)
	if err != nil {
		o.logger.Printf("[RUN %s] ERROR: grouping aborted: %v", runID, err)
		return nil, stats, err
	}
	if err := o.storage.SaveManifest(ctx, manifest); err != nil {
		return nil, stats, err
	}

	o.logger.Printf("[RUN %s] %d buckets, %d comparisons, %d duplicate groups (%d decodes) in %s",
		runID, stats.Buckets, stats.Comparisons, stats.Groups, cache.Decodes(), time.Since(start).Round(time.Millisecond))
	return manifest, stats, nil
}

// RunMaterialize re-reads the persisted manifest and renders every group.
func (o *Orchestrator) RunMaterialize(ctx context.Context) ([]string, error) {
	manifest, err := o.storage.LoadManifest(ctx)
	if err != nil {
		return nil, err
	}
	cache, err := imaging.NewCache(o.opts.CacheSize)
	if err != nil {
		return nil, err
	}

	written, err := NewMaterializer(cache, o.storage, o.logger, o.opts.Verbose).Run(ctx, manifest)
	o.logger.Printf("Materialized %d/%d groups", len(written), len(manifest))
	return written, err
}

// Run executes export, grouping and materialization in order.
func (o *Orchestrator) Run(ctx context.Context, documents []string) error {
	if _, err := o.RunExport(ctx, documents); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, _, err := o.RunGrouping(ctx); err != nil {
		return fmt.Errorf("grouping: %w", err)
	}
	if _, err := o.RunMaterialize(ctx); err != nil {
		return fmt.Errorf("materialize: %w", err)
	}
	return nil
}

// MissingFonts reads the error log written by the last export.
func (o *Orchestrator) MissingFonts() ([]string, error) {
	return MissingFontsFromFile(o.storage.ErrorLogPath())
}
