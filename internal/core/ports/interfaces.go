package ports

import (
	"context"
	"image"

	"sketchdataset/internal/core/domain"
	"sketchdataset/internal/imaging"
)

// ExportOutput holds what the export capability reports for one call.
type ExportOutput struct {
	Items  map[string]bool // artboard id -> exported
	Stderr string          // diagnostic text, kept verbatim
}

// ArtboardSource defines the contract for the external listing/export tool.
type ArtboardSource interface {
	// ListArtboards returns the artboards of a document grouped by page.
	ListArtboards(ctx context.Context, documentPath string) ([]domain.Page, error)

	// ExportArtboards writes the given artboards of a document into outputDir.
	// The returned output may be non-nil even when err is set.
	ExportArtboards(ctx context.Context, documentPath, outputDir string, ids []string, overwrite bool) (*ExportOutput, error)
}

// Storage defines the contract for the on-disk dataset layout.
type Storage interface {
	// DocumentDir creates (if absent) and returns <output_root>/<stem>.
	DocumentDir(ctx context.Context, stem string) (string, error)

	// ListArtboardImages returns every <output_root>/<stem>/<file>, sorted.
	ListArtboardImages(ctx context.Context) ([]string, error)

	// SaveErrorLog writes one diagnostic line per line.
	SaveErrorLog(ctx context.Context, lines []string) error

	// SaveManifest persists the group manifest.
	SaveManifest(ctx context.Context, m domain.Manifest) error

	// LoadManifest reads back the persisted manifest.
	LoadManifest(ctx context.Context) (domain.Manifest, error)

	// SaveComposite writes <sim_dir>/<index>.png and returns its path.
	SaveComposite(ctx context.Context, index int, img image.Image) (string, error)

	// ErrorLogPath returns where SaveErrorLog writes.
	ErrorLogPath() string
}

// ImageLoader returns decoded rasters by path.
type ImageLoader interface {
	Get(path string) (*imaging.Raster, error)
}
