package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"

	"sketchdataset/internal/core/domain"
	"sketchdataset/internal/core/ports"
	"sketchdataset/internal/imaging"
)

// Materializer renders each manifest group as one horizontal strip for review.
type Materializer struct {
	images  ports.ImageLoader
	storage ports.Storage
	logger  *log.Logger
	verbose bool
}

// NewMaterializer creates a new Materializer.
func NewMaterializer(images ports.ImageLoader, storage ports.Storage, logger *log.Logger, verbose bool) *Materializer {
	return &Materializer{images: images, storage: storage, logger: logger, verbose: verbose}
}

// Run writes <sim_dir>/<index>.png for every group and returns the written
// paths. A member that cannot be decoded aborts the run; write failures are
// collected and returned together after the remaining groups are written.
func (m *Materializer) Run(ctx context.Context, manifest domain.Manifest) ([]string, error) {
	var written []string
	var errs []error
	for idx, group := range manifest {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if len(group) == 0 {
			return written, fmt.Errorf("group %d: %w", idx, domain.ErrEmptyGroup)
		}

		members := make([]*imaging.Raster, 0, len(group))
		for _, path := range group {
			img, err := m.images.Get(path)
			if err != nil {
				return written, fmt.Errorf("group %d: %w", idx, err)
			}
			members = append(members, img)
		}

		path, err := m.storage.SaveComposite(ctx, idx, imaging.Strip(members))
		if err != nil {
			errs = append(errs, fmt.Errorf("group %d: %w", idx, err))
			continue
		}
		written = append(written, path)
		if m.verbose {
			m.logger.Printf("Wrote %s (%d members, %s)", path, len(group), fileSize(path))
		}
	}
	return written, errors.Join(errs...)
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "size unknown"
	}
	return humanize.Bytes(uint64(info.Size()))
}
