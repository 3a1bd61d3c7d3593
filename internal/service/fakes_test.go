package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sketchdataset/internal/adapters/localstorage"
	"sketchdataset/internal/core/domain"
	"sketchdataset/internal/core/ports"
	"sketchdataset/internal/imaging"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestStorage(t *testing.T) *localstorage.LocalStorage {
	t.Helper()
	root := t.TempDir()
	s := localstorage.NewLocalStorage(
		filepath.Join(root, "output"),
		filepath.Join(root, "sim"),
		filepath.Join(root, "error.txt"),
	)
	require.NoError(t, s.Init(context.Background()))
	return s
}

// fakeDoc scripts what fakeSource does for one document.
type fakeDoc struct {
	pages     []domain.Page
	listErr   error
	stderr    string
	exportErr error
	panics    bool
	// images is written as <id>.png on export, keyed by artboard id.
	images map[string]image.Image
}

type fakeSource struct {
	mu      sync.Mutex
	docs    map[string]fakeDoc
	exports map[string]int
}

var _ ports.ArtboardSource = (*fakeSource)(nil)

func newFakeSource(docs map[string]fakeDoc) *fakeSource {
	return &fakeSource{docs: docs, exports: map[string]int{}}
}

func (f *fakeSource) doc(path string) (fakeDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[path]
	if !ok {
		return fakeDoc{}, fmt.Errorf("unknown document %s", path)
	}
	return d, nil
}

func (f *fakeSource) ListArtboards(_ context.Context, path string) ([]domain.Page, error) {
	d, err := f.doc(path)
	if err != nil {
		return nil, err
	}
	if d.panics {
		panic("listing exploded")
	}
	return d.pages, d.listErr
}

func (f *fakeSource) ExportArtboards(_ context.Context, path, dir string, ids []string, _ bool) (*ports.ExportOutput, error) {
	d, err := f.doc(path)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.exports[path]++
	f.mu.Unlock()

	items := make(map[string]bool, len(ids))
	for _, id := range ids {
		if img, ok := d.images[id]; ok {
			file, err := os.Create(filepath.Join(dir, id+".png"))
			if err != nil {
				return nil, err
			}
			err = png.Encode(file, img)
			file.Close()
			if err != nil {
				return nil, err
			}
			items[id] = true
		} else {
			items[id] = d.exportErr == nil
		}
	}
	return &ports.ExportOutput{Items: items, Stderr: d.stderr}, d.exportErr
}

func (f *fakeSource) exportCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exports[path]
}

func page(ids ...string) domain.Page {
	p := domain.Page{ID: "page", Name: "Page 1"}
	for _, id := range ids {
		p.Artboards = append(p.Artboards, domain.Artboard{ID: id, Name: "Artboard " + id})
	}
	return p
}

// fakeLoader serves rasters from memory and records every Get.
type fakeLoader struct {
	images map[string]*imaging.Raster
	gets   []string
}

func (l *fakeLoader) Get(path string) (*imaging.Raster, error) {
	l.gets = append(l.gets, path)
	r, ok := l.images[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDecode, path)
	}
	return r, nil
}

func grey(w, h int, v uint8) *imaging.Raster {
	r := &imaging.Raster{Width: w, Height: h, Channels: 1, Pix: make([]uint8, w*h)}
	for i := range r.Pix {
		r.Pix[i] = v
	}
	return r
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var errBoom = errors.New("boom")
