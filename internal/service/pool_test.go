package service

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"sketchdataset/internal/core/domain"
)

func TestExporter_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("exports artboards from every page", func(t *testing.T) {
		storage := newTestStorage(t)
		source := newFakeSource(map[string]fakeDoc{
			"/in/app.sketch": {pages: []domain.Page{page("A1", "A2"), page(), page("A3")}},
		})
		exporter := NewExporter(source, storage, discardLogger(), true)

		res := exporter.Export(ctx, "/in/app.sketch")

		require.NoError(t, res.Err)
		assert.True(t, res.Success())
		assert.Equal(t, map[string]bool{"A1": true, "A2": true, "A3": true}, res.Items)
		assert.Equal(t, filepath.Join(storage.OutputDir, "app"), res.Job.OutputDir)
		assert.NotEmpty(t, res.Job.ID)
		assert.DirExists(t, res.Job.OutputDir)
	})

	t.Run("document without artboards skips export", func(t *testing.T) {
		storage := newTestStorage(t)
		source := newFakeSource(map[string]fakeDoc{"/in/empty.sketch": {}})

		res := NewExporter(source, storage, discardLogger(), false).Export(ctx, "/in/empty.sketch")

		assert.True(t, res.Success())
		assert.Equal(t, 0, source.exportCount("/in/empty.sketch"))
	})

	t.Run("listing failure is captured, not raised", func(t *testing.T) {
		storage := newTestStorage(t)
		source := newFakeSource(map[string]fakeDoc{"/in/bad.sketch": {listErr: errBoom}})

		res := NewExporter(source, storage, discardLogger(), false).Export(ctx, "/in/bad.sketch")

		assert.ErrorIs(t, res.Err, domain.ErrExportFailed)
		assert.ErrorIs(t, res.Err, errBoom)
		assert.Contains(t, res.Diagnostics, "boom")
		assert.False(t, res.Success())
	})

	t.Run("export failure keeps the tool's stderr", func(t *testing.T) {
		storage := newTestStorage(t)
		source := newFakeSource(map[string]fakeDoc{
			"/in/app.sketch": {pages: []domain.Page{page("A1")}, stderr: "fatal: cannot open\n", exportErr: errBoom},
		})

		res := NewExporter(source, storage, discardLogger(), false).Export(ctx, "/in/app.sketch")

		assert.ErrorIs(t, res.Err, domain.ErrExportFailed)
		assert.Equal(t, "fatal: cannot open\n", res.Diagnostics)
	})
}

func TestExportPool_DrainsQueue(t *testing.T) {
	storage := newTestStorage(t)
	docs := map[string]fakeDoc{}
	var paths []string
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("/in/doc%02d.sketch", i)
		docs[path] = fakeDoc{pages: []domain.Page{page("A")}}
		paths = append(paths, path)
	}
	source := newFakeSource(docs)

	var mu sync.Mutex
	var progress []int
	pool := NewExportPool(NewExporter(source, storage, discardLogger(), false), storage, discardLogger(), PoolOptions{
		Workers: 3,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 20, total)
			progress = append(progress, done)
		},
	})

	summary, err := pool.Run(context.Background(), paths)

	require.NoError(t, err)
	assert.Equal(t, 20, summary.Total)
	assert.Equal(t, 0, summary.Failed)
	assert.NotEmpty(t, summary.RunID)
	for _, path := range paths {
		assert.Equal(t, 1, source.exportCount(path), "%s must be exported exactly once", path)
	}
	require.Len(t, progress, 20)
	assert.True(t, sort.IntsAreSorted(progress))
	assert.Equal(t, 20, progress[19])
}

func TestExportPool_FailuresDoNotStopBatch(t *testing.T) {
	storage := newTestStorage(t)
	font := `2024-01-01 sketchtool[1:2] Client requested name "Helvetica Neue", got "Helvetica"`
	source := newFakeSource(map[string]fakeDoc{
		"/in/panic.sketch": {panics: true},
		"/in/list.sketch":  {listErr: errBoom},
		"/in/a.sketch":     {pages: []domain.Page{page("A")}, stderr: font + "\n"},
		"/in/b.sketch":     {pages: []domain.Page{page("B")}, stderr: "\n" + font + "\nother warning\n\n"},
		"/in/c.sketch":     {pages: []domain.Page{page("C")}},
	})
	// One worker makes the panicking job run first and forces the rest to
	// go through the same goroutine.
	paths := []string{"/in/panic.sketch", "/in/list.sketch", "/in/a.sketch", "/in/b.sketch", "/in/c.sketch"}
	pool := NewExportPool(NewExporter(source, storage, discardLogger(), false), storage, discardLogger(), PoolOptions{Workers: 1})

	summary, err := pool.Run(context.Background(), paths)

	require.NoError(t, err)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 2, summary.Failed)
	for _, path := range []string{"/in/a.sketch", "/in/b.sketch", "/in/c.sketch"} {
		assert.Equal(t, 1, source.exportCount(path))
	}

	raw, err := os.ReadFile(storage.ErrorLogPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	assert.Equal(t, summary.DiagnosticLines, lines)
	assert.Len(t, lines, 4)
	assert.True(t, sort.StringsAreSorted(lines))
	assert.Contains(t, lines, font)
	assert.Contains(t, lines, "other warning")

	fonts, err := MissingFontsFromFile(storage.ErrorLogPath())
	require.NoError(t, err)
	assert.Equal(t, []string{"Helvetica Neue"}, fonts)
}

func TestExportPool_ReexportIsIdempotent(t *testing.T) {
	storage := newTestStorage(t)
	source := newFakeSource(map[string]fakeDoc{
		"/in/app.sketch": {
			pages: []domain.Page{page("A1", "A2")},
			images: map[string]image.Image{
				"A1": solidImage(2, 2, color.NRGBA{R: 255, A: 255}),
				"A2": solidImage(2, 2, color.NRGBA{B: 255, A: 255}),
			},
		},
	})
	pool := NewExportPool(NewExporter(source, storage, discardLogger(), false), storage, discardLogger(), PoolOptions{})

	for i := 0; i < 2; i++ {
		_, err := pool.Run(context.Background(), []string{"/in/app.sketch"})
		require.NoError(t, err)
	}

	images, err := storage.ListArtboardImages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(storage.OutputDir, "app", "A1.png"),
		filepath.Join(storage.OutputDir, "app", "A2.png"),
	}, images)
	entries, err := os.ReadDir(storage.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportPool_LimiterCancelled(t *testing.T) {
	storage := newTestStorage(t)
	source := newFakeSource(map[string]fakeDoc{"/in/a.sketch": {pages: []domain.Page{page("A")}}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool := NewExportPool(NewExporter(source, storage, discardLogger(), false), storage, discardLogger(), PoolOptions{
		Workers: 2,
		Limiter: rate.NewLimiter(rate.Limit(1), 1),
	})

	summary, err := pool.Run(ctx, []string{"/in/a.sketch"})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, source.exportCount("/in/a.sketch"))
}

func TestDiagnosticLines(t *testing.T) {
	assert.Nil(t, diagnosticLines("  \n\t"))
	assert.Equal(t, []string{"a", "b"}, diagnosticLines("\na\r\n\nb\n"))
}
