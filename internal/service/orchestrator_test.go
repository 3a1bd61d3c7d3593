package service

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchdataset/internal/core/domain"
)

func TestOrchestrator_Run(t *testing.T) {
	storage := newTestStorage(t)

	red := solidImage(8, 8, color.NRGBA{R: 250, A: 255})
	nearRed := solidImage(8, 8, color.NRGBA{R: 240, G: 5, A: 255})
	blue := solidImage(8, 8, color.NRGBA{B: 250, A: 255})
	wide := solidImage(16, 8, color.NRGBA{R: 250, A: 255})

	source := newFakeSource(map[string]fakeDoc{
		"/in/first.sketch": {
			pages:  []domain.Page{page("login", "home")},
			images: map[string]image.Image{"login": red, "home": blue},
			stderr: `sketchtool Client requested name "SF Pro", but got "Helvetica"` + "\n",
		},
		"/in/second.sketch": {
			pages:  []domain.Page{page("login"), page("banner")},
			images: map[string]image.Image{"login": nearRed, "banner": wide},
		},
	})

	var progress []int
	o := NewOrchestrator(source, storage, discardLogger(), Options{
		Workers:  2,
		Progress: func(done, _ int) { progress = append(progress, done) },
	})

	require.NoError(t, o.Run(context.Background(), []string{"/in/first.sketch", "/in/second.sketch"}))

	assert.Equal(t, []int{1, 2}, progress)

	manifest, err := storage.LoadManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Manifest{{
		filepath.Join(storage.OutputDir, "first", "login.png"),
		filepath.Join(storage.OutputDir, "second", "login.png"),
	}}, manifest)

	assert.FileExists(t, filepath.Join(storage.SimDir, "0.png"))
	assert.NoFileExists(t, filepath.Join(storage.SimDir, "1.png"))

	fonts, err := o.MissingFonts()
	require.NoError(t, err)
	assert.Equal(t, []string{"SF Pro"}, fonts)
}

func TestOrchestrator_GroupingAbortsOnCorruptImage(t *testing.T) {
	storage := newTestStorage(t)
	dir, err := storage.DocumentDir(context.Background(), "doc")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not an image"), 0644))

	o := NewOrchestrator(newFakeSource(nil), storage, discardLogger(), Options{})
	_, _, err = o.RunGrouping(context.Background())

	assert.ErrorIs(t, err, domain.ErrDecode)
	assert.NoFileExists(t, storage.ManifestPath())
}

func TestOrchestrator_MaterializeWithoutManifest(t *testing.T) {
	o := NewOrchestrator(newFakeSource(nil), newTestStorage(t), discardLogger(), Options{})

	_, err := o.RunMaterialize(context.Background())

	assert.Error(t, err)
}
