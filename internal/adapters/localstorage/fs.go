package localstorage

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"sketchdataset/internal/core/domain"
	"sketchdataset/internal/core/ports"
)

// ManifestFile is the name of the group manifest inside the sim directory.
const ManifestFile = "sim_groups.json"

var _ ports.Storage = (*LocalStorage)(nil)

// LocalStorage implements ports.Storage for the local filesystem.
type LocalStorage struct {
	OutputDir string // <output_root>/<stem>/<artboard>.png
	SimDir    string // manifest and composites
	ErrorLog  string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(outputDir, simDir, errorLog string) *LocalStorage {
	return &LocalStorage{OutputDir: outputDir, SimDir: simDir, ErrorLog: errorLog}
}

// Init creates the output and sim directories.
func (s *LocalStorage) Init(ctx context.Context) error {
	for _, dir := range []string{s.OutputDir, s.SimDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DocumentDir creates the per-document export directory.
func (s *LocalStorage) DocumentDir(ctx context.Context, stem string) (string, error) {
	path := filepath.Join(s.OutputDir, stem)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create document directory %s: %w", path, err)
	}
	return path, nil
}

// ListArtboardImages returns every file one level below a document directory.
// The order is lexical by path so repeated runs see the same input order.
func (s *LocalStorage) ListArtboardImages(ctx context.Context) ([]string, error) {
	docs, err := os.ReadDir(s.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory %s: %w", s.OutputDir, err)
	}

	var paths []string
	for _, doc := range docs {
		if !doc.IsDir() || strings.HasPrefix(doc.Name(), ".") {
			continue
		}
		dir := filepath.Join(s.OutputDir, doc.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read document directory %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// SaveErrorLog writes the diagnostic lines to the error log.
func (s *LocalStorage) SaveErrorLog(ctx context.Context, lines []string) error {
	if dir := filepath.Dir(s.ErrorLog); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create error log directory: %w", err)
		}
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(s.ErrorLog, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to save error log %s: %w", s.ErrorLog, err)
	}
	return nil
}

// ErrorLogPath returns the error log location.
func (s *LocalStorage) ErrorLogPath() string {
	return s.ErrorLog
}

// SaveManifest writes the manifest as an array of arrays of paths.
func (s *LocalStorage) SaveManifest(ctx context.Context, m domain.Manifest) error {
	if m == nil {
		m = domain.Manifest{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.MkdirAll(s.SimDir, 0755); err != nil {
		return fmt.Errorf("failed to create sim directory %s: %w", s.SimDir, err)
	}
	if err := os.WriteFile(s.ManifestPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", ManifestFile, err)
	}
	return nil
}

// LoadManifest reads the manifest written by SaveManifest.
func (s *LocalStorage) LoadManifest(ctx context.Context) (domain.Manifest, error) {
	data, err := os.ReadFile(s.ManifestPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ManifestFile, err)
	}
	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}
	return m, nil
}

// ManifestPath returns the manifest location.
func (s *LocalStorage) ManifestPath() string {
	return filepath.Join(s.SimDir, ManifestFile)
}

// SaveComposite encodes img as <sim_dir>/<index>.png.
func (s *LocalStorage) SaveComposite(ctx context.Context, index int, img image.Image) (string, error) {
	path := filepath.Join(s.SimDir, strconv.Itoa(index)+".png")

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create composite %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("failed to write composite %s: %w", path, err)
	}
	return path, nil
}
