package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Document is the path of a source .sketch file.
type Document string

// Stem returns the document's base name without its extension.
func (d Document) Stem() string {
	base := filepath.Base(string(d))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Page is a page of a document as reported by the artboard listing.
type Page struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Artboards []Artboard `json:"artboards"`
}

// Artboard is a single exportable canvas inside a page.
type Artboard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExportJob exports every artboard of one document.
type ExportJob struct {
	ID           string `json:"job_id"`
	DocumentPath string `json:"document"`
	OutputDir    string `json:"output_dir"` // <output_root>/<stem>
}

// ExportResult holds the outcome of a completed export job.
type ExportResult struct {
	Job ExportJob
	// Items maps artboard id to whether its image was written.
	Items       map[string]bool
	Diagnostics string
	Err         error
	CompletedAt time.Time
}

// Success reports whether the job finished without an error and every item exported.
func (r *ExportResult) Success() bool {
	if r.Err != nil {
		return false
	}
	for _, ok := range r.Items {
		if !ok {
			return false
		}
	}
	return true
}

// ExportSummary is returned once the worker pool has drained the job queue.
type ExportSummary struct {
	RunID           string
	Total           int
	Failed          int
	DiagnosticLines []string
	ErrorLogPath    string
}

// Size is the exact pixel size of an image.
type Size struct {
	Width  int
	Height int
}

// SizeBucket holds the image paths sharing one exact size, in input order.
type SizeBucket struct {
	Size  Size
	Paths []string
}

// Group is an ordered list of image paths judged similar. The first member
// is the representative every later candidate was compared against.
type Group []string

// Manifest is the persisted collection of duplicate groups.
type Manifest []Group

// GroupingStats summarises one grouping run.
type GroupingStats struct {
	Images      int
	Buckets     int
	Comparisons int
	Groups      int
}
