package sketchtool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"sketchdataset/internal/core/domain"
	"sketchdataset/internal/core/ports"
)

// DefaultPath is where Sketch.app ships the sketchtool binary.
const DefaultPath = "/Applications/Sketch.app/Contents/MacOS/sketchtool"

var _ ports.ArtboardSource = (*Client)(nil)

// runFunc executes a command and returns its stdout and stderr.
type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Client uses the local sketchtool binary to list and export artboards.
type Client struct {
	binaryPath string
	run        runFunc
}

// NewClient creates a new client. An empty binaryPath falls back to the
// Sketch.app bundle if present, else "sketchtool" on PATH.
func NewClient(binaryPath string) *Client {
	if binaryPath == "" {
		binaryPath = "sketchtool"
		if _, err := os.Stat(DefaultPath); err == nil {
			binaryPath = DefaultPath
		}
	}
	return &Client{binaryPath: binaryPath, run: execRun}
}

// BinaryPath returns the sketchtool binary this client invokes.
func (c *Client) BinaryPath() string {
	return c.binaryPath
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	err := cmd.Run()
	return out.Bytes(), stderr.Bytes(), err
}

type listing struct {
	Pages []domain.Page `json:"pages"`
}

// ListArtboards runs `sketchtool list artboards` and parses its JSON output.
func (c *Client) ListArtboards(ctx context.Context, documentPath string) ([]domain.Page, error) {
	out, stderr, err := c.run(ctx, c.binaryPath, "list", "artboards", documentPath)
	if err != nil {
		return nil, fmt.Errorf("sketchtool list failed: %w, stderr: %s", err, strings.TrimSpace(string(stderr)))
	}

	var l listing
	if err := json.Unmarshal(out, &l); err != nil {
		return nil, fmt.Errorf("failed to parse artboard listing for %s: %w", documentPath, err)
	}
	return l.Pages, nil
}

// ExportArtboards runs `sketchtool export artboards` for the given ids.
// Files are named by artboard id, so an id is reported exported iff
// sketchtool printed "Exported <id>.png". Stderr is returned verbatim.
func (c *Client) ExportArtboards(
	ctx context.Context,
	documentPath, outputDir string,
	ids []string,
	overwrite bool,
) (*ports.ExportOutput, error) {
	args := []string{
		"export", "artboards", documentPath,
		"--output=" + outputDir,
		"--items=" + strings.Join(ids, ","),
		"--formats=png",
		"--use-id-for-name=YES",
		"--overwriting=" + yesNo(overwrite),
	}
	out, stderr, err := c.run(ctx, c.binaryPath, args...)

	result := &ports.ExportOutput{
		Items:  parseExported(out, ids),
		Stderr: string(stderr),
	}
	if err != nil {
		if strings.TrimSpace(result.Stderr) == "" {
			result.Stderr = fmt.Sprintf("sketchtool export failed for %s: %v", documentPath, err)
		}
		return result, fmt.Errorf("sketchtool export failed: %w", err)
	}
	return result, nil
}

func parseExported(stdout []byte, ids []string) map[string]bool {
	exported := make(map[string]bool)
	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimSpace(line)
		name, ok := strings.CutPrefix(line, "Exported ")
		if !ok {
			continue
		}
		base := filepath.Base(name)
		exported[strings.TrimSuffix(base, filepath.Ext(base))] = true
	}

	items := make(map[string]bool, len(ids))
	for _, id := range ids {
		items[id] = exported[id]
	}
	return items
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
