package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/report"
)

type FileFormat string

const (
	FileFormatMarkdown FileFormat = "markdown"
	FileFormatHTML     FileFormat = "html"
)

// FileProcessor writes the run digest to a file, replacing earlier contents.
type FileProcessor struct {
	path   string
	format FileFormat
}

func NewFileProcessor(path string, format FileFormat) (*FileProcessor, error) {
	p := &FileProcessor{path: path, format: format}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *FileProcessor) Name() string {
	return string(p.format) + "_file"
}

func (p *FileProcessor) Validate() error {
	if p.path == "" {
		return fmt.Errorf("output path is required")
	}
	if p.format != FileFormatMarkdown && p.format != FileFormatHTML {
		return fmt.Errorf("unsupported output format %q", p.format)
	}
	return nil
}

func (p *FileProcessor) Deliver(ctx context.Context, run *core.Run) error {
	if run == nil {
		return fmt.Errorf("run is required")
	}
	content := report.Digest(run)
	if p.format == FileFormatHTML {
		html, err := report.RenderHTML(content)
		if err != nil {
			return err
		}
		content = html
	}

	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(p.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s output: %w", p.format, err)
	}
	core.LoggerFromContext(ctx).Info("digest written", "path", p.path, "format", string(p.format), "run_id", run.ID)
	return nil
}
