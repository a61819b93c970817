// Package docpipe extracts page-tagged text lines from equipment usage
// report files.
//
// Supported formats:
//   - .pdf  — paginated reports (pdfcpu content-stream extraction)
//   - .txt  — plain-text report dumps (treated as a single page)
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{})
//	doc, err := pipe.Extract(ctx, "Equipment Usage Report.pdf")
//	for _, page := range doc.Pages { ... }
//
// Extraction is line-preserving: record recognition downstream depends on one
// report row per text line, so whitespace is normalised within a line but
// line breaks are kept.
package docpipe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Pipeline is the report text extraction engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Detect returns the document format based on file extension.
func (p *Pipeline) Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".txt", ".text":
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("unsupported report format: %q", ext)
	}
}

// Extract parses a report file and returns its page-tagged lines.
// A file that cannot be opened or read as a valid container is an error;
// individual pages without extractable text are skipped with a diagnostic.
func (p *Pipeline) Extract(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}

	format, err := p.Detect(path)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("extracting report", "path", path, "format", format, "size_bytes", info.Size())

	doc := &Document{Path: path, Format: format}
	switch format {
	case FormatPDF:
		err = p.extractPDF(path, doc)
	case FormatTXT:
		err = p.extractText(path, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s (%s): %w", path, format, err)
	}

	p.logger.Info("report extracted",
		"path", path,
		"pages", doc.PageCount,
		"skipped_pages", doc.SkippedPages,
		"lines", doc.LineCount())

	return doc, nil
}

// splitLines breaks raw page text into trimmed, non-empty lines with
// intra-line whitespace runs collapsed to single spaces.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
