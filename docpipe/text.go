package docpipe

import "os"

// extractText reads a plain-text report dump. Plain text carries no page
// structure, so the whole file is treated as page 1.
func (p *Pipeline) extractText(path string, doc *Document) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc.PageCount = 1
	lines := splitLines(string(data))
	if len(lines) == 0 {
		doc.SkippedPages = 1
		p.logger.Warn("text report is empty, skipping", "path", path)
		return nil
	}

	doc.Pages = append(doc.Pages, Page{Number: 1, Lines: lines})
	return nil
}
