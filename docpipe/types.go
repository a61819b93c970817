package docpipe

// Format identifies a report document type.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatTXT Format = "txt"
)

// Page is one page of extracted report text, split into lines.
type Page struct {
	Number int      `json:"number"`
	Lines  []string `json:"lines"`
}

// Document is the result of extracting a report file: an ordered sequence of
// page-tagged text lines. Pages that yielded no text are absent from Pages
// and counted in SkippedPages.
type Document struct {
	Path         string `json:"path"`
	Format       Format `json:"format"`
	PageCount    int    `json:"page_count"`
	SkippedPages int    `json:"skipped_pages"`
	Pages        []Page `json:"pages"`
}

// LineCount returns the total number of extracted lines across all pages.
func (d *Document) LineCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	return n
}
