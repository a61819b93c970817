package docpipe

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF extracts text lines from a PDF file, one Page per non-empty
// source page. A page without extractable text is skipped with a warning.
func (p *Pipeline) extractPDF(path string, doc *Document) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return fmt.Errorf("pdfcpu read: %w", err)
	}

	doc.PageCount = pdfCtx.PageCount

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		lines := extractPageLines(pdfCtx, pageNr)
		if len(lines) == 0 {
			doc.SkippedPages++
			p.logger.Warn("page has no extractable text, skipping", "path", path, "page", pageNr)
			continue
		}
		doc.Pages = append(doc.Pages, Page{Number: pageNr, Lines: lines})
	}

	return nil
}

// extractPageLines extracts text lines from a single PDF page via its
// pdfcpu content stream.
func extractPageLines(ctx *model.Context, pageNr int) []string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil
	}
	return splitLines(textFromContentStream(data))
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream parses PDF content-stream operators for text.
// Show operators (Tj, TJ, ') contribute text; positioning operators
// (Td, TD, T*) end the current line. Report rows are laid out one per
// text line, so line boundaries must survive into the output.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	lineHasText := false

	newline := func() {
		if lineHasText {
			sb.WriteByte('\n')
			lineHasText = false
		}
	}
	show := func(op []byte) {
		for _, m := range pdfStringRe.FindAllSubmatch(op, -1) {
			text := decodePDFString(m[1])
			if text == "" {
				continue
			}
			if lineHasText {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
			lineHasText = true
		}
	}

	for _, op := range bytes.Split(data, []byte{'\n'}) {
		op = bytes.TrimSpace(op)
		if len(op) == 0 {
			continue
		}

		switch {
		// (text) Tj — show text on the current line.
		case bytes.HasSuffix(op, []byte("Tj")):
			show(op)

		// [(text) -100 (more)] TJ — show text with kerning.
		case bytes.HasSuffix(op, []byte("TJ")):
			show(op)

		// (text) ' — move to next line, then show.
		case bytes.HasSuffix(op, []byte("'")) && bytes.Contains(op, []byte("(")):
			newline()
			show(op)

		// x y Td / x y TD — text positioning, starts a new line.
		case bytes.HasSuffix(op, []byte("Td")), bytes.HasSuffix(op, []byte("TD")):
			newline()

		// T* — move to start of next line.
		case bytes.Equal(op, []byte("T*")):
			newline()
		}
	}

	return sb.String()
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}
