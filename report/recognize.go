// Package report recognizes and normalizes equipment usage records inside
// extracted report text.
//
// Report layouts vary in column spacing and surrounding decoration across
// export runs, so recognition is ordered-token search within each line, not
// fixed-column parsing. The token shapes are a fixed external contract:
//
//	Equipment: 10125-DL - Int'l 2275 Dump Truck        (section header)
//	01/15/2024   8.50   120.00   450.00                (data row)
package report

import (
	"regexp"
	"strings"
)

// Kind classifies one line of report text.
type Kind int

const (
	// KindNoise is anything that is neither a section header nor a data row.
	KindNoise Kind = iota
	// KindSectionHeader opens a new equipment section.
	KindSectionHeader
	// KindDataRow is one dated usage entry in the current section.
	KindDataRow
)

// SectionHeader introduces a new equipment entity.
type SectionHeader struct {
	EquipmentID string
	Name        string
}

// RawRow holds the captured tokens of a data row, before normalization.
type RawRow struct {
	Date    string
	Hours   string
	Cost    string
	Revenue string
}

// Line is the tagged result of recognizing one line of report text.
type Line struct {
	Kind   Kind
	Header SectionHeader // valid when Kind == KindSectionHeader
	Row    RawRow        // valid when Kind == KindDataRow
}

var (
	// headerRe matches section headers: a label, an alphanumeric-with-hyphen
	// identifier, a dash separator, and a trailing display name.
	headerRe = regexp.MustCompile(`Equipment:\s+([\w\d-]+)\s+-\s+(.+)`)

	// rowRe matches data rows: a date, an hours token, a cost token and a
	// revenue token in order, with arbitrary text in between.
	rowRe = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4}).*?(\d+\.\d{2}).*?([\d,]+\.\d{2}).*?([\d,]+\.\d{2})`)
)

// Recognize classifies a single line of report text. Header recognition wins
// over row recognition; anything matching neither is Noise. Recognize never
// fails: malformed input is simply Noise.
func Recognize(text string) Line {
	if m := headerRe.FindStringSubmatch(text); m != nil {
		return Line{
			Kind: KindSectionHeader,
			Header: SectionHeader{
				EquipmentID: strings.TrimSpace(m[1]),
				Name:        trimSecondaryClause(strings.TrimSpace(m[2])),
			},
		}
	}

	if m := rowRe.FindStringSubmatch(text); m != nil {
		return Line{
			Kind: KindDataRow,
			Row: RawRow{
				Date:    m[1],
				Hours:   m[2],
				Cost:    m[3],
				Revenue: m[4],
			},
		}
	}

	return Line{Kind: KindNoise}
}

// trimSecondaryClause cuts a header name at the first standalone dash, so a
// line carrying a second dash-delimited clause ("... Dump Truck - Site B")
// keeps only the name. Embedded hyphens ("Int'l", "semi-trailer") survive
// because the delimiter must be surrounded by spaces.
func trimSecondaryClause(name string) string {
	if idx := strings.Index(name, " - "); idx >= 0 {
		name = strings.TrimSpace(name[:idx])
	}
	return name
}
