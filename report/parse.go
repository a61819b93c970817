package report

import (
	"errors"
	"log/slog"

	"github.com/ddoherty145/OPP-Equipment-Tracker/docpipe"
)

// EquipmentUsage groups one section's usage logs under its equipment entity.
type EquipmentUsage struct {
	EquipmentID string
	Name        string
	Logs        []UsageLog
}

// Stats are the per-run recognition and validation counters. Row-level
// rejections surface here instead of failing the batch.
type Stats struct {
	Pages        int
	SkippedPages int
	Sections     int
	Rows         int // data rows recognized (before validation)
	Orphans      int // data rows with no open section
	BadDates     int
	BadNumbers   int
}

// Rejected is the total number of rows dropped for row-level reasons.
func (s Stats) Rejected() int { return s.Orphans + s.BadDates + s.BadNumbers }

// Extraction is the full in-memory result of parsing one report document.
type Extraction struct {
	Equipment []*EquipmentUsage
	Stats     Stats
}

// Empty reports whether the document produced no equipment sections at all.
func (e *Extraction) Empty() bool { return len(e.Equipment) == 0 }

// TotalLogs returns the number of validated usage logs across all sections.
func (e *Extraction) TotalLogs() int {
	n := 0
	for _, eq := range e.Equipment {
		n += len(eq.Logs)
	}
	return n
}

// Parser walks an extracted document and builds the in-memory record set.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse classifies every line of the document in order. Section context is
// stateful: a data row belongs to the most recently opened section, and a row
// seen before any section is an orphan (dropped, counted). The walk is
// strictly sequential; parallelizing it would lose section boundaries.
func (p *Parser) Parse(doc *docpipe.Document) *Extraction {
	ex := &Extraction{}
	ex.Stats.Pages = doc.PageCount
	ex.Stats.SkippedPages = doc.SkippedPages

	var current *EquipmentUsage

	for _, page := range doc.Pages {
		for _, text := range page.Lines {
			line := Recognize(text)
			switch line.Kind {
			case KindSectionHeader:
				current = &EquipmentUsage{
					EquipmentID: line.Header.EquipmentID,
					Name:        line.Header.Name,
				}
				ex.Equipment = append(ex.Equipment, current)
				ex.Stats.Sections++
				p.logger.Info("found equipment section",
					"equipment_id", current.EquipmentID,
					"name", current.Name,
					"page", page.Number)

			case KindDataRow:
				ex.Stats.Rows++
				if current == nil {
					ex.Stats.Orphans++
					p.logger.Warn("data row before any section, dropping",
						"page", page.Number, "line", text)
					continue
				}

				log, err := NormalizeRow(line.Row)
				if err != nil {
					switch {
					case errors.Is(err, ErrInvalidDate):
						ex.Stats.BadDates++
					case errors.Is(err, ErrInvalidNumber):
						ex.Stats.BadNumbers++
					}
					p.logger.Warn("rejecting malformed data row",
						"page", page.Number, "error", err)
					continue
				}
				current.Logs = append(current.Logs, log)
			}
		}
	}

	p.logger.Info("report parsed",
		"sections", ex.Stats.Sections,
		"logs", ex.TotalLogs(),
		"rejected", ex.Stats.Rejected())

	return ex
}
