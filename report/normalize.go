package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row-level rejection reasons. These never abort a batch: the parser counts
// them and moves on.
var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidNumber = errors.New("invalid number")
)

// UsageLog is one validated, typed usage entry.
type UsageLog struct {
	Date    string // ISO YYYY-MM-DD
	Hours   decimal.Decimal
	Cost    decimal.Decimal
	Revenue decimal.Decimal
	Profit  decimal.Decimal // always Revenue - Cost, never source-supplied
}

// NormalizeRow converts captured row tokens into a typed UsageLog.
// The date must be a real MM/DD/YYYY calendar date; numeric tokens may carry
// thousands separators. Profit is computed here.
func NormalizeRow(raw RawRow) (UsageLog, error) {
	date, err := normalizeDate(raw.Date)
	if err != nil {
		return UsageLog{}, err
	}

	hours, err := parseDecimal(raw.Hours)
	if err != nil {
		return UsageLog{}, fmt.Errorf("hours: %w", err)
	}
	cost, err := parseDecimal(raw.Cost)
	if err != nil {
		return UsageLog{}, fmt.Errorf("cost: %w", err)
	}
	revenue, err := parseDecimal(raw.Revenue)
	if err != nil {
		return UsageLog{}, fmt.Errorf("revenue: %w", err)
	}

	return UsageLog{
		Date:    date,
		Hours:   hours,
		Cost:    cost,
		Revenue: revenue,
		Profit:  revenue.Sub(cost),
	}, nil
}

// normalizeDate converts MM/DD/YYYY to ISO YYYY-MM-DD, rejecting anything
// that is not a real calendar date (13/45/2024 fails here, not in storage).
func normalizeDate(s string) (string, error) {
	t, err := time.Parse("1/2/2006", strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t.Format("2006-01-02"), nil
}

// parseDecimal strips thousands separators and parses a decimal token.
func parseDecimal(s string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return d, nil
}
