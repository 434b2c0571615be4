package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bsm-backend/internal/models"
)

// Two numeric coercion policies exist on purpose. The bulk import path treats
// a missing or unparseable financial figure as zero (NumericOrZero); the
// point-update path treats it as null (NumericOrNull). Unifying them would
// silently change aggregate results.

// NumericOrZero parses a currency/rate cell, returning zero on absence or
// parse failure.
func NumericOrZero(s string) decimal.Decimal {
	if d := NumericOrNull(s); d != nil {
		return *d
	}
	return decimal.Zero
}

// NumericOrNull parses a currency/rate value, returning nil on absence or
// parse failure. Thousands separators and a trailing percent sign are
// tolerated (rate columns are sometimes formatted as "1.5%").
func NumericOrNull(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006.01.02",
	"2006-01-02 15:04:05",
	"2006年01月02日",
	"2006年1月2日",
	"01-02-06", // excelize default short date format
	"1/2/06",
}

// DateOrNull parses a date cell with a tolerant set of layouts, falling back
// to Excel serial day numbers. Unparseable or absent values are null, never a
// zero time.
func DateOrNull(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t
		}
	}
	// Excel serial: days since 1899-12-30.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 59 && serial < 200000 {
		t := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(serial))
		return &t
	}
	return nil
}

// IntOrNull parses an integer cell (e.g. business year), tolerating a
// spreadsheet float rendering like "2023.0".
func IntOrNull(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		n := int(f)
		return &n
	}
	return nil
}

var falsyTokens = map[string]bool{
	"0": true, "0.0": true, "false": true, "no": true, "n": true, "否": true, "无": true,
}

// BoolOrNull coerces a qualification-tag cell. A blank cell is null
// (unknown); a falsy token is false; any other content is true, matching the
// source system's truthiness rule.
func BoolOrNull(s string) *bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v := !falsyTokens[strings.ToLower(s)]
	return &v
}

var loanStatusAliases = map[string]string{
	"未放款": models.LoanStatusNotDisbursed,
	"正常":  models.LoanStatusNormal,
	"结清":  models.LoanStatusSettled,
	"已结清": models.LoanStatusSettled,
}

// LoanStatus canonicalizes a loan status cell. Known source values map onto
// the canonical constants; anything else passes through trimmed, lowercased
// for the ASCII statuses.
func LoanStatus(s string) string {
	s = strings.TrimSpace(s)
	if canonical, ok := loanStatusAliases[s]; ok {
		return canonical
	}
	switch strings.ToLower(s) {
	case models.LoanStatusNormal, models.LoanStatusSettled, models.LoanStatusNotDisbursed:
		return strings.ToLower(s)
	}
	return s
}

// StringOrNull trims a text cell and returns nil for blank.
func StringOrNull(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
