package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// YearMonth is a calendar month used by the month filter.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses "YYYY-MM"; a single-digit month is accepted.
func ParseYearMonth(s string) (YearMonth, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

// String renders the month as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Title renders the month as "August 2025".
func (ym YearMonth) Title() string {
	return fmt.Sprintf("%s %d", ym.Month, ym.Year)
}

// fallbackLayouts are tried when a date has no dash separators.
var fallbackLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"01/02/2006",
	"1/2/2006",
	"2006/1/2",
	"20060102",
	time.RFC1123,
	time.RFC1123Z,
}

// RecordMonth derives the year and month of a record date.
// Dashed dates (2025-08-25, 2025-8-25, RFC 3339) are split directly; anything
// else goes through a list of common layouts. ok is false when neither works.
func RecordMonth(date string) (YearMonth, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return YearMonth{}, false
	}

	if strings.Contains(date, "-") {
		parts := strings.SplitN(date, "-", 3)
		if len(parts) < 2 {
			return YearMonth{}, false
		}
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return YearMonth{}, false
		}
		month, err := strconv.Atoi(leadingDigits(parts[1]))
		if err != nil || month < 1 || month > 12 {
			return YearMonth{}, false
		}
		return YearMonth{Year: year, Month: time.Month(month)}, true
	}

	normalized := normalizeMonthName(date)
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return YearMonth{Year: t.Year(), Month: t.Month()}, true
		}
	}
	return YearMonth{}, false
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// normalizeMonthName turns "Sept. 5, 2025" into "Sep 5, 2025".
func normalizeMonthName(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	return strings.Replace(s, "Sept ", "Sep ", 1)
}
