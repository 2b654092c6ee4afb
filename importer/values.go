package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/staffplan/position"
)

// dateLayouts are tried in order. Single-digit layouts also accept two
// digits, so "1/2/2006" covers both M/d/yyyy and MM/dd/yyyy.
var dateLayouts = []struct {
	layout       string
	twoDigitYear bool
}{
	{"2006-01-02", false},
	{"2.1.2006", false},
	{"1/2/2006", false},
	{"1/2/06", true},
	{"1-2-06", true}, // spreadsheet default short date
}

// ParseDate parses the date formats found in staff-plan exports. Blank
// input yields nil. Two-digit years 00-30 are 20xx, 31-99 are 19xx.
func ParseDate(s string) (*position.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		if l.twoDigitYear {
			t = t.AddDate(pivotYear(t.Year())-t.Year(), 0, 0)
		}
		d := position.DateOf(t)
		return &d, nil
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}

func pivotYear(year int) int {
	yy := year % 100
	if yy <= 30 {
		return 2000 + yy
	}
	return 1900 + yy
}

// ParseDecimal accepts "62.5", "62,5", "1.234,56", "1,234.56" and "50 %".
// Blank input yields a null decimal.
func ParseDecimal(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.NullDecimal{}, nil
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		// 1.234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid number %q", s)
	}
	return decimal.NewNullDecimal(d), nil
}
