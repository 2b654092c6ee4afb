package position

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day (positions are planned in whole days)
// =============================================================================

// DateLayout is the ISO layout used on the wire and in storage.
const DateLayout = "2006-01-02"

// Date is a calendar day in UTC. The zero value is not a valid date.
type Date struct {
	Time time.Time
}

// Sentinels for unbounded assignment edges. A missing start date means
// "since forever", a missing end date means "until further notice".
var (
	MinDate = Date{Time: time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)}
	MaxDate = Date{Time: time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)}
)

// NewDate builds a day-granular date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current day in UTC.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate parses s or panics. Use in tests and fixtures only.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d.Time.IsZero() }

// AddDays shifts the date. The unbounded sentinels are sticky so that
// MaxDate.AddDays(1) never overflows into a real calendar day.
func (d Date) AddDays(n int) Date {
	if d.Equal(MaxDate) && n > 0 {
		return MaxDate
	}
	if d.Equal(MinDate) && n < 0 {
		return MinDate
	}
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of days from d to other (exclusive of other).
// Negative when other is before d.
// Unix seconds are used instead of time.Sub, which saturates after ~292 years.
func (d Date) DaysUntil(other Date) int64 {
	return (other.Time.Unix() - d.Time.Unix()) / 86400
}

func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for TEXT and DATETIME columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = DateOf(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// StartOrMin dereferences a nullable start date, treating nil as MinDate.
func StartOrMin(d *Date) Date {
	if d == nil {
		return MinDate
	}
	return *d
}

// EndOrMax dereferences a nullable end date, treating nil as MaxDate.
func EndOrMax(d *Date) Date {
	if d == nil {
		return MaxDate
	}
	return *d
}

// Later returns the later of two dates.
func Later(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// Earlier returns the earlier of two dates.
func Earlier(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}
