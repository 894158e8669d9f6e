// Package recurrence defines the recurrence rule model shared by tasks,
// the occurrence materializer and the editing surface.
package recurrence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Frequency is the base unit of a recurrence rule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Weekday is a two-letter weekday code as persisted on the wire.
type Weekday string

const (
	MO Weekday = "MO"
	TU Weekday = "TU"
	WE Weekday = "WE"
	TH Weekday = "TH"
	FR Weekday = "FR"
	SA Weekday = "SA"
	SU Weekday = "SU"
)

// weekOrder is the canonical weekday sequence. Weekday sets are always
// stored in this order, whatever order the user toggled them in.
var weekOrder = []Weekday{MO, TU, WE, TH, FR, SA, SU}

// Workweek returns the five weekday codes, Monday through Friday.
func Workweek() []Weekday {
	return []Weekday{MO, TU, WE, TH, FR}
}

// Rule describes how a task repeats. Optional fields left at their zero
// value mean "use the default occurrence pattern for the frequency" and are
// omitted on the wire rather than serialized as null or zero.
type Rule struct {
	Frequency   Frequency `json:"frequency"`
	Interval    int       `json:"interval,omitempty"`
	DaysOfWeek  []Weekday `json:"days_of_week,omitempty"`
	DayOfMonth  int       `json:"day_of_month,omitempty"`
	WeekOfMonth int       `json:"week_of_month,omitempty"`
	MonthOfYear int       `json:"month_of_year,omitempty"`
}

// Value serializes the rule as a JSON TEXT column.
func (r Rule) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal rule: %w", err)
	}
	return string(b), nil
}

// Scan restores a rule from its JSON column representation.
func (r *Rule) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("scan rule: unsupported type %T", src)
	}
}

// WithInterval returns a copy with the interval set, clamped to [1, 99].
func (r Rule) WithInterval(n int) Rule {
	if n < 1 {
		n = 1
	}
	if n > 99 {
		n = 99
	}
	r.Interval = n
	return r
}

// WithWeekdayToggled returns a copy with d added to or removed from the
// weekday set. The resulting set keeps the canonical MO..SU order; no other
// field changes.
func (r Rule) WithWeekdayToggled(d Weekday) Rule {
	present := make(map[Weekday]bool, len(r.DaysOfWeek))
	for _, w := range r.DaysOfWeek {
		present[w] = true
	}
	present[d] = !present[d]

	var days []Weekday
	for _, w := range weekOrder {
		if present[w] {
			days = append(days, w)
		}
	}
	r.DaysOfWeek = days
	return r
}

// WithDayOfMonth returns a copy with the day-of-month set. Values above 31
// clamp to 31; zero and below clear the field back to the default pattern.
func (r Rule) WithDayOfMonth(day int) Rule {
	if day <= 0 {
		r.DayOfMonth = 0
		return r
	}
	if day > 31 {
		day = 31
	}
	r.DayOfMonth = day
	return r
}

// Describe renders the rule for humans, e.g. "every 2 weeks on Mon, Fri".
func (r Rule) Describe() string {
	unit := map[Frequency]string{Daily: "day", Weekly: "week", Monthly: "month", Yearly: "year"}[r.Frequency]
	if unit == "" {
		unit = string(r.Frequency)
	}

	var b strings.Builder
	if r.Interval > 1 {
		fmt.Fprintf(&b, "every %d %ss", r.Interval, unit)
	} else {
		fmt.Fprintf(&b, "every %s", unit)
	}
	if r.Frequency == Weekly && len(r.DaysOfWeek) > 0 {
		names := make([]string, 0, len(r.DaysOfWeek))
		for _, d := range r.DaysOfWeek {
			names = append(names, weekdayName(d))
		}
		fmt.Fprintf(&b, " on %s", strings.Join(names, ", "))
	}
	if r.Frequency == Monthly && r.DayOfMonth > 0 {
		fmt.Fprintf(&b, " on day %d", r.DayOfMonth)
	}
	return b.String()
}

func weekdayName(d Weekday) string {
	switch d {
	case MO:
		return "Mon"
	case TU:
		return "Tue"
	case WE:
		return "Wed"
	case TH:
		return "Thu"
	case FR:
		return "Fri"
	case SA:
		return "Sat"
	case SU:
		return "Sun"
	}
	return string(d)
}

// ParseWeekday maps user input ("mo", "MON", "monday") to a weekday code.
func ParseWeekday(s string) (Weekday, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if len(key) > 2 {
		key = key[:2]
	}
	switch key {
	case "mo":
		return MO, true
	case "tu":
		return TU, true
	case "we":
		return WE, true
	case "th":
		return TH, true
	case "fr":
		return FR, true
	case "sa":
		return SA, true
	case "su":
		return SU, true
	}
	return "", false
}
