package recurrence

import (
	"reflect"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func days(ts []time.Time) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Format("2006-01-02"))
	}
	return out
}

func TestDatesBetween(t *testing.T) {
	cases := []struct {
		name               string
		rule               Rule
		anchor, start, end time.Time
		want               []string
	}{
		{
			name: "daily inclusive edges",
			rule: Rule{Frequency: Daily},
			anchor: date(2024, 1, 1), start: date(2024, 1, 5), end: date(2024, 1, 8),
			want: []string{"2024-01-05", "2024-01-06", "2024-01-07", "2024-01-08"},
		},
		{
			name: "daily interval counts from anchor",
			rule: Rule{Frequency: Daily, Interval: 3},
			anchor: date(2024, 1, 1), start: date(2024, 1, 5), end: date(2024, 1, 14),
			want: []string{"2024-01-07", "2024-01-10", "2024-01-13"},
		},
		{
			name: "daily negative interval treated as one",
			rule: Rule{Frequency: Daily, Interval: -2},
			anchor: date(2024, 1, 1), start: date(2024, 1, 1), end: date(2024, 1, 3),
			want: []string{"2024-01-01", "2024-01-02", "2024-01-03"},
		},
		{
			name: "anchor inside window",
			rule: Rule{Frequency: Daily, Interval: 2},
			anchor: date(2024, 1, 10), start: date(2024, 1, 1), end: date(2024, 1, 16),
			want: []string{"2024-01-10", "2024-01-12", "2024-01-14", "2024-01-16"},
		},
		{
			name: "window entirely before anchor",
			rule: Rule{Frequency: Daily},
			anchor: date(2024, 2, 1), start: date(2024, 1, 1), end: date(2024, 1, 15),
			want: nil,
		},
		{
			name: "end before start",
			rule: Rule{Frequency: Daily},
			anchor: date(2024, 1, 1), start: date(2024, 1, 10), end: date(2024, 1, 5),
			want: nil,
		},
		{
			name: "weekly without day set repeats the anchor weekday",
			rule: Rule{Frequency: Weekly},
			anchor: date(2024, 1, 2), start: date(2024, 1, 1), end: date(2024, 1, 20),
			want: []string{"2024-01-02", "2024-01-09", "2024-01-16"},
		},
		{
			name: "weekly on days",
			rule: Rule{Frequency: Weekly, DaysOfWeek: []Weekday{MO, WE}},
			anchor: date(2024, 1, 1), start: date(2024, 1, 1), end: date(2024, 1, 10),
			want: []string{"2024-01-01", "2024-01-03", "2024-01-08", "2024-01-10"},
		},
		{
			name: "weekly on days skips days before the anchor",
			rule: Rule{Frequency: Weekly, DaysOfWeek: []Weekday{MO, WE}},
			anchor: date(2024, 1, 3), start: date(2024, 1, 1), end: date(2024, 1, 10),
			want: []string{"2024-01-03", "2024-01-08", "2024-01-10"},
		},
		{
			name: "biweekly keeps phase across the window start",
			rule: Rule{Frequency: Weekly, Interval: 2, DaysOfWeek: []Weekday{MO}},
			anchor: date(2024, 1, 1), start: date(2024, 1, 8), end: date(2024, 1, 31),
			want: []string{"2024-01-15", "2024-01-29"},
		},
		{
			name: "monthly day 31 clamps to short months",
			rule: Rule{Frequency: Monthly, DayOfMonth: 31},
			anchor: date(2024, 1, 31), start: date(2024, 1, 1), end: date(2024, 4, 30),
			want: []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"},
		},
		{
			name: "monthly defaults to the anchor day",
			rule: Rule{Frequency: Monthly},
			anchor: date(2024, 3, 15), start: date(2024, 3, 1), end: date(2024, 6, 30),
			want: []string{"2024-03-15", "2024-04-15", "2024-05-15", "2024-06-15"},
		},
		{
			name: "monthly interval counts months from anchor",
			rule: Rule{Frequency: Monthly, Interval: 2},
			anchor: date(2024, 1, 10), start: date(2024, 4, 1), end: date(2024, 8, 31),
			want: []string{"2024-05-10", "2024-07-10"},
		},
		{
			name: "yearly from anchor",
			rule: Rule{Frequency: Yearly},
			anchor: date(2024, 3, 10), start: date(2024, 1, 1), end: date(2026, 12, 31),
			want: []string{"2024-03-10", "2025-03-10", "2026-03-10"},
		},
		{
			name: "yearly feb 29 clamps outside leap years",
			rule: Rule{Frequency: Yearly, MonthOfYear: 2, DayOfMonth: 29},
			anchor: date(2023, 1, 1), start: date(2023, 1, 1), end: date(2025, 12, 31),
			want: []string{"2023-02-28", "2024-02-29", "2025-02-28"},
		},
		{
			name: "single day window on an occurrence",
			rule: Rule{Frequency: Daily},
			anchor: date(2024, 1, 1), start: date(2024, 1, 4), end: date(2024, 1, 4),
			want: []string{"2024-01-04"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := days(DatesBetween(tc.rule, tc.anchor, tc.start, tc.end))
			want := tc.want
			if len(got) == 0 && len(want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestDatesBetweenZeroAnchor(t *testing.T) {
	got := DatesBetween(Rule{Frequency: Daily}, time.Time{}, date(2024, 1, 5), date(2024, 1, 7))
	want := []string{"2024-01-05", "2024-01-06", "2024-01-07"}
	if !reflect.DeepEqual(days(got), want) {
		t.Errorf("got %v, want %v", days(got), want)
	}
}

func TestDatesBetweenStripsClockTime(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC)
	start := time.Date(2024, 1, 1, 8, 15, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 13, 0, 0, 0, time.UTC)

	got := DatesBetween(Rule{Frequency: Daily}, anchor, start, end)
	if len(got) != 2 {
		t.Fatalf("got %d dates, want 2: %v", len(got), days(got))
	}
	for _, d := range got {
		if !d.Equal(dateOnly(d)) || d.Location() != time.UTC {
			t.Errorf("occurrence %v is not a date-only UTC value", d)
		}
	}
	if !got[0].Equal(date(2024, 1, 1)) || !got[1].Equal(date(2024, 1, 2)) {
		t.Errorf("got %v, want Jan 1 and Jan 2", days(got))
	}
}
