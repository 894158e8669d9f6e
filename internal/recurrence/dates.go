package recurrence

import "time"

// maxDates bounds a single materialization pass; a window is at most a few
// hundred occurrences for any sane rule.
const maxDates = 1000

// DatesBetween returns the rule's occurrence dates inside [start, end],
// both edges inclusive, as date-only UTC values. The anchor is the series
// origin: occurrences never precede it, and interval steps are counted from
// it. This is materialization support for a bounded window, not a general
// expansion iterator.
func DatesBetween(r Rule, anchor, start, end time.Time) []time.Time {
	anchor = dateOnly(anchor)
	start = dateOnly(start)
	end = dateOnly(end)
	if end.Before(start) {
		return nil
	}
	if anchor.IsZero() {
		anchor = start
	}
	if start.Before(anchor) {
		start = anchor
	}
	interval := r.Interval
	if interval < 1 {
		interval = 1
	}

	switch r.Frequency {
	case Daily:
		return stepDays(anchor, start, end, interval)
	case Weekly:
		if len(r.DaysOfWeek) == 0 {
			return stepDays(anchor, start, end, 7*interval)
		}
		return weeklyOnDays(r.DaysOfWeek, anchor, start, end, interval)
	case Monthly:
		return monthlyDates(r.DayOfMonth, anchor, start, end, interval)
	case Yearly:
		return yearlyDates(r.MonthOfYear, r.DayOfMonth, anchor, start, end, interval)
	}
	return nil
}

// stepDays walks anchor + k*step and collects dates within [start, end].
func stepDays(anchor, start, end time.Time, step int) []time.Time {
	first := anchor
	if days := daysBetween(anchor, start); days > 0 {
		first = anchor.AddDate(0, 0, (days/step)*step)
		if first.Before(start) {
			first = first.AddDate(0, 0, step)
		}
	}
	var out []time.Time
	for d := first; !d.After(end) && len(out) < maxDates; d = d.AddDate(0, 0, step) {
		out = append(out, d)
	}
	return out
}

// weeklyOnDays emits the listed weekdays inside every interval-th week,
// weeks counted Monday-first from the anchor's week.
func weeklyOnDays(days []Weekday, anchor, start, end time.Time, interval int) []time.Time {
	wanted := make(map[Weekday]bool, len(days))
	for _, d := range days {
		wanted[d] = true
	}

	base := startOfWeek(anchor)
	if weeks := daysBetween(base, startOfWeek(start)) / 7; weeks > 0 {
		base = base.AddDate(0, 0, (weeks/interval)*interval*7)
	}

	var out []time.Time
	for week := base; !week.After(end) && len(out) < maxDates; week = week.AddDate(0, 0, interval*7) {
		for i, code := range weekOrder {
			if !wanted[code] {
				continue
			}
			d := week.AddDate(0, 0, i)
			if d.Before(anchor) || d.Before(start) || d.After(end) {
				continue
			}
			out = append(out, d)
		}
	}
	return out
}

func monthlyDates(dayOfMonth int, anchor, start, end time.Time, interval int) []time.Time {
	day := dayOfMonth
	if day <= 0 {
		day = anchor.Day()
	}
	k := monthsBetween(anchor, start)
	if k > 0 {
		k = (k / interval) * interval
	} else {
		k = 0
	}

	var out []time.Time
	for ; len(out) < maxDates; k += interval {
		first := time.Date(anchor.Year(), anchor.Month()+time.Month(k), 1, 0, 0, 0, 0, time.UTC)
		occ := dayInMonth(first, day)
		if occ.After(end) {
			break
		}
		if occ.Before(anchor) || occ.Before(start) {
			continue
		}
		out = append(out, occ)
	}
	return out
}

func yearlyDates(monthOfYear, dayOfMonth int, anchor, start, end time.Time, interval int) []time.Time {
	month := time.Month(monthOfYear)
	if monthOfYear <= 0 || monthOfYear > 12 {
		month = anchor.Month()
	}
	day := dayOfMonth
	if day <= 0 {
		day = anchor.Day()
	}
	year := anchor.Year()
	if diff := start.Year() - year; diff > 0 {
		year += (diff / interval) * interval
	}

	var out []time.Time
	for ; len(out) < maxDates; year += interval {
		occ := dayInMonth(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), day)
		if occ.After(end) {
			break
		}
		if occ.Before(anchor) || occ.Before(start) {
			continue
		}
		out = append(out, occ)
	}
	return out
}

// dayInMonth places day inside the month of firstOfMonth, clamping to the
// month's last day (the 31st of April becomes the 30th).
func dayInMonth(firstOfMonth time.Time, day int) time.Time {
	y, m, _ := firstOfMonth.Date()
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// startOfWeek returns the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
