package recurrence

import "strings"

// Preset names a common recurrence shape.
type Preset string

const (
	PresetNone     Preset = "none"
	PresetDaily    Preset = "daily"
	PresetWeekdays Preset = "weekdays"
	PresetWeekly   Preset = "weekly"
	PresetMonthly  Preset = "monthly"
	PresetCustom   Preset = "custom"
)

// DetectPreset classifies a rule. A nil rule is PresetNone; anything that
// does not match a named shape exactly is PresetCustom.
func DetectPreset(r *Rule) Preset {
	if r == nil {
		return PresetNone
	}
	everyOne := r.Interval == 0 || r.Interval == 1

	switch r.Frequency {
	case Daily:
		if everyOne && len(r.DaysOfWeek) == 0 {
			return PresetDaily
		}
	case Weekly:
		if everyOne && len(r.DaysOfWeek) == 0 {
			return PresetWeekly
		}
		if everyOne && sameWeekdaySet(r.DaysOfWeek, Workweek()) {
			return PresetWeekdays
		}
	case Monthly:
		if everyOne && r.DayOfMonth == 0 {
			return PresetMonthly
		}
	}
	return PresetCustom
}

// PresetRule generates the canonical rule for a preset. PresetCustom has no
// canonical shape and falls back to a plain daily rule; together with
// DetectPreset this makes the pair intentionally asymmetric —
// DetectPreset(PresetRule(PresetCustom)) is PresetDaily, and stored rules
// rely on that collapse.
func PresetRule(p Preset) *Rule {
	switch p {
	case PresetNone:
		return nil
	case PresetDaily:
		return &Rule{Frequency: Daily, Interval: 1}
	case PresetWeekdays:
		return &Rule{Frequency: Weekly, Interval: 1, DaysOfWeek: Workweek()}
	case PresetWeekly:
		return &Rule{Frequency: Weekly, Interval: 1}
	case PresetMonthly:
		return &Rule{Frequency: Monthly, Interval: 1}
	default:
		return &Rule{Frequency: Daily, Interval: 1}
	}
}

// ParsePreset maps user input to a preset tag.
func ParsePreset(s string) (Preset, bool) {
	switch Preset(strings.ToLower(strings.TrimSpace(s))) {
	case PresetNone:
		return PresetNone, true
	case PresetDaily:
		return PresetDaily, true
	case PresetWeekdays:
		return PresetWeekdays, true
	case PresetWeekly:
		return PresetWeekly, true
	case PresetMonthly:
		return PresetMonthly, true
	case PresetCustom:
		return PresetCustom, true
	}
	return "", false
}

// sameWeekdaySet reports set equality, order-independent and duplicate-
// insensitive. Supersets do not match.
func sameWeekdaySet(a, b []Weekday) bool {
	seen := make(map[Weekday]bool, len(a))
	for _, d := range a {
		seen[d] = true
	}
	if len(seen) != len(b) {
		return false
	}
	for _, d := range b {
		if !seen[d] {
			return false
		}
	}
	return true
}
