package recurrence

import "testing"

func TestDetectPreset(t *testing.T) {
	cases := []struct {
		name string
		rule *Rule
		want Preset
	}{
		{"nil rule", nil, PresetNone},
		{"daily interval unset", &Rule{Frequency: Daily}, PresetDaily},
		{"daily interval zero", &Rule{Frequency: Daily, Interval: 0}, PresetDaily},
		{"daily interval one", &Rule{Frequency: Daily, Interval: 1}, PresetDaily},
		{"daily interval two", &Rule{Frequency: Daily, Interval: 2}, PresetCustom},
		{"weekly bare", &Rule{Frequency: Weekly, Interval: 1}, PresetWeekly},
		{"weekly empty day set", &Rule{Frequency: Weekly, DaysOfWeek: []Weekday{}}, PresetWeekly},
		{"weekdays canonical order", &Rule{Frequency: Weekly, Interval: 1, DaysOfWeek: []Weekday{MO, TU, WE, TH, FR}}, PresetWeekdays},
		{"weekdays shuffled order", &Rule{Frequency: Weekly, DaysOfWeek: []Weekday{FR, MO, TH, TU, WE}}, PresetWeekdays},
		{"weekdays superset", &Rule{Frequency: Weekly, DaysOfWeek: []Weekday{MO, TU, WE, TH, FR, SA}}, PresetCustom},
		{"weekdays subset", &Rule{Frequency: Weekly, DaysOfWeek: []Weekday{MO, TU, WE, TH}}, PresetCustom},
		{"weekdays interval two", &Rule{Frequency: Weekly, Interval: 2, DaysOfWeek: []Weekday{MO, TU, WE, TH, FR}}, PresetCustom},
		{"weekly single day", &Rule{Frequency: Weekly, DaysOfWeek: []Weekday{SA}}, PresetCustom},
		{"monthly bare", &Rule{Frequency: Monthly}, PresetMonthly},
		{"monthly with day", &Rule{Frequency: Monthly, DayOfMonth: 15}, PresetCustom},
		{"monthly interval three", &Rule{Frequency: Monthly, Interval: 3}, PresetCustom},
		{"yearly", &Rule{Frequency: Yearly}, PresetCustom},
		{"negative interval", &Rule{Frequency: Daily, Interval: -1}, PresetCustom},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectPreset(tc.rule); got != tc.want {
				t.Errorf("DetectPreset(%+v) = %q, want %q", tc.rule, got, tc.want)
			}
		})
	}
}

func TestPresetRule(t *testing.T) {
	if PresetRule(PresetNone) != nil {
		t.Error("PresetRule(none) should be nil")
	}

	cases := []struct {
		preset   Preset
		wantFreq Frequency
		wantDays int
	}{
		{PresetDaily, Daily, 0},
		{PresetWeekdays, Weekly, 5},
		{PresetWeekly, Weekly, 0},
		{PresetMonthly, Monthly, 0},
		{PresetCustom, Daily, 0},
	}
	for _, tc := range cases {
		r := PresetRule(tc.preset)
		if r == nil {
			t.Fatalf("PresetRule(%s) = nil", tc.preset)
		}
		if r.Frequency != tc.wantFreq {
			t.Errorf("PresetRule(%s).Frequency = %q, want %q", tc.preset, r.Frequency, tc.wantFreq)
		}
		if r.Interval != 1 {
			t.Errorf("PresetRule(%s).Interval = %d, want 1", tc.preset, r.Interval)
		}
		if len(r.DaysOfWeek) != tc.wantDays {
			t.Errorf("PresetRule(%s) has %d weekdays, want %d", tc.preset, len(r.DaysOfWeek), tc.wantDays)
		}
	}
}

// The preset mapping is deliberately not a bijection: custom has no
// canonical shape, so its fallback rule reads back as daily. Stored data
// relies on this collapse; do not make the pair symmetric.
func TestPresetRoundTripAsymmetry(t *testing.T) {
	if got := DetectPreset(PresetRule(PresetCustom)); got != PresetDaily {
		t.Errorf("DetectPreset(PresetRule(custom)) = %q, want %q", got, PresetDaily)
	}
	if got := DetectPreset(PresetRule(PresetNone)); got != PresetNone {
		t.Errorf("DetectPreset(PresetRule(none)) = %q, want %q", got, PresetNone)
	}
	for _, p := range []Preset{PresetDaily, PresetWeekdays, PresetWeekly, PresetMonthly} {
		if got := DetectPreset(PresetRule(p)); got != p {
			t.Errorf("DetectPreset(PresetRule(%s)) = %q, want %q", p, got, p)
		}
	}
}

func TestParsePreset(t *testing.T) {
	if p, ok := ParsePreset(" Weekdays "); !ok || p != PresetWeekdays {
		t.Errorf("ParsePreset(Weekdays) = %q, %t", p, ok)
	}
	if _, ok := ParsePreset("fortnightly"); ok {
		t.Error("ParsePreset(fortnightly) should not parse")
	}
}
