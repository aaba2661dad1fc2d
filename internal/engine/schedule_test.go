package engine

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"fmcgsim/pkg/domain"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestNewScheduleRejectsDegenerateInput(t *testing.T) {
	cfg := DefaultScheduleConfig()
	start := domain.Date(2024, time.January, 1)

	cases := []struct {
		name  string
		total float64
		start time.Time
		end   time.Time
		cfg   ScheduleConfig
	}{
		{"end before start", 1000, start, start.AddDate(0, 0, -1), cfg},
		{"zero target", 0, start, start.AddDate(0, 0, 10), cfg},
		{"negative target", -5, start, start.AddDate(0, 0, 10), cfg},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSchedule(tc.total, tc.start, tc.end, tc.cfg, testRNG())
			if err == nil {
				t.Fatalf("expected error")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("want ConfigError, got %T: %v", err, err)
			}
		})
	}

	bad := cfg
	bad.VariationLow = 1.2
	bad.VariationHigh = 0.8
	if _, err := NewSchedule(1000, start, start.AddDate(0, 0, 10), bad, testRNG()); err == nil {
		t.Fatalf("inverted variation band must be rejected")
	}
}

func TestScheduleEmitsEveryDayOnce(t *testing.T) {
	start := domain.Date(2024, time.March, 1)
	end := domain.Date(2024, time.March, 31)
	s, err := NewSchedule(100000, start, end, DefaultScheduleConfig(), testRNG())
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	if s.TotalDays() != 31 {
		t.Fatalf("total days: got %d", s.TotalDays())
	}
	var days []DayTarget
	for {
		d, ok := s.Next()
		if !ok {
			break
		}
		if d.Target <= 0 {
			t.Fatalf("non-positive target %f on %s", d.Target, d.Date)
		}
		days = append(days, d)
	}
	if len(days) != 31 {
		t.Fatalf("emitted %d days, want 31", len(days))
	}
	for i, d := range days {
		want := start.AddDate(0, 0, i)
		if !d.Date.Equal(want) {
			t.Fatalf("day %d: got %s want %s", i, d.Date, want)
		}
	}
}

// Year-over-year sums must ascend under the default ramp. Per-day noise and
// seasonality average out over a whole year, the growth curve does not.
func TestScheduleGrowthTrend(t *testing.T) {
	start := domain.Date(2018, time.January, 1)
	end := domain.Date(2021, time.December, 31)
	s, err := NewSchedule(1e9, start, end, DefaultScheduleConfig(), testRNG())
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	sums := map[int]float64{}
	for {
		d, ok := s.Next()
		if !ok {
			break
		}
		sums[d.Date.Year()] += d.Target
	}
	for year := 2019; year <= 2021; year++ {
		if sums[year] <= sums[year-1] {
			t.Fatalf("year %d sum %.0f not above year %d sum %.0f", year, sums[year], year-1, sums[year-1])
		}
	}
}

func TestScheduleSeasonalLift(t *testing.T) {
	// With growth flattened, December must outpace February on average.
	cfg := DefaultScheduleConfig()
	cfg.GrowthStart, cfg.GrowthEnd = 1, 1
	cfg.VariationLow, cfg.VariationHigh = 1, 1
	start := domain.Date(2023, time.January, 1)
	end := domain.Date(2023, time.December, 31)
	s, err := NewSchedule(365000, start, end, cfg, testRNG())
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	var dec, feb float64
	var decDays, febDays int
	for {
		d, ok := s.Next()
		if !ok {
			break
		}
		switch d.Date.Month() {
		case time.December:
			dec += d.Target
			decDays++
		case time.February:
			feb += d.Target
			febDays++
		}
	}
	if dec/float64(decDays) <= feb/float64(febDays) {
		t.Fatalf("december average %.2f not above february average %.2f", dec/float64(decDays), feb/float64(febDays))
	}
}

func TestScheduleCeiling(t *testing.T) {
	start := domain.Date(2024, time.January, 1)
	s, err := NewSchedule(1000, start, start.AddDate(0, 0, 9), DefaultScheduleConfig(), testRNG())
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	if got := s.Ceiling(); got != 1400 {
		t.Fatalf("ceiling: got %.2f want 1400", got)
	}
}

func TestScheduleSingleDayHorizon(t *testing.T) {
	day := domain.Date(2024, time.July, 15)
	s, err := NewSchedule(5000, day, day, DefaultScheduleConfig(), testRNG())
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	d, ok := s.Next()
	if !ok || !d.Date.Equal(day) {
		t.Fatalf("single day horizon must emit the day itself")
	}
	// One day carries the whole target, modulated only by variation and the
	// July seasonal band.
	if d.Target < 5000*0.85*0.9 || d.Target > 5000*1.15*1.1 {
		t.Fatalf("single day target %.2f outside the flat band", d.Target)
	}
	if _, ok := s.Next(); ok {
		t.Fatalf("horizon must be exhausted after one day")
	}
}
