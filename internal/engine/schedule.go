package engine

import (
	"math"
	"math/rand/v2"
	"time"

	"fmcgsim/pkg/domain"
)

// ScheduleConfig shapes the growth curve that paces daily monetary targets
// across the horizon.
type ScheduleConfig struct {
	// GrowthStart and GrowthEnd are the multipliers applied to the flat daily
	// share at the start and end of the horizon.
	GrowthStart float64 `yaml:"growth_start"`
	GrowthEnd   float64 `yaml:"growth_end"`
	// ShapeExponent biases the ramp: >1 keeps growth slow early and
	// accelerates it late, modeling organic business ramp-up.
	ShapeExponent float64 `yaml:"shape_exponent"`
	// VariationLow/High bound the uniform per-day noise band.
	VariationLow  float64 `yaml:"variation_low"`
	VariationHigh float64 `yaml:"variation_high"`
	// OvershootCeiling is the multiple of the total target beyond which the
	// caller stops consuming days. Overshoot is intentional: undershoot is
	// harder to detect downstream.
	OvershootCeiling float64 `yaml:"overshoot_ceiling"`
	// Seasonality applies the monthly demand multipliers (holiday lift,
	// post-holiday dip, summer lift) on top of the growth curve.
	Seasonality bool `yaml:"seasonality"`
}

// DefaultScheduleConfig returns the simulator's standard growth shape.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		GrowthStart:      0.3,
		GrowthEnd:        1.7,
		ShapeExponent:    2.5,
		VariationLow:     0.85,
		VariationHigh:    1.15,
		OvershootCeiling: 1.4,
		Seasonality:      true,
	}
}

// DayTarget is one scheduled day with its monetary sub-target.
type DayTarget struct {
	Date   time.Time
	Target float64
}

// Schedule iterates the horizon day by day, emitting sub-targets that follow
// the growth curve with random amplitude. The shape is deterministic, the
// amplitude stochastic; the only failure mode is degenerate input at
// construction.
type Schedule struct {
	cfg       ScheduleConfig
	start     time.Time
	end       time.Time
	total     float64
	totalDays int
	cursor    int
	rng       *rand.Rand
}

// NewSchedule validates the horizon and returns a day iterator. end before
// start or an empty horizon is a ConfigError.
func NewSchedule(total float64, start, end time.Time, cfg ScheduleConfig, rng *rand.Rand) (*Schedule, error) {
	start, end = domain.DayOf(start), domain.DayOf(end)
	if end.Before(start) {
		return nil, configErrorf("horizon", "end %s before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	if total <= 0 {
		return nil, configErrorf("target", "total target %.2f must be positive", total)
	}
	totalDays := domain.DaysBetween(start, end) + 1
	if totalDays <= 0 {
		return nil, configErrorf("horizon", "zero-length horizon")
	}
	if cfg.VariationLow <= 0 || cfg.VariationHigh < cfg.VariationLow {
		return nil, configErrorf("variation", "band [%.2f, %.2f] is invalid", cfg.VariationLow, cfg.VariationHigh)
	}
	return &Schedule{cfg: cfg, start: start, end: end, total: total, totalDays: totalDays, rng: rng}, nil
}

// TotalDays returns the number of days in the horizon.
func (s *Schedule) TotalDays() int { return s.totalDays }

// Ceiling returns the absolute monetary amount at which the run should halt.
func (s *Schedule) Ceiling() float64 { return s.total * s.cfg.OvershootCeiling }

// Next returns the next scheduled day, or ok=false when the horizon is
// exhausted. The caller is expected to stop early once cumulative realized
// amount crosses Ceiling.
func (s *Schedule) Next() (DayTarget, bool) {
	if s.cursor >= s.totalDays {
		return DayTarget{}, false
	}
	date := s.start.AddDate(0, 0, s.cursor)
	s.cursor++

	// A one-day horizon has no ramp to follow; the whole target is the
	// day's share.
	growth := 1.0
	if s.totalDays > 1 {
		progress := float64(domain.DaysBetween(s.start, date)) / float64(s.totalDays-1)
		progress = math.Min(1, math.Max(0, progress))
		growth = s.cfg.GrowthStart + (s.cfg.GrowthEnd-s.cfg.GrowthStart)*math.Pow(progress, s.cfg.ShapeExponent)
	}

	variation := s.cfg.VariationLow + s.rng.Float64()*(s.cfg.VariationHigh-s.cfg.VariationLow)

	target := (s.total / float64(s.totalDays)) * growth * variation
	if s.cfg.Seasonality {
		target *= s.seasonal(date.Month())
	}
	return DayTarget{Date: date, Target: target}, true
}

// seasonal returns the demand multiplier for the month: holiday season lifts,
// post-holiday dips, summer lifts, rainy season is flat-to-soft.
func (s *Schedule) seasonal(m time.Month) float64 {
	uniform := func(lo, hi float64) float64 { return lo + s.rng.Float64()*(hi-lo) }
	switch m {
	case time.November, time.December:
		return uniform(1.3, 1.8)
	case time.January, time.February:
		return uniform(0.7, 0.9)
	case time.April, time.May:
		return uniform(1.1, 1.3)
	case time.June, time.July, time.August:
		return uniform(0.9, 1.1)
	default:
		return 1.0
	}
}
