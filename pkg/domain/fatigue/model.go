package fatigue

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"
)

// Model constants.
const (
	WindowDays          = 56
	FosterWindowDays    = 7
	BucketPointsPerAU   = 0.15
	BucketDailyRetained = 0.5 // 24h half-life
	MinCalibration      = 10
	MaxScore            = 120.0
	MinStdDev           = 1.0

	DefaultEnter  = 80.0
	DefaultExit   = 60.0
	DefaultFilter = 70.0
)

// State is the readiness of a given day.
type State int

const (
	StateFresh State = iota
	StateFatigued
	StateOverreached
)

func (s State) String() string {
	switch s {
	case StateFatigued:
		return "fatigued"
	case StateOverreached:
		return "overreached"
	default:
		return "fresh"
	}
}

// Profile is the readiness snapshot for one planning cycle.
type Profile struct {
	CurrentScore    float64 `json:"current_score" firestore:"current_score"`
	ThresholdEnter  float64 `json:"threshold_enter" firestore:"threshold_enter"`
	ThresholdExit   float64 `json:"threshold_exit" firestore:"threshold_exit"`
	ThresholdFilter float64 `json:"threshold_filter" firestore:"threshold_filter"`
	WeekLoad        float64 `json:"week_load" firestore:"week_load"`
	Monotony        float64 `json:"monotony" firestore:"monotony"`
	Strain          float64 `json:"strain" firestore:"strain"`
	LoadP85         float64 `json:"load_p85" firestore:"load_p85"`
	StrainP85       float64 `json:"strain_p85" firestore:"strain_p85"`
	SessionCount    int     `json:"session_count" firestore:"session_count"`
	Calibrated      bool    `json:"calibrated" firestore:"calibrated"`
	Fallback        bool    `json:"fallback" firestore:"fallback"`
}

// DefaultProfile is returned when history is unusable.
func DefaultProfile() Profile {
	return Profile{
		ThresholdEnter:  DefaultEnter,
		ThresholdExit:   DefaultExit,
		ThresholdFilter: DefaultFilter,
		Fallback:        true,
	}
}

// State classifies the current score against the thresholds.
func (p Profile) State() State {
	switch {
	case p.CurrentScore >= p.ThresholdEnter:
		return StateOverreached
	case p.CurrentScore >= p.ThresholdFilter:
		return StateFatigued
	default:
		return StateFresh
	}
}

// Calculate builds the profile from the last 56 days of history. It never
// fails: any internal failure yields DefaultProfile.
func Calculate(history []SessionRecord, now time.Time) (profile Profile) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("fatigue calculation failed, using defaults", "component", "fatigue", "panic", fmt.Sprint(r))
			profile = DefaultProfile()
		}
	}()
	return calculate(history, now)
}

func calculate(history []SessionRecord, now time.Time) Profile {
	today := utcDay(now)
	start := today.AddDate(0, 0, -WindowDays)
	days := WindowDays + 1

	// Daily AU, index 0 = day -WindowDays, index WindowDays = today.
	daily := make([]float64, days)
	sessions := 0
	for _, s := range history {
		if s.CompletedAt.IsZero() {
			continue
		}
		day := utcDay(s.CompletedAt)
		if day.Before(start) || day.After(today) {
			continue
		}
		load := s.LoadAU()
		if load <= 0 {
			continue
		}
		idx := int(day.Sub(start).Hours() / 24)
		daily[idx] += load
		sessions++
	}

	buckets := make([]float64, days)
	strains := make([]float64, days)
	var acc float64
	var weekLoad, monotony, strain float64
	for i := 0; i < days; i++ {
		acc = acc*BucketDailyRetained + daily[i]*BucketPointsPerAU
		buckets[i] = acc

		total, mono := foster(daily, i)
		strains[i] = total * mono
		if i == days-1 {
			weekLoad, monotony, strain = total, mono, total*mono
		}
	}

	p := Profile{
		CurrentScore:    round1(clampScore(acc)),
		ThresholdEnter:  DefaultEnter,
		ThresholdExit:   DefaultExit,
		ThresholdFilter: DefaultFilter,
		WeekLoad:        round1(weekLoad),
		Monotony:        math.Round(monotony*100) / 100,
		Strain:          round1(strain),
		LoadP85:         round1(percentile(buckets, 0.85)),
		StrainP85:       round1(percentile(strains, 0.85)),
		SessionCount:    sessions,
	}

	if sessions >= MinCalibration {
		p.Calibrated = true
		p.ThresholdEnter = round1(clampScore(math.Max(DefaultEnter, percentile(buckets, 0.85))))
		p.ThresholdExit = round1(clampScore(math.Min(DefaultExit, percentile(buckets, 0.60))))
		p.ThresholdFilter = round1(clampScore(math.Max(DefaultFilter, percentile(buckets, 0.75))))
	}
	return p
}

// foster returns the 7-day load total ending at day i and its monotony
// (mean / sample standard deviation, SD floored at 1).
func foster(daily []float64, i int) (total, monotony float64) {
	window := make([]float64, FosterWindowDays)
	for k := 0; k < FosterWindowDays; k++ {
		j := i - (FosterWindowDays - 1) + k
		if j >= 0 {
			window[k] = daily[j]
		}
	}
	for _, v := range window {
		total += v
	}
	mean := total / FosterWindowDays
	var ss float64
	for _, v := range window {
		ss += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(ss / (FosterWindowDays - 1))
	if sd < MinStdDev {
		sd = MinStdDev
	}
	return total, mean / sd
}

// percentile uses linear interpolation between closest ranks.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
