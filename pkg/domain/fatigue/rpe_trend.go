package fatigue

import (
	"sort"
	"time"
)

// Trend labels.
const (
	TrendNeutral             = "neutral"
	TrendDecay               = "decay"
	TrendProtection          = "protection"
	TrendChronicDeload       = "chronic_deload"
	TrendAcuteRecovery       = "acute_recovery"
	TrendOverloadBoost       = "progressive_overload_boost"
	TrendProgressiveOverload = "progressive_overload"
	TrendMaintenance         = "maintenance"
)

const (
	trendLookback = 3
	trendMaxAge   = 5 * 24 * time.Hour
)

// RPETrend adjusts volume and optionally caps intensity for the next cycle.
type RPETrend struct {
	VolumeModifier float64 `json:"volume_modifier"`
	IntensityCap   *int    `json:"intensity_cap,omitempty"`
	Label          string  `json:"label"`
}

func capAt(v int) *int { return &v }

// AnalyzeRPETrend reads the feedback of up to the three most recent sessions.
func AnalyzeRPETrend(history []SessionRecord, now time.Time) RPETrend {
	recent := make([]SessionRecord, 0, len(history))
	for _, s := range history {
		if !s.CompletedAt.IsZero() {
			recent = append(recent, s)
		}
	}
	if len(recent) == 0 {
		return RPETrend{VolumeModifier: 1.0, Label: TrendNeutral}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CompletedAt.After(recent[j].CompletedAt)
	})
	if len(recent) > trendLookback {
		recent = recent[:trendLookback]
	}

	latest := recent[0]
	if now.Sub(latest.CompletedAt) > trendMaxAge {
		return RPETrend{VolumeModifier: 1.0, Label: TrendDecay}
	}
	if latest.Feedback == nil {
		return RPETrend{VolumeModifier: 1.0, Label: TrendNeutral}
	}

	previousValue := func(v int) bool {
		return len(recent) > 1 && recent[1].Feedback != nil && recent[1].Feedback.Value == v
	}

	switch latest.Feedback.Value {
	case -1:
		if latest.Feedback.Type == FeedbackTypeSymptom {
			return RPETrend{VolumeModifier: 0.70, IntensityCap: capAt(2), Label: TrendProtection}
		}
		if previousValue(-1) {
			return RPETrend{VolumeModifier: 0.75, IntensityCap: capAt(2), Label: TrendChronicDeload}
		}
		return RPETrend{VolumeModifier: 0.85, IntensityCap: capAt(3), Label: TrendAcuteRecovery}
	case 1:
		if previousValue(1) {
			return RPETrend{VolumeModifier: 1.25, Label: TrendOverloadBoost}
		}
		return RPETrend{VolumeModifier: 1.15, Label: TrendProgressiveOverload}
	default:
		return RPETrend{VolumeModifier: 1.0, Label: TrendMaintenance}
	}
}
