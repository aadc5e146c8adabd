package scoring

import (
	"math"

	"github.com/healthagent/health-agent-server/internal/profile"
)

// neutralScore is used for any profile field that was never filled in, so an
// incomplete profile reads as "Fair" rather than alarmingly low.
const neutralScore = 50

// bmiMidpoint is the middle of the 18.5-24.9 healthy BMI band.
const bmiMidpoint = 21.7

type Metric struct {
	Value          float64 `json:"value,omitempty"`
	Score          int     `json:"score"`
	Category       string  `json:"category"`
	Recommendation string  `json:"recommendation"`
}

// Report is the deterministic counterpart of the AI-generated health score
// report. Same shape, computed entirely from the profile.
type Report struct {
	BMI       Metric `json:"bmi"`
	Activity  Metric `json:"activity"`
	Sleep     Metric `json:"sleep"`
	Stress    Metric `json:"stress"`
	Nutrition Metric `json:"nutrition"`
	Overall   Metric `json:"overall"`
}

var activityScores = map[profile.ActivityLevel]int{
	profile.ActivitySedentary:        30,
	profile.ActivityLightlyActive:    50,
	profile.ActivityModeratelyActive: 70,
	profile.ActivityVeryActive:       90,
	profile.ActivityExtremelyActive:  95,
}

var sleepScores = map[profile.SleepQuality]int{
	profile.SleepPoor:      30,
	profile.SleepFair:      50,
	profile.SleepGood:      75,
	profile.SleepExcellent: 95,
}

// Stress scores are inverted: low stress is healthy.
var stressScores = map[profile.StressLevel]int{
	profile.StressLow:      90,
	profile.StressModerate: 70,
	profile.StressHigh:     40,
	profile.StressVeryHigh: 20,
}

// ComputeScores is the pure fallback used when the generative pipeline fails
// or returns a degenerate report. It never fails and performs no I/O.
func ComputeScores(p profile.HealthProfile) Report {
	bmiValue := 0.0
	bmiScore := neutralScore

	if p.HeightCm != nil && p.WeightKg != nil && *p.HeightCm > 0 {
		heightM := *p.HeightCm / 100
		bmiValue = *p.WeightKg / (heightM * heightM)
		bmiScore = clamp(int(math.Round(100-2*math.Abs(bmiValue-bmiMidpoint))), 0, 100)
	}

	activityScore := lookup(activityScores, p.ActivityLevel)
	sleepScore := lookup(sleepScores, p.SleepQuality)
	stressScore := lookup(stressScores, p.StressLevel)

	overallScore := int(math.Round(float64(bmiScore+activityScore+sleepScore+stressScore) / 4))

	return Report{
		BMI: Metric{
			Value:          math.Round(bmiValue*10) / 10,
			Score:          bmiScore,
			Category:       categorize(bmiScore),
			Recommendation: "Maintain a balanced diet and regular exercise.",
		},
		Activity: Metric{
			Score:          activityScore,
			Category:       categorize(activityScore),
			Recommendation: "Aim for 150 minutes of moderate activity per week.",
		},
		Sleep: Metric{
			Score:          sleepScore,
			Category:       categorize(sleepScore),
			Recommendation: "Stick to a consistent sleep schedule.",
		},
		Stress: Metric{
			Score:          stressScore,
			Category:       categorize(stressScore),
			Recommendation: "Practice mindfulness and stress reduction techniques.",
		},
		Nutrition: Metric{
			Score:          neutralScore,
			Category:       categorize(neutralScore),
			Recommendation: "Focus on a balanced diet with more whole foods.",
		},
		Overall: Metric{
			Score:          overallScore,
			Category:       categorize(overallScore),
			Recommendation: "Overall assessment computed from your profile.",
		},
	}
}

func lookup[K comparable](table map[K]int, key K) int {
	if score, ok := table[key]; ok {
		return score
	}
	return neutralScore
}

func categorize(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
