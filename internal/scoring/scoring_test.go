package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthagent/health-agent-server/internal/profile"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestComputeScoresFullProfile(t *testing.T) {
	p := profile.HealthProfile{
		Age:           intPtr(30),
		HeightCm:      floatPtr(175),
		WeightKg:      floatPtr(66.5), // BMI ~21.7, right at the healthy midpoint
		ActivityLevel: profile.ActivityVeryActive,
		SleepQuality:  profile.SleepGood,
		StressLevel:   profile.StressLow,
	}

	report := ComputeScores(p)

	assert.Equal(t, 100, report.BMI.Score)
	assert.Equal(t, "Excellent", report.BMI.Category)
	assert.Equal(t, 90, report.Activity.Score)
	assert.Equal(t, 75, report.Sleep.Score)
	assert.Equal(t, 90, report.Stress.Score)

	wantOverall := int(math.Round((100 + 90 + 75 + 90) / 4.0))
	assert.Equal(t, wantOverall, report.Overall.Score)
	assert.GreaterOrEqual(t, report.Overall.Score, 0)
	assert.LessOrEqual(t, report.Overall.Score, 100)
}

func TestComputeScoresEmptyProfileDefaultsToNeutral(t *testing.T) {
	report := ComputeScores(profile.HealthProfile{})

	for name, m := range map[string]Metric{
		"bmi":       report.BMI,
		"activity":  report.Activity,
		"sleep":     report.Sleep,
		"stress":    report.Stress,
		"nutrition": report.Nutrition,
		"overall":   report.Overall,
	} {
		assert.Equalf(t, 50, m.Score, "%s score should default to neutral", name)
		assert.Equalf(t, "Fair", m.Category, "%s category should be Fair", name)
		assert.NotEmptyf(t, m.Recommendation, "%s should carry a recommendation", name)
	}
}

func TestComputeScoresBMIDistancePenalty(t *testing.T) {
	// BMI 31.7 is ten points above the midpoint, so the score drops by 20.
	p := profile.HealthProfile{
		HeightCm: floatPtr(100),
		WeightKg: floatPtr(31.7),
	}

	report := ComputeScores(p)

	require.InDelta(t, 31.7, report.BMI.Value, 0.01)
	assert.Equal(t, 80, report.BMI.Score)
}

func TestComputeScoresExtremeBMIClampsToZero(t *testing.T) {
	p := profile.HealthProfile{
		HeightCm: floatPtr(100),
		WeightKg: floatPtr(150),
	}

	report := ComputeScores(p)

	assert.Equal(t, 0, report.BMI.Score)
	assert.Equal(t, "Poor", report.BMI.Category)
	assert.GreaterOrEqual(t, report.Overall.Score, 0)
}

func TestComputeScoresStressIsInverted(t *testing.T) {
	low := ComputeScores(profile.HealthProfile{StressLevel: profile.StressLow})
	high := ComputeScores(profile.HealthProfile{StressLevel: profile.StressVeryHigh})

	assert.Equal(t, 90, low.Stress.Score)
	assert.Equal(t, 20, high.Stress.Score)
	assert.Greater(t, low.Overall.Score, high.Overall.Score)
}

func TestCategorizeBoundaries(t *testing.T) {
	cases := map[int]string{
		100: "Excellent",
		80:  "Excellent",
		79:  "Good",
		60:  "Good",
		59:  "Fair",
		40:  "Fair",
		39:  "Poor",
		0:   "Poor",
	}
	for score, want := range cases {
		assert.Equalf(t, want, categorize(score), "score %d", score)
	}
}
