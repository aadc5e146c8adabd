package plans

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthagent/health-agent-server/internal/profile"
)

type fakeCompleter struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

const goodScoreReply = `{"bmi":{"value":22.1,"score":88,"category":"Excellent","recommendation":"keep it up"},` +
	`"activity":{"score":70,"category":"Good","recommendation":"walk more"},` +
	`"sleep":{"score":75,"category":"Good","recommendation":"regular schedule"},` +
	`"stress":{"score":60,"category":"Good","recommendation":"breathe"},` +
	`"nutrition":{"score":55,"category":"Fair","recommendation":"more greens"},` +
	`"overall":{"score":71,"category":"Good","recommendation":"solid"}}`

func TestGenerateScoreReportFromService(t *testing.T) {
	fake := &fakeCompleter{reply: "```json\n" + goodScoreReply + "\n```"}
	pipeline := NewPipeline(fake)

	plan, err := pipeline.Generate(context.Background(), KindScoreReport, profile.HealthProfile{}, "")
	require.NoError(t, err)

	require.NotNil(t, plan.Scores)
	assert.Equal(t, 71, plan.Scores.Overall.Score)
	assert.Equal(t, 88, plan.Scores.BMI.Score)
	assert.Equal(t, 1, fake.calls)
}

func TestGenerateZeroScoreReportTriggersFallback(t *testing.T) {
	zeroReply := `{"bmi":{"score":0,"category":"","recommendation":""},` +
		`"activity":{"score":0,"category":"","recommendation":""},` +
		`"sleep":{"score":0,"category":"","recommendation":""},` +
		`"stress":{"score":0,"category":"","recommendation":""},` +
		`"overall":{"score":0,"category":"","recommendation":""}}`
	fake := &fakeCompleter{reply: zeroReply}
	pipeline := NewPipeline(fake)

	prof := profile.HealthProfile{ActivityLevel: profile.ActivityVeryActive}
	plan, err := pipeline.Generate(context.Background(), KindScoreReport, prof, "")
	require.NoError(t, err)

	// Deterministic fallback, not the zero report from the service.
	require.NotNil(t, plan.Scores)
	assert.Equal(t, 90, plan.Scores.Activity.Score)
	assert.NotZero(t, plan.Scores.Overall.Score)
}

func TestGenerateScoreReportServiceFailureFallsBack(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection reset")}
	pipeline := NewPipeline(fake)

	plan, err := pipeline.Generate(context.Background(), KindScoreReport, profile.HealthProfile{}, "")
	require.NoError(t, err)

	require.NotNil(t, plan.Scores)
	assert.Equal(t, 50, plan.Scores.Overall.Score)
}

func TestGenerateScoreReportMalformedReplyFallsBack(t *testing.T) {
	fake := &fakeCompleter{reply: "I cannot produce JSON today, sorry."}
	pipeline := NewPipeline(fake)

	plan, err := pipeline.Generate(context.Background(), KindScoreReport, profile.HealthProfile{}, "")
	require.NoError(t, err)
	require.NotNil(t, plan.Scores)
	assert.Equal(t, "Fair", plan.Scores.Overall.Category)
}

func TestGenerateDietPlanSurfacesServiceFailure(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("timeout")}
	pipeline := NewPipeline(fake)

	_, err := pipeline.Generate(context.Background(), KindDiet, profile.HealthProfile{}, "")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestGenerateDietPlanSurfacesExtractionError(t *testing.T) {
	fake := &fakeCompleter{reply: `{"macros":{"protein":1,"carbs":2,"fats":3}}`}
	pipeline := NewPipeline(fake)

	_, err := pipeline.Generate(context.Background(), KindDiet, profile.HealthProfile{}, "")

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "required", extErr.Check)
}

func TestGenerateDietPlanParsesReply(t *testing.T) {
	reply := `{"dailyCalories":2100,"macros":{"protein":120,"carbs":230,"fats":70},` +
		`"meals":[{"name":"Breakfast","time":"08:00","items":["oats","banana"],"calories":420}],` +
		`"foodsToInclude":["lentils"],"foodsToAvoid":["fried food"],"hydrationTips":["3L water"]}`
	fake := &fakeCompleter{reply: reply}
	pipeline := NewPipeline(fake)

	plan, err := pipeline.Generate(context.Background(), KindDiet, profile.HealthProfile{}, "high protein")
	require.NoError(t, err)

	require.NotNil(t, plan.Diet)
	assert.Equal(t, 2100.0, plan.Diet.DailyCalories)
	require.Len(t, plan.Diet.Meals, 1)
	assert.Equal(t, "Breakfast", plan.Diet.Meals[0].Name)

	assert.Contains(t, fake.lastPrompt, "SPECIFIC REQUEST: high protein")
	assert.Contains(t, fake.lastPrompt, "ONLY a valid JSON object")
}

func TestGeneratePromptEmbedsProfileFacts(t *testing.T) {
	fake := &fakeCompleter{reply: goodScoreReply}
	pipeline := NewPipeline(fake)

	age := 42
	prof := profile.HealthProfile{
		Age:        &age,
		Conditions: []string{"hypertension"},
	}
	_, err := pipeline.Generate(context.Background(), KindScoreReport, prof, "")
	require.NoError(t, err)

	assert.Contains(t, fake.lastPrompt, "Age: 42")
	assert.Contains(t, fake.lastPrompt, "hypertension")
}
