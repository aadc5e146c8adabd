package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/healthagent/health-agent-server/internal/gemini"
	"github.com/healthagent/health-agent-server/internal/profile"
	"github.com/healthagent/health-agent-server/internal/scoring"
)

// ErrServiceUnavailable wraps a failed or cancelled generative service call.
// Recovery policy is the same as for an extraction failure.
var ErrServiceUnavailable = errors.New("generative service unavailable")

var instructions = map[PlanKind]string{
	KindDiet: "You are a nutrition assistant. Generate a personalized daily diet plan. " +
		"Respect the user's health conditions, allergies and diet preference.",
	KindExercise: "You are a fitness assistant. Generate a safe, personalized exercise plan. " +
		"Adjust intensity to the user's activity level and flag safety warnings for any conditions.",
	KindYoga: "You are a yoga instructor. Generate a safe, personalized yoga sequence " +
		"appropriate for the user's flexibility and conditions.",
	KindScoreReport: "You are a health assessment assistant. Score the user's BMI, activity, " +
		"sleep, stress and nutrition from 0 to 100 with a category and recommendation each, " +
		"plus an overall score.",
	KindGoal: "You are a health coach. Generate a milestone-based plan for the user's stated goal.",
}

var schemaHints = map[PlanKind]string{
	KindDiet: `{"dailyCalories":0,"macros":{"protein":0,"carbs":0,"fats":0},` +
		`"meals":[{"name":"","time":"","items":[""],"calories":0}],` +
		`"foodsToInclude":[""],"foodsToAvoid":[""],"hydrationTips":[""]}`,
	KindExercise: `{"warmup":[""],"exercises":[{"name":"","sets":0,"reps":"","restSeconds":0}],` +
		`"cooldown":[""],"safetyWarnings":[""],"totalDuration":""}`,
	KindYoga: `{"poses":[{"sanskritName":"","englishName":"","benefits":[""],"instructions":[""],` +
		`"duration":""}],"sequence":[""],"totalDuration":"","generalTips":[""]}`,
	KindScoreReport: `{"bmi":{"value":0,"score":0,"category":"","recommendation":""},` +
		`"activity":{"score":0,"category":"","recommendation":""},` +
		`"sleep":{"score":0,"category":"","recommendation":""},` +
		`"stress":{"score":0,"category":"","recommendation":""},` +
		`"nutrition":{"score":0,"category":"","recommendation":""},` +
		`"overall":{"score":0,"category":"","recommendation":""}}`,
	KindGoal: `{"goalName":"","overview":"","timeline":"",` +
		`"milestones":[{"title":"","description":"","timeframe":""}],` +
		`"lifestyleChanges":[""],"trackingTips":[""]}`,
}

// Pipeline turns a profile plus an optional free-text request into a
// schema-conformant plan. It makes exactly one service call per Generate;
// retrying is the caller's decision.
type Pipeline struct {
	completer gemini.Completer
}

func NewPipeline(completer gemini.Completer) *Pipeline {
	return &Pipeline{completer: completer}
}

// Generate produces the plan for kind. For the score report the deterministic
// fallback replaces a failed or degenerate service reply; every other kind
// surfaces the error because there is no safe fabricated substitute.
func (p *Pipeline) Generate(ctx context.Context, kind PlanKind, prof profile.HealthProfile, extra string) (StructuredPlan, error) {
	prompt := buildPrompt(kind, prof, extra)

	raw, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		if kind == KindScoreReport {
			return fallbackReport(prof), nil
		}
		return StructuredPlan{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	switch kind {
	case KindDiet:
		plan, err := Extract[DietPlan](raw, dietShape)
		if err != nil {
			return StructuredPlan{}, err
		}
		return StructuredPlan{Kind: kind, Diet: &plan}, nil

	case KindExercise:
		plan, err := Extract[ExercisePlan](raw, exerciseShape)
		if err != nil {
			return StructuredPlan{}, err
		}
		return StructuredPlan{Kind: kind, Exercise: &plan}, nil

	case KindYoga:
		plan, err := Extract[YogaPlan](raw, yogaShape)
		if err != nil {
			return StructuredPlan{}, err
		}
		return StructuredPlan{Kind: kind, Yoga: &plan}, nil

	case KindScoreReport:
		report, err := Extract[scoring.Report](raw, scoreShape)
		if err != nil {
			return fallbackReport(prof), nil
		}
		// An exactly-zero overall or BMI score never occurs in a real
		// assessment; treat it as an invalid reply.
		if report.Overall.Score == 0 || report.BMI.Score == 0 {
			return fallbackReport(prof), nil
		}
		return StructuredPlan{Kind: kind, Scores: &report}, nil

	case KindGoal:
		plan, err := Extract[GoalPlan](raw, goalShape)
		if err != nil {
			return StructuredPlan{}, err
		}
		return StructuredPlan{Kind: kind, Goal: &plan}, nil

	default:
		return StructuredPlan{}, fmt.Errorf("unknown plan kind %q", kind)
	}
}

func fallbackReport(prof profile.HealthProfile) StructuredPlan {
	report := scoring.ComputeScores(prof)
	return StructuredPlan{Kind: KindScoreReport, Scores: &report}
}

func buildPrompt(kind PlanKind, prof profile.HealthProfile, extra string) string {
	var b strings.Builder

	b.WriteString(instructions[kind])
	b.WriteString("\n\nUSER'S HEALTH PROFILE:\n")
	b.WriteString(prof.FactList())

	if strings.TrimSpace(extra) != "" {
		b.WriteString("\n\nSPECIFIC REQUEST: ")
		b.WriteString(strings.TrimSpace(extra))
	}

	b.WriteString("\n\nRespond with ONLY a valid JSON object matching this schema:\n")
	b.WriteString(schemaHints[kind])
	b.WriteString("\n\nNo markdown formatting or explanation.")

	return b.String()
}
