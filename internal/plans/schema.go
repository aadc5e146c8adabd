package plans

import (
	"fmt"

	"github.com/healthagent/health-agent-server/internal/scoring"
)

type PlanKind string

const (
	KindDiet        PlanKind = "diet"
	KindExercise    PlanKind = "exercise"
	KindYoga        PlanKind = "yoga"
	KindScoreReport PlanKind = "score-report"
	KindGoal        PlanKind = "goal"
)

func ParsePlanKind(raw string) (PlanKind, error) {
	kind := PlanKind(raw)
	switch kind {
	case KindDiet, KindExercise, KindYoga, KindScoreReport, KindGoal:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown plan kind %q", raw)
	}
}

type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

type Meal struct {
	Name     string   `json:"name"`
	Time     string   `json:"time"`
	Items    []string `json:"items"`
	Calories float64  `json:"calories"`
}

type DietPlan struct {
	DailyCalories  float64  `json:"dailyCalories"`
	Macros         Macros   `json:"macros"`
	Meals          []Meal   `json:"meals"`
	FoodsToInclude []string `json:"foodsToInclude"`
	FoodsToAvoid   []string `json:"foodsToAvoid"`
	HydrationTips  []string `json:"hydrationTips"`
}

type Exercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"restSeconds"`
}

type ExercisePlan struct {
	Warmup         []string   `json:"warmup"`
	Exercises      []Exercise `json:"exercises"`
	Cooldown       []string   `json:"cooldown"`
	SafetyWarnings []string   `json:"safetyWarnings"`
	TotalDuration  string     `json:"totalDuration"`
}

type YogaPose struct {
	SanskritName string   `json:"sanskritName"`
	EnglishName  string   `json:"englishName"`
	Benefits     []string `json:"benefits"`
	Instructions []string `json:"instructions"`
	Duration     string   `json:"duration"`
}

type YogaPlan struct {
	Poses         []YogaPose `json:"poses"`
	Sequence      []string   `json:"sequence"`
	TotalDuration string     `json:"totalDuration"`
	GeneralTips   []string   `json:"generalTips"`
}

type Milestone struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Timeframe   string `json:"timeframe"`
}

type GoalPlan struct {
	GoalName         string      `json:"goalName"`
	Overview         string      `json:"overview"`
	Timeline         string      `json:"timeline"`
	Milestones       []Milestone `json:"milestones"`
	LifestyleChanges []string    `json:"lifestyleChanges"`
	TrackingTips     []string    `json:"trackingTips"`
}

// StructuredPlan is the closed variant set produced by the pipeline. Exactly
// one field matching Kind is populated.
type StructuredPlan struct {
	Kind     PlanKind        `json:"kind"`
	Diet     *DietPlan       `json:"diet,omitempty"`
	Exercise *ExercisePlan   `json:"exercise,omitempty"`
	Yoga     *YogaPlan       `json:"yoga,omitempty"`
	Scores   *scoring.Report `json:"scores,omitempty"`
	Goal     *GoalPlan       `json:"goal,omitempty"`
}

// Value returns the populated variant.
func (p StructuredPlan) Value() any {
	switch p.Kind {
	case KindDiet:
		return p.Diet
	case KindExercise:
		return p.Exercise
	case KindYoga:
		return p.Yoga
	case KindScoreReport:
		return p.Scores
	case KindGoal:
		return p.Goal
	default:
		return nil
	}
}

// Shapes checked against the service reply before it is trusted.
var (
	dietShape = Shape{
		Required:    []string{"dailyCalories", "macros", "meals"},
		NonNegative: []string{"dailyCalories", "macros.protein", "macros.carbs", "macros.fats"},
		Arrays:      []string{"meals", "foodsToInclude", "foodsToAvoid", "hydrationTips"},
	}
	exerciseShape = Shape{
		Required: []string{"exercises", "totalDuration"},
		Arrays:   []string{"warmup", "exercises", "cooldown", "safetyWarnings"},
	}
	yogaShape = Shape{
		Required: []string{"poses", "totalDuration"},
		Arrays:   []string{"poses", "sequence", "generalTips"},
	}
	scoreShape = Shape{
		Required: []string{"bmi", "activity", "sleep", "stress", "overall"},
		NonNegative: []string{
			"bmi.score", "activity.score", "sleep.score",
			"stress.score", "nutrition.score", "overall.score",
		},
	}
	goalShape = Shape{
		Required: []string{"goalName", "overview", "milestones"},
		Arrays:   []string{"milestones", "lifestyleChanges", "trackingTips"},
	}
)
