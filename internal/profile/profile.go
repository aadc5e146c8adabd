package profile

import (
	"fmt"
	"strings"
)

type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "SEDENTARY"
	ActivityLightlyActive    ActivityLevel = "LIGHTLY_ACTIVE"
	ActivityModeratelyActive ActivityLevel = "MODERATELY_ACTIVE"
	ActivityVeryActive       ActivityLevel = "VERY_ACTIVE"
	ActivityExtremelyActive  ActivityLevel = "EXTREMELY_ACTIVE"
)

type SleepQuality string

const (
	SleepPoor      SleepQuality = "POOR"
	SleepFair      SleepQuality = "FAIR"
	SleepGood      SleepQuality = "GOOD"
	SleepExcellent SleepQuality = "EXCELLENT"
)

type StressLevel string

const (
	StressLow      StressLevel = "LOW"
	StressModerate StressLevel = "MODERATE"
	StressHigh     StressLevel = "HIGH"
	StressVeryHigh StressLevel = "VERY_HIGH"
)

// HealthProfile carries everything downstream scoring and plan generation
// work from. Every field is optional; consumers must degrade to neutral
// defaults rather than fail on absent data.
type HealthProfile struct {
	Age            *int          `json:"age,omitempty"`
	Gender         string        `json:"gender,omitempty"`
	HeightCm       *float64      `json:"height_cm,omitempty"`
	WeightKg       *float64      `json:"weight_kg,omitempty"`
	ActivityLevel  ActivityLevel `json:"activity_level,omitempty"`
	SleepQuality   SleepQuality  `json:"sleep_quality,omitempty"`
	StressLevel    StressLevel   `json:"stress_level,omitempty"`
	DietPreference string        `json:"diet_preference,omitempty"`
	Conditions     []string      `json:"conditions,omitempty"`
	Allergies      []string      `json:"allergies,omitempty"`
}

// FactList renders the profile as the compact line-per-fact block embedded in
// generation prompts. Absent fields are omitted entirely.
func (p HealthProfile) FactList() string {
	var facts []string

	if p.Age != nil {
		facts = append(facts, fmt.Sprintf("Age: %d", *p.Age))
	}
	if p.Gender != "" {
		facts = append(facts, "Gender: "+p.Gender)
	}
	if p.HeightCm != nil {
		facts = append(facts, fmt.Sprintf("Height: %.0f cm", *p.HeightCm))
	}
	if p.WeightKg != nil {
		facts = append(facts, fmt.Sprintf("Weight: %.1f kg", *p.WeightKg))
	}
	if p.ActivityLevel != "" {
		facts = append(facts, "Activity level: "+string(p.ActivityLevel))
	}
	if p.SleepQuality != "" {
		facts = append(facts, "Sleep quality: "+string(p.SleepQuality))
	}
	if p.StressLevel != "" {
		facts = append(facts, "Stress level: "+string(p.StressLevel))
	}
	if p.DietPreference != "" {
		facts = append(facts, "Diet preference: "+p.DietPreference)
	}
	if len(p.Conditions) > 0 {
		facts = append(facts, "Health conditions: "+strings.Join(p.Conditions, ", "))
	}
	if len(p.Allergies) > 0 {
		facts = append(facts, "Allergies: "+strings.Join(p.Allergies, ", "))
	}

	if len(facts) == 0 {
		return "No profile information provided."
	}
	return strings.Join(facts, "\n")
}
