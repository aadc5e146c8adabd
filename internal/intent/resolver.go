package intent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/healthagent/health-agent-server/internal/gemini"
	"github.com/healthagent/health-agent-server/internal/plans"
)

// ConfirmationThreshold is the confidence below which callers should ask the
// user to confirm rather than act on the extraction directly.
const ConfirmationThreshold = 0.5

const (
	baseConfidence    = 0.9
	fallbackPenalty   = 0.3
	minimumConfidence = 0.3
	dateLayout        = "2006-01-02"
	clockLayout       = "15:04"
)

type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Extraction is the resolved scheduling intent. Date is always a concrete
// calendar day; at most one of Time and TimeRange is set.
type Extraction struct {
	Date        string     `json:"date"`
	Time        *string    `json:"time"`
	TimeRange   *TimeRange `json:"time_range"`
	SubjectName *string    `json:"subject_name"`
	Confidence  float64    `json:"confidence"`
}

func (e Extraction) NeedsConfirmation() bool {
	return e.Confidence < ConfirmationThreshold
}

var dayRanges = map[string]TimeRange{
	"morning":   {Start: "09:00", End: "12:00"},
	"afternoon": {Start: "12:00", End: "17:00"},
	"evening":   {Start: "17:00", End: "20:00"},
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var (
	clock12Re = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Re = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	doctorRe  = regexp.MustCompile(`\bdr\.?\s+([a-z]+)`)
)

// Resolver turns free-text scheduling requests into concrete dates and time
// ranges. The date arithmetic is fully deterministic; an optional generative
// pass only refines entity extraction and never decides the calendar math
// alone.
type Resolver struct {
	completer gemini.Completer // nil disables the service pass
}

func NewResolver(completer gemini.Completer) *Resolver {
	return &Resolver{completer: completer}
}

// Resolve parses text against the supplied now. It never fails: text that
// yields no valid date degrades to tomorrow at reduced confidence.
func (r *Resolver) Resolve(text string, now time.Time) Extraction {
	lower := strings.ToLower(text)
	out := Extraction{Confidence: baseConfidence}

	date, matched := resolveDate(lower, now)
	if !matched {
		date = now.AddDate(0, 0, 1)
		out.Confidence = reduceConfidence(out.Confidence)
	}
	out.Date = date.Format(dateLayout)

	if rng, ok := resolveDayRange(lower); ok {
		out.TimeRange = &rng
	}

	// An explicit clock time wins over any named range.
	if clock, ok := resolveClockTime(lower); ok {
		out.Time = &clock
		out.TimeRange = nil
	}

	if m := doctorRe.FindStringSubmatch(lower); m != nil {
		name := strings.ToUpper(m[1][:1]) + m[1][1:]
		out.SubjectName = &name
	}

	return out
}

// ResolveWithService asks the generative service for an extraction first and
// validates its reply; any failure degrades to the deterministic path rather
// than surfacing an error.
func (r *Resolver) ResolveWithService(ctx context.Context, text string, now time.Time) Extraction {
	if r.completer == nil {
		return r.Resolve(text, now)
	}

	raw, err := r.completer.Complete(ctx, buildExtractionPrompt(text, now))
	if err != nil {
		return r.Resolve(text, now)
	}

	shape := plans.Shape{
		Required:    []string{"date", "confidence"},
		NonNegative: []string{"confidence"},
	}
	parsed, err := plans.Extract[Extraction](raw, shape)
	if err != nil {
		return r.Resolve(text, now)
	}

	// The service proposes, the calendar disposes: an unparseable date falls
	// back to tomorrow at reduced confidence.
	if _, err := time.Parse(dateLayout, parsed.Date); err != nil {
		parsed.Date = now.AddDate(0, 0, 1).Format(dateLayout)
		parsed.Confidence = reduceConfidence(parsed.Confidence)
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}
	if parsed.Time != nil {
		parsed.TimeRange = nil
	}

	return parsed
}

func resolveDate(lower string, now time.Time) (time.Time, bool) {
	switch {
	case strings.Contains(lower, "day after tomorrow"):
		return now.AddDate(0, 0, 2), true
	case strings.Contains(lower, "tomorrow"):
		return now.AddDate(0, 0, 1), true
	case strings.Contains(lower, "today"):
		return now, true
	case strings.Contains(lower, "next week"):
		return now.AddDate(0, 0, 7), true
	}

	for name, weekday := range weekdays {
		if !containsWord(lower, name) {
			continue
		}
		// Always the next future occurrence, 1-7 days ahead.
		delta := (int(weekday) - int(now.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return now.AddDate(0, 0, delta), true
	}

	return time.Time{}, false
}

func resolveDayRange(lower string) (TimeRange, bool) {
	for name, rng := range dayRanges {
		if strings.Contains(lower, name) {
			return rng, true
		}
	}
	return TimeRange{}, false
}

func resolveClockTime(lower string) (string, bool) {
	if m := clock12Re.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour >= 1 && hour <= 12 && minute < 60 {
			if m[3] == "pm" && hour != 12 {
				hour += 12
			}
			if m[3] == "am" && hour == 12 {
				hour = 0
			}
			return fmt.Sprintf("%02d:%02d", hour, minute), true
		}
	}

	if m := clock24Re.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			return fmt.Sprintf("%02d:%02d", hour, minute), true
		}
	}

	return "", false
}

func reduceConfidence(c float64) float64 {
	c -= fallbackPenalty
	if c < minimumConfidence {
		return minimumConfidence
	}
	return c
}

func containsWord(text, word string) bool {
	idx := strings.Index(text, word)
	if idx < 0 {
		return false
	}
	before := idx == 0 || !isLetter(text[idx-1])
	afterIdx := idx + len(word)
	after := afterIdx >= len(text) || !isLetter(text[afterIdx])
	return before && after
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func buildExtractionPrompt(text string, now time.Time) string {
	var b strings.Builder

	b.WriteString("Extract appointment scheduling details from the user's message.\n\n")
	b.WriteString("CURRENT DATE: " + now.Format("Monday, January 2, 2006") + "\n")
	b.WriteString("CURRENT TIME: " + now.Format(clockLayout) + "\n\n")
	b.WriteString("USER INPUT: \"" + text + "\"\n\n")
	b.WriteString("Respond with ONLY a valid JSON object of this shape:\n")
	b.WriteString(`{"date":"YYYY-MM-DD","time":"HH:MM or null","time_range":{"start":"HH:MM","end":"HH:MM"},` +
		`"subject_name":"doctor name or null","confidence":0.0}` + "\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- \"tomorrow\" means current date plus one day; \"next week\" plus seven days\n")
	b.WriteString("- a weekday name means its next future occurrence\n")
	b.WriteString("- morning is 09:00-12:00, afternoon 12:00-17:00, evening 17:00-20:00\n")
	b.WriteString("- with no specific time, set time to null and provide time_range\n\n")
	b.WriteString("No markdown formatting or explanation.")

	return b.String()
}
