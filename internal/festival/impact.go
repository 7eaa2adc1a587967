package festival

import "strings"

// Impact is the demand-impact band of a calendar event.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Default demand multipliers per impact band. A stored entry's learned
// multiplier takes precedence over these.
const (
	MultiplierHigh   = 1.45
	MultiplierMedium = 1.25
	MultiplierLow    = 1.10
)

var highImpactKeywords = []string{
	"thanksgiving", "super bowl", "christmas", "independence day", "new year",
}

var mediumImpactKeywords = []string{
	"memorial", "labor day", "mother's day", "father's day", "valentine",
	"halloween", "black friday",
}

// ClassifyImpact maps an event name onto an impact band by
// case-insensitive keyword match. Unmatched events are low impact.
func ClassifyImpact(name string) Impact {
	needle := strings.ToLower(name)
	for _, kw := range highImpactKeywords {
		if strings.Contains(needle, kw) {
			return ImpactHigh
		}
	}
	for _, kw := range mediumImpactKeywords {
		if strings.Contains(needle, kw) {
			return ImpactMedium
		}
	}
	return ImpactLow
}

// DefaultMultiplier returns the band's default demand multiplier.
func DefaultMultiplier(impact Impact) float64 {
	switch impact {
	case ImpactHigh:
		return MultiplierHigh
	case ImpactMedium:
		return MultiplierMedium
	default:
		return MultiplierLow
	}
}
