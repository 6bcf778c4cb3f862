package types

import (
	"fmt"
	"strings"
)

// Recommendation is the categorical verdict of a match. Lower values rank higher.
type Recommendation int

// Recommendation tiers in ranking order
const (
	RecommendationStrong Recommendation = iota + 1
	RecommendationGood
	RecommendationModerate
	RecommendationWeak
	RecommendationPoor
	RecommendationUnknown
)

var recommendationLabels = map[Recommendation]string{
	RecommendationStrong:   "STRONG MATCH",
	RecommendationGood:     "GOOD MATCH",
	RecommendationModerate: "MODERATE MATCH",
	RecommendationWeak:     "WEAK MATCH",
	RecommendationPoor:     "POOR MATCH",
	RecommendationUnknown:  "UNKNOWN",
}

// ParseRecommendation maps a model label such as "Strong Match" or "STRONG" to a tier.
// Unrecognized labels map to RecommendationUnknown.
func ParseRecommendation(label string) Recommendation {
	normalized := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(label, "_", " ")), " "))
	normalized = strings.TrimSuffix(normalized, " MATCH")

	switch normalized {
	case "STRONG":
		return RecommendationStrong
	case "GOOD":
		return RecommendationGood
	case "MODERATE":
		return RecommendationModerate
	case "WEAK":
		return RecommendationWeak
	case "POOR":
		return RecommendationPoor
	default:
		return RecommendationUnknown
	}
}

// String returns the display label.
func (r Recommendation) String() string {
	if label, ok := recommendationLabels[r]; ok {
		return label
	}
	return recommendationLabels[RecommendationUnknown]
}

// Ordinal returns the sort key; anything outside the known tiers sorts with Unknown.
func (r Recommendation) Ordinal() int {
	if r < RecommendationStrong || r > RecommendationUnknown {
		return int(RecommendationUnknown)
	}
	return int(r)
}

// MarshalText implements encoding.TextMarshaler.
func (r Recommendation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Recommendation) UnmarshalText(text []byte) error {
	if r == nil {
		return fmt.Errorf("nil recommendation")
	}
	*r = ParseRecommendation(string(text))
	return nil
}
