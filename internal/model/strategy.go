package model

import "strings"

// StrategyTag is the categorical outreach angle chosen for a drafted message.
// The set is closed; both the drafting step and analytics aggregation consume
// this enumeration so the two can never drift.
type StrategyTag string

const (
	StrategyPainPoint        StrategyTag = "PAIN_POINT"
	StrategyValidationAsk    StrategyTag = "VALIDATION_ASK"
	StrategyDirectPitch      StrategyTag = "DIRECT_PITCH"
	StrategyMutualConnection StrategyTag = "MUTUAL_CONNECTION"
	StrategyIndustryTrend    StrategyTag = "INDUSTRY_TREND"
)

// DefaultStrategyTag is substituted when the draft generator returns a tag
// outside the closed set, or fails entirely.
const DefaultStrategyTag = StrategyDirectPitch

// AllStrategyTags lists the closed set in a stable order.
func AllStrategyTags() []StrategyTag {
	return []StrategyTag{
		StrategyPainPoint,
		StrategyValidationAsk,
		StrategyDirectPitch,
		StrategyMutualConnection,
		StrategyIndustryTrend,
	}
}

var validStrategyTags = map[StrategyTag]bool{
	StrategyPainPoint:        true,
	StrategyValidationAsk:    true,
	StrategyDirectPitch:      true,
	StrategyMutualConnection: true,
	StrategyIndustryTrend:    true,
}

// ValidStrategyTag reports whether s is a member of the closed set.
func ValidStrategyTag(s string) bool {
	return validStrategyTags[StrategyTag(s)]
}

// NormalizeStrategyTag maps s to a member of the closed set, substituting
// DefaultStrategyTag for anything outside it. Labels arrive from an LLM, so
// matching ignores case and surrounding whitespace.
func NormalizeStrategyTag(s string) StrategyTag {
	tag := StrategyTag(strings.ToUpper(strings.TrimSpace(s)))
	if validStrategyTags[tag] {
		return tag
	}
	return DefaultStrategyTag
}
