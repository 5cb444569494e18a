package view

import "github.com/kilianp07/healthpredictor/core/model"

// Tier is the colour band used for scores and categories.
type Tier int

const (
	TierNeutral Tier = iota
	TierGood
	TierWarning
	TierDanger
)

// String returns the tier name, also used as a CSS class.
func (t Tier) String() string {
	switch t {
	case TierGood:
		return "good"
	case TierWarning:
		return "warning"
	case TierDanger:
		return "danger"
	default:
		return "neutral"
	}
}

// Color returns the hex colour of the tier.
func (t Tier) Color() string {
	switch t {
	case TierGood:
		return "#10B981"
	case TierWarning:
		return "#F59E0B"
	case TierDanger:
		return "#EF4444"
	default:
		return "#6B7280"
	}
}

// ScoreTier partitions scores at 80 and 60.
func ScoreTier(score float64) Tier {
	switch {
	case score >= 80:
		return TierGood
	case score >= 60:
		return TierWarning
	default:
		return TierDanger
	}
}

// CategoryTier maps a risk category to its tier. Unrecognised categories are
// neutral.
func CategoryTier(c model.RiskCategory) Tier {
	switch c {
	case model.RiskHealthy:
		return TierGood
	case model.RiskMild:
		return TierWarning
	case model.RiskAtRisk:
		return TierDanger
	default:
		return TierNeutral
	}
}

// FallbackGuidance is shown for a category outside the known three.
const FallbackGuidance = "The risk category returned for this assessment is not recognised. Please consult with a healthcare professional to interpret the score."

// Guidance returns the advice text for a category and whether the category
// was recognised.
func Guidance(c model.RiskCategory) (string, bool) {
	switch c {
	case model.RiskHealthy:
		return "Your cardiovascular health appears to be in good condition. Continue maintaining healthy lifestyle habits.", true
	case model.RiskMild:
		return "You may have some elevated risk factors. Consider consulting with a healthcare provider for guidance.", true
	case model.RiskAtRisk:
		return "Several risk factors detected. Please consult with a healthcare professional for proper evaluation and treatment.", true
	default:
		return FallbackGuidance, false
	}
}
