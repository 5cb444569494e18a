package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RiskCategory is the closed set of labels returned by the prediction backend.
type RiskCategory int

const (
	RiskUnknown RiskCategory = iota
	RiskHealthy
	RiskMild
	RiskAtRisk
)

// String returns the wire label of the category.
func (c RiskCategory) String() string {
	switch c {
	case RiskHealthy:
		return "Healthy"
	case RiskMild:
		return "Mild Risk"
	case RiskAtRisk:
		return "At Risk"
	default:
		return "unknown"
	}
}

// ParseRiskCategory maps a wire label to its category. Unrecognised labels
// yield RiskUnknown.
func ParseRiskCategory(s string) RiskCategory {
	switch s {
	case "Healthy":
		return RiskHealthy
	case "Mild Risk":
		return RiskMild
	case "At Risk":
		return RiskAtRisk
	default:
		return RiskUnknown
	}
}

// Wire keys of a successful prediction response.
const (
	KeyScore    = "Predicted Health Score"
	KeyCategory = "Risk Category"
	KeyError    = "error"
)

// Result is a successful prediction.
type Result struct {
	Score    float64      `json:"score"`
	Category RiskCategory `json:"-"`
	// Label is the category exactly as received.
	Label string `json:"category"`
}

// NewResult builds a Result from a score and a wire label.
func NewResult(score float64, label string) Result {
	return Result{Score: score, Category: ParseRiskCategory(label), Label: label}
}

// UnmarshalJSON decodes a Result and derives its category from the label.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Score float64 `json:"score"`
		Label string  `json:"category"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = NewResult(raw.Score, raw.Label)
	return nil
}

// ParseScore decodes a health score sent either as a JSON number or as a
// string such as "85.2%".
func ParseScore(raw json.RawMessage) (float64, error) {
	if t := bytes.TrimSpace(raw); len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return 0, fmt.Errorf("score is missing")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("score is neither number nor string: %s", string(raw))
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", s, err)
	}
	return v, nil
}
