// Package view turns a controller snapshot into everything a front end needs
// to draw: field rows, the submit control, and at most one of the results or
// error panels. Build is pure; the web and terminal front ends only lay out
// what it returns.
package view

import (
	"fmt"
	"strconv"

	"github.com/kilianp07/healthpredictor/core/form"
	"github.com/kilianp07/healthpredictor/core/model"
)

// Region is the result area shown below the form.
type Region int

const (
	RegionNone Region = iota
	RegionResults
	RegionError
)

// String returns the region name.
func (r Region) String() string {
	switch r {
	case RegionResults:
		return "results"
	case RegionError:
		return "error"
	default:
		return "none"
	}
}

// MarshalText encodes the region by name.
func (r Region) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText decodes a region name.
func (r *Region) UnmarshalText(b []byte) error {
	switch string(b) {
	case "results":
		*r = RegionResults
	case "error":
		*r = RegionError
	case "none":
		*r = RegionNone
	default:
		return fmt.Errorf("unknown region %q", b)
	}
	return nil
}

// Submit button labels.
const (
	ButtonIdle       = "Predict Health Risk"
	ButtonSubmitting = "Analyzing..."
)

// OptionView is one entry of a select field.
type OptionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// FieldView is one form row.
type FieldView struct {
	Key     string       `json:"key"`
	Label   string       `json:"label"`
	Unit    string       `json:"unit,omitempty"`
	Help    string       `json:"help"`
	Range   bool         `json:"range"`
	Value   string       `json:"value"`
	Display string       `json:"display"`
	Min     string       `json:"min"`
	Max     string       `json:"max"`
	Step    string       `json:"step"`
	Options []OptionView `json:"options,omitempty"`
}

// ResultView is the content of the results panel.
type ResultView struct {
	Score         float64 `json:"score"`
	ScoreText     string  `json:"score_text"`
	ScoreTier     string  `json:"score_tier"`
	Ring          Ring    `json:"ring"`
	Category      string  `json:"category"`
	CategoryTier  string  `json:"category_tier"`
	CategoryColor string  `json:"category_color"`
	Guidance      string  `json:"guidance"`
	Recognized    bool    `json:"recognized"`
}

// View is the complete render of a snapshot.
type View struct {
	Fields         []FieldView `json:"fields"`
	Region         Region      `json:"region"`
	Result         *ResultView `json:"result,omitempty"`
	Error          string      `json:"error,omitempty"`
	ButtonLabel    string      `json:"button_label"`
	ButtonDisabled bool        `json:"button_disabled"`
	Phase          string      `json:"phase"`
}

// Build renders s.
func Build(s form.Snapshot) View {
	v := View{
		Fields:      make([]FieldView, 0, len(model.Fields())),
		ButtonLabel: ButtonIdle,
		Phase:       s.Phase.String(),
	}
	for _, f := range model.Fields() {
		v.Fields = append(v.Fields, buildField(f.Spec(), s.Input.Get(f)))
	}
	if s.InFlight {
		v.ButtonLabel = ButtonSubmitting
		v.ButtonDisabled = true
	}
	switch {
	case s.Result != nil:
		v.Region = RegionResults
		r := BuildResult(*s.Result)
		v.Result = &r
	case s.Error != "":
		v.Region = RegionError
		v.Error = s.Error
	}
	return v
}

// BuildResult renders the results panel for r.
func BuildResult(r model.Result) ResultView {
	st := ScoreTier(r.Score)
	ct := CategoryTier(r.Category)
	guidance, ok := Guidance(r.Category)
	return ResultView{
		Score:         r.Score,
		ScoreText:     FormatNumber(r.Score),
		ScoreTier:     st.String(),
		Ring:          NewRing(r.Score, st.Color()),
		Category:      r.Label,
		CategoryTier:  ct.String(),
		CategoryColor: ct.Color(),
		Guidance:      guidance,
		Recognized:    ok,
	}
}

func buildField(spec model.FieldSpec, v float64) FieldView {
	fv := FieldView{
		Key:   spec.Key,
		Label: spec.Label,
		Unit:  spec.Unit,
		Help:  spec.Help,
		Range: spec.Control == model.ControlRange,
		Value: FormatNumber(v),
		Min:   FormatNumber(spec.Min),
		Max:   FormatNumber(spec.Max),
		Step:  FormatNumber(spec.Step),
	}
	fv.Display = fv.Value
	if spec.Unit != "" {
		fv.Display += " " + spec.Unit
	}
	for _, o := range spec.Options {
		fv.Options = append(fv.Options, OptionView{
			Value:    FormatNumber(o.Value),
			Label:    o.Label,
			Selected: o.Value == v,
		})
	}
	if label, ok := spec.OptionLabel(v); ok {
		fv.Display = label
	}
	return fv
}

// FormatNumber prints v with the fewest digits that round-trip.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
