package model

import "math"

// Field identifies one of the clinical parameters collected by the form.
type Field int

const (
	FieldAge Field = iota
	FieldSex
	FieldRestingBP
	FieldCholesterol
	FieldMaxHeartRate
	FieldOldpeak
	FieldChestPain
	FieldFastingBloodSugar
	FieldRestingECG
	FieldExerciseAngina
	FieldSlope
	FieldMajorVessels
	FieldThal

	fieldCount
)

// Control describes how a field is entered.
type Control int

const (
	// ControlRange is a bounded slider with a step.
	ControlRange Control = iota
	// ControlSelect is a closed set of integer codes.
	ControlSelect
)

// Option is one selectable code of a select field.
type Option struct {
	Value float64
	Label string
}

// FieldSpec holds the domain and presentation metadata of a field.
type FieldSpec struct {
	Field   Field
	Key     string
	Label   string
	Unit    string
	Help    string
	Control Control
	Min     float64
	Max     float64
	Step    float64
	Options []Option
	Default float64
}

// Fields lists every field in form order.
func Fields() []Field {
	out := make([]Field, 0, fieldCount)
	for f := FieldAge; f < fieldCount; f++ {
		out = append(out, f)
	}
	return out
}

// String returns the JSON key of the field.
func (f Field) String() string {
	switch f {
	case FieldAge:
		return "age"
	case FieldSex:
		return "sex"
	case FieldRestingBP:
		return "trestbps"
	case FieldCholesterol:
		return "chol"
	case FieldMaxHeartRate:
		return "thalach"
	case FieldOldpeak:
		return "oldpeak"
	case FieldChestPain:
		return "cp"
	case FieldFastingBloodSugar:
		return "fbs"
	case FieldRestingECG:
		return "restecg"
	case FieldExerciseAngina:
		return "exang"
	case FieldSlope:
		return "slope"
	case FieldMajorVessels:
		return "ca"
	case FieldThal:
		return "thal"
	default:
		return "unknown"
	}
}

// ParseField resolves a JSON key to its Field.
func ParseField(key string) (Field, bool) {
	for _, f := range Fields() {
		if f.String() == key {
			return f, true
		}
	}
	return 0, false
}

// Spec returns the metadata of the field. Unknown fields yield a zero spec.
func (f Field) Spec() FieldSpec {
	switch f {
	case FieldAge:
		return rangeSpec(f, "Age", "", 0, 120, 1, 50,
			"Your current age in years. Age is a significant risk factor for heart disease.")
	case FieldSex:
		return selectSpec(f, "Sex", 0,
			"Biological sex. Males typically have higher risk of heart disease at younger ages.",
			Option{0, "Male"}, Option{1, "Female"})
	case FieldRestingBP:
		return rangeSpec(f, "Resting BP", "mmHg", 80, 200, 1, 120,
			"Resting blood pressure in mm Hg. Normal range is typically 90-120 mm Hg.")
	case FieldCholesterol:
		return rangeSpec(f, "Cholesterol", "mg/dl", 100, 400, 1, 200,
			"Serum cholesterol level in mg/dl. Levels above 240 mg/dl are considered high.")
	case FieldMaxHeartRate:
		return rangeSpec(f, "Max Heart Rate", "bpm", 60, 220, 1, 150,
			"Maximum heart rate achieved during exercise. Higher values are generally better.")
	case FieldOldpeak:
		return rangeSpec(f, "ST Depression", "", 0, 10, 0.1, 1.0,
			"ST depression induced by exercise. Higher values may indicate heart problems.")
	case FieldChestPain:
		return selectSpec(f, "Chest Pain Type", 0,
			"Type of chest pain experienced. Different types have varying associations with heart disease.",
			Option{0, "Typical Angina"}, Option{1, "Atypical Angina"}, Option{2, "Non-anginal Pain"}, Option{3, "Asymptomatic"})
	case FieldFastingBloodSugar:
		return selectSpec(f, "Fasting Blood Sugar", 0,
			"Fasting blood sugar level. Values >120 mg/dl may indicate diabetes risk.",
			Option{0, "≤120 mg/dl"}, Option{1, ">120 mg/dl"})
	case FieldRestingECG:
		return selectSpec(f, "Resting ECG", 0,
			"Resting electrocardiographic results showing heart rhythm abnormalities.",
			Option{0, "Normal"}, Option{1, "ST-T Abnormality"}, Option{2, "Left Ventricular Hypertrophy"})
	case FieldExerciseAngina:
		return selectSpec(f, "Exercise Induced Angina", 0,
			"Exercise-induced angina (chest pain). May indicate restricted blood flow to heart.",
			Option{0, "No"}, Option{1, "Yes"})
	case FieldSlope:
		return selectSpec(f, "ST Slope", 2,
			"The slope of the peak exercise ST segment on ECG.",
			Option{0, "Upsloping"}, Option{1, "Flat"}, Option{2, "Downsloping"})
	case FieldMajorVessels:
		return rangeSpec(f, "Major Vessels", "", 0, 4, 1, 0,
			"Number of major coronary arteries with significant blockage (0-4).")
	case FieldThal:
		return selectSpec(f, "Thalassemia", 2,
			"Thalassemia test results indicating blood flow to the heart muscle.",
			Option{1, "Normal"}, Option{2, "Fixed Defect"}, Option{3, "Reversible Defect"})
	default:
		return FieldSpec{Field: f, Key: f.String()}
	}
}

func rangeSpec(f Field, label, unit string, lo, hi, step, def float64, help string) FieldSpec {
	return FieldSpec{
		Field: f, Key: f.String(), Label: label, Unit: unit, Help: help,
		Control: ControlRange, Min: lo, Max: hi, Step: step, Default: def,
	}
}

func selectSpec(f Field, label string, def float64, help string, opts ...Option) FieldSpec {
	return FieldSpec{
		Field: f, Key: f.String(), Label: label, Help: help,
		Control: ControlSelect, Min: opts[0].Value, Max: opts[len(opts)-1].Value, Step: 1,
		Options: opts, Default: def,
	}
}

// Allows reports whether v lies inside the field's domain.
func (s FieldSpec) Allows(v float64) bool {
	if s.Control == ControlSelect {
		for _, o := range s.Options {
			if o.Value == v {
				return true
			}
		}
		return false
	}
	if v < s.Min || v > s.Max {
		return false
	}
	return s.onStep(v)
}

// onStep reports whether v is a whole number of steps above Min, within a
// tolerance absorbing decimal steps such as 0.1.
func (s FieldSpec) onStep(v float64) bool {
	if s.Step <= 0 {
		return true
	}
	n := (v - s.Min) / s.Step
	return math.Abs(n-math.Round(n)) < 1e-6
}

// OptionLabel returns the label of the option matching v.
func (s FieldSpec) OptionLabel(v float64) (string, bool) {
	for _, o := range s.Options {
		if o.Value == v {
			return o.Label, true
		}
	}
	return "", false
}
