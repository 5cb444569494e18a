package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FormInput holds one value per Field. The zero value is not a valid form;
// use DefaultInput.
type FormInput struct {
	values [fieldCount]float64
}

// DefaultInput returns the form populated with each field's default.
func DefaultInput() FormInput {
	var in FormInput
	for _, f := range Fields() {
		in.values[f] = f.Spec().Default
	}
	return in
}

// Get returns the value of f.
func (in FormInput) Get(f Field) float64 {
	if f < 0 || f >= fieldCount {
		return 0
	}
	return in.values[f]
}

// With returns a copy of the form with f set to v. No domain check is made.
func (in FormInput) With(f Field, v float64) FormInput {
	if f >= 0 && f < fieldCount {
		in.values[f] = v
	}
	return in
}

// Validate checks every field against its domain.
func (in FormInput) Validate() error {
	for _, f := range Fields() {
		if !f.Spec().Allows(in.values[f]) {
			return &FieldError{Field: f.String(), Value: strconv.FormatFloat(in.values[f], 'f', -1, 64), Err: ErrOutOfRange}
		}
	}
	return nil
}

// MarshalJSON encodes the form as an object with the 13 keys in form order.
func (in FormInput) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%s", f.String(), strconv.FormatFloat(in.values[f], 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object that must contain all 13 numeric keys.
func (in *FormInput) UnmarshalJSON(data []byte) error {
	var raw map[string]json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	var out FormInput
	for _, f := range Fields() {
		n, ok := raw[f.String()]
		if !ok {
			return &FieldError{Field: f.String(), Err: ErrMissingField}
		}
		v, err := n.Float64()
		if err != nil {
			return &FieldError{Field: f.String(), Value: n.String(), Err: ErrNotNumber}
		}
		out.values[f] = v
	}
	*in = out
	return nil
}
