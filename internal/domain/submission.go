package domain

import (
	"bytes"
	"encoding/json"
)

const (
	LabelMainCategory = "Main Category"
	LabelSubcategory  = "Subcategory"
)

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SubmissionResult is an ordered label -> value mapping built once per successful submit.
type SubmissionResult struct {
	fields []Field
	index  map[string]int
}

func NewSubmissionResult() *SubmissionResult {
	return &SubmissionResult{index: make(map[string]int)}
}

// Set appends label, or overwrites its value in place when the label already exists.
func (r *SubmissionResult) Set(label, value string) {
	if i, ok := r.index[label]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[label] = len(r.fields)
	r.fields = append(r.fields, Field{Label: label, Value: value})
}

func (r *SubmissionResult) Get(label string) (string, bool) {
	if r == nil {
		return "", false
	}
	i, ok := r.index[label]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

func (r *SubmissionResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Fields returns the entries in insertion order.
func (r *SubmissionResult) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Map returns the entries as an unordered map.
func (r *SubmissionResult) Map() map[string]string {
	out := make(map[string]string, r.Len())
	for _, f := range r.Fields() {
		out[f.Label] = f.Value
	}
	return out
}

// MarshalJSON encodes the result as a JSON object that keeps insertion order.
// Labels and values are written without HTML escaping.
func (r *SubmissionResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, f := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(f.Label); err != nil {
			return nil, err
		}
		trimNewline(&buf)
		buf.WriteByte(':')
		if err := enc.Encode(f.Value); err != nil {
			return nil, err
		}
		trimNewline(&buf)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// trimNewline drops the newline json.Encoder appends after each value.
func trimNewline(buf *bytes.Buffer) {
	if n := buf.Len(); n > 0 && buf.Bytes()[n-1] == '\n' {
		buf.Truncate(n - 1)
	}
}

// UnmarshalJSON decodes a JSON object, keeping the key order of the document.
func (r *SubmissionResult) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = *NewSubmissionResult()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		r.Set(label, value)
	}
	_, err := dec.Token()
	return err
}
