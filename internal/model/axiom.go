package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Verdict is the two-valued outcome of a single axiom
type Verdict string

const (
	VerdictEstable   Verdict = "ESTABLE"   // LBCU holds
	VerdictColapso   Verdict = "COLAPSO"   // LBCU fails
	VerdictEscritura Verdict = "ESCRITURA" // Force crosses the vacuum threshold
	VerdictRuido     Verdict = "RUIDO"     // Force stays below it
	VerdictValidado  Verdict = "VALIDADO"  // Real entropy reduction
	VerdictApofenia  Verdict = "APOFENIA"  // Pattern without reduction
)

// Holds reports whether the verdict is the favourable side of its axiom
func (v Verdict) Holds() bool {
	switch v {
	case VerdictEstable, VerdictEscritura, VerdictValidado:
		return true
	default:
		return false
	}
}

// Measure is a named numeric value reported by an axiom
type Measure struct {
	Name  string
	Value float64
}

// AxiomResult is the outcome of one axiom evaluation.
//
// Measures are serialized inline, between "axiom" and "verdict", in the
// order they were recorded.
type AxiomResult struct {
	Axiom       string
	Measures    []Measure
	Verdict     Verdict
	Explanation string
}

// Measure returns the value recorded under name
func (a AxiomResult) Measure(name string) (float64, bool) {
	for _, m := range a.Measures {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// MarshalJSON writes the result as a flat object with ordered keys
func (a AxiomResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeField(&buf, "axiom", a.Axiom); err != nil {
		return nil, err
	}
	for _, m := range a.Measures {
		buf.WriteByte(',')
		if err := writeField(&buf, m.Name, m.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(',')
	if err := writeField(&buf, "verdict", a.Verdict); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeField(&buf, "explanation", a.Explanation); err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object, collecting every numeric key as a measure
func (a *AxiomResult) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("axiom result: expected object, got %v", tok)
	}

	var out AxiomResult
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("axiom result: unexpected key %v", tok)
		}

		switch key {
		case "axiom":
			err = dec.Decode(&out.Axiom)
		case "verdict":
			err = dec.Decode(&out.Verdict)
		case "explanation":
			err = dec.Decode(&out.Explanation)
		default:
			var v float64
			err = dec.Decode(&v)
			out.Measures = append(out.Measures, Measure{Name: key, Value: v})
		}
		if err != nil {
			return fmt.Errorf("axiom result field %q: %w", key, err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = out
	return nil
}

func writeField(buf *bytes.Buffer, key string, value interface{}) error {
	if err := writeValue(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return writeValue(buf, value)
}

func writeValue(buf *bytes.Buffer, value interface{}) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
