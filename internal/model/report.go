package model

import "time"

// ForensicReport is the structured record of a single analysis.
// It is built once per analysis and never modified afterwards.
type ForensicReport struct {
	Timestamp         time.Time     `json:"timestamp"`          // When the analysis ran
	Input             string        `json:"input"`              // Original input text, unmodified
	DecodedParameters Parameters    `json:"decoded_parameters"` // Parameters after keyword overrides
	Axioms            []AxiomResult `json:"axioms"`             // LBCU, Vacuum Traction, E-Veto, in that order
	FinalVerdict      Verdict       `json:"final_verdict"`      // Copied from the first axiom
}

// Axiom returns the i-th axiom result, or a zero value when absent
func (r ForensicReport) Axiom(i int) AxiomResult {
	if i < 0 || i >= len(r.Axioms) {
		return AxiomResult{}
	}
	return r.Axioms[i]
}

// Analysis pairs the forensic report with its prose rendering
type Analysis struct {
	Report           ForensicReport `json:"forensic_report"`
	SemanticResponse string         `json:"semantic_response"`
	Matches          []string       `json:"matched_keywords,omitempty"` // Keywords found in the input, table order

	Narration *Narration `json:"narration,omitempty"` // Optional speech rendering (never affects verdicts)
}

// Narration describes the synthesized audio for an analysis
type Narration struct {
	Provider string   `json:"provider"`
	Voice    string   `json:"voice,omitempty"`
	Format   string   `json:"format"`
	Bytes    int      `json:"bytes"`
	Cached   bool     `json:"cached"`
	Path     string   `json:"path,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	Audio []byte `json:"-"`
}
