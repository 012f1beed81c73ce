// Package synthesis turns axiom verdicts into the prose dictamen.
package synthesis

import (
	"fmt"
	"time"

	"github.com/ppiankov/omnikernel/internal/model"
)

const (
	header  = "DICTAMEN SEMÁNTICO TCDS:"
	closing = "Desde la Teoría Cromodinámica Sincrónica, no se trata de un juicio moral, " +
		"sino de un diagnóstico causal: sin incremento de coherencia o reducción de fricción, " +
		"el sistema tenderá a la degradación funcional."
)

// fragments holds one prose fragment per verdict. Each axiom contributes
// exactly one of its two fragments to the dictamen.
var fragments = map[model.Verdict]string{
	// Core (LBCU)
	model.VerdictEstable: "La conciencia mantiene coherencia suficiente para sostenerse frente a su entorno.",
	model.VerdictColapso: "La conciencia analizada no logra sostener coherencia frente a su entorno. " +
		"Su empuje interno existe, pero se fragmenta antes de consolidarse en forma estable.",

	// Action (Vacuum Traction)
	model.VerdictEscritura: "Sus acciones atraviesan el umbral causal y modifican su entorno.",
	model.VerdictRuido:     "Sus acciones no dejan huella causal: actúa, pero no transforma.",

	// Entropy (E-Veto)
	model.VerdictValidado: "El sistema reduce entropía de forma verificable, validando su coherencia.",
	model.VerdictApofenia: "Los patrones que genera son interpretativos, pero no reducen entropía real. " +
		"Existe sensación de sentido sin consolidación estructural.",
}

// Fragment returns the prose fragment for a verdict
func Fragment(v model.Verdict) string {
	return fragments[v]
}

// Assembler builds forensic reports and their dictamen
type Assembler struct {
	now func() time.Time
}

// NewAssembler creates a new assembler stamping reports with the current UTC time
func NewAssembler() *Assembler {
	return &Assembler{now: func() time.Time { return time.Now().UTC() }}
}

// Build packages the input, parameters and axiom results into a report.
// The final verdict is copied from the first axiom.
func (a *Assembler) Build(input string, params model.Parameters, axioms []model.AxiomResult) model.ForensicReport {
	report := model.ForensicReport{
		Timestamp:         a.now(),
		Input:             input,
		DecodedParameters: params,
		Axioms:            append([]model.AxiomResult(nil), axioms...),
	}
	if len(axioms) > 0 {
		report.FinalVerdict = axioms[0].Verdict
	}
	return report
}

// Assemble renders the dictamen for a report
func (a *Assembler) Assemble(report model.ForensicReport) string {
	core := Fragment(report.Axiom(0).Verdict)
	action := Fragment(report.Axiom(1).Verdict)
	entropy := Fragment(report.Axiom(2).Verdict)

	return fmt.Sprintf("%s\n\n%s %s %s\n\n%s", header, core, action, entropy, closing)
}

// Analysis builds the report and its dictamen in one step
func (a *Assembler) Analysis(input string, params model.Parameters, axioms []model.AxiomResult) model.Analysis {
	report := a.Build(input, params, axioms)
	return model.Analysis{
		Report:           report,
		SemanticResponse: a.Assemble(report),
	}
}
