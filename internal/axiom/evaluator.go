package axiom

import (
	"math"

	"github.com/ppiankov/omnikernel/internal/model"
)

// Axiom display names
const (
	NameLBCU           = "LBCU (Q · Σ ≥ Φ)"
	NameVacuumTraction = "Tracción de Vacío"
	NameEVeto          = "E-Veto"
)

// Thresholds
const (
	ThresholdPN    = 12.0 // VacuumTraction expressed in piconewtons
	EVetoThreshold = -model.BioCanonThreshold
	forceScale     = 1e12
)

// explanations maps each verdict to its fixed explanation
var explanations = map[model.Verdict]string{
	model.VerdictEstable:   "La coherencia sostiene al sistema.",
	model.VerdictColapso:   "La fricción excede la capacidad de sostener forma.",
	model.VerdictEscritura: "La acción deja huella causal.",
	model.VerdictRuido:     "La acción no altera la causalidad.",
	model.VerdictValidado:  "Existe reducción entrópica real.",
	model.VerdictApofenia:  "El sistema genera patrones sin reducción entrópica suficiente.",
}

// Explanation returns the fixed explanation for a verdict
func Explanation(v model.Verdict) string {
	return explanations[v]
}

// Evaluator applies the three kernel axioms to a parameter record
type Evaluator struct{}

// NewEvaluator creates a new evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate runs LBCU, Vacuum Traction and E-Veto, in that order
func (e *Evaluator) Evaluate(p model.Parameters) []model.AxiomResult {
	return []model.AxiomResult{
		LBCU(p.Q, p.Sigma, p.Phi),
		VacuumTraction(p.Force),
		EVeto(p.Sigma),
	}
}

// LBCU checks that coherent drive sustains the system against friction.
// delta = Q*Sigma - Phi; ESTABLE when delta >= 0.
func LBCU(q, sigma, phi float64) model.AxiomResult {
	delta := q*sigma - phi

	verdict := model.VerdictColapso
	if delta >= 0 {
		verdict = model.VerdictEstable
	}

	return model.AxiomResult{
		Axiom: NameLBCU,
		Measures: []model.Measure{
			{Name: "QxSigma", Value: Round(q*sigma, 3)},
			{Name: "Phi", Value: phi},
			{Name: "Delta", Value: Round(delta, 3)},
		},
		Verdict:     verdict,
		Explanation: Explanation(verdict),
	}
}

// VacuumTraction checks whether an action's force crosses the causal threshold.
// ESCRITURA when force >= 12e-12 N.
func VacuumTraction(force float64) model.AxiomResult {
	verdict := model.VerdictRuido
	if force >= model.VacuumTraction {
		verdict = model.VerdictEscritura
	}

	return model.AxiomResult{
		Axiom: NameVacuumTraction,
		Measures: []model.Measure{
			{Name: "force_pN", Value: Round(force*forceScale, 2)},
			{Name: "threshold_pN", Value: ThresholdPN},
		},
		Verdict:     verdict,
		Explanation: Explanation(verdict),
	}
}

// EVeto checks for real entropy reduction.
// delta_h = -Sigma; VALIDADO when delta_h <= -0.99.
func EVeto(sigma float64) model.AxiomResult {
	deltaH := -sigma

	verdict := model.VerdictApofenia
	if deltaH <= EVetoThreshold {
		verdict = model.VerdictValidado
	}

	return model.AxiomResult{
		Axiom: NameEVeto,
		Measures: []model.Measure{
			{Name: "Delta_H", Value: Round(deltaH, 3)},
			{Name: "threshold", Value: EVetoThreshold},
		},
		Verdict:     verdict,
		Explanation: Explanation(verdict),
	}
}

// Round rounds x half away from zero to the given number of decimals
func Round(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}
