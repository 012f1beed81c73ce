package model

// Kernel constants
const (
	KRateOptimal       = 1.42e12 // Default K_Rate
	VacuumTraction     = 12e-12  // Minimum force that leaves a causal trace
	BioCanonThreshold  = 0.99    // |ΔH| required by the E-Veto
	EnvFrictionDefault = 0.85    // Default Phi
	DecayConstant      = 0.1

	DefaultQ     = 0.5
	DefaultSigma = 0.5
	DefaultForce = 10e-12
)

// Param names one of the fields a keyword rule may override
type Param string

const (
	ParamQ     Param = "Q"
	ParamSigma Param = "Sigma"
	ParamPhi   Param = "Phi"
)

// Valid reports whether p is an overridable parameter
func (p Param) Valid() bool {
	switch p {
	case ParamQ, ParamSigma, ParamPhi:
		return true
	default:
		return false
	}
}

// Parameters is the numeric record decoded from the input text
type Parameters struct {
	Q     float64 `json:"Q"`      // Internal drive
	Sigma float64 `json:"Sigma"`  // Coherence
	Phi   float64 `json:"Phi"`    // Environmental friction
	Force float64 `json:"Force"`  // Action force in newtons
	KRate float64 `json:"K_Rate"` // Synchronization rate
}

// DefaultParameters returns the record used when no keyword matches
func DefaultParameters() Parameters {
	return Parameters{
		Q:     DefaultQ,
		Sigma: DefaultSigma,
		Phi:   EnvFrictionDefault,
		Force: DefaultForce,
		KRate: KRateOptimal,
	}
}

// Set overwrites the named field. Unknown params are ignored.
func (p *Parameters) Set(param Param, value float64) {
	switch param {
	case ParamQ:
		p.Q = value
	case ParamSigma:
		p.Sigma = value
	case ParamPhi:
		p.Phi = value
	}
}

// Override is a single parameter assignment carried by a keyword rule
type Override struct {
	Param Param   `json:"param" yaml:"param"`
	Value float64 `json:"value" yaml:"value"`
}

// KeywordRule maps a lowercase token to parameter overrides
type KeywordRule struct {
	Key       string     `json:"key" yaml:"key"`
	Overrides []Override `json:"overrides" yaml:"overrides"`
}
