package decode

import (
	"strings"

	"github.com/ppiankov/omnikernel/internal/model"
)

// builtinLexicon is the keyword table in definition order.
// When several keywords override the same field, the later one wins.
var builtinLexicon = []model.KeywordRule{
	rule("caos", model.ParamSigma, 0.15, model.ParamPhi, 0.85),
	rule("orden", model.ParamSigma, 0.95, model.ParamPhi, 0.20),
	rule("verdad", model.ParamSigma, 1.00, model.ParamPhi, 0.00),
	rule("mentira", model.ParamSigma, 0.05, model.ParamPhi, 1.00),
	rule("burocracia", model.ParamSigma, 0.30, model.ParamPhi, 0.99),
	rule("innovación", model.ParamQ, 0.90, model.ParamSigma, 0.85),
	rule("cáncer", model.ParamSigma, 0.40, model.ParamPhi, 0.10),
	rule("salud", model.ParamSigma, 0.95, model.ParamPhi, 0.05),
	rule("voluntad", model.ParamQ, 1.00),
	rule("pereza", model.ParamQ, 0.10),
	rule("incoherente", model.ParamSigma, 0.40, model.ParamPhi, 0.70),
}

// rule builds a KeywordRule from alternating param/value pairs
func rule(key string, pairs ...interface{}) model.KeywordRule {
	r := model.KeywordRule{Key: key}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Overrides = append(r.Overrides, model.Override{
			Param: pairs[i].(model.Param),
			Value: pairs[i+1].(float64),
		})
	}
	return r
}

// BuiltinLexicon returns a copy of the built-in keyword table
func BuiltinLexicon() []model.KeywordRule {
	return cloneRules(builtinLexicon)
}

// Decoder maps free text to a parameter record via keyword lookup
type Decoder struct {
	rules []model.KeywordRule
}

// NewDecoder creates a decoder over the built-in table followed by extra rules.
// The table is copied; later changes to extra do not affect the decoder.
func NewDecoder(extra ...model.KeywordRule) *Decoder {
	rules := cloneRules(builtinLexicon)
	rules = append(rules, cloneRules(extra)...)
	return &Decoder{rules: rules}
}

// Decode returns the default record overridden by every matching rule
func (d *Decoder) Decode(text string) model.Parameters {
	params, _ := d.DecodeWithMatches(text)
	return params
}

// DecodeWithMatches decodes text and reports the matched keys in table order
func (d *Decoder) DecodeWithMatches(text string) (model.Parameters, []string) {
	params := model.DefaultParameters()
	lower := strings.ToLower(text)

	var matches []string
	for _, r := range d.rules {
		if r.Key == "" || !strings.Contains(lower, r.Key) {
			continue
		}
		matches = append(matches, r.Key)
		for _, o := range r.Overrides {
			params.Set(o.Param, o.Value)
		}
	}

	return params, matches
}

// Matches reports which keys occur in text, in table order
func (d *Decoder) Matches(text string) []string {
	_, matches := d.DecodeWithMatches(text)
	return matches
}

// Rules returns a copy of the active keyword table
func (d *Decoder) Rules() []model.KeywordRule {
	return cloneRules(d.rules)
}

func cloneRules(rules []model.KeywordRule) []model.KeywordRule {
	out := make([]model.KeywordRule, len(rules))
	for i, r := range rules {
		out[i] = model.KeywordRule{
			Key:       r.Key,
			Overrides: append([]model.Override(nil), r.Overrides...),
		}
	}
	return out
}
