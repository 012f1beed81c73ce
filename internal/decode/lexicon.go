package decode

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ppiankov/omnikernel/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRule is returned for lexicon entries that cannot be applied
var ErrInvalidRule = errors.New("invalid keyword rule")

type lexiconFile struct {
	Rules []model.KeywordRule `yaml:"rules"`
}

// LoadLexicon reads extra keyword rules from a YAML file:
//
//	rules:
//	  - key: esperanza
//	    overrides:
//	      - {param: Sigma, value: 0.7}
func LoadLexicon(path string) ([]model.KeywordRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// ParseLexicon parses and validates YAML lexicon content.
// Keys are lower-cased so they match the lowered input text.
func ParseLexicon(data []byte) ([]model.KeywordRule, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	rules := make([]model.KeywordRule, 0, len(f.Rules))
	for i, r := range f.Rules {
		r.Key = strings.ToLower(strings.TrimSpace(r.Key))
		if r.Key == "" {
			return nil, fmt.Errorf("rule %d: empty key: %w", i, ErrInvalidRule)
		}
		if len(r.Overrides) == 0 {
			return nil, fmt.Errorf("rule %q: no overrides: %w", r.Key, ErrInvalidRule)
		}
		for _, o := range r.Overrides {
			if !o.Param.Valid() {
				return nil, fmt.Errorf("rule %q: unknown parameter %q (supported: Q, Sigma, Phi): %w", r.Key, o.Param, ErrInvalidRule)
			}
			if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
				return nil, fmt.Errorf("rule %q: %s must be a finite number: %w", r.Key, o.Param, ErrInvalidRule)
			}
		}
		rules = append(rules, r)
	}

	return rules, nil
}
