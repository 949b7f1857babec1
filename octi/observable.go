package octi

import (
	"fmt"
	"strings"
	"time"
)

// observable carries the fields shared by every observable kind.
type observable struct {
	base
	opts ObservableOptions
}

func (observable) isObservable() {}

// Score returns a copy of the score, nil when unset.
func (o observable) Score() *int { return ptr(o.opts.Score) }

// Description returns the observable description.
func (o observable) Description() string { return o.opts.Description }

// Labels returns a copy of the labels.
func (o observable) Labels() []string { return cloneStrings(o.opts.Labels) }

// Author returns the author, nil when unset.
func (o observable) Author() Author { return o.opts.Author }

// Markings returns a copy of the markings.
func (o observable) Markings() []*TLPMarking { return append([]*TLPMarking(nil), o.opts.Markings...) }

// DerivedIndicatorOptions are the indicator fields an observable cannot
// provide when deriving an indicator from itself.
type DerivedIndicatorOptions struct {
	ValidFrom       time.Time
	ValidUntil      time.Time
	IndicatorTypes  []IndicatorType
	Platforms       []Platform
	KillChainPhases []KillChainPhase
}

// deriveIndicator builds a STIX-pattern indicator inheriting the
// observable's score, description and provenance.
func (o observable) deriveIndicator(name, pattern string, observableType ObservableType, d DerivedIndicatorOptions) (*Indicator, error) {
	return NewIndicator(name, pattern, PatternTypeSTIX, observableType, IndicatorOptions{
		DomainOptions: DomainOptions{
			Author:             o.opts.Author,
			Markings:           o.opts.Markings,
			ExternalReferences: o.opts.ExternalReferences,
		},
		Description:     o.opts.Description,
		Score:           o.opts.Score,
		IndicatorTypes:  d.IndicatorTypes,
		Platforms:       d.Platforms,
		ValidFrom:       d.ValidFrom,
		ValidUntil:      d.ValidUntil,
		KillChainPhases: d.KillChainPhases,
	})
}

// escapePatternValue escapes a string literal for a STIX pattern.
func escapePatternValue(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// comparison renders "path='value'".
func comparison(path, value string) string {
	return fmt.Sprintf("%s='%s'", path, escapePatternValue(value))
}

// observationPattern joins comparisons into a single observation expression.
func observationPattern(comparisons ...string) string {
	return "[" + strings.Join(comparisons, " AND ") + "]"
}

func hashComparisons(objType string, h map[HashAlgorithm]string) []string {
	var out []string
	for _, algo := range sortedHashAlgorithms(h) {
		out = append(out, comparison(fmt.Sprintf("%s:hashes.'%s'", objType, algo), h[algo]))
	}
	return out
}
