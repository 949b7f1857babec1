package octi

import (
	"time"

	"github.com/zero-day-ai/cti-sdk/identity"
	"github.com/zero-day-ai/cti-sdk/stix"
)

const kindIndicator = "indicator"

// IndicatorOptions are the optional fields of an Indicator.
type IndicatorOptions struct {
	DomainOptions
	Description     string
	IndicatorTypes  []IndicatorType
	Platforms       []Platform
	ValidFrom       time.Time
	ValidUntil      time.Time
	KillChainPhases []KillChainPhase
	// Score is a 0..100 confidence the detection is malicious.
	Score *int
}

// Indicator is a detection pattern.
type Indicator struct {
	base
	name           string
	pattern        string
	patternType    PatternType
	observableType ObservableType
	opts           IndicatorOptions
}

// NewIndicator builds an indicator identified by its pattern.
func NewIndicator(name, pattern string, patternType PatternType, observableType ObservableType, opts IndicatorOptions) (*Indicator, error) {
	opts.DomainOptions = opts.DomainOptions.clone()
	opts.IndicatorTypes = append([]IndicatorType(nil), opts.IndicatorTypes...)
	opts.Platforms = append([]Platform(nil), opts.Platforms...)
	opts.KillChainPhases = append([]KillChainPhase(nil), opts.KillChainPhases...)
	opts.Score = ptr(opts.Score)

	v := newValidator(kindIndicator)
	v.field("name", notEmpty(name))
	v.field("pattern", notEmpty(pattern))
	v.field("pattern_type", oneOf(patternType))
	v.field("observable_type", oneOf(observableType))
	v.field("indicator_types", oneOf(opts.IndicatorTypes...))
	v.field("platforms", oneOf(opts.Platforms...))
	v.field("score", score(opts.Score))
	for i, k := range opts.KillChainPhases {
		k.validate(v, indexed("kill_chain_phases", i))
	}
	opts.DomainOptions.validate(v)

	b, err := build(kindIndicator, v, func() (stix.Properties, error) {
		id, err := generateID(identity.KindIndicator, map[string]any{"pattern": pattern})
		if err != nil {
			return nil, err
		}
		props := opts.DomainOptions.apply(stix.Properties{
			"id":                id,
			"name":              name,
			"description":       opts.Description,
			"indicator_types":   opts.IndicatorTypes,
			"pattern":           pattern,
			"pattern_type":      patternType,
			"valid_from":        opts.ValidFrom,
			"valid_until":       opts.ValidUntil,
			"kill_chain_phases": killChainPhases(opts.KillChainPhases),
		})
		return project(props).
			set(extScore, opts.Score).
			set(extPlatforms, opts.Platforms).
			set(extMainObservableType, observableType).
			done()
	})
	if err != nil {
		return nil, err
	}
	return &Indicator{
		base:           b,
		name:           name,
		pattern:        pattern,
		patternType:    patternType,
		observableType: observableType,
		opts:           opts,
	}, nil
}

// Name returns the indicator name.
func (i *Indicator) Name() string { return i.name }

// Pattern returns the detection pattern.
func (i *Indicator) Pattern() string { return i.pattern }

// PatternType returns the pattern language.
func (i *Indicator) PatternType() PatternType { return i.patternType }

// ObservableType returns the main observable type the indicator detects.
func (i *Indicator) ObservableType() ObservableType { return i.observableType }

// Score returns a copy of the score, nil when unset.
func (i *Indicator) Score() *int { return ptr(i.opts.Score) }

func (*Indicator) isDomainObject() {}
