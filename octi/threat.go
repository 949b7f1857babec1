package octi

import (
	"time"

	"github.com/zero-day-ai/cti-sdk/identity"
	"github.com/zero-day-ai/cti-sdk/stix"
)

const (
	kindIntrusionSet  = "intrusion-set"
	kindMalware       = "malware"
	kindVulnerability = "vulnerability"
)

// IntrusionSetOptions are the optional fields of an IntrusionSet.
type IntrusionSetOptions struct {
	DomainOptions
	Description          string
	Aliases              []string
	FirstSeen            time.Time
	LastSeen             time.Time
	Goals                []string
	ResourceLevel        AttackResourceLevel
	PrimaryMotivation    AttackMotivation
	SecondaryMotivations []AttackMotivation
}

// IntrusionSet groups adversarial behaviors believed to share an operator.
type IntrusionSet struct {
	base
	name string
	opts IntrusionSetOptions
}

// NewIntrusionSet builds an intrusion set identified by its name.
func NewIntrusionSet(name string, opts IntrusionSetOptions) (*IntrusionSet, error) {
	opts.DomainOptions = opts.DomainOptions.clone()
	opts.Aliases = cloneStrings(opts.Aliases)
	opts.Goals = cloneStrings(opts.Goals)
	opts.SecondaryMotivations = append([]AttackMotivation(nil), opts.SecondaryMotivations...)

	v := newValidator(kindIntrusionSet)
	v.field("name", notEmpty(name))
	v.field("aliases", nonEmptyItems(opts.Aliases))
	v.field("goals", nonEmptyItems(opts.Goals))
	v.field("resource_level", optionalOneOf(opts.ResourceLevel))
	v.field("primary_motivation", optionalOneOf(opts.PrimaryMotivation))
	v.field("secondary_motivations", oneOf(opts.SecondaryMotivations...))
	opts.DomainOptions.validate(v)

	b, err := build(kindIntrusionSet, v, func() (stix.Properties, error) {
		id, err := generateID(identity.KindIntrusionSet, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		return opts.DomainOptions.apply(stix.Properties{
			"id":                    id,
			"name":                  name,
			"description":           opts.Description,
			"aliases":               opts.Aliases,
			"first_seen":            opts.FirstSeen,
			"last_seen":             opts.LastSeen,
			"goals":                 opts.Goals,
			"resource_level":        opts.ResourceLevel,
			"primary_motivation":    opts.PrimaryMotivation,
			"secondary_motivations": opts.SecondaryMotivations,
		}), nil
	})
	if err != nil {
		return nil, err
	}
	return &IntrusionSet{base: b, name: name, opts: opts}, nil
}

// Name returns the intrusion set name.
func (i *IntrusionSet) Name() string { return i.name }

func (*IntrusionSet) isDomainObject() {}

// MalwareOptions are the optional fields of a Malware.
type MalwareOptions struct {
	DomainOptions
	Description             string
	MalwareTypes            []MalwareType
	Aliases                 []string
	FirstSeen               time.Time
	LastSeen                time.Time
	ImplementationLanguages []ImplementationLanguage
	KillChainPhases         []KillChainPhase
}

// Malware is a malicious program, either a family or an instance.
type Malware struct {
	base
	name     string
	isFamily bool
	opts     MalwareOptions
}

// NewMalware builds a malware identified by its name.
func NewMalware(name string, isFamily bool, opts MalwareOptions) (*Malware, error) {
	opts.DomainOptions = opts.DomainOptions.clone()
	opts.MalwareTypes = append([]MalwareType(nil), opts.MalwareTypes...)
	opts.Aliases = cloneStrings(opts.Aliases)
	opts.ImplementationLanguages = append([]ImplementationLanguage(nil), opts.ImplementationLanguages...)
	opts.KillChainPhases = append([]KillChainPhase(nil), opts.KillChainPhases...)

	v := newValidator(kindMalware)
	v.field("name", notEmpty(name))
	v.field("malware_types", oneOf(opts.MalwareTypes...))
	v.field("aliases", nonEmptyItems(opts.Aliases))
	v.field("implementation_languages", oneOf(opts.ImplementationLanguages...))
	for i, k := range opts.KillChainPhases {
		k.validate(v, indexed("kill_chain_phases", i))
	}
	opts.DomainOptions.validate(v)

	b, err := build(kindMalware, v, func() (stix.Properties, error) {
		id, err := generateID(identity.KindMalware, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		return opts.DomainOptions.apply(stix.Properties{
			"id":                       id,
			"name":                     name,
			"is_family":                isFamily,
			"description":              opts.Description,
			"malware_types":            opts.MalwareTypes,
			"aliases":                  opts.Aliases,
			"first_seen":               opts.FirstSeen,
			"last_seen":                opts.LastSeen,
			"implementation_languages": opts.ImplementationLanguages,
			"kill_chain_phases":        killChainPhases(opts.KillChainPhases),
		}), nil
	})
	if err != nil {
		return nil, err
	}
	return &Malware{base: b, name: name, isFamily: isFamily, opts: opts}, nil
}

// Name returns the malware name.
func (m *Malware) Name() string { return m.name }

// IsFamily reports whether the malware describes a family rather than a sample.
func (m *Malware) IsFamily() bool { return m.isFamily }

func (*Malware) isDomainObject() {}

// VulnerabilityOptions are the optional fields of a Vulnerability.
type VulnerabilityOptions struct {
	DomainOptions
	Description string
	// CVSSBaseScore is in 0..10.
	CVSSBaseScore    *float64
	CVSSBaseSeverity CVSSSeverity
	// EPSSScore is a probability in 0..1.
	EPSSScore *float64
}

// Vulnerability is a weakness that can be exploited, usually a CVE.
type Vulnerability struct {
	base
	name string
	opts VulnerabilityOptions
}

// NewVulnerability builds a vulnerability identified by its name.
func NewVulnerability(name string, opts VulnerabilityOptions) (*Vulnerability, error) {
	opts.DomainOptions = opts.DomainOptions.clone()
	opts.CVSSBaseScore = ptr(opts.CVSSBaseScore)
	opts.EPSSScore = ptr(opts.EPSSScore)

	v := newValidator(kindVulnerability)
	v.field("name", notEmpty(name))
	v.field("cvss_base_score", floatRange(opts.CVSSBaseScore, 0, 10))
	v.field("cvss_base_severity", optionalOneOf(opts.CVSSBaseSeverity))
	v.field("epss_score", floatRange(opts.EPSSScore, 0, 1))
	opts.DomainOptions.validate(v)

	b, err := build(kindVulnerability, v, func() (stix.Properties, error) {
		id, err := generateID(identity.KindVulnerability, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		props := opts.DomainOptions.apply(stix.Properties{
			"id":          id,
			"name":        name,
			"description": opts.Description,
		})
		return project(props).
			set(extCVSSBaseScore, opts.CVSSBaseScore).
			set(extCVSSBaseSeverity, opts.CVSSBaseSeverity).
			set(extEPSSScore, opts.EPSSScore).
			done()
	})
	if err != nil {
		return nil, err
	}
	return &Vulnerability{base: b, name: name, opts: opts}, nil
}

// Name returns the vulnerability name.
func (v *Vulnerability) Name() string { return v.name }

func (*Vulnerability) isDomainObject() {}
