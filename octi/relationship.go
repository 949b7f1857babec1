package octi

import (
	"errors"
	"time"

	"github.com/zero-day-ai/cti-sdk/identity"
	"github.com/zero-day-ai/cti-sdk/stix"
)

const kindRelationship = "relationship"

// RelationshipOptions are the optional fields of a Relationship.
type RelationshipOptions struct {
	DomainOptions
	Description string
	// StartTime and StopTime bound the period the relationship holds.
	// StopTime must be later than StartTime.
	StartTime time.Time
	StopTime  time.Time
}

// Relationship is a typed, directed edge between two entities.
type Relationship struct {
	base
	relType RelationshipType
	source  Entity
	target  Entity
	opts    RelationshipOptions
}

// NewRelationship builds a relationship from source to target. Both ends
// must already be built; markings cannot be related.
func NewRelationship(relType RelationshipType, source, target Entity, opts RelationshipOptions) (*Relationship, error) {
	opts.DomainOptions = opts.DomainOptions.clone()

	v := newValidator(kindRelationship)
	v.field("relationship_type", oneOf(relType))
	v.required("source_ref", source)
	v.required("target_ref", target)
	if !isNil(source) && source.Kind() == kindMarking {
		v.field("source_ref", errors.New("a marking cannot be related"))
	}
	if !isNil(target) && target.Kind() == kindMarking {
		v.field("target_ref", errors.New("a marking cannot be related"))
	}
	opts.DomainOptions.validate(v)

	b, err := build(kindRelationship, v, func() (stix.Properties, error) {
		id, err := generateID(identity.KindRelationship, map[string]any{
			"relationship_type": relType,
			"source_ref":        source.ID(),
			"target_ref":        target.ID(),
			"start_time":        opts.StartTime,
			"stop_time":         opts.StopTime,
		})
		if err != nil {
			return nil, err
		}
		return opts.DomainOptions.apply(stix.Properties{
			"id":                id,
			"relationship_type": relType,
			"description":       opts.Description,
			"source_ref":        source.ID(),
			"target_ref":        target.ID(),
			"start_time":        opts.StartTime,
			"stop_time":         opts.StopTime,
		}), nil
	}, "source_ref", "target_ref")
	if err != nil {
		return nil, err
	}
	return &Relationship{base: b, relType: relType, source: source, target: target, opts: opts}, nil
}

// NewBasedOn relates an indicator to the observable it was built from.
func NewBasedOn(indicator *Indicator, observable Observable, opts RelationshipOptions) (*Relationship, error) {
	var source Entity
	if indicator != nil {
		source = indicator
	}
	return NewRelationship(RelationshipBasedOn, source, observable, opts)
}

// Type returns the relationship type.
func (r *Relationship) Type() RelationshipType { return r.relType }

// Source returns the source entity.
func (r *Relationship) Source() Entity { return r.source }

// Target returns the target entity.
func (r *Relationship) Target() Entity { return r.target }
