package bundle

import (
	"fmt"
	"sync"

	"github.com/zero-day-ai/cti-sdk/octi"
	"github.com/zero-day-ai/cti-sdk/stix"
)

// Option configures an Assembler.
type Option func(*Assembler)

// WithStrictReferences requires every reference to resolve inside the
// bundle, not only the mandatory ones.
func WithStrictReferences() Option {
	return func(a *Assembler) {
		a.strict = true
	}
}

// WithFilters drops objects for which any filter evaluates to false.
func WithFilters(filters ...*Filter) Option {
	return func(a *Assembler) {
		a.filters = append(a.filters, filters...)
	}
}

// WithMinScore drops objects whose x_opencti_score is below score. Objects without
// a score are kept.
func WithMinScore(score int) Option {
	return func(a *Assembler) {
		a.minScore = &score
	}
}

// Stats counts what happened to the entities offered to an Assembler.
type Stats struct {
	// Added is the number of distinct entities kept.
	Added int
	// Duplicates is the number of entities dropped because an entity with
	// the same identifier was added earlier.
	Duplicates int
	// Conflicts counts the duplicates whose content differed from the
	// entity kept.
	Conflicts int
	// Filtered is the number of objects dropped during the last Build,
	// by filters or the minimum score or because they referenced a
	// dropped object.
	Filtered int
	// Pruned is the number of objects rebuilt without their references
	// to dropped objects during the last Build.
	Pruned int
}

// Assembler collects entities, deduplicating by identifier. The first
// entity seen for an identifier wins. It is safe for concurrent use.
type Assembler struct {
	mu       sync.Mutex
	entities []octi.Entity
	index    map[string]int
	stats    Stats
	strict   bool
	filters  []*Filter
	minScore *int
}

// NewAssembler creates an empty assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{index: make(map[string]int)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add appends entities in order. Entities whose identifier was already
// added are skipped. Nothing is added when any entity is unbuilt.
func (a *Assembler) Add(entities ...octi.Entity) error {
	for i, e := range entities {
		if !octi.Built(e) {
			return fmt.Errorf("%w: argument %d", ErrUnbuiltEntity, i)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range entities {
		if at, ok := a.index[e.ID()]; ok {
			a.stats.Duplicates++
			if !octi.Equal(a.entities[at], e) {
				a.stats.Conflicts++
			}
			continue
		}
		a.index[e.ID()] = len(a.entities)
		a.entities = append(a.entities, e)
		a.stats.Added++
	}
	return nil
}

// Len returns the number of distinct entities added.
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entities)
}

// Entities returns the distinct entities in encounter order.
func (a *Assembler) Entities() []octi.Entity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]octi.Entity(nil), a.entities...)
}

// Stats returns the assembly counters.
func (a *Assembler) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Reset empties the assembler, keeping its options.
func (a *Assembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entities = nil
	a.index = make(map[string]int)
	a.stats = Stats{}
}

// Build filters the collected entities, checks reference integrity and
// returns the bundle. Dropping an object also drops the objects that
// reference it, except that a Prunable entity only loses its optional
// references to it. A reference failure is an *IntegrityError listing
// every unresolved reference; no bundle is returned with it.
func (a *Assembler) Build() (stix.Bundle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := make([]octi.Entity, 0, len(a.entities))
	dropped := make(map[string]bool)
	for _, e := range a.entities {
		keep, err := a.keep(e.WireObject())
		if err != nil {
			return stix.Bundle{}, err
		}
		if !keep {
			dropped[e.ID()] = true
			continue
		}
		kept = append(kept, e)
	}
	kept, pruned, err := cascade(kept, dropped)
	if err != nil {
		return stix.Bundle{}, err
	}
	a.stats.Filtered = len(dropped)
	a.stats.Pruned = pruned

	contained := make(map[string]bool, len(kept))
	for _, e := range kept {
		contained[e.ID()] = true
	}
	var missing []MissingReference
	for _, e := range kept {
		for _, ref := range e.References() {
			if !ref.Mandatory && !a.strict {
				continue
			}
			if !contained[ref.ID] {
				missing = append(missing, MissingReference{From: e.ID(), Property: ref.Property, ID: ref.ID})
			}
		}
	}
	if len(missing) > 0 {
		return stix.Bundle{}, &IntegrityError{Missing: missing}
	}

	objects := make([]stix.Object, len(kept))
	for i, e := range kept {
		objects[i] = e.WireObject()
	}
	return stix.NewBundle(objects)
}

// cascade removes the entities referencing a dropped identifier, adding
// them to dropped, until no kept entity references one. A Prunable entity
// whose only such references are optional is rebuilt without them. It
// returns the entities left, in order, and how many were rebuilt.
func cascade(kept []octi.Entity, dropped map[string]bool) ([]octi.Entity, int, error) {
	isDropped := func(id string) bool { return dropped[id] }
	pruned := make(map[string]bool)
	for changed := len(dropped) > 0; changed; {
		changed = false
		next := kept[:0]
		for _, e := range kept {
			optional, mandatory := referencesTo(e, dropped)
			if !optional && !mandatory {
				next = append(next, e)
				continue
			}
			if !mandatory {
				if p, ok := e.(octi.Prunable); ok {
					replacement, left, err := p.Prune(isDropped)
					if err != nil {
						return nil, 0, fmt.Errorf("prune %s: %w", e.ID(), err)
					}
					if left {
						if o, m := referencesTo(replacement, dropped); !o && !m {
							pruned[e.ID()] = true
							next = append(next, replacement)
							continue
						}
					}
				}
			}
			dropped[e.ID()] = true
			changed = true
		}
		kept = next
	}
	return kept, len(pruned), nil
}

// referencesTo reports whether e holds optional or mandatory references to
// identifiers in ids.
func referencesTo(e octi.Entity, ids map[string]bool) (optional, mandatory bool) {
	for _, ref := range e.References() {
		if !ids[ref.ID] {
			continue
		}
		if ref.Mandatory {
			mandatory = true
		} else {
			optional = true
		}
	}
	return optional, mandatory
}

func (a *Assembler) keep(obj stix.Object) (bool, error) {
	if a.minScore != nil {
		if score, ok := obj["x_opencti_score"].(int64); ok && score < int64(*a.minScore) {
			return false, nil
		}
	}
	for _, f := range a.filters {
		keep, err := f.Keep(obj)
		if err != nil {
			return false, err
		}
		if !keep {
			return false, nil
		}
	}
	return true, nil
}

// Assemble builds a bundle from entities in one call.
func Assemble(entities []octi.Entity, opts ...Option) (stix.Bundle, error) {
	a := NewAssembler(opts...)
	if err := a.Add(entities...); err != nil {
		return stix.Bundle{}, err
	}
	return a.Build()
}
