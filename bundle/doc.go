// Package bundle assembles built entities into a delivery bundle.
//
// An Assembler collects the entities produced by one conversion pass. It
// keeps the first entity seen for each identifier and preserves encounter
// order, then checks that every mandatory reference (the two ends of a
// relationship) resolves inside the bundle before handing back a
// stix.Bundle ready for a transport.
//
//	asm := bundle.NewAssembler()
//	if err := asm.Add(author, marking, domain, indicator, report); err != nil {
//		return err
//	}
//	b, err := asm.Build()
//	var integrity *bundle.IntegrityError
//	if errors.As(err, &integrity) {
//		for _, m := range integrity.Missing {
//			log.Warn("dangling reference", "from", m.From, "property", m.Property, "id", m.ID)
//		}
//	}
//
// Filters written in CEL can drop objects before the integrity check. The
// object under test is bound to the variable "object", and an object
// lacking a property the expression reads is kept:
//
//	f, err := bundle.NewFilter(`object.type != "indicator" || object.x_opencti_score >= 50`)
//
// Dropping an object drops the relationships and other objects referencing
// it. A report only loses the dropped entries of its object_refs, and goes
// too once none are left.
package bundle
