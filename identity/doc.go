// Package identity derives deterministic identifiers for threat-intelligence
// entities from their natural keys.
//
// Every entity kind declares the properties that identify it (an organization
// by its folded name and identity class, an indicator by its pattern, a
// relationship by its type and endpoints). The Generator normalizes those
// properties, encodes them as canonical JSON and returns
// "<kind>--<uuid5>", so constructing the same entity twice, in any process,
// yields the same identifier.
//
// Basic usage:
//
//	gen := identity.NewGenerator(identity.Registry())
//	id, err := gen.Generate("identity", map[string]any{
//		"name":           "Acme",
//		"identity_class": "organization",
//	})
package identity
