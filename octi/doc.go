// Package octi models threat-intelligence facts as immutable, validated
// entities and translates each one into its wire object at construction.
//
// Every entity kind has a constructor taking its required fields
// positionally and its optional fields through an options struct. A
// constructor either returns a fully built entity, with a stable identifier
// and a cached wire object, or a *ConstructionError; there is no partially
// built state. Construction runs in a fixed order: field validation,
// cross-field validation, then translation through the wire encoder.
//
// Entities reference each other by value (an Indicator's author is an
// Author, a Report's objects are Entities) and the wire objects carry only
// the referenced identifiers. References to entities that were not built by
// a constructor are rejected.
//
// Example:
//
//	acme, _ := octi.NewOrganization("Acme", octi.OrganizationOptions{})
//	green, _ := octi.NewTLPMarking(octi.TLPGreen)
//	domain, err := octi.NewDomainName("evil.example", octi.ObservableOptions{
//		Author:   acme,
//		Markings: []*octi.TLPMarking{green},
//	})
//	if err != nil {
//		return err
//	}
//	indicator, err := domain.ToIndicator(octi.DerivedIndicatorOptions{})
package octi
