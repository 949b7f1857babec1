// Package ctisdk is the root of the threat intelligence connector SDK. It
// holds no code; the SDK lives in its subpackages.
//
// # Core Concepts
//
// The SDK is organized around several key concepts:
//
//   - Entities: immutable intelligence objects (organizations, indicators,
//     observables, reports, relationships) validated and identified at
//     construction
//   - Wire objects: the standard interchange form every entity is translated
//     to, carrying a deterministic identifier
//   - Bundles: deduplicated, reference-consistent collections of wire objects
//   - Connectors: programs that collect records from a source, convert them
//     to entities and deliver bundles
//
// # Architecture
//
// The SDK follows a layered architecture:
//
//   - Wire Layer: stix encodes property sets; identity derives identifiers
//   - Model Layer: octi builds entities; bundle assembles them
//   - Runtime Layer: connector runs the collect, convert and send cycle
//     over config, state and transport
//   - Observability Layer: telemetry (slog, OpenTelemetry, Prometheus) and
//     health (gRPC and HTTP probes)
//
// # Getting Started
//
// Build entities and assemble a bundle:
//
//	import (
//		"github.com/zero-day-ai/cti-sdk/bundle"
//		"github.com/zero-day-ai/cti-sdk/octi"
//	)
//
//	acme, err := octi.NewOrganization("Acme", octi.OrganizationOptions{})
//	if err != nil {
//		return err
//	}
//	green, err := octi.NewTLPMarking(octi.TLPGreen)
//	if err != nil {
//		return err
//	}
//	domain, err := octi.NewDomainName("evil.example", octi.ObservableOptions{
//		Author:   acme,
//		Markings: []*octi.TLPMarking{green},
//	})
//	if err != nil {
//		return err
//	}
//	indicator, err := domain.ToIndicator(octi.DerivedIndicatorOptions{})
//	if err != nil {
//		return err
//	}
//
//	b, err := bundle.Assemble([]octi.Entity{acme, green, domain, indicator})
//	if err != nil {
//		return err
//	}
//	data, err := b.Marshal()
//
// # Connector Development
//
// Implement a Collector and a Converter for the source and hand them to
// the runtime:
//
//	c, err := connector.New[FeedRecord](collector, converter, connector.Options{
//		ID:        cfg.Connector.ID,
//		Name:      cfg.Connector.Name,
//		Transport: queue,
//		Store:     store,
//	})
//	if err != nil {
//		return err
//	}
//	return c.Run(ctx, cfg.Connector.DurationPeriod.Std(), cfg.Connector.RunAndTerminate)
//
// cmd/template-connector is a complete example wiring configuration,
// state, transports, telemetry and health together.
package ctisdk
