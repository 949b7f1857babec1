// Package stix encodes threat-intelligence objects into the STIX 2.1 wire
// format consumed by the platform.
//
// The Encoder knows, per object type, which properties are required, which
// are allowed, and which the platform does not implement and therefore must
// never appear. It enforces format-level constraints (timestamp ordering,
// mutually dependent properties), renders timestamps, and derives
// content-based identifiers for cyber observables. Custom properties are
// accepted when they follow the "x_" naming convention.
//
// Encoded objects are plain JSON maps; marshalling them is deterministic
// because encoding/json sorts map keys.
package stix
