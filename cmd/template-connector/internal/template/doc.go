// Package template is the example connector behind the template-connector
// binary. It collects reports from a fake feed client and converts them
// into indicators, observables and reports authored by the connector's
// organization.
//
// Copy the package to start a new connector and replace the client with
// the real source.
package template
