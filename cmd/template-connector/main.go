// Command template-connector is an example external import connector. It
// collects reports from a fake feed and delivers them as bundles.
package main

import "github.com/zero-day-ai/cti-sdk/cmd/template-connector/internal/cli"

func main() {
	cli.Execute()
}
