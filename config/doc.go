// Package config loads and validates connector settings.
//
// Settings come from exactly one source, the first one found:
//
//  1. a YAML file (config.yml)
//  2. a dotenv file (.env)
//  3. the process environment
//
// In the dotenv file and the environment, variables are named
// <SECTION>_<KEY> and split on the first underscore, so
// CONNECTOR_DURATION_PERIOD sets connector.duration_period and
// OPENCTI_URL sets opencti.url.
//
// Besides the opencti, connector, transport, state and bundle sections a
// connector declares its own section as a typed struct:
//
//	type FeedConfig struct {
//		APIBaseURL string `yaml:"api_base_url"`
//		APIKey     string `yaml:"api_key"`
//	}
//
//	cfg, err := config.Load[FeedConfig](config.Options{Section: "feed"})
//
// A loaded Config is validated and then only passed by value.
package config
