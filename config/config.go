package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/cti-sdk/bundle"
)

// ErrConfigRetrieval wraps every failure to load or validate a configuration.
//
// Example:
//
//	cfg, err := config.Load[FeedConfig](config.Options{Section: "feed"})
//	if errors.Is(err, config.ErrConfigRetrieval) {
//	    log.Fatal(err)
//	}
var ErrConfigRetrieval = errors.New("invalid connector configuration")

// Section names.
const (
	SectionOpenCTI   = "opencti"
	SectionConnector = "connector"
	SectionTransport = "transport"
	SectionState     = "state"
	SectionBundle    = "bundle"
)

// Log levels accepted by connector.log_level.
var logLevels = []string{"debug", "info", "warning", "error", "critical"}

// State backends accepted by state.backend.
const (
	BackendBolt  = "bbolt"
	BackendRedis = "redis"
	BackendEtcd  = "etcd"
)

// OpenCTI holds the platform connection settings.
type OpenCTI struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	JSONLogging bool   `yaml:"json_logging"`
	SSLVerify   bool   `yaml:"ssl_verify"`
}

// Connector holds the settings shared by every external import connector.
type Connector struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Type           string   `yaml:"type"`
	Scope          List     `yaml:"scope"`
	DurationPeriod Duration `yaml:"duration_period"`
	LogLevel       string   `yaml:"log_level"`

	Auto                 bool `yaml:"auto"`
	ExposeMetrics        bool `yaml:"expose_metrics"`
	MetricsPort          int  `yaml:"metrics_port"`
	HealthPort           int  `yaml:"health_port"`
	OnlyContextual       bool `yaml:"only_contextual"`
	RunAndTerminate      bool `yaml:"run_and_terminate"`
	ValidateBeforeImport bool `yaml:"validate_before_import"`

	QueueProtocol  string `yaml:"queue_protocol"`
	QueueThreshold int    `yaml:"queue_threshold"`

	SendToQueue              bool   `yaml:"send_to_queue"`
	SendToDirectory          bool   `yaml:"send_to_directory"`
	SendToDirectoryPath      string `yaml:"send_to_directory_path"`
	SendToDirectoryRetention int    `yaml:"send_to_directory_retention"`
}

// Transport holds the delivery endpoints. Empty endpoints are disabled.
type Transport struct {
	RedisURL    string `yaml:"redis_url"`
	RedisKey    string `yaml:"redis_key"`
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
}

// State selects where the connector keeps its state between runs.
type State struct {
	Backend string `yaml:"backend"`
	// Path is the bbolt database file.
	Path string `yaml:"path"`
	// Address is the Redis URL or a comma separated list of etcd endpoints.
	Address string `yaml:"address"`
}

// Bundle holds assembly settings.
type Bundle struct {
	// Filters are CEL expressions; objects failing any of them are dropped.
	Filters          Expressions `yaml:"filters"`
	MinScore         *int        `yaml:"min_score"`
	StrictReferences bool        `yaml:"strict_references"`
}

// Config is a complete connector configuration. T is the connector's own
// section, decoded from the section named in Options.
type Config[T any] struct {
	OpenCTI   OpenCTI   `yaml:"opencti"`
	Connector Connector `yaml:"connector"`
	Transport Transport `yaml:"transport"`
	State     State     `yaml:"state"`
	Bundle    Bundle    `yaml:"bundle"`
	Extra     T         `yaml:"-"`
}

// Options locate the configuration sources.
type Options struct {
	// YAMLPath defaults to config.yml in the working directory.
	YAMLPath string
	// EnvPath defaults to .env in the working directory.
	EnvPath string
	// Environ defaults to os.Environ().
	Environ []string
	// Section names the connector's own section. Empty means none.
	Section string
}

// Defaults returns a configuration holding the default values.
func Defaults[T any]() Config[T] {
	return Config[T]{
		OpenCTI: OpenCTI{JSONLogging: true},
		Connector: Connector{
			Type:                     "EXTERNAL_IMPORT",
			LogLevel:                 "error",
			MetricsPort:              9095,
			HealthPort:               9096,
			QueueProtocol:            "amqp",
			QueueThreshold:           500,
			SendToQueue:              true,
			SendToDirectoryRetention: 7,
		},
		Transport: Transport{
			RedisKey:    "opencti:bundles",
			NATSSubject: "opencti.bundles",
		},
		State: State{Backend: BackendBolt, Path: "state.db"},
	}
}

// Load reads the first available source, applies it over the defaults and
// validates the result. Every error wraps ErrConfigRetrieval.
func Load[T any](opts Options) (Config[T], error) {
	secs, source, err := readSources(opts)
	if err != nil {
		return Config[T]{}, fmt.Errorf("%w: %v", ErrConfigRetrieval, err)
	}

	cfg := Defaults[T]()
	targets := map[string]any{
		SectionOpenCTI:   &cfg.OpenCTI,
		SectionConnector: &cfg.Connector,
		SectionTransport: &cfg.Transport,
		SectionState:     &cfg.State,
		SectionBundle:    &cfg.Bundle,
	}
	if opts.Section != "" {
		targets[strings.ToLower(opts.Section)] = &cfg.Extra
	}
	for name, node := range secs {
		target, ok := targets[name]
		if !ok {
			continue
		}
		if err := node.Decode(target); err != nil {
			return Config[T]{}, fmt.Errorf("%w: %s section %q: %v", ErrConfigRetrieval, source, name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config[T]{}, err
	}
	return cfg, nil
}

// sections maps a section name to its mapping node.
type sections map[string]*yaml.Node

func readSources(opts Options) (sections, string, error) {
	yamlPath := opts.YAMLPath
	if yamlPath == "" {
		yamlPath = "config.yml"
	}
	envPath := opts.EnvPath
	if envPath == "" {
		envPath = ".env"
	}

	if isFile(yamlPath) {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, yamlPath, fmt.Errorf("failed to read config file: %w", err)
		}
		secs, err := fromYAML(data)
		if err != nil {
			return nil, yamlPath, fmt.Errorf("failed to parse config file %s: %w", yamlPath, err)
		}
		return secs, filepath.Base(yamlPath), nil
	}

	known := []string{SectionOpenCTI, SectionConnector, SectionTransport, SectionState, SectionBundle}
	if opts.Section != "" {
		known = append(known, strings.ToLower(opts.Section))
	}

	if isFile(envPath) {
		vars, err := godotenv.Read(envPath)
		if err != nil {
			return nil, envPath, fmt.Errorf("failed to parse env file %s: %w", envPath, err)
		}
		return fromVariables(vars, known), filepath.Base(envPath), nil
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return fromVariables(vars, known), "environment", nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func fromYAML(data []byte) (sections, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	secs := make(sections, len(doc))
	for name, node := range doc {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("section %q must be a mapping", name)
		}
		n := node
		secs[name] = &n
	}
	return secs, nil
}

// fromVariables builds sections from SECTION_KEY variables, split on the
// first underscore. Variables of unknown sections are ignored. Values stay
// untagged so YAML resolves their type against the target field.
func fromVariables(vars map[string]string, known []string) sections {
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	slices.Sort(names)

	secs := make(sections)
	for _, name := range names {
		section, key, ok := strings.Cut(strings.ToLower(name), "_")
		if !ok || key == "" || !slices.Contains(known, section) {
			continue
		}
		node, ok := secs[section]
		if !ok {
			node = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			secs[section] = node
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: vars[name]},
		)
	}
	return secs
}

// Validate checks the loaded values. The error wraps ErrConfigRetrieval.
func (c Config[T]) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	u, err := url.Parse(c.OpenCTI.URL)
	check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "",
		"opencti.url must be an http(s) URL, got %q", c.OpenCTI.URL)
	check(strings.TrimSpace(c.OpenCTI.Token) != "", "opencti.token is required")

	check(strings.TrimSpace(c.Connector.ID) != "", "connector.id is required")
	check(strings.TrimSpace(c.Connector.Name) != "", "connector.name is required")
	check(len(c.Connector.Scope) > 0, "connector.scope must list at least one entity type")
	check(c.Connector.DurationPeriod > 0, "connector.duration_period must be positive")
	check(slices.Contains(logLevels, strings.ToLower(c.Connector.LogLevel)),
		"connector.log_level must be one of %s, got %q", strings.Join(logLevels, ", "), c.Connector.LogLevel)
	check(c.Connector.MetricsPort > 0 && c.Connector.MetricsPort <= 65535,
		"connector.metrics_port must be in 1..65535, got %d", c.Connector.MetricsPort)
	check(c.Connector.HealthPort > 0 && c.Connector.HealthPort <= 65535,
		"connector.health_port must be in 1..65535, got %d", c.Connector.HealthPort)
	check(c.Connector.QueueThreshold >= 0, "connector.queue_threshold must not be negative")
	check(!c.Connector.SendToDirectory || c.Connector.SendToDirectoryPath != "",
		"connector.send_to_directory_path is required when send_to_directory is set")
	check(c.Connector.SendToDirectoryRetention >= 0, "connector.send_to_directory_retention must not be negative")

	switch c.State.Backend {
	case BackendBolt:
		check(c.State.Path != "", "state.path is required for the bbolt backend")
	case BackendRedis, BackendEtcd:
		check(c.State.Address != "", "state.address is required for the %s backend", c.State.Backend)
	default:
		check(false, "state.backend must be one of bbolt, redis, etcd, got %q", c.State.Backend)
	}

	if s := c.Bundle.MinScore; s != nil {
		check(*s >= 0 && *s <= 100, "bundle.min_score must be in 0..100, got %d", *s)
	}
	for i, expr := range c.Bundle.Filters {
		_, err := bundle.NewFilter(expr)
		check(err == nil, "bundle.filters[%d]: %v", i, err)
	}

	if v, ok := any(c.Extra).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigRetrieval, errors.Join(errs...))
	}
	return nil
}

// Redacted returns a copy with secrets masked, suitable for logging.
func (c Config[T]) Redacted() Config[T] {
	if c.OpenCTI.Token != "" {
		c.OpenCTI.Token = "********"
	}
	c.Transport.RedisURL = redactURL(c.Transport.RedisURL)
	c.Transport.NATSURL = redactURL(c.Transport.NATSURL)
	c.State.Address = redactURL(c.State.Address)
	return c
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

// BundleOptions returns the assembler options described by the bundle section.
func (c Config[T]) BundleOptions() ([]bundle.Option, error) {
	var opts []bundle.Option
	if c.Bundle.StrictReferences {
		opts = append(opts, bundle.WithStrictReferences())
	}
	if c.Bundle.MinScore != nil {
		opts = append(opts, bundle.WithMinScore(*c.Bundle.MinScore))
	}
	for _, expr := range c.Bundle.Filters {
		f, err := bundle.NewFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigRetrieval, err)
		}
		opts = append(opts, bundle.WithFilters(f))
	}
	return opts, nil
}
