package template

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/zero-day-ai/cti-sdk/config"
	"github.com/zero-day-ai/cti-sdk/octi"
)

// Section is the configuration section of the connector. Environment
// variables use the TEMPLATE_ prefix.
const Section = "template"

// DefaultImportStartDate is the lookback of the first run.
const DefaultImportStartDate = 30 * 24 * time.Hour

// Config holds the connector specific settings.
type Config struct {
	// TLPLevel marks every converted entity.
	TLPLevel octi.TLPLevel `yaml:"tlp_level"`

	// ImportStartDate is how far back the first run collects, as an
	// ISO-8601 or Go duration.
	ImportStartDate config.Duration `yaml:"import_start_date"`

	APIBaseURL string `yaml:"api_base_url"`
	APIKey     string `yaml:"api_key"`
}

// Validate is called by config.Load.
func (c Config) Validate() error {
	var errs []error
	if !c.TLPLevel.IsValid() {
		errs = append(errs, fmt.Errorf("template.tlp_level must be a TLP level, got %q", c.TLPLevel))
	}
	if c.ImportStartDate < 0 {
		errs = append(errs, errors.New("template.import_start_date must not be negative"))
	}
	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("template.api_base_url must be a URL, got %q", c.APIBaseURL))
	}
	if c.APIKey == "" {
		errs = append(errs, errors.New("template.api_key is required"))
	}
	return errors.Join(errs...)
}

// Lookback returns the import start date, defaulting to DefaultImportStartDate.
func (c Config) Lookback() time.Duration {
	if c.ImportStartDate == 0 {
		return DefaultImportStartDate
	}
	return c.ImportStartDate.Std()
}
