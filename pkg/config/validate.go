package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Provider) == "" {
		errs = append(errs, fmt.Errorf("provider is required"))
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature))
	}

	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be >= 0, got %s", c.RequestTimeout))
	}

	if c.Render.WordWrap < 0 {
		errs = append(errs, fmt.Errorf("render.word_wrap must be >= 0, got %d", c.Render.WordWrap))
	}

	for i, p := range c.Retry.ModelRejectionPhrases {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("retry.model_rejection_phrases[%d] is empty", i))
		}
	}

	for name, pc := range c.Providers {
		if pc.BaseURL != "" && !strings.HasPrefix(pc.BaseURL, "http://") && !strings.HasPrefix(pc.BaseURL, "https://") {
			errs = append(errs, fmt.Errorf("providers.%s.base_url must start with http:// or https://, got %q", name, pc.BaseURL))
		}
	}

	return errors.Join(errs...)
}
