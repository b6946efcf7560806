// Package pagination parses page requests and builds the paginated list envelope.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names for pagination configuration.
const (
	EnvDefaultPerPage = "PAGINATION_DEFAULT_PER_PAGE"
	EnvMaxPerPage     = "PAGINATION_MAX_PER_PAGE"
)

// Config holds the default and maximum page sizes.
type Config struct {
	DefaultPerPage int
	MaxPerPage     int
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *Config) loadDefaults() {
	if c.DefaultPerPage <= 0 {
		c.DefaultPerPage = 15
	}
	if c.MaxPerPage <= 0 {
		c.MaxPerPage = 100
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvDefaultPerPage); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultPerPage = n
		}
	}
	if v := os.Getenv(EnvMaxPerPage); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxPerPage = n
		}
	}
}

func (c *Config) validate() error {
	if c.DefaultPerPage < 1 {
		return fmt.Errorf("default per_page must be positive")
	}
	if c.MaxPerPage < 1 {
		return fmt.Errorf("max per_page must be positive")
	}
	if c.DefaultPerPage > c.MaxPerPage {
		return fmt.Errorf("default per_page cannot exceed max per_page")
	}
	return nil
}
