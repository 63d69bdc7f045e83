// internal/config/validate.go
package config

import (
	"fmt"
	"os"
)

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Library.Root == "" {
		errs = append(errs, "library.root: required (SCANNER_LIBRARY_ROOT)")
	} else if _, err := os.Stat(c.Library.Root); os.IsNotExist(err) {
		errs = append(errs, fmt.Sprintf("library.root: warning: directory %q does not exist", c.Library.Root))
	}

	if _, ok := parsePort(c.Server.BindAddr); !ok {
		errs = append(errs, fmt.Sprintf("server.bind_addr: could not parse port from %q", c.Server.BindAddr))
	}

	if c.Postgres.URL == "" {
		errs = append(errs, "postgres.url: required (POSTGRES_URL or PGHOST/PGUSER/...)")
	}

	if c.Catalog.URL == "" {
		errs = append(errs, "catalog.url: required (KYOO_URL)")
	}

	if c.TMDB.Disabled && c.TVDB.Disabled {
		errs = append(errs, "providers: at least one of TMDB or TVDB must be enabled")
	}

	if c.Simkl.Enabled && c.RabbitMQ.URL == "" {
		errs = append(errs, "rabbitmq.url: required when a sync service is enabled")
	}

	return errs
}
