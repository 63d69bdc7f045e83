// Package config loads scanner/autosync configuration from the environment.
package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Config is the fully resolved configuration for the scanner and autosync
// daemons. Both share the Postgres/library/provider sections; autosyncd
// only reads AMQP and Simkl.
type Config struct {
	Server   ServerConfig
	Library  LibraryConfig
	Postgres PostgresConfig
	Catalog  CatalogConfig
	RabbitMQ RabbitMQConfig
	TMDB     TMDBConfig
	TVDB     TVDBConfig
	AniList  AniListConfig
	Simkl    SimklConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	BindAddr string // HTTP admin surface bind address
}

type LibraryConfig struct {
	Root          string
	IgnorePattern *regexp.Regexp
}

type PostgresConfig struct {
	URL string
}

type CatalogConfig struct {
	URL    string
	APIKey string
}

type RabbitMQConfig struct {
	URL string
}

type TMDBConfig struct {
	AccessToken string
	Disabled    bool
}

type TVDBConfig struct {
	APIKey   string
	PIN      string
	Disabled bool
}

type AniListConfig struct {
	Disabled bool
}

type SimklConfig struct {
	ClientID string
	Enabled  bool
}

type AuthConfig struct {
	JWKSURL   string
	JWTIssuer string
}

func getenv(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

// Load builds a Config from the process environment, applying the defaults
// documented in spec.md §6. It does not validate; call Validate() on the
// result and wrap into a *ConfigError if non-empty.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			BindAddr: getenv("SCANNER_BIND_ADDR", ":7666"),
		},
		Library: LibraryConfig{
			Root: getenv("SCANNER_LIBRARY_ROOT", "/video"),
		},
		Postgres: PostgresConfig{
			URL: postgresURL(),
		},
		Catalog: CatalogConfig{
			URL:    getenv("KYOO_URL", "http://catalog:8901"),
			APIKey: os.Getenv("KYOO_APIKEY"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: rabbitMQURL(),
		},
		TMDB: TMDBConfig{
			AccessToken: os.Getenv("THEMOVIEDB_API_ACCESS_TOKEN"),
		},
		TVDB: TVDBConfig{
			APIKey: os.Getenv("TVDB_APIKEY"),
			PIN:    os.Getenv("TVDB_PIN"),
		},
		Simkl: SimklConfig{
			ClientID: os.Getenv("OIDC_SIMKL_CLIENTID"),
		},
		Auth: AuthConfig{
			JWKSURL:   os.Getenv("JWKS_URL"),
			JWTIssuer: os.Getenv("JWT_ISSUER"),
		},
	}
	cfg.TMDB.Disabled = cfg.TMDB.AccessToken == "" || cfg.TMDB.AccessToken == "disabled"
	cfg.TVDB.Disabled = cfg.TVDB.APIKey == "" || cfg.TVDB.APIKey == "disabled"
	cfg.Simkl.Enabled = cfg.Simkl.ClientID != ""

	if pattern := os.Getenv("LIBRARY_IGNORE_PATTERN"); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		cfg.Library.IgnorePattern = re
	}

	return cfg, nil
}

func postgresURL() string {
	if url := os.Getenv("POSTGRES_URL"); url != "" {
		return url
	}
	user := getenv("PGUSER", "kyoo")
	host := getenv("PGHOST", "postgres")
	password := os.Getenv("PGPASSWORD")
	db := getenv("PGDATABASE", "kyoo")
	port := getenv("PGPORT", "5432")
	var b strings.Builder
	b.WriteString("postgres://")
	b.WriteString(user)
	if password != "" {
		b.WriteString(":")
		b.WriteString(password)
	}
	b.WriteString("@")
	b.WriteString(host)
	b.WriteString(":")
	b.WriteString(port)
	b.WriteString("/")
	b.WriteString(db)
	b.WriteString("?sslmode=disable")
	return b.String()
}

func rabbitMQURL() string {
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		return url
	}
	host := getenv("RABBITMQ_HOST", "rabbitmq")
	port := getenv("RABBITMQ_PORT", "5672")
	user := getenv("RABBITMQ_DEFAULT_USER", "guest")
	pass := getenv("RABBITMQ_DEFAULT_PASS", "guest")
	return "amqp://" + user + ":" + pass + "@" + host + ":" + port + "/"
}

// parsePort is used by Validate to sanity-check SCANNER_BIND_ADDR's port.
func parsePort(addr string) (int, bool) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return 0, false
	}
	p, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return 0, false
	}
	return p, true
}
