package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCANNER_LIBRARY_ROOT", "/tmp")
	t.Setenv("KYOO_URL", "http://catalog:8901")
	t.Setenv("POSTGRES_URL", "postgres://kyoo@postgres/kyoo")
	t.Setenv("THEMOVIEDB_API_ACCESS_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp", cfg.Library.Root)
	require.False(t, cfg.TMDB.Disabled)
	require.True(t, cfg.TVDB.Disabled)
	require.Empty(t, cfg.Validate())
}

func TestValidateRequiresProvider(t *testing.T) {
	t.Setenv("SCANNER_LIBRARY_ROOT", "/tmp")
	t.Setenv("KYOO_URL", "http://catalog:8901")
	t.Setenv("POSTGRES_URL", "postgres://kyoo@postgres/kyoo")
	t.Setenv("THEMOVIEDB_API_ACCESS_TOKEN", "disabled")
	t.Setenv("TVDB_APIKEY", "disabled")

	cfg, err := Load()
	require.NoError(t, err)
	errs := cfg.Validate()
	require.Contains(t, errs, "providers: at least one of TMDB or TVDB must be enabled")
}
