package migrations

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedMigrationNames(t *testing.T) {
	names, err := sortedMigrationNames()
	require.NoError(t, err)
	require.Contains(t, names, "001_initial.up.sql")
	require.Contains(t, names, "002_advisory_locks.up.sql")
	require.True(t, names[0] < names[1], "migrations must sort in application order")
}
