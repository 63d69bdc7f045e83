package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalkSkipsIgnoreMarkerDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "skip"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip", ".ignore"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip", "movie.mkv"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.mkv"), nil, 0o644))

	s := New(Config{Root: root}, nil, nil, nil, nil)
	paths, err := s.walk()
	require.NoError(t, err)
	require.Contains(t, paths, filepath.Join(root, "keep.mkv"))
	require.NotContains(t, paths, filepath.Join(root, "skip", "movie.mkv"))
}

func TestDiff(t *testing.T) {
	a := map[string]bool{"x": true, "y": true}
	b := map[string]bool{"y": true}
	require.Equal(t, map[string]bool{"x": true}, diff(a, b))
}

func TestIsVideo(t *testing.T) {
	require.True(t, isVideo("/video/movie.mkv"))
	require.True(t, isVideo("/video/movie.mp4"))
	require.False(t, isVideo("/video/readme.txt"))
}
