package merge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestJanitorSweep(t *testing.T) {
	dir := t.TempDir()
	janitor := NewJanitor(dir, time.Hour, time.Hour)

	stale := writeArtifact(t, dir, "merge-stale.mp4", time.Hour*2)
	fresh := writeArtifact(t, dir, "merge-fresh.mp4", time.Minute)
	foreign := writeArtifact(t, dir, "unrelated.txt", time.Hour*5)

	janitor.Sweep()

	assert.False(t, exists(stale))
	assert.True(t, exists(fresh))
	// Only own artifacts are reclaimed from the shared directory.
	assert.True(t, exists(foreign))
}

func TestJanitorSweepSkipsProtectedArtifacts(t *testing.T) {
	dir := t.TempDir()
	janitor := NewJanitor(dir, time.Hour, time.Hour)

	inFlight := writeArtifact(t, dir, "merge-inflight.mp4", time.Hour*2)
	janitor.Protect(inFlight)

	janitor.Sweep()
	assert.True(t, exists(inFlight))

	janitor.Release(inFlight)
	janitor.Sweep()
	assert.False(t, exists(inFlight))
}

func TestJanitorCleanup(t *testing.T) {
	dir := t.TempDir()
	janitor := NewJanitor(dir, time.Hour, time.Hour)

	path := writeArtifact(t, dir, "merge-done.mp4", 0)
	janitor.Protect(path)

	janitor.Cleanup(path)
	assert.False(t, exists(path))

	// A second cleanup of the same path is non-fatal.
	janitor.Cleanup(path)
}
