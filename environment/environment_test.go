package environment

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessorDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("FFMPEG_BIN", "")
	t.Setenv("ARTIFACT_DIR", "")

	assert.Equal(t, "8080", GetPort())
	assert.Equal(t, "ffmpeg", GetFFmpegBin())
	assert.Equal(t, os.TempDir(), GetArtifactDir())
	assert.Equal(t, time.Minute*5, GetMergeTimeout())
	assert.Equal(t, time.Second*600, GetTokenTTL())
	assert.Equal(t, time.Hour, GetArtifactMaxAge())
}

func TestAccessorsReadEnvironmentLazily(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("FFMPEG_BIN", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("ARTIFACT_DIR", "/scratch/merge")

	assert.Equal(t, "9191", GetPort())
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", GetFFmpegBin())
	assert.Equal(t, "/scratch/merge", GetArtifactDir())
}

func TestAccessorsSeeValuesFromDotenvFile(t *testing.T) {
	// t.Setenv registers the restore; Overload then replaces the values the
	// same way a .env load after process start does.
	t.Setenv("PORT", "")
	t.Setenv("FFMPEG_BIN", "")
	t.Setenv("ARTIFACT_DIR", "")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"PORT=9999\nFFMPEG_BIN=/usr/local/bin/ffmpeg\nARTIFACT_DIR=/var/tmp/artifacts\n",
	), 0o644))
	require.NoError(t, godotenv.Overload(envFile))

	assert.Equal(t, "9999", GetPort())
	assert.Equal(t, "/usr/local/bin/ffmpeg", GetFFmpegBin())
	assert.Equal(t, "/var/tmp/artifacts", GetArtifactDir())
}

func TestDurationAccessors(t *testing.T) {
	t.Setenv("MERGE_TIMEOUT_SECONDS", "42")
	assert.Equal(t, time.Second*42, GetMergeTimeout())

	t.Setenv("MERGE_TIMEOUT_SECONDS", "not-a-number")
	assert.Equal(t, time.Minute*5, GetMergeTimeout())

	t.Setenv("MERGE_TOKEN_TTL_SECONDS", "-5")
	assert.Equal(t, time.Second*600, GetTokenTTL())
}
