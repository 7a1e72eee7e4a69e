package environment

import (
	"os"
	"strconv"
	"time"
)

// Accessors read the environment at call time, so values loaded from a .env
// file after package init are picked up.

func GetPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

func GetFFmpegBin() string {
	if bin := os.Getenv("FFMPEG_BIN"); bin != "" {
		return bin
	}
	return "ffmpeg"
}

func GetArtifactDir() string {
	// For local testing
	if dir := os.Getenv("ARTIFACT_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

func getDurationSeconds(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func GetMergeTimeout() time.Duration {
	return getDurationSeconds("MERGE_TIMEOUT_SECONDS", time.Minute*5)
}

func GetTokenTTL() time.Duration {
	return getDurationSeconds("MERGE_TOKEN_TTL_SECONDS", time.Second*600)
}

func GetArtifactMaxAge() time.Duration {
	return getDurationSeconds("ARTIFACT_MAX_AGE_SECONDS", time.Hour)
}
