package format

import (
	"regexp"
	"strconv"
	"strings"
)

var resolutionPattern = regexp.MustCompile(`(\d{3,4})[pP]`)

const defaultQualityRank = 360

// Longer tokens first, "uhd" must match before "hd".
var textualTiers = []struct {
	token string
	rank  int
}{
	{"2160", 2160},
	{"1440", 1440},
	{"uhd", 2160},
	{"qhd", 1440},
	{"4k", 2160},
	{"2k", 1440},
	{"hd", 720},
	{"sd", 480},
}

// QualityFromLabel derives the numeric quality rank from a human label.
// A trailing "Np" pattern wins, then known textual tiers, then the default.
func QualityFromLabel(label string) int {
	if m := resolutionPattern.FindStringSubmatch(label); m != nil {
		rank, err := strconv.Atoi(m[1])
		if err == nil {
			return rank
		}
	}

	lower := strings.ToLower(label)
	for _, tier := range textualTiers {
		if strings.Contains(lower, tier.token) {
			return tier.rank
		}
	}

	return defaultQualityRank
}

// isAudioOnly partitions by mime/label heuristics: an "audio" token in either
// marks the variant audio-only.
func isAudioOnly(mimeType, label string) bool {
	return strings.Contains(strings.ToLower(mimeType), "audio") ||
		strings.Contains(strings.ToLower(label), "audio")
}

// isVideoCapable accepts variants that declare video in their mime type or
// carry a resolution pattern in the label.
func isVideoCapable(mimeType, label string) bool {
	if isAudioOnly(mimeType, label) {
		return false
	}
	return strings.Contains(strings.ToLower(mimeType), "video") ||
		resolutionPattern.MatchString(label)
}

// extensionFromMime maps "video/mp4; codecs=..." to "mp4".
func extensionFromMime(mimeType string) string {
	base := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	parts := strings.SplitN(base, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "mp4"
	}
	switch parts[1] {
	case "mp4":
		if parts[0] == "audio" {
			return "m4a"
		}
		return "mp4"
	case "mpeg":
		return "mp3"
	default:
		return parts[1]
	}
}
