package format

import (
	"github.com/ansel1/merry/v2"
)

var (
	ErrNoValidFormats = merry.Sentinel("no formats with a usable source",
		merry.WithUserMessage("unsupported or empty media"))
	ErrNoSuitableFormat = merry.Sentinel("no suitable format",
		merry.WithUserMessage("unsupported or empty media"))
)

// ResolvedFormat is one downloadable variant in canonical form.
type ResolvedFormat struct {
	Label       string `json:"label"`
	QualityRank int    `json:"qualityRank"`
	MimeType    string `json:"mimeType"`
	Extension   string `json:"extension"`
	SourceURL   string `json:"sourceUrl"`
	HasVideo    bool   `json:"hasVideo"`
	HasAudio    bool   `json:"hasAudio"`
	Bitrate     int    `json:"bitrate,omitempty"`
	SizeBytes   *int64 `json:"sizeBytes,omitempty"`
	// PremiumTier is a display hint: the quality tier sits outside the free
	// whitelist for the reference's form factor.
	PremiumTier bool `json:"premiumTier"`
	// NeedsMerge marks a video-only variant whose audio must be joined from a
	// separate source before it is playable.
	NeedsMerge bool `json:"needsMerge"`
}

// FormatSet is the ordered result of normalizing one provider payload.
// Immutable after construction, never persisted.
type FormatSet struct {
	Title     string           `json:"title"`
	Author    string           `json:"author,omitempty"`
	Duration  int              `json:"durationSeconds,omitempty"`
	ShortForm bool             `json:"shortForm"`
	Formats   []ResolvedFormat `json:"formats"`
	Default   ResolvedFormat   `json:"defaultFormat"`
	// AudioTrack is the best audio-only variant, present whenever any format
	// in the set needs merging.
	AudioTrack *ResolvedFormat `json:"audioTrack,omitempty"`
}

// Policy holds the product thresholds for default selection and the free-tier
// whitelist. Kept as configuration rather than selector constants.
type Policy struct {
	ShortPreferred int
	ShortFallbacks []int
	ShortCeiling   int
	LongPreferred  int
	LongCeiling    int
}

func DefaultPolicy() Policy {
	return Policy{
		ShortPreferred: 360,
		ShortFallbacks: []int{240, 480},
		ShortCeiling:   480,
		LongPreferred:  720,
		LongCeiling:    1080,
	}
}

// ceiling returns the free-tier boundary for the form factor.
func (p Policy) ceiling(shortForm bool) int {
	if shortForm {
		return p.ShortCeiling
	}
	return p.LongCeiling
}
