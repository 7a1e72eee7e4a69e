package format

import (
	"sort"
	"strconv"

	"github.com/ansel1/merry/v2"
	"github.com/omvik/media-api/services/resolver"
	"github.com/samber/lo"
)

// Normalize converts a raw provider payload into a canonical, ranked format
// set and picks the default variant for the form factor.
func Normalize(payload *resolver.RawPayload, shortForm bool, policy Policy) (*FormatSet, error) {
	usable := lo.Filter(payload.Formats, func(f resolver.RawFormat, _ int) bool {
		return f.URL != ""
	})
	if len(usable) == 0 {
		return nil, merry.Wrap(ErrNoValidFormats, merry.WithMessagef("provider %s yielded no usable source URIs", payload.Provider))
	}

	var videos, audios []ResolvedFormat
	for _, raw := range usable {
		resolved := toResolved(raw)
		switch {
		case resolved.HasVideo:
			videos = append(videos, resolved)
		case resolved.HasAudio:
			audios = append(audios, resolved)
		}
	}

	if len(videos) == 0 && len(audios) == 0 {
		return nil, merry.Wrap(ErrNoValidFormats, merry.WithMessagef("provider %s yielded no video or audio formats", payload.Provider))
	}

	sortVideos(videos, shortForm, policy)
	sort.SliceStable(audios, func(i, j int) bool {
		return audios[i].Bitrate > audios[j].Bitrate
	})

	var audioTrack *ResolvedFormat
	if len(audios) > 0 {
		audioTrack = &audios[0]
	}

	// A video-only variant with no obtainable audio source is invalid and
	// must not be surfaced.
	if audioTrack == nil {
		videos = lo.Filter(videos, func(f ResolvedFormat, _ int) bool {
			return f.HasAudio
		})
	}

	ceiling := policy.ceiling(shortForm)
	flag := func(f ResolvedFormat, _ int) ResolvedFormat {
		if f.HasVideo {
			f.PremiumTier = f.QualityRank > ceiling
		}
		return f
	}
	videos = lo.Map(videos, flag)

	defaultFormat, err := selectDefault(videos, audios, shortForm, policy)
	if err != nil {
		return nil, err
	}

	return &FormatSet{
		Title:      payload.Title,
		Author:     payload.Author,
		Duration:   payload.DurationSeconds,
		ShortForm:  shortForm,
		Formats:    append(videos, audios...),
		Default:    defaultFormat,
		AudioTrack: audioTrack,
	}, nil
}

func toResolved(raw resolver.RawFormat) ResolvedFormat {
	audioOnly := isAudioOnly(raw.MimeType, raw.QualityLabel)
	videoCapable := isVideoCapable(raw.MimeType, raw.QualityLabel)

	label := raw.QualityLabel
	if label == "" {
		if audioOnly {
			label = "audio"
		} else {
			label = strconv.Itoa(defaultQualityRank) + "p"
		}
	}

	resolved := ResolvedFormat{
		Label:     label,
		MimeType:  raw.MimeType,
		Extension: extensionFromMime(raw.MimeType),
		SourceURL: raw.URL,
		HasVideo:  videoCapable,
		HasAudio:  audioOnly || raw.AudioQuality != "",
		Bitrate:   raw.Bitrate,
	}

	if !audioOnly {
		resolved.QualityRank = QualityFromLabel(raw.QualityLabel)
	}
	if size, err := strconv.ParseInt(raw.ContentLength, 10, 64); err == nil && size > 0 {
		resolved.SizeBytes = &size
	}

	resolved.NeedsMerge = resolved.HasVideo && !resolved.HasAudio
	return resolved
}

// sortVideos orders video-capable formats per form factor: short-form favors
// tiers up to 480p ascending with anything above ranked after; long-form
// favors tiers up to 1080p descending with anything above ranked after.
func sortVideos(videos []ResolvedFormat, shortForm bool, policy Policy) {
	ceiling := policy.ceiling(shortForm)
	sort.SliceStable(videos, func(i, j int) bool {
		a, b := videos[i].QualityRank, videos[j].QualityRank
		aOver, bOver := a > ceiling, b > ceiling
		if aOver != bOver {
			return !aOver
		}
		if aOver {
			return a < b
		}
		if shortForm {
			return a < b
		}
		return a > b
	})
}
