package format

import (
	"github.com/ansel1/merry/v2"
	"github.com/samber/lo"
)

// selectDefault picks the default variant. Short-form prefers exactly 360p,
// then the nearest fallback tier; long-form prefers exactly 720p, then the
// highest tier at or below 1080p. With no video-capable formats the best
// audio-only format is used instead.
func selectDefault(videos, audios []ResolvedFormat, shortForm bool, policy Policy) (ResolvedFormat, error) {
	if len(videos) == 0 {
		if len(audios) == 0 {
			return ResolvedFormat{}, merry.Wrap(ErrNoSuitableFormat)
		}
		return audios[0], nil
	}

	preferred := policy.LongPreferred
	if shortForm {
		preferred = policy.ShortPreferred
	}

	if f, found := atRank(videos, preferred); found {
		return f, nil
	}

	if shortForm {
		for _, tier := range policy.ShortFallbacks {
			if f, found := atRank(videos, tier); found {
				return f, nil
			}
		}
	} else {
		best, found := lo.Find(videos, func(f ResolvedFormat) bool {
			return f.QualityRank <= policy.LongCeiling
		})
		if found {
			return best, nil
		}
	}

	// Nothing at the preferred tiers; the sort order already ranks the least
	// bad option first.
	return videos[0], nil
}

func atRank(formats []ResolvedFormat, rank int) (ResolvedFormat, bool) {
	return lo.Find(formats, func(f ResolvedFormat) bool {
		return f.QualityRank == rank
	})
}
