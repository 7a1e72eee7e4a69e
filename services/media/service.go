package media

import (
	"context"
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/ansel1/merry/v2"
	"github.com/omvik/media-api/services/format"
	"github.com/omvik/media-api/services/resolver"
	"github.com/omvik/media-api/tokens"
)

const formatCacheTTL = time.Minute * 5

// Service ties the resolver chains, the normalizer and the token store
// together: one call from a raw URL to a ranked format set plus an optional
// merge token for the default variant.
type Service struct {
	registry    *resolver.Registry
	policy      format.Policy
	tokenStore  *tokens.Store
	formatCache *cache.Cache[string, *format.FormatSet]
}

func NewService(registry *resolver.Registry, tokenStore *tokens.Store) *Service {
	return &Service{
		registry:    registry,
		policy:      format.DefaultPolicy(),
		tokenStore:  tokenStore,
		formatCache: cache.New[string, *format.FormatSet](),
	}
}

// Resolution is the response to one resolve request.
type Resolution struct {
	Reference  resolver.MediaReference
	Formats    *format.FormatSet
	MergeToken string
}

// Resolve classifies the reference, runs its resolver chain and normalizes
// the payload. Format sets are cached briefly to spare the rate-sensitive
// upstreams; a fresh merge token is issued per call when the default variant
// needs one.
func (s *Service) Resolve(ctx context.Context, rawURL string) (*Resolution, error) {
	ref, err := resolver.ParseReference(rawURL)
	if err != nil {
		return nil, err
	}

	set, ok := s.formatCache.Get(ref.RawURL)
	if !ok {
		chain, ok := s.registry.ChainFor(ref.Platform)
		if !ok {
			return nil, merry.Wrap(resolver.ErrUnknownPlatform, merry.WithMessagef("no chain registered for platform %s", ref.Platform.Value))
		}

		payload, err := chain.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}

		set, err = format.Normalize(payload, ref.ShortForm, s.policy)
		if err != nil {
			return nil, err
		}
		s.formatCache.Set(ref.RawURL, set, cache.WithExpiration(formatCacheTTL))
	}

	resolution := &Resolution{Reference: ref, Formats: set}
	if set.Default.NeedsMerge && set.AudioTrack != nil {
		resolution.MergeToken = s.tokenStore.Create(tokens.Pair{
			VideoURL: set.Default.SourceURL,
			AudioURL: set.AudioTrack.SourceURL,
		})
	}
	return resolution, nil
}
