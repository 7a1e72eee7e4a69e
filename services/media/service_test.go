package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omvik/media-api/services/resolver"
	"github.com/omvik/media-api/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	payload *resolver.RawPayload
	err     error
	calls   int
}

func (s *stubResolver) Name() string { return "stub" }

func (s *stubResolver) Fetch(_ context.Context, _ resolver.MediaReference) (*resolver.RawPayload, error) {
	s.calls++
	return s.payload, s.err
}

func mergeablePayload() *resolver.RawPayload {
	return &resolver.RawPayload{
		Provider: "stub",
		Title:    "some video",
		Formats: []resolver.RawFormat{
			{URL: "https://cdn.example.com/v720.mp4", MimeType: "video/mp4", QualityLabel: "720p"},
			{URL: "https://cdn.example.com/audio.m4a", MimeType: "audio/mp4", Bitrate: 128000},
		},
	}
}

func newTestService(stub *stubResolver) (*Service, *tokens.Store) {
	registry := resolver.NewRegistry()
	chain := resolver.NewChain(stub)
	chain.Policy.MaxRetries = 1
	registry.Register(resolver.PlatformYouTube, chain)

	store := tokens.NewStore(time.Minute)
	return NewService(registry, store), store
}

func TestServiceResolveIssuesMergeToken(t *testing.T) {
	stub := &stubResolver{payload: mergeablePayload()}
	service, store := newTestService(stub)

	resolution, err := service.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)

	assert.Equal(t, "some video", resolution.Formats.Title)
	assert.True(t, resolution.Formats.Default.NeedsMerge)
	require.NotEmpty(t, resolution.MergeToken)

	pair, ok := store.Get(resolution.MergeToken)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/v720.mp4", pair.VideoURL)
	assert.Equal(t, "https://cdn.example.com/audio.m4a", pair.AudioURL)
}

func TestServiceResolveCachesFormatSets(t *testing.T) {
	stub := &stubResolver{payload: mergeablePayload()}
	service, _ := newTestService(stub)

	first, err := service.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	second, err := service.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, first.Formats, second.Formats)
	// Tokens are per-call even when the format set is cached.
	assert.NotEqual(t, first.MergeToken, second.MergeToken)
}

func TestServiceResolvePropagatesExhaustion(t *testing.T) {
	stub := &stubResolver{err: errors.New("provider down")}
	service, _ := newTestService(stub)

	_, err := service.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc123")
	assert.True(t, errors.Is(err, resolver.ErrAllProvidersExhausted))
}

func TestServiceResolveRejectsUnregisteredPlatform(t *testing.T) {
	stub := &stubResolver{payload: mergeablePayload()}
	service, _ := newTestService(stub)

	_, err := service.Resolve(context.Background(), "https://vimeo.com/76979871")
	assert.True(t, errors.Is(err, resolver.ErrUnknownPlatform))
}
