package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/ansel1/merry/v2"
	"github.com/orsinium-labs/enum"
)

type Platform enum.Member[string]

var (
	PlatformYouTube = Platform{Value: "youtube"}
	PlatformVimeo   = Platform{Value: "vimeo"}
	Platforms       = enum.New(PlatformYouTube, PlatformVimeo)
)

var (
	ErrInvalidReference = merry.Sentinel("invalid media reference",
		merry.WithHTTPCode(400), merry.WithUserMessage("invalid media URL"))
	ErrUnknownPlatform = merry.Sentinel("unsupported media platform",
		merry.WithHTTPCode(400), merry.WithUserMessage("unsupported media platform"))
	ErrInvalidPayload = merry.Sentinel("provider returned structurally invalid payload")
)

// MediaReference is an input URL classified against the known platforms.
// Classification only picks the resolver chain, nothing else.
type MediaReference struct {
	RawURL    string
	Platform  Platform
	ShortForm bool
}

// RawFormat is one downloadable variant as reported by a provider, before
// normalization. Field presence varies per provider.
type RawFormat struct {
	URL           string
	MimeType      string
	QualityLabel  string
	Bitrate       int
	ContentLength string
	// AudioQuality is non-empty when the provider reports an embedded audio
	// track for this variant.
	AudioQuality string
}

// RawPayload never crosses the service boundary unnormalized.
type RawPayload struct {
	Provider        string
	Title           string
	Author          string
	DurationSeconds int
	Formats         []RawFormat
}

// Valid reports whether the payload carries the minimal fields a provider
// response must have to be worth normalizing.
func (p *RawPayload) Valid() bool {
	return p != nil && len(p.Formats) > 0
}

// Resolver turns a media reference into a raw provider payload. Resolvers
// share no state and are swappable behind this contract.
type Resolver interface {
	Name() string
	Fetch(ctx context.Context, ref MediaReference) (*RawPayload, error)
}

var platformHosts = map[string]Platform{
	"youtube.com":          PlatformYouTube,
	"youtu.be":             PlatformYouTube,
	"youtube-nocookie.com": PlatformYouTube,
	"vimeo.com":            PlatformVimeo,
}

// ParseReference validates the input URL and derives its platform tag and
// short-form classification.
func ParseReference(raw string) (MediaReference, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return MediaReference{}, merry.Wrap(ErrInvalidReference, merry.WithMessagef("invalid media reference %q", raw))
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	platform, ok := platformHosts[host]
	if !ok {
		return MediaReference{}, merry.Wrap(ErrUnknownPlatform, merry.WithMessagef("no resolvers for host %q", u.Hostname()))
	}

	return MediaReference{
		RawURL:    u.String(),
		Platform:  platform,
		ShortForm: strings.Contains(u.Path, "/shorts/"),
	}, nil
}

// VideoID extracts the provider video id from the reference URL. Supports the
// watch, shorts, embed and short-link URL shapes.
func (r MediaReference) VideoID() string {
	u, err := url.Parse(r.RawURL)
	if err != nil {
		return ""
	}

	if v := u.Query().Get("v"); v != "" {
		return v
	}

	path := strings.Trim(u.Path, "/")
	for _, prefix := range []string{"shorts/", "embed/", "video/", "v/"} {
		if strings.HasPrefix(path, prefix) {
			rest := strings.TrimPrefix(path, prefix)
			return strings.SplitN(rest, "/", 2)[0]
		}
	}

	// Short links carry the id as the whole path.
	if path != "" && !strings.Contains(path, "/") {
		return path
	}
	return ""
}
