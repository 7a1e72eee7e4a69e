package resolver

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/ansel1/merry/v2"
	"github.com/go-resty/resty/v2"
)

var playerResponseRegex = regexp.MustCompile(`ytInitialPlayerResponse\s*=\s*(\{.+?\})\s*;`)

// WatchPageResolver scrapes the embedded player response out of the watch
// page HTML. Slower and more fragile than the player API, kept as fallback.
type WatchPageResolver struct {
	restyClient *resty.Client
}

func NewWatchPageResolver(baseURL string) *WatchPageResolver {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Accept-Language", "en")
	client.SetDisableWarn(true)

	return &WatchPageResolver{restyClient: client}
}

func (r *WatchPageResolver) Name() string {
	return "watch-page"
}

func (r *WatchPageResolver) Fetch(ctx context.Context, ref MediaReference) (*RawPayload, error) {
	videoID := ref.VideoID()
	if videoID == "" {
		return nil, merry.Wrap(ErrInvalidReference, merry.WithMessagef("no video id in %q", ref.RawURL))
	}

	res, err := r.restyClient.R().
		SetContext(ctx).
		SetQueryParam("v", videoID).
		Get("/watch")
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, merry.Wrap(errNon200Status, merry.WithHTTPCode(res.StatusCode()))
	}

	match := playerResponseRegex.FindSubmatch(res.Body())
	if match == nil {
		return nil, merry.Wrap(ErrInvalidPayload, merry.WithMessagef("no player response in watch page for %s", videoID))
	}

	result := &playerResponse{}
	if err := json.Unmarshal(match[1], result); err != nil {
		return nil, merry.Wrap(ErrInvalidPayload, merry.WithMessagef("malformed player response: %v", err))
	}

	return result.toRawPayload(r.Name()), nil
}
