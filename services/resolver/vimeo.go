package resolver

import (
	"context"

	"github.com/ansel1/merry/v2"
	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
)

type vimeoConfig struct {
	Video struct {
		Title    string `json:"title"`
		Duration int    `json:"duration"`
		Owner    struct {
			Name string `json:"name"`
		} `json:"owner"`
	} `json:"video"`
	Request struct {
		Files struct {
			Progressive []vimeoFile `json:"progressive"`
		} `json:"files"`
	} `json:"request"`
}

type vimeoFile struct {
	URL     string `json:"url"`
	Mime    string `json:"mime"`
	Quality string `json:"quality"`
}

// VimeoResolver reads the player config endpoint, which lists progressive
// (audio+video) files per quality.
type VimeoResolver struct {
	restyClient *resty.Client
}

func NewVimeoResolver(baseURL string) *VimeoResolver {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetDisableWarn(true)

	return &VimeoResolver{restyClient: client}
}

func (r *VimeoResolver) Name() string {
	return "vimeo-player-config"
}

func (r *VimeoResolver) Fetch(ctx context.Context, ref MediaReference) (*RawPayload, error) {
	videoID := ref.VideoID()
	if videoID == "" {
		return nil, merry.Wrap(ErrInvalidReference, merry.WithMessagef("no video id in %q", ref.RawURL))
	}

	result := &vimeoConfig{}
	res, err := r.restyClient.R().
		SetContext(ctx).
		SetResult(result).
		Get("/video/" + videoID + "/config")
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, merry.Wrap(errNon200Status, merry.WithHTTPCode(res.StatusCode()))
	}

	return &RawPayload{
		Provider:        r.Name(),
		Title:           result.Video.Title,
		Author:          result.Video.Owner.Name,
		DurationSeconds: result.Video.Duration,
		Formats: lo.Map(result.Request.Files.Progressive, func(f vimeoFile, _ int) RawFormat {
			return RawFormat{
				URL:          f.URL,
				MimeType:     f.Mime,
				QualityLabel: f.Quality,
				// Progressive files always carry an embedded audio track.
				AudioQuality: "default",
			}
		}),
	}, nil
}
