package resolver

import (
	"context"
	"strconv"

	"github.com/ansel1/merry/v2"
	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
)

var errNon200Status = merry.Sentinel("non-200 status")

type playerResponse struct {
	VideoDetails struct {
		Title         string `json:"title"`
		Author        string `json:"author"`
		LengthSeconds string `json:"lengthSeconds"`
	} `json:"videoDetails"`
	StreamingData struct {
		Formats         []playerFormat `json:"formats"`
		AdaptiveFormats []playerFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

type playerFormat struct {
	URL           string `json:"url"`
	MimeType      string `json:"mimeType"`
	QualityLabel  string `json:"qualityLabel"`
	Bitrate       int    `json:"bitrate"`
	ContentLength string `json:"contentLength"`
	AudioQuality  string `json:"audioQuality"`
}

func (p *playerResponse) toRawPayload(provider string) *RawPayload {
	seconds, _ := strconv.Atoi(p.VideoDetails.LengthSeconds)

	formats := append([]playerFormat{}, p.StreamingData.Formats...)
	formats = append(formats, p.StreamingData.AdaptiveFormats...)

	return &RawPayload{
		Provider:        provider,
		Title:           p.VideoDetails.Title,
		Author:          p.VideoDetails.Author,
		DurationSeconds: seconds,
		Formats: lo.Map(formats, func(f playerFormat, _ int) RawFormat {
			return RawFormat{
				URL:           f.URL,
				MimeType:      f.MimeType,
				QualityLabel:  f.QualityLabel,
				Bitrate:       f.Bitrate,
				ContentLength: f.ContentLength,
				AudioQuality:  f.AudioQuality,
			}
		}),
	}
}

// InnertubeResolver resolves through the player API with an Android client
// identity, which returns direct stream URLs.
type InnertubeResolver struct {
	restyClient   *resty.Client
	clientName    string
	clientVersion string
}

func NewInnertubeResolver(baseURL string) *InnertubeResolver {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")
	client.SetDisableWarn(true)

	return &InnertubeResolver{
		restyClient:   client,
		clientName:    "ANDROID",
		clientVersion: "19.09.37",
	}
}

func (r *InnertubeResolver) Name() string {
	return "innertube-android"
}

func (r *InnertubeResolver) Fetch(ctx context.Context, ref MediaReference) (*RawPayload, error) {
	videoID := ref.VideoID()
	if videoID == "" {
		return nil, merry.Wrap(ErrInvalidReference, merry.WithMessagef("no video id in %q", ref.RawURL))
	}

	body := map[string]any{
		"videoId": videoID,
		"context": map[string]any{
			"client": map[string]any{
				"clientName":        r.clientName,
				"clientVersion":     r.clientVersion,
				"androidSdkVersion": 34,
				"hl":                "en",
			},
		},
	}

	result := &playerResponse{}
	res, err := r.restyClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		Post("/youtubei/v1/player")
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, merry.Wrap(errNon200Status, merry.WithHTTPCode(res.StatusCode()))
	}

	return result.toRawPayload(r.Name()), nil
}
