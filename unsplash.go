package main

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 8 << 20

type UnsplashApi struct {
	Http      *http.Client
	accessKey string
	baseUrl   string
	maxBody   int64
	log       zerolog.Logger
}

func NewUnsplashApi(cfg *Config) (*UnsplashApi, error) {
	if cfg.Unsplash.AccessKey == "" {
		return nil, &ConfigError{Field: "unsplash.com.access", Reason: "is required (or set UNSPLASH_ACCESS_KEY)"}
	}
	return &UnsplashApi{
		Http:      &http.Client{Timeout: cfg.Timeout()},
		accessKey: cfg.Unsplash.AccessKey,
		baseUrl:   cfg.Unsplash.BaseUrl + "/photos/random",
		maxBody:   maxResponseSize,
		log:       newLogger("unsplash"),
	}, nil
}

// Random asks the random photos endpoint for count photos matching query.
// The endpoint is randomized, so identical calls may return different photos.
func (unsp *UnsplashApi) Random(ctx context.Context, query string, count int) SearchResult {
	qParam := url.Values{}
	qParam.Add("query", query)
	qParam.Add("count", strconv.Itoa(count))
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, unsp.baseUrl+"?"+qParam.Encode(), nil)
	if err != nil {
		unsp.log.Err(err).Msg("Failed to create http request")
		return failed(&TransportError{Err: err})
	}
	getReq.Header.Set("Accept-Version", "v1")
	getReq.Header.Set("Authorization", "Client-ID "+unsp.accessKey)

	resp, err := unsp.Http.Do(getReq)
	if err != nil {
		unsp.log.Err(err).Str("query", query).Msg("Failed to fetch")
		return failed(&TransportError{Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		unsp.log.Warn().Int("status", resp.StatusCode).Str("query", query).Msg("Unexpected status")
		return failed(&RemoteRequestError{StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, unsp.maxBody+1))
	if err != nil {
		unsp.log.Err(err).Msg("Failed to read response")
		return failed(&TransportError{Err: err})
	}
	if int64(len(body)) > unsp.maxBody {
		unsp.log.Warn().Int64("limit", unsp.maxBody).Msg("Response body too large")
		return failed(&MalformedResponseError{Index: -1, Field: "response body too large"})
	}

	photos, err := parsePhotos(body)
	if err != nil {
		unsp.log.Err(err).Msg("Failed to decode response")
		return failed(err)
	}
	unsp.log.Debug().Str("query", query).Int("count", count).Int("results", len(photos)).Send()
	return SearchResult{Photos: photos}
}

func parsePhotos(body []byte) ([]PhotoResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, &MalformedResponseError{Index: -1, Field: "invalid JSON"}
	}
	data := gjson.ParseBytes(body)
	if !data.IsArray() {
		return nil, &MalformedResponseError{Index: -1, Field: "expected a JSON array"}
	}

	elements := data.Array()
	output := make([]PhotoResult, len(elements))
	for i, el := range elements {
		regular := el.Get("urls.regular")
		if regular.Type != gjson.String || regular.Str == "" {
			return nil, &MalformedResponseError{Index: i, Field: "urls.regular"}
		}
		name := el.Get("user.name")
		if name.Type != gjson.String {
			return nil, &MalformedResponseError{Index: i, Field: "user.name"}
		}
		output[i].URL = regular.Str
		output[i].Description = describe(el)
		output[i].Photographer = name.Str
	}
	return output, nil
}

func describe(el gjson.Result) string {
	for _, field := range []string{"description", "alt_description"} {
		if v := el.Get(field); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return PlaceholderDescription
}
