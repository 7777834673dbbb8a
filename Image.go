package main

import (
	"context"
	"errors"
	"net/http"
)

// PlaceholderDescription is used when the provider supplies neither a
// description nor an alt description.
const PlaceholderDescription = "설명이 없습니다."

type PhotoResult struct {
	URL          string `json:"url"`
	Description  string `json:"description"`
	Photographer string `json:"photographer"`
}

type PhotoSearcher interface {
	Random(ctx context.Context, query string, count int) SearchResult
}

// SearchResult holds either the full list of photos or an error, never both.
type SearchResult struct {
	Photos []PhotoResult
	Err    error
}

// Status returns 200 on success and the provider status code for a
// RemoteRequestError. Any other failure reports 0.
func (res SearchResult) Status() int {
	if res.Err == nil {
		return http.StatusOK
	}
	var remote *RemoteRequestError
	if errors.As(res.Err, &remote) {
		return remote.StatusCode
	}
	return 0
}

func failed(err error) SearchResult {
	return SearchResult{Photos: []PhotoResult{}, Err: err}
}
