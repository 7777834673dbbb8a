package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPagePhotos(t *testing.T) {
	var sb strings.Builder
	err := renderPage(&sb, Page{
		Mood:     "설렘",
		Searched: true,
		Photos: []PhotoResult{
			{URL: "https://images.example/1", Description: "first", Photographer: "Ana"},
			{URL: "https://images.example/2", Description: PlaceholderDescription, Photographer: "Bo"},
		},
	})
	require.NoError(t, err)
	out := sb.String()

	assert.Contains(t, out, "'설렘' 무드에 어울리는 사진들")
	assert.Contains(t, out, `<img src="https://images.example/1"`)
	assert.Contains(t, out, "사진 1")
	assert.Contains(t, out, "사진 2")
	assert.Contains(t, out, "📝 설명: first")
	assert.Contains(t, out, "📸 사진작가: Bo")
	assert.Contains(t, out, "📝 설명: "+PlaceholderDescription)
	assert.Equal(t, 2, strings.Count(out, "<hr>"))
	assert.Less(t, strings.Index(out, "사진 1"), strings.Index(out, "사진 2"))
}

func TestRenderPageEscapes(t *testing.T) {
	var sb strings.Builder
	err := renderPage(&sb, Page{
		Mood:     "<script>",
		Searched: true,
		Photos:   []PhotoResult{{URL: "javascript:alert(1)", Description: "<b>x</b>", Photographer: "A"}},
	})
	require.NoError(t, err)
	out := sb.String()

	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<b>x</b>")
	assert.NotContains(t, out, `src="javascript:`)
}

func TestRenderPageWarning(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, renderPage(&sb, Page{Warning: msgEmptyMood}))
	out := sb.String()

	assert.Contains(t, out, msgEmptyMood)
	assert.NotContains(t, out, "무드에 어울리는 사진들")
	assert.NotContains(t, out, "<figure>")
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "사진을 불러오는 데 실패했습니다. 상태 코드: 403", failureMessage(&RemoteRequestError{StatusCode: 403}))
	assert.Equal(t, msgFailedNetwork, failureMessage(&TransportError{Err: errors.New("dial tcp: refused")}))
	assert.Equal(t, msgFailedResponse, failureMessage(&MalformedResponseError{Index: 0, Field: "urls.regular"}))
	assert.Equal(t, msgFailed, failureMessage(errors.New("other")))
}
