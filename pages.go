package main

import (
	"errors"
	"fmt"
	"html/template"
	"io"
)

const (
	msgEmptyMood      = "먼저 무드를 입력해주세요."
	msgFailed         = "사진을 불러오는 데 실패했습니다."
	msgFailedStatus   = "사진을 불러오는 데 실패했습니다. 상태 코드: %d"
	msgFailedNetwork  = "사진을 불러오는 데 실패했습니다. 사진 서비스에 연결할 수 없습니다."
	msgFailedResponse = "사진을 불러오는 데 실패했습니다. 사진 서비스의 응답을 해석할 수 없습니다."
)

type Page struct {
	Mood    string
	Warning string
	Error   string
	Photos  []PhotoResult

	// Searched is set once a search has been issued for Mood.
	Searched bool
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>무드 기반 사진 추천 웹앱</title>
</head>
<body>
<h1>🎨 무드 기반 사진 추천 웹앱</h1>
<form action="/mood" method="get">
<label for="mood">지금 당신의 기분은 어떤가요? (예: 설렘, 외로움, 고요함 등)</label>
<input id="mood" name="mood" type="text" value="{{.Mood}}">
<button type="submit">사진 보기</button>
</form>
{{with .Warning}}<p class="warning">{{.}}</p>{{end}}
{{if .Searched}}<h2>'{{.Mood}}' 무드에 어울리는 사진들</h2>{{end}}
{{with .Error}}<p class="error">{{.}}</p>{{end}}
{{range $i, $p := .Photos}}<figure>
<img src="{{$p.URL}}" alt="{{$p.Description}}">
<figcaption>사진 {{inc $i}}</figcaption>
</figure>
<p>📝 설명: {{$p.Description}}</p>
<p>📸 사진작가: {{$p.Photographer}}</p>
<hr>
{{end}}
</body>
</html>
`))

func renderPage(w io.Writer, page Page) error {
	return pageTemplate.Execute(w, page)
}

// failureMessage turns a search error into the text shown to the user.
func failureMessage(err error) string {
	var remote *RemoteRequestError
	var transport *TransportError
	var malformed *MalformedResponseError
	switch {
	case errors.As(err, &remote):
		return fmt.Sprintf(msgFailedStatus, remote.StatusCode)
	case errors.As(err, &transport):
		return msgFailedNetwork
	case errors.As(err, &malformed):
		return msgFailedResponse
	}
	return msgFailed
}
