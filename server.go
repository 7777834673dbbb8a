package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type searchHistory interface {
	Recent(limit int) ([]SearchEntry, error)
}

type authenticator interface {
	TestUser(user string, pass string) bool
}

type Server struct {
	cfg      *Config
	searcher PhotoSearcher
	history  searchHistory
	auth     authenticator
	log      zerolog.Logger
}

// NewServer wires the web front end. history and auth may be nil.
func NewServer(cfg *Config, searcher PhotoSearcher, history searchHistory, auth authenticator) *Server {
	return &Server{
		cfg:      cfg,
		searcher: searcher,
		history:  history,
		auth:     auth,
		log:      newLogger("server"),
	}
}

func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleIndex)
	mux.HandleFunc("/mood", srv.handleMood)
	mux.HandleFunc("/api/photos", srv.handlePhotos)
	mux.HandleFunc("/api/history", srv.handleHistory)

	var h http.Handler = mux
	if srv.auth != nil {
		h = srv.basicAuth(h)
	}
	return srv.accessLog(h)
}

func (srv *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "Not Found")
		return
	}
	srv.writePage(w, http.StatusOK, Page{})
}

func (srv *Server) handleMood(w http.ResponseWriter, r *http.Request) {
	mood := strings.TrimSpace(r.URL.Query().Get("mood"))
	if mood == "" {
		srv.writePage(w, http.StatusOK, Page{Warning: msgEmptyMood})
		return
	}

	res := srv.searcher.Random(r.Context(), mood, srv.cfg.Unsplash.Count)
	page := Page{Mood: mood, Searched: true, Photos: res.Photos}
	if res.Err != nil {
		page.Error = failureMessage(res.Err)
	}
	srv.writePage(w, http.StatusOK, page)
}

type apiError struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

func (srv *Server) handlePhotos(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		srv.writeJSON(w, r, http.StatusBadRequest, apiError{Error: "Query Search Parameter ?q= missing"})
		return
	}
	count := srv.cfg.Unsplash.Count
	if n, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil && n > 0 {
		count = n
	}

	res := srv.searcher.Random(r.Context(), query, count)
	if res.Err == nil {
		srv.writeJSON(w, r, http.StatusOK, res.Photos)
		return
	}

	var remote *RemoteRequestError
	var transport *TransportError
	status := http.StatusBadGateway
	switch {
	case errors.As(res.Err, &remote):
		srv.writeJSON(w, r, status, apiError{Error: res.Err.Error(), Status: remote.StatusCode})
		return
	case errors.As(res.Err, &transport):
		status = http.StatusGatewayTimeout
	}
	srv.writeJSON(w, r, status, apiError{Error: res.Err.Error()})
}

func (srv *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if srv.history == nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "Not Found")
		return
	}
	limit := defaultHistoryLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = min(n, maxHistoryLimit)
	}
	entries, err := srv.history.Recent(limit)
	if err != nil {
		srv.log.Err(err).Msg("Failed to read search log")
		srv.writeJSON(w, r, http.StatusInternalServerError, apiError{Error: "search log unavailable"})
		return
	}
	srv.writeJSON(w, r, http.StatusOK, entries)
}

func (srv *Server) writePage(w http.ResponseWriter, status int, page Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := renderPage(w, page); err != nil {
		srv.log.Err(err).Msg("Failed to render page")
	}
}

func (srv *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	w.WriteHeader(status)

	enc := json.NewEncoder(body)
	indent := ""
	if srv.cfg.Debug.PrettyJson {
		indent = "  "
	}
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		srv.log.Err(err).Msg("Failed to encode response")
	}
}

func (srv *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !srv.auth.TestUser(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="moodpic", charset="UTF-8"`)
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (srv *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		srv.log.Info().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
