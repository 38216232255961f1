// Package server 把 service 暴露为 HTTP 接口。
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/tweetcard/card"
	"github.com/ByLCY/tweetcard/service"
	"github.com/ByLCY/tweetcard/storage"
)

// MaxBodyBytes 限制生成请求的 JSON 大小。
const MaxBodyBytes = 1 << 20

// tracer traces with key 'tweetcard.server'
func tracer() tracing.Trace {
	return tracing.Select("tweetcard.server")
}

// Server routes:
//
//	POST /generate_tweet_image  → {"image_url": "/get_image/<id>"}
//	GET  /get_image/{filename}  → image/png
type Server struct {
	svc *service.Service
	mux *http.ServeMux
}

// New creates the HTTP handler for svc.
func New(svc *service.Service) *Server {
	s := &Server{svc: svc, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /generate_tweet_image", s.generate)
	s.mux.HandleFunc("GET "+service.ImagePath+"{filename}", s.image)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// generateRequest 使用指针区分“字段缺失”（取默认值）与“显式为空”。
type generateRequest struct {
	Username      *string `json:"username"`
	Handle        *string `json:"handle"`
	Text          *string `json:"tweet_text"`
	ProfileURL    *string `json:"profile_url"`
	AttachmentURL *string `json:"attached_image_url"`
}

func (g generateRequest) toCard() card.Request {
	or := func(p *string, def string) string {
		if p == nil {
			return def
		}
		return *p
	}
	return card.Request{
		Username:      or(g.Username, card.DefaultUsername),
		Handle:        or(g.Handle, card.DefaultHandle),
		Text:          or(g.Text, card.DefaultText),
		ProfileURL:    or(g.ProfileURL, ""),
		AttachmentURL: or(g.AttachmentURL, ""),
	}
}

type generateResponse struct {
	ImageURL string `json:"image_url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("请求 JSON 无效: %w", err))
		return
	}
	id, err := s.svc.Generate(r.Context(), body.toCard())
	if err != nil {
		tracer().Errorf("generate: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{ImageURL: service.ImageURL(id)})
}

func (s *Server) image(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("filename")
	data, err := s.svc.Fetch(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrInvalidID):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		tracer().Errorf("load %q: %v", id, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		tracer().Debugf("write %s: %v", id, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		tracer().Debugf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
