package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strings"

	"github.com/Rahil-15/MediBot2.0/chat"
)

const (
	msgNoInput  = "No message provided."
	msgNotReady = "MediBot is starting up or misconfigured (RAG chain not ready)."
	msgInternal = "Internal server error - check server logs."

	maxBodyBytes = 1 << 20
)

// Answerer is the part of the chat pipeline the server depends on.
type Answerer interface {
	Answer(ctx context.Context, message string) (string, error)
	Readiness() chat.Readiness
}

// Server exposes the chat page and the /get endpoint.
type Server struct {
	pipeline Answerer
	logger   *log.Logger
	handler  http.Handler
}

type replyResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Ready bool `json:"ready"`
	chat.Readiness
}

type messageRequest struct {
	Message string `json:"message"`
}

// New constructs a Server answering through pipeline.
func New(pipeline Answerer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{pipeline: pipeline, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.Handle("/static/", s.staticHandler())
	mux.HandleFunc("/get", s.handleGet)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	readiness := s.pipeline.Readiness()
	status := http.StatusOK
	if !readiness.Ready() {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, healthResponse{Ready: readiness.Ready(), Readiness: readiness})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodGet+", "+http.MethodPost)
		return
	}

	message := readMessage(w, r)

	answer, err := s.pipeline.Answer(r.Context(), message)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, replyResponse{Reply: answer})
	case errors.Is(err, chat.ErrNoInput):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgNoInput})
	case errors.Is(err, chat.ErrNotReady):
		s.writeJSON(w, http.StatusServiceUnavailable, replyResponse{Reply: msgNotReady})
	default:
		s.writeError(w, http.StatusInternalServerError, msgInternal, fmt.Errorf("answer /get: %w", err))
	}
}

// readMessage returns the first non-blank of the JSON "message" field, the
// form field "msg" and the query parameter "msg".
func readMessage(w http.ResponseWriter, r *http.Request) string {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if isJSON(r.Header.Get("Content-Type")) {
		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			if msg := strings.TrimSpace(req.Message); msg != "" {
				return msg
			}
		}
	}

	if msg := strings.TrimSpace(r.PostFormValue("msg")); msg != "" {
		return msg
	}
	return strings.TrimSpace(r.URL.Query().Get("msg"))
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed.", fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

// writeError logs err and sends only message to the client.
func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	s.logger.Printf("api error (%d): %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: message})
}
