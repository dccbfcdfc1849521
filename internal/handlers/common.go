package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/fridgechef/internal/config"
	"github.com/lehigh-university-libraries/fridgechef/internal/generation"
	"github.com/lehigh-university-libraries/fridgechef/internal/session"
)

// maxUploadSize limits uploaded photos to 10MB
const maxUploadSize = 10 * 1024 * 1024

type Handler struct {
	controller *session.Controller
	staticDir  string
	httpClient *http.Client
}

func New(controller *session.Controller, staticDir string) *Handler {
	if staticDir == "" {
		staticDir = "static"
	}
	return &Handler{
		controller: controller,
		staticDir:  staticDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", h.HandleState)
	mux.HandleFunc("/api/upload", h.HandleUpload)
	mux.HandleFunc("/api/analyze", h.HandleAnalyze)
	mux.HandleFunc("/api/suggest", h.HandleSuggest)
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/", h.HandleSessionDetail)
	mux.HandleFunc("/", h.HandleStatic)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeResult maps a controller error to a response. Failed generation is part of
// the view, so it still answers 200 with the error message set.
func (h *Handler) writeResult(w http.ResponseWriter, err error) {
	var noResults *session.NoResultsError
	var requestErr *session.RequestError
	var cfgErr *config.ConfigurationError

	switch {
	case err == nil, errors.As(err, &noResults), errors.As(err, &requestErr):
		h.writeJSON(w, h.controller.View())
	case errors.As(err, &cfgErr):
		h.writeError(w, cfgErr.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrNoImage), errors.Is(err, session.ErrNoActiveSession):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrUnknownSession):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, generation.ErrUnsupportedImage):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
