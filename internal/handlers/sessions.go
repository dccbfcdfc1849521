package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/fridgechef/internal/export"
	"github.com/lehigh-university-libraries/fridgechef/internal/session"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, h.controller.History())
	case "DELETE":
		h.controller.ClearHistory()
		h.writeJSON(w, h.controller.View())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail serves /api/sessions/{id}, /api/sessions/{id}/select and /api/sessions/{id}/export
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, action, _ := strings.Cut(rest, "/")
	if sessionID == "" {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	switch action {
	case "":
		if r.Method != "GET" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		for _, set := range h.controller.History() {
			if set.ID == sessionID {
				h.writeJSON(w, set)
				return
			}
		}
		h.writeResult(w, session.ErrUnknownSession)
	case "select":
		if r.Method != "POST" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.writeResult(w, h.controller.SelectHistoryItem(sessionID))
	case "export":
		if r.Method != "GET" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.exportSession(w, r, sessionID)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) exportSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatYAML
	}
	if format != export.FormatYAML && format != export.FormatJSON {
		h.writeError(w, "Invalid format. Must be 'yaml' or 'json'", http.StatusBadRequest)
		return
	}

	for _, set := range h.controller.History() {
		if set.ID != sessionID {
			continue
		}
		w.Header().Set("Content-Type", export.ContentType(format))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "fridge-chef-"+sessionID+"."+format))
		if err := export.WriteSession(w, set, format); err != nil {
			h.writeError(w, "Failed to export session: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}
	h.writeResult(w, session.ErrUnknownSession)
}
