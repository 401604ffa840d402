package wsapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/agam1092005/multiGalaxy/internal/usecase"
)

func (d *Deps) handleListSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		if err := d.Svc.ClearAll(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "CLEAR_FAILED", err.Error(), nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET or DELETE", nil)
		return
	}
	f := usecase.SessionFilter{
		Q:          r.URL.Query().Get("q"),
		ActiveOnly: r.URL.Query().Get("active") == "1" || r.URL.Query().Get("active") == "true",
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}
	items, total, err := d.Svc.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LIST_FAILED", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

// handleSessionByID serves /api/sessions/{id}[/updates|/chat].
func (d *Deps) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(path, "/")
	id := parts[0]
	if id == "" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			sess, ok, err := d.Svc.Get(r.Context(), id)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "GET_FAILED", err.Error(), nil)
				return
			}
			if !ok {
				writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", map[string]any{"id": id})
				return
			}
			writeJSON(w, http.StatusOK, sess)
		case http.MethodDelete:
			if err := d.Svc.Delete(r.Context(), id); err != nil {
				writeError(w, http.StatusInternalServerError, "DELETE_FAILED", err.Error(), nil)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET or DELETE", nil)
		}
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET", nil)
		return
	}
	switch parts[1] {
	case "updates":
		updates, err := d.Svc.RecentUpdates(r.Context(), id, queryInt(r, "limit", 0))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "LIST_FAILED", err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": updates})
	case "chat":
		msgs, next, err := d.Svc.ListChat(r.Context(), id, r.URL.Query().Get("from"), queryInt(r, "limit", 50))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "LIST_FAILED", err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": msgs, "next": next})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
