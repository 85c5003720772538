package webapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"serenity-browser/internal/domain/model"
	"serenity-browser/internal/services/commands"
	"serenity-browser/internal/services/journalverify"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "serenity",
		"time":    time.Now().Unix(),
	})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"info": s.cmds.SystemInfo()})
}

func (s *Server) handleGreet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": s.cmds.Greet(req.Name)})
}

func (s *Server) handleOpenBrowser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.cmds.OpenBrowser(r.Context(), req.URL); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleEngineArgs 预览最终参数：/api/engine/args?extra=--a&extra=--b
func (s *Server) handleEngineArgs(w http.ResponseWriter, r *http.Request) {
	extra := r.URL.Query()["extra"]
	writeJSON(w, http.StatusOK, map[string]any{
		"engine": s.cmds.Engine().Name(),
		"args":   s.cmds.EngineArgs(extra),
	})
}

func (s *Server) handleListWebviews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"webviews": s.cmds.ListWebviews()})
}

func (s *Server) handleCreateWebview(w http.ResponseWriter, r *http.Request) {
	var req commands.CreateWebviewArgs
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.cmds.CreateWebview(r.Context(), req)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetWebview(w http.ResponseWriter, r *http.Request) {
	rec, err := s.cmds.GetWebview(chi.URLParam(r, "id"))
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCloseWebview(w http.ResponseWriter, r *http.Request) {
	if err := s.cmds.CloseWebview(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleNavigateWebview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.cmds.NavigateWebview(r.Context(), chi.URLParam(r, "id"), req.URL); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleGoBack(w http.ResponseWriter, r *http.Request) {
	s.writeOpResult(w, s.cmds.WebviewGoBack(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleGoForward(w http.ResponseWriter, r *http.Request) {
	s.writeOpResult(w, s.cmds.WebviewGoForward(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.writeOpResult(w, s.cmds.WebviewReload(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 100)
	events, err := s.cmds.WebviewHistory(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleFocusState(w http.ResponseWriter, r *http.Request) {
	st, err := s.cmds.FocusState()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpdateFocus(w http.ResponseWriter, r *http.Request) {
	var req commands.FocusUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := s.cmds.UpdateFocus(req)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleJournalVerify(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("session journal is disabled"))
		return
	}
	events, err := s.store.ListAllEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, journalverify.Verify(events))
}

func (s *Server) writeOpResult(w http.ResponseWriter, err error) {
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// statusFor 把命令错误种类映射为 HTTP 状态码；消息体始终是 err.Error() 原文。
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrWebviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrURLBlocked):
		return http.StatusForbidden
	case errors.Is(err, model.ErrWebviewCreationFailed):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrEngineOperationFailed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeCommandError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{
		"error": err.Error(),
	})
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
