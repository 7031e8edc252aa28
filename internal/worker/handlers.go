package worker

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/neurofusion/fusion/internal/worker/sse"
	"github.com/neurofusion/fusion/pkg/models"
)

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "starting"
	if s.ready.Load() {
		status = "ready"
	}

	dbStatus := "ok"
	if err := s.store.Ping(); err != nil {
		dbStatus = "unreachable"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"version":  s.version,
		"database": dbStatus,
		"uptime":   time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Service) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Service) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	all, err := s.repo.ReadAllPrompts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Service) handleSavePrompt(w http.ResponseWriter, r *http.Request) {
	var entry models.Prompt
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	saved, err := s.repo.SavePrompt(r.Context(), entry)
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcaster.Broadcast(sse.Event{Type: sse.EventPromptSaved, PromptUUID: saved.UUID})
	writeJSON(w, http.StatusOK, saved)
}

func (s *Service) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	promptUUID := chi.URLParam(r, "uuid")

	prompt, err := s.repo.GetPrompt(r.Context(), promptUUID)
	if err != nil {
		writeError(w, err)
		return
	}
	if prompt == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "prompt not found"})
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

func (s *Service) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	promptUUID := chi.URLParam(r, "uuid")

	remaining, err := s.repo.DeletePrompt(r.Context(), promptUUID)
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcaster.Broadcast(sse.Event{Type: sse.EventPromptDeleted, PromptUUID: promptUUID})
	writeJSON(w, http.StatusOK, remaining)
}

func (s *Service) handleGetResponses(w http.ResponseWriter, r *http.Request) {
	promptUUID := chi.URLParam(r, "uuid")

	responses, err := s.repo.GetPromptResponses(r.Context(), promptUUID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Service) handleSaveResponse(w http.ResponseWriter, r *http.Request) {
	var response models.PromptResponse
	if err := json.NewDecoder(r.Body).Decode(&response); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if err := s.repo.SavePromptResponse(r.Context(), response); err != nil {
		writeError(w, err)
		return
	}

	s.broadcaster.Broadcast(sse.Event{Type: sse.EventResponseSaved, PromptUUID: response.PromptUUID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Service) handleSearchPrompts(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text parameter is required"})
		return
	}

	uuids, err := s.repo.FindPromptsByText(r.Context(), text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"uuids": uuids})
}

func (s *Service) handleRunMigration(w http.ResponseWriter, r *http.Request) {
	if s.migrator == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no legacy store configured"})
		return
	}

	if err := s.migrator.RunMigration(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	s.broadcaster.Broadcast(sse.Event{Type: sse.EventMigrationCompleted})
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var schedErr *models.SchedulerError
	switch {
	case errors.Is(err, models.ErrPromptNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidPrompt), errors.Is(err, models.ErrInvalidResponse):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &schedErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
