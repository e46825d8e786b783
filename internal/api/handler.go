package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"survey-activation-engine/internal/engine"
	"survey-activation-engine/internal/storage"
)

const maxBody = 1 << 20

type SurveyHandler struct {
	Eng   *engine.ActivationEngine
	Store storage.Store
}

func NewSurveyHandler(eng *engine.ActivationEngine, st storage.Store) *SurveyHandler {
	return &SurveyHandler{Eng: eng, Store: st}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *SurveyHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Eng.Surveys())
}

func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.Eng.Survey(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// Put stores the survey in the body under the path id and refreshes the snapshot.
func (h *SurveyHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	rec, err := storage.ParseSurvey(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rec.ID != id {
		writeError(w, http.StatusBadRequest, "survey id does not match path")
		return
	}

	ctx := r.Context()
	if err := h.Store.SaveSurvey(ctx, rec); err != nil {
		h.storeError(w, err)
		return
	}
	h.refresh(r)
	writeJSON(w, http.StatusOK, engine.FromRecord(rec))
}

func (h *SurveyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteSurvey(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.storeError(w, err)
		return
	}
	h.refresh(r)
	w.WriteHeader(http.StatusNoContent)
}

// Reset removes every survey and SDK key from the store.
func (h *SurveyHandler) Reset(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.Reset(r.Context())
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.refresh(r)
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// Active lists the events active on ?page=, or groups them by trigger with
// ?group=trigger. 204 when nothing is active.
func (h *SurveyHandler) Active(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if !res.HasActive() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if strings.EqualFold(r.URL.Query().Get("group"), "trigger") {
		writeJSON(w, http.StatusOK, res.ByTrigger)
		return
	}
	writeJSON(w, http.StatusOK, res.Active)
}

func (h *SurveyHandler) FirstActive(w http.ResponseWriter, r *http.Request) {
	trigger := r.URL.Query().Get("trigger")
	if trigger == "" {
		writeError(w, http.StatusBadRequest, "missing trigger")
		return
	}
	cfg, page, ok := h.lookup(w, r)
	if !ok {
		return
	}
	e, found := engine.FirstActiveEventByTrigger(cfg, page, engine.Trigger(trigger))
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *SurveyHandler) AnyActive(w http.ResponseWriter, r *http.Request) {
	cfg, page, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": engine.HasActiveEvents(cfg, page)})
}

// lookup returns the survey named in the path and the normalized ?page=.
func (h *SurveyHandler) lookup(w http.ResponseWriter, r *http.Request) (*engine.SurveyConfig, string, bool) {
	page := r.URL.Query().Get("page")
	if page == "" {
		writeError(w, http.StatusBadRequest, "missing page")
		return nil, "", false
	}
	cfg, ok := h.Eng.Survey(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound.Error())
		return nil, "", false
	}
	return cfg, engine.CurrentPage(page), true
}

func (h *SurveyHandler) resolve(w http.ResponseWriter, r *http.Request) (engine.Resolution, bool) {
	page := r.URL.Query().Get("page")
	if page == "" {
		writeError(w, http.StatusBadRequest, "missing page")
		return engine.Resolution{}, false
	}
	res, ok := h.Eng.Resolve(r.Context(), chi.URLParam(r, "id"), page)
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound.Error())
		return engine.Resolution{}, false
	}
	return res, true
}

func (h *SurveyHandler) refresh(r *http.Request) {
	if err := h.Eng.BuildSnapshot(r.Context(), h.Store); err != nil {
		log.Error().Err(err).Msg("refresh snapshot after write")
	}
}

func (h *SurveyHandler) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("store operation")
		writeError(w, http.StatusInternalServerError, "storage error")
	}
}
