package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"survey-activation-engine/internal/monitor"
)

type MonitorHandler struct {
	Mon *monitor.Monitor
}

func NewMonitorHandler(m *monitor.Monitor) *MonitorHandler {
	return &MonitorHandler{Mon: m}
}

type logRequest struct {
	Level string `json:"level"`
	Args  []any  `json:"args"`
}

// Ingest records one forwarded console call. 204 when the line is ignored.
func (h *MonitorHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	e, ok := h.Mon.Record(monitor.ParseLevel(req.Level), req.Args...)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *MonitorHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if t := r.URL.Query().Get("type"); t != "" {
		writeJSON(w, http.StatusOK, h.Mon.LogsByType(monitor.EventType(t)))
		return
	}
	writeJSON(w, http.StatusOK, h.Mon.Logs())
}

func (h *MonitorHandler) Clear(w http.ResponseWriter, _ *http.Request) {
	h.Mon.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *MonitorHandler) RecordAPICall(w http.ResponseWriter, r *http.Request) {
	var c monitor.APICall
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&c); err != nil || c.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid api call")
		return
	}
	rec, ok := h.Mon.RecordAPICall(c)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *MonitorHandler) APICalls(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Mon.APICalls())
}

func (h *MonitorHandler) State(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Mon.State())
}

// PutState merges the fields present in the body into the current state.
// targetAttributes, when present, replaces the previous map.
func (h *MonitorHandler) PutState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	var check monitor.State
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() || json.Unmarshal(body, &check) != nil {
		writeError(w, http.StatusBadRequest, "invalid state")
		return
	}
	replaceAttrs := gjson.GetBytes(body, "targetAttributes").Exists()
	s := h.Mon.UpdateState(func(cur *monitor.State) {
		if replaceAttrs {
			cur.TargetAttributes = nil
		}
		_ = json.Unmarshal(body, cur)
	})
	writeJSON(w, http.StatusOK, s)
}

func (h *MonitorHandler) Export(w http.ResponseWriter, _ *http.Request) {
	b, err := h.Mon.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="sdk-monitor.json"`)
	_, _ = w.Write(b)
}

func (h *MonitorHandler) Start(w http.ResponseWriter, _ *http.Request) {
	h.Mon.Start()
	writeJSON(w, http.StatusOK, map[string]bool{"running": h.Mon.Running()})
}

func (h *MonitorHandler) Stop(w http.ResponseWriter, _ *http.Request) {
	h.Mon.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"running": h.Mon.Running()})
}
