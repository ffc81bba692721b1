package handler

import (
	"net/http"
	"time"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/store"
	"github.com/modelforge/modelforge/internal/validate"
)

// FineTuningHandler serves /api/fine_tuning: bookkeeping fields for the
// fine-tuning row behind an API key.
type FineTuningHandler struct {
	gate        *auth.Gate
	fineTunings store.FineTunings
}

func NewFineTuningHandler(gate *auth.Gate, fineTunings store.FineTunings) *FineTuningHandler {
	return &FineTuningHandler{gate: gate, fineTunings: fineTunings}
}

func (h *FineTuningHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if _, err := h.gate.Authenticate(r, auth.GateOptions{}); err != nil {
		writeError(w, err)
		return
	}

	apiKeyUUID, ok := requiredParam(w, r, "api_key_uuid", validate.UUID4)
	if !ok {
		return
	}

	ft, err := h.fineTunings.FindByAPIKeyUUID(r.Context(), apiKeyUUID)
	if err != nil {
		writeError(w, err)
		return
	}
	if ft == nil {
		writeErrorMessage(w, http.StatusNotFound, "Api key with uuid: "+apiKeyUUID+" wasn't found.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uuid":               ft.UUID,
		"training_file_uuid": ft.TrainingFileUUID,
		"job_uuid":           ft.JobUUID,
		"tuned":              ft.Tuned,
		"last_file_upload":   formatTimePtr(ft.LastFileUpload),
		"last_tuned":         formatTimePtr(ft.LastTuned),
	})
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
