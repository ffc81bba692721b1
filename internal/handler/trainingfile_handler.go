package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/jsonl"
	"github.com/modelforge/modelforge/internal/model"
	"github.com/modelforge/modelforge/internal/provider"
	"github.com/modelforge/modelforge/internal/store"
	"github.com/modelforge/modelforge/internal/validate"
)

const maxTrainingFileSize = 10 << 20

// TrainingFileHandler serves /api/training_file: upload, download, and delete
// of the training file behind an API key. File contents live with the AI
// provider; only the opaque handle is stored here.
type TrainingFileHandler struct {
	gate        *auth.Gate
	fineTunings store.FineTunings
	files       provider.Files
}

func NewTrainingFileHandler(gate *auth.Gate, fineTunings store.FineTunings, files provider.Files) *TrainingFileHandler {
	return &TrainingFileHandler{gate: gate, fineTunings: fineTunings, files: files}
}

func (h *TrainingFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.download(w, r)
	case http.MethodPost:
		h.upload(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *TrainingFileHandler) download(w http.ResponseWriter, r *http.Request) {
	ft, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if ft.TrainingFileUUID == nil {
		writeErrorMessage(w, http.StatusNotFound, "The training file has not been uploaded yet.")
		return
	}

	data, err := h.files.Content(r.Context(), *ft.TrainingFileUUID)
	if err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, "Unable to fetch training file.")
		return
	}

	w.Header().Set("Content-Type", "application/jsonl")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *TrainingFileHandler) upload(w http.ResponseWriter, r *http.Request) {
	ft, ok := h.lookup(w, r)
	if !ok {
		return
	}

	file, _, err := r.FormFile("jsonl_file")
	if err != nil {
		badRequest(w, "Missing file: jsonl_file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxTrainingFileSize))
	if err != nil {
		badRequest(w, "Unable to read uploaded file.")
		return
	}

	if err := jsonl.Validate(data); err != nil {
		badRequest(w, "Training file is incorrect.\n"+err.Error())
		return
	}

	fileID, err := h.files.Upload(r.Context(), "training.jsonl", data)
	if err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, "Unable to save training file.")
		return
	}

	now := time.Now()
	if err := h.fineTunings.SetTrainingFile(r.Context(), ft.UUID, &fileID, &now); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Training file uploaded.")
}

func (h *TrainingFileHandler) delete(w http.ResponseWriter, r *http.Request) {
	ft, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if ft.TrainingFileUUID == nil {
		writeErrorMessage(w, http.StatusNotFound, "The training file has not been uploaded yet.")
		return
	}

	if err := h.files.Delete(r.Context(), *ft.TrainingFileUUID); err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, "Unable to delete training file.")
		return
	}

	if err := h.fineTunings.SetTrainingFile(r.Context(), ft.UUID, nil, nil); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Training file deleted successfully.")
}

// lookup authenticates the request and resolves the fine-tuning row behind
// the api_key_uuid parameter. On failure the response is already written.
func (h *TrainingFileHandler) lookup(w http.ResponseWriter, r *http.Request) (ft *model.FineTuning, ok bool) {
	if _, err := h.gate.Authenticate(r, auth.GateOptions{}); err != nil {
		writeError(w, err)
		return nil, false
	}

	apiKeyUUID, ok := requiredParam(w, r, "api_key_uuid", validate.UUID4)
	if !ok {
		return nil, false
	}

	row, err := h.fineTunings.FindByAPIKeyUUID(r.Context(), apiKeyUUID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if row == nil {
		writeErrorMessage(w, http.StatusNotFound, "Api key with uuid: "+apiKeyUUID+" wasn't found.")
		return nil, false
	}
	return row, true
}
