package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/captcha"
	"github.com/modelforge/modelforge/internal/model"
	"github.com/modelforge/modelforge/internal/store"
	"github.com/modelforge/modelforge/internal/validate"
)

const purposeDeleteAPIKey = "delete-api-key"

// APIKeyHandler serves /api/api_key: list, create, rename, and captcha-gated
// soft delete of the caller's API keys.
type APIKeyHandler struct {
	gate    *auth.Gate
	keys    store.APIKeys
	captcha *captcha.Guard
	metrics CaptchaMetrics
}

func NewAPIKeyHandler(gate *auth.Gate, keys store.APIKeys, guard *captcha.Guard, metrics CaptchaMetrics) *APIKeyHandler {
	return &APIKeyHandler{gate: gate, keys: keys, captcha: guard, metrics: metrics}
}

func (h *APIKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *APIKeyHandler) list(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.Authenticate(r, auth.GateOptions{})
	if err != nil {
		writeError(w, err)
		return
	}

	keys, err := h.keys.ListByUser(r.Context(), identity.Account.UUID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, map[string]any{
			"uuid":          k.UUID,
			"key":           k.Key,
			"name":          k.Name,
			"domains":       k.Domains,
			"registered_at": k.RegisteredAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"api_keys": out})
}

func (h *APIKeyHandler) create(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.Authenticate(r, auth.GateOptions{})
	if err != nil {
		writeError(w, err)
		return
	}

	name, ok := optionalParam(w, r, "name", validate.APIKeyName)
	if !ok {
		return
	}
	domains, ok := optionalParam(w, r, "domains", validate.APIKeyDomains)
	if !ok {
		return
	}

	key := &model.APIKey{
		UUID:         uuid.NewString(),
		Key:          strings.ReplaceAll(uuid.NewString(), "-", ""),
		Name:         name,
		Domains:      domains,
		RegisteredAt: time.Now(),
		UserUUID:     identity.Account.UUID,
	}
	if err := h.keys.Create(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Api key created successfully!")
}

func (h *APIKeyHandler) update(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.Authenticate(r, auth.GateOptions{Fresh: true})
	if err != nil {
		writeError(w, err)
		return
	}

	keyUUID, ok := requiredParam(w, r, "uuid", validate.UUID4)
	if !ok {
		return
	}
	name, ok := optionalParam(w, r, "name", validate.APIKeyName)
	if !ok {
		return
	}
	domains, ok := optionalParam(w, r, "domains", validate.APIKeyDomains)
	if !ok {
		return
	}

	key, err := h.ownedKey(w, r, identity, keyUUID)
	if key == nil || err != nil {
		return
	}

	if name != nil {
		key.Name = name
	}
	if domains != nil {
		key.Domains = domains
	}
	if err := h.keys.Update(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Api key info updated!")
}

func (h *APIKeyHandler) delete(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.Authenticate(r, auth.GateOptions{Fresh: true})
	if err != nil {
		writeError(w, err)
		return
	}

	keyUUID, ok := requiredParam(w, r, "uuid", validate.UUID4)
	if !ok {
		return
	}
	key, err := h.ownedKey(w, r, identity, keyUUID)
	if key == nil || err != nil {
		return
	}

	if !stepUp(w, r, h.captcha, h.metrics, identity.Account.UUID, purposeDeleteAPIKey) {
		return
	}

	if err := h.keys.MarkDeleted(r.Context(), keyUUID, time.Now()); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Api key deleted successfully!")
}

// ownedKey loads the key and enforces that it belongs to the caller. The 404
// for foreign keys matches the one for unknown uuids so key ownership is not
// discoverable by probing.
func (h *APIKeyHandler) ownedKey(w http.ResponseWriter, r *http.Request, identity *auth.Identity, keyUUID string) (*model.APIKey, error) {
	key, err := h.keys.FindByUUID(r.Context(), keyUUID)
	if err != nil {
		writeError(w, err)
		return nil, err
	}
	if key == nil || key.UserUUID != identity.Account.UUID {
		writeErrorMessage(w, http.StatusNotFound, "Api key with uuid: "+keyUUID+" wasn't found!")
		return nil, nil
	}
	return key, nil
}
