package handler

import (
	"net/http"
	"time"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/captcha"
	"github.com/modelforge/modelforge/internal/model"
	"github.com/modelforge/modelforge/internal/store"
	"github.com/modelforge/modelforge/internal/validate"
)

const purposeDeleteAccount = "delete-account"

// AccountHandler serves /api/account: GET profile, PATCH partial update,
// DELETE soft delete behind a fresh token and the captcha step-up.
type AccountHandler struct {
	gate     *auth.Gate
	accounts store.Accounts
	captcha  *captcha.Guard
	metrics  CaptchaMetrics
}

func NewAccountHandler(gate *auth.Gate, accounts store.Accounts, guard *captcha.Guard, metrics CaptchaMetrics) *AccountHandler {
	return &AccountHandler{gate: gate, accounts: accounts, captcha: guard, metrics: metrics}
}

func (h *AccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.profile(w, r)
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *AccountHandler) profile(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.Authenticate(r, auth.GateOptions{})
	if err != nil {
		writeError(w, err)
		return
	}

	a := identity.Account
	writeJSON(w, http.StatusOK, map[string]any{
		"uuid":           a.UUID,
		"first_name":     a.FirstName,
		"last_name":      a.LastName,
		"email":          a.Email,
		"email_verified": a.EmailVerified,
	})
}

func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.Authenticate(r, auth.GateOptions{Fresh: true})
	if err != nil {
		writeError(w, err)
		return
	}

	upd := model.AccountUpdate{}
	var ok bool
	if upd.FirstName, ok = optionalParam(w, r, "first_name", validate.Name); !ok {
		return
	}
	if upd.LastName, ok = optionalParam(w, r, "last_name", validate.Name); !ok {
		return
	}
	if upd.Email, ok = optionalParam(w, r, "email", validate.Email); !ok {
		return
	}

	if !upd.Empty() {
		if err := h.accounts.Update(r.Context(), identity.Account.UUID, upd); err != nil {
			writeError(w, err)
			return
		}
	}
	writeMessage(w, http.StatusOK, "Account info updated!")
}

func (h *AccountHandler) delete(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.Authenticate(r, auth.GateOptions{Fresh: true})
	if err != nil {
		writeError(w, err)
		return
	}

	reason, ok := optionalParam(w, r, "removal_reason", validate.RemovalReason)
	if !ok {
		return
	}
	// A supplied answer with no removal reason fails before the captcha is
	// evaluated, so the live challenge is not consumed by a doomed request.
	if r.URL.Query().Get("captcha_answer") != "" && reason == nil {
		badRequest(w, "Incorrect optional argument: removal_reason")
		return
	}

	if !stepUp(w, r, h.captcha, h.metrics, identity.Account.UUID, purposeDeleteAccount) {
		return
	}
	if reason == nil {
		badRequest(w, "Incorrect optional argument: removal_reason")
		return
	}

	if err := h.accounts.MarkDeleted(r.Context(), identity.Account.UUID, *reason, time.Now()); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Account deleted successfully!")
}
