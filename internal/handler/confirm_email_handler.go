package handler

import (
	"net/http"

	"github.com/modelforge/modelforge/internal/mail"
	"github.com/modelforge/modelforge/internal/mailtoken"
	"github.com/modelforge/modelforge/internal/store"
	"github.com/modelforge/modelforge/internal/validate"
)

// ConfirmEmailHandler serves /api/confirm_email. With an email parameter it
// sends a confirmation link; with a token parameter it verifies the link and
// marks the address confirmed. Exactly one of the two must be present.
type ConfirmEmailHandler struct {
	accounts store.Accounts
	tokens   *mailtoken.Issuer
	mailer   mail.Mailer
	baseURL  string
}

func NewConfirmEmailHandler(accounts store.Accounts, tokens *mailtoken.Issuer, mailer mail.Mailer, baseURL string) *ConfirmEmailHandler {
	return &ConfirmEmailHandler{accounts: accounts, tokens: tokens, mailer: mailer, baseURL: baseURL}
}

func (h *ConfirmEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")
	switch {
	case email != "" && token == "":
		if !validate.Email.MatchString(email) {
			badRequest(w, "Incorrect argument: email")
			return
		}
		h.send(w, r, email)
	case token != "" && email == "":
		h.confirm(w, r, token)
	default:
		badRequest(w, "Exactly one of email or token is required")
	}
}

func (h *ConfirmEmailHandler) send(w http.ResponseWriter, r *http.Request, email string) {
	account, err := h.accounts.FindByEmail(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	// Unknown addresses and already-verified accounts collapse into one
	// answer so the endpoint does not leak which emails are registered.
	if account == nil || account.EmailVerified {
		badRequest(w, "Can't send email.")
		return
	}

	token, err := h.tokens.Generate(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	confirmURL := h.baseURL + "/api/confirm_email?token=" + token
	body, err := mail.RenderConfirmation(account.FirstName+" "+account.LastName, confirmURL)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.mailer.SendHTML("Email confirmation", body, email); err != nil {
		writeErrorMessage(w, http.StatusServiceUnavailable,
			"Service is temporarily unavailable, please try again later.")
		return
	}
	writeMessage(w, http.StatusOK, "Email was sent.")
}

func (h *ConfirmEmailHandler) confirm(w http.ResponseWriter, r *http.Request, token string) {
	email, err := h.tokens.Confirm(token)
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accounts.FindByEmail(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	if account == nil || account.EmailVerified {
		badRequest(w, "Invalid or expired link.")
		return
	}

	if _, err := h.accounts.MarkVerified(r.Context(), email); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Account email confirmed.")
}
