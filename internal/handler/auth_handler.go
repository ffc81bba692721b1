package handler

import (
	"net/http"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/validate"
)

// AuthHandler serves the /api/auth endpoint: GET login, POST register,
// PATCH refresh, DELETE logout. The transport decides whether tokens travel
// in the response body or in cookies.
type AuthHandler struct {
	service *auth.Service
	gate    *auth.Gate
	cookies cookieWriter
}

func NewAuthHandler(service *auth.Service, gate *auth.Gate, cookies cookieWriter) *AuthHandler {
	return &AuthHandler{service: service, gate: gate, cookies: cookies}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.login(w, r)
	case http.MethodPost:
		h.register(w, r)
	case http.MethodPatch:
		h.refresh(w, r)
	case http.MethodDelete:
		h.logout(w, r)
	default:
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	email, ok := requiredParam(w, r, "email", validate.Email)
	if !ok {
		return
	}
	password := r.URL.Query().Get("password")
	if !validate.Password(password) {
		badRequest(w, "Incorrect argument: password")
		return
	}

	pair, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.gate.Transport() == auth.TransportCookie {
		h.cookies.setAccess(w, pair.AccessToken)
		h.cookies.setRefresh(w, pair.RefreshToken)
		writeMessage(w, http.StatusOK, "Successful login")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":       "Successful login",
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	firstName, ok := requiredParam(w, r, "first_name", validate.Name)
	if !ok {
		return
	}
	lastName, ok := requiredParam(w, r, "last_name", validate.Name)
	if !ok {
		return
	}
	email, ok := requiredParam(w, r, "email", validate.Email)
	if !ok {
		return
	}
	password := r.URL.Query().Get("password")
	if !validate.Password(password) {
		badRequest(w, "Incorrect argument: password")
		return
	}

	if err := h.service.Register(r.Context(), firstName, lastName, email, password); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Account created!")
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.Authenticate(r, auth.GateOptions{Refresh: true})
	if err != nil {
		writeError(w, err)
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), identity.Claims)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.gate.Transport() == auth.TransportCookie {
		h.cookies.setAccess(w, accessToken)
		writeMessage(w, http.StatusOK, "Token successfully updated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gate.Authenticate(r, auth.GateOptions{SkipTypeCheck: true})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Logout(r.Context(), identity.Claims); err != nil {
		writeError(w, err)
		return
	}

	if h.gate.Transport() == auth.TransportCookie {
		h.cookies.clear(w)
	}
	writeMessage(w, http.StatusOK, "Tokens successfully revoked")
}
