package handler

import (
	"net/http"
	"regexp"
	"time"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/captcha"
	"github.com/modelforge/modelforge/internal/validate"
)

// CaptchaMetrics receives step-up protocol events. The Prometheus collector
// implements it; a nil value disables recording.
type CaptchaMetrics interface {
	RecordCaptchaIssued()
	RecordCaptchaSolved()
}

// requiredParam reads and validates one query parameter. A missing or
// non-matching value writes a 400 and reports failure.
func requiredParam(w http.ResponseWriter, r *http.Request, name string, pattern *regexp.Regexp) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" || !pattern.MatchString(v) {
		badRequest(w, "Incorrect argument: "+name)
		return "", false
	}
	return v, true
}

// optionalParam reads and validates one optional query parameter. Absent
// values pass with nil; present values must match.
func optionalParam(w http.ResponseWriter, r *http.Request, name string, pattern *regexp.Regexp) (*string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	if !pattern.MatchString(v) {
		badRequest(w, "Incorrect optional argument: "+name)
		return nil, false
	}
	return &v, true
}

// stepUp runs the captcha protocol for a guarded operation. It reports true
// when the caller has proven intent and the operation may proceed; otherwise
// the challenge (or error) response has already been written.
func stepUp(w http.ResponseWriter, r *http.Request, guard *captcha.Guard, metrics CaptchaMetrics, accountID, purpose string) bool {
	answer := r.URL.Query().Get("captcha_answer")
	if answer != "" && !validate.CaptchaAnswer.MatchString(answer) {
		badRequest(w, "Incorrect argument: captcha_answer")
		return false
	}

	challenge, err := guard.Check(r.Context(), accountID, purpose, answer)
	if err != nil {
		writeError(w, err)
		return false
	}
	if challenge != nil {
		if metrics != nil {
			metrics.RecordCaptchaIssued()
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"math_captcha": challenge.Problem,
			"timestamp":    challenge.IssuedAt.Format(time.RFC3339),
		})
		return false
	}
	if metrics != nil {
		metrics.RecordCaptchaSolved()
	}
	return true
}

// cookieWriter sets and clears the token cookies for the cookie transport.
type cookieWriter struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (c cookieWriter) setAccess(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c cookieWriter) setRefresh(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c cookieWriter) clear(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessCookieName, auth.RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
