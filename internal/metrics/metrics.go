// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates the service counters. It satisfies the metrics
// surface the auth service records into.
type Collector struct {
	loginSuccess   prometheus.Counter
	loginFailure   prometheus.Counter
	tokenRefreshes prometheus.Counter
	revocations    prometheus.Counter
	captchaIssued  prometheus.Counter
	captchaSolved  prometheus.Counter
	httpStatus     *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modelforge_login_success_total",
			Help: "Total successful logins.",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modelforge_login_failure_total",
			Help: "Total rejected login attempts.",
		}),
		tokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modelforge_token_refresh_total",
			Help: "Total access tokens minted via refresh.",
		}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modelforge_token_revocations_total",
			Help: "Total tokens placed on the revocation blocklist.",
		}),
		captchaIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modelforge_captcha_issued_total",
			Help: "Total captcha challenges issued.",
		}),
		captchaSolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modelforge_captcha_solved_total",
			Help: "Total captcha challenges solved.",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modelforge_http_status_total",
			Help: "Responses by HTTP status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFailure,
		c.tokenRefreshes,
		c.revocations,
		c.captchaIssued,
		c.captchaSolved,
		c.httpStatus,
	)

	return c
}

// RecordLogin records one login attempt.
func (c *Collector) RecordLogin(success bool) {
	if success {
		c.loginSuccess.Inc()
	} else {
		c.loginFailure.Inc()
	}
}

// RecordRefresh records one refresh-token exchange.
func (c *Collector) RecordRefresh() {
	c.tokenRefreshes.Inc()
}

// RecordRevocations records tokens added to the blocklist.
func (c *Collector) RecordRevocations(n int) {
	c.revocations.Add(float64(n))
}

// RecordCaptchaIssued records one issued challenge.
func (c *Collector) RecordCaptchaIssued() {
	c.captchaIssued.Inc()
}

// RecordCaptchaSolved records one solved challenge.
func (c *Collector) RecordCaptchaSolved() {
	c.captchaSolved.Inc()
}

// RecordHTTPStatus records one response by status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the Prometheus scrape handler for the gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
