package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the portal's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so library code never has to care whether metrics
// were wired in.
type Metrics struct {
	tokenRefreshes   *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	loanDecisions    *prometheus.CounterVec
}

// New registers all collectors against reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		tokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_bank_token_refreshes_total",
			Help: "Upstream bank token refreshes, by bank and outcome.",
		}, []string{"bank", "outcome"}),
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_upstream_requests_total",
			Help: "Outbound calls to upstream banks, by bank, operation and outcome.",
		}, []string{"bank", "operation", "outcome"}),
		loanDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_loan_decisions_total",
			Help: "Loan application decisions, by terminal status.",
		}, []string{"status"}),
	}
}

func (m *Metrics) TokenRefresh(bank string, ok bool) {
	if m == nil {
		return
	}
	m.tokenRefreshes.WithLabelValues(bank, outcome(ok)).Inc()
}

func (m *Metrics) UpstreamRequest(bank, operation string, ok bool) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(bank, operation, outcome(ok)).Inc()
}

func (m *Metrics) LoanDecision(status string) {
	if m == nil {
		return
	}
	m.loanDecisions.WithLabelValues(status).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
