package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OneForces/banking-mvp/internal/metrics"
)

func TestCountersRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.TokenRefresh("v", true)
	m.TokenRefresh("v", true)
	m.TokenRefresh("a", false)
	m.UpstreamRequest("v", "consent create", true)
	m.LoanDecision("APPROVED")

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]int{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			counts[mf.GetName()] += int(metric.GetCounter().GetValue())
		}
	}

	assert.Equal(t, 3, counts["portal_bank_token_refreshes_total"])
	assert.Equal(t, 1, counts["portal_upstream_requests_total"])
	assert.Equal(t, 1, counts["portal_loan_decisions_total"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.TokenRefresh("v", true)
		m.UpstreamRequest("v", "accounts fetch", false)
		m.LoanDecision("REJECTED")
	})
}
