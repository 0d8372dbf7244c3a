package api_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OneForces/banking-mvp/internal/api"
	"github.com/OneForces/banking-mvp/internal/config"
	"github.com/OneForces/banking-mvp/internal/kyc"
	"github.com/OneForces/banking-mvp/internal/loanflow"
	"github.com/OneForces/banking-mvp/internal/obclient"
)

// newPortal spins up a fake upstream bank plus the portal router in front of
// it and returns the portal server.
func newPortal(t *testing.T, upstream http.HandlerFunc) *httptest.Server {
	t.Helper()

	bank := httptest.NewServer(upstream)
	t.Cleanup(bank.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clientCfg := config.ClientConfig{ID: "team101", Secret: "secret"}

	directory := obclient.NewDirectory(config.BanksConfig{
		VBankBaseURL: bank.URL,
		ABankBaseURL: bank.URL,
		SBankBaseURL: bank.URL,
	})
	tokens := obclient.NewTokenProvider(bank.Client(), nil)
	bankClient := obclient.NewClient(bank.Client(), "team101", config.ComplianceConfig{}, logger, nil)
	flow := loanflow.NewService(directory, tokens, bankClient, kyc.NewRules(), clientCfg, logger, nil)

	h := api.NewHandlers(directory, tokens, bankClient, flow, nil, clientCfg, logger)
	portal := httptest.NewServer(api.NewRouter(h, logger, 5*time.Second))
	t.Cleanup(portal.Close)
	return portal
}

// withToken answers the token endpoint itself and delegates everything else.
func withToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/auth/bank-token") {
			fmt.Fprint(w, `{"access_token":"tok-1","expires_in":3600}`)
			return
		}
		next(w, r)
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	portal := newPortal(t, withToken(func(w http.ResponseWriter, r *http.Request) {}))

	var out []map[string]any
	code := getJSON(t, portal.URL+"/health", &out)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, out, 3)
	assert.Equal(t, "v", out[0]["bank"])
	assert.Equal(t, true, out[0]["clientIdSet"])
}

func TestConsentStatus_AlwaysAnswers200(t *testing.T) {
	var out map[string]string

	t.Run("approved upstream", func(t *testing.T) {
		portal := newPortal(t, withToken(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":{"status":"Authorised"}}`)
		}))
		code := getJSON(t, portal.URL+"/v1/consents/vbank/C1/status", &out)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "approved", out["status"])
	})

	t.Run("upstream 500 reads as unknown", func(t *testing.T) {
		portal := newPortal(t, withToken(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		code := getJSON(t, portal.URL+"/v1/consents/vbank/C1/status", &out)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "unknown", out["status"])
	})

	t.Run("token failure reads as unknown", func(t *testing.T) {
		portal := newPortal(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no tokens today", http.StatusServiceUnavailable)
		})
		code := getJSON(t, portal.URL+"/v1/consents/vbank/C1/status", &out)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "unknown", out["status"])
	})
}

func TestCreateConsent(t *testing.T) {
	portal := newPortal(t, withToken(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/account-consents/request", r.URL.Path)
		fmt.Fprint(w, `{"consent_id":"C1"}`)
	}))

	resp, err := http.Post(portal.URL+"/v1/consents", "application/json",
		strings.NewReader(`{"bank":"vbank","client_id":"ivan"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "approved", out["status"])
	assert.Equal(t, "C1", out["consentId"])
}

func TestCreateConsent_MissingClientID(t *testing.T) {
	portal := newPortal(t, withToken(func(w http.ResponseWriter, r *http.Request) {}))

	resp, err := http.Post(portal.URL+"/v1/consents", "application/json",
		strings.NewReader(`{"bank":"vbank"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpstreamFailureMapsToBadGateway(t *testing.T) {
	portal := newPortal(t, withToken(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"maintenance"}`, http.StatusInternalServerError)
	}))

	resp, err := http.Get(portal.URL + "/v1/accounts?bank=vbank&client_id=ivan")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestAccountsProxy(t *testing.T) {
	portal := newPortal(t, withToken(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts", r.URL.Path)
		fmt.Fprint(w, `{"data":{"accounts":[{"account_id":"A1"}]}}`)
	}))

	var out []map[string]any
	code := getJSON(t, portal.URL+"/v1/accounts?bank=vbank&client_id=ivan", &out)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, out, 1)
	assert.Equal(t, "A1", out[0]["account_id"])
}

func TestProductsProxy(t *testing.T) {
	portal := newPortal(t, withToken(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products", r.URL.Path)
		fmt.Fprint(w, `{"products":[{"product_id":"P1","product_name":"Cash Loan"}]}`)
	}))

	var out []map[string]any
	code := getJSON(t, portal.URL+"/v1/products?bank=vbank", &out)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, out, 1)
	assert.Equal(t, "P1", out[0]["productId"])
}

func TestCreatePayment_FieldValidation(t *testing.T) {
	portal := newPortal(t, withToken(func(w http.ResponseWriter, r *http.Request) {}))

	resp, err := http.Post(portal.URL+"/v1/payments", "application/json",
		strings.NewReader(`{"bank":"vbank","client_id":"ivan"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpointExposed(t *testing.T) {
	portal := newPortal(t, withToken(func(w http.ResponseWriter, r *http.Request) {}))

	resp, err := http.Get(portal.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
