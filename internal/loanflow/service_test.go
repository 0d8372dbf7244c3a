package loanflow_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OneForces/banking-mvp/internal/config"
	"github.com/OneForces/banking-mvp/internal/kyc"
	"github.com/OneForces/banking-mvp/internal/loanflow"
	"github.com/OneForces/banking-mvp/internal/obclient"
)

// fakeBank is a one-server stand-in for a sandbox bank: it issues tokens,
// answers consent requests with a scripted body and opens agreements.
type fakeBank struct {
	srv            *httptest.Server
	hits           atomic.Int64
	consentBody    string
	agreementCalls atomic.Int64
}

func newFakeBank(t *testing.T, consentBody string) *fakeBank {
	t.Helper()
	bank := &fakeBank{consentBody: consentBody}

	requirePost := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
				return
			}
			h(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/bank-token", requirePost(func(w http.ResponseWriter, r *http.Request) {
		bank.hits.Add(1)
		fmt.Fprint(w, `{"access_token":"tok-1","expires_in":3600}`)
	}))
	mux.HandleFunc("/account-consents/request", requirePost(func(w http.ResponseWriter, r *http.Request) {
		bank.hits.Add(1)
		fmt.Fprint(w, bank.consentBody)
	}))
	mux.HandleFunc("/agreements/loan", requirePost(func(w http.ResponseWriter, r *http.Request) {
		bank.hits.Add(1)
		bank.agreementCalls.Add(1)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ivan", body["client_id"])
		fmt.Fprint(w, `{"agreement_id":"AG-77"}`)
	}))

	bank.srv = httptest.NewServer(mux)
	t.Cleanup(bank.srv.Close)
	return bank
}

func newService(bank *fakeBank) *loanflow.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	httpClient := bank.srv.Client()

	directory := obclient.NewDirectory(config.BanksConfig{
		VBankBaseURL: bank.srv.URL,
		ABankBaseURL: bank.srv.URL,
		SBankBaseURL: bank.srv.URL,
	})
	tokens := obclient.NewTokenProvider(httpClient, nil)
	client := obclient.NewClient(httpClient, "team101", config.ComplianceConfig{}, logger, nil)

	return loanflow.NewService(directory, tokens, client, kyc.NewRules(),
		config.ClientConfig{ID: "team101", Secret: "secret"}, logger, nil)
}

func application() loanflow.Application {
	scan := bytes.Repeat([]byte{0xFF}, 60*1024)
	return loanflow.Application{
		Bank:           "vbank",
		Login:          "ivan",
		FullName:       "Иванов Иван Иванович",
		PassportNumber: "12 34 567890",
		IDFront:        scan,
		IDBack:         scan,
		Selfie:         scan,
	}
}

func TestApply_KYCFailureRejectsWithoutNetworkCalls(t *testing.T) {
	bank := newFakeBank(t, `{"consent_id":"C1"}`)
	service := newService(bank)

	app := application()
	app.FullName = "Иванов"

	decision, err := service.Apply(context.Background(), app)
	require.NoError(t, err, "a failed check is a decision, not an error")

	assert.Equal(t, loanflow.DecisionRejected, decision.Status)
	assert.Contains(t, decision.Message, "AI-KYC failed")
	assert.Contains(t, decision.Message, "Некорректное ФИО")
	assert.Empty(t, decision.AgreementID)
	assert.Zero(t, bank.hits.Load(), "rejection must happen before any upstream call")
}

func TestApply_PendingConsentShortCircuitsBeforeAgreement(t *testing.T) {
	bank := newFakeBank(t, `{"status":"pending","request_id":"R1"}`)
	service := newService(bank)

	decision, err := service.Apply(context.Background(), application())
	require.NoError(t, err)

	assert.Equal(t, loanflow.DecisionPending, decision.Status)
	assert.Equal(t, "Consent status: pending (request R1)", decision.Message)
	assert.Empty(t, decision.AgreementID)
	assert.Zero(t, bank.agreementCalls.Load(), "no agreement call while consent is pending")
}

func TestApply_ApprovedConsentOpensAgreement(t *testing.T) {
	bank := newFakeBank(t, `{"consent_id":"C1","status":"approved"}`)
	service := newService(bank)

	decision, err := service.Apply(context.Background(), application())
	require.NoError(t, err)

	assert.Equal(t, loanflow.DecisionApproved, decision.Status)
	assert.Equal(t, "Loan agreement opened", decision.Message)
	assert.Equal(t, "AG-77", decision.AgreementID)
	assert.Equal(t, int64(1), bank.agreementCalls.Load())
}

func TestApply_RejectedConsentSurfacesRawStatus(t *testing.T) {
	bank := newFakeBank(t, `{"status":"Declined"}`)
	service := newService(bank)

	decision, err := service.Apply(context.Background(), application())
	require.NoError(t, err)

	assert.Equal(t, loanflow.DecisionPending, decision.Status)
	assert.Equal(t, "Consent status: Declined", decision.Message)
	assert.Zero(t, bank.agreementCalls.Load())
}

func TestApply_TokenFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	bank := &fakeBank{srv: srv}
	service := newService(bank)

	_, err := service.Apply(context.Background(), application())
	var tokenErr *obclient.TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, http.StatusUnauthorized, tokenErr.StatusCode)
}
