// Package loanflow composes KYC, consent lifecycle and agreement opening
// into a single loan application decision.
package loanflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/OneForces/banking-mvp/internal/config"
	"github.com/OneForces/banking-mvp/internal/kyc"
	"github.com/OneForces/banking-mvp/internal/metrics"
	"github.com/OneForces/banking-mvp/internal/obclient"
)

// DecisionStatus is the terminal outcome of one application attempt.
type DecisionStatus string

const (
	DecisionApproved DecisionStatus = "APPROVED"
	DecisionPending  DecisionStatus = "PENDING"
	DecisionRejected DecisionStatus = "REJECTED"
)

// Decision is produced once per application attempt. AgreementID is set only
// when the status is APPROVED.
type Decision struct {
	Status      DecisionStatus `json:"status"`
	Message     string         `json:"message"`
	AgreementID string         `json:"agreementId,omitempty"`
}

// Application is one loan application as submitted by the portal.
type Application struct {
	Bank           string
	Login          string
	FullName       string
	PassportNumber string
	IDFront        []byte
	IDBack         []byte
	Selfie         []byte
}

// Service drives the application workflow. It holds no per-application
// state; every call is independent.
type Service struct {
	directory *obclient.Directory
	tokens    *obclient.TokenProvider
	bank      *obclient.Client
	kyc       kyc.Checker
	client    config.ClientConfig
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(
	directory *obclient.Directory,
	tokens *obclient.TokenProvider,
	bank *obclient.Client,
	checker kyc.Checker,
	client config.ClientConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		directory: directory,
		tokens:    tokens,
		bank:      bank,
		kyc:       checker,
		client:    client,
		logger:    logger,
		metrics:   m,
	}
}

// Apply runs the sequential application policy, KYC then bank token then
// consent then agreement, short-circuiting on the first non-approving step.
// A KYC failure rejects before any network call. A non-approved consent yields
// PENDING with the upstream status surfaced verbatim; the caller re-invokes
// once polling shows the consent left pending. Steps are never retried here.
func (s *Service) Apply(ctx context.Context, app Application) (Decision, error) {
	check := s.kyc.CheckApplicant(app.FullName, app.PassportNumber, app.IDFront, app.IDBack, app.Selfie)
	if !check.OK {
		s.metrics.LoanDecision(string(DecisionRejected))
		return Decision{
			Status:  DecisionRejected,
			Message: "AI-KYC failed: " + strings.Join(check.Issues, "; "),
		}, nil
	}

	target := s.directory.Resolve(app.Bank)

	token, err := s.tokens.Token(ctx, target, s.client.ID, s.client.Secret)
	if err != nil {
		return Decision{}, err
	}

	consent, err := s.bank.CreateConsent(ctx, target, token, app.Login)
	if err != nil {
		return Decision{}, err
	}

	if consent.Status != obclient.StatusApproved {
		message := "Consent status: " + consent.RawStatus
		if consent.RequestID != "" {
			message = fmt.Sprintf("%s (request %s)", message, consent.RequestID)
		}
		s.logger.Info("loan application waiting on consent",
			"bank", target.Code,
			"login", app.Login,
			"status", consent.RawStatus,
			"request_id", consent.RequestID,
		)
		s.metrics.LoanDecision(string(DecisionPending))
		return Decision{Status: DecisionPending, Message: message}, nil
	}

	agreementID, err := s.bank.OpenLoanAgreement(ctx, target, token, app.Login, consent.ConsentID)
	if err != nil {
		return Decision{}, err
	}

	s.logger.Info("loan agreement opened",
		"bank", target.Code,
		"login", app.Login,
		"agreement_id", agreementID,
	)
	s.metrics.LoanDecision(string(DecisionApproved))
	return Decision{
		Status:      DecisionApproved,
		Message:     "Loan agreement opened",
		AgreementID: agreementID,
	}, nil
}
