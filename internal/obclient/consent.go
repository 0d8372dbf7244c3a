package obclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Status is the canonical consent status vocabulary. Upstream banks report
// free text; NormalizeStatus folds their synonyms into this enum.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
	StatusRevoked  Status = "revoked"
	StatusExpired  Status = "expired"
	StatusUnknown  Status = "unknown"
)

// Terminal reports whether the status ends a consent attempt. Unknown is
// non-terminal: the caller decides whether to keep polling or surface it.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusRevoked, StatusExpired:
		return true
	}
	return false
}

// NormalizeStatus maps an upstream status string onto the canonical enum,
// case-insensitively. Missing or unrecognized text is unknown, never a false
// positive.
func NormalizeStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return StatusUnknown
	case s == "approved" || s == "authorised" || s == "authorized" || s == "valid":
		return StatusApproved
	case s == "pending" || strings.HasPrefix(s, "awaiting"):
		return StatusPending
	case s == "rejected" || s == "denied" || s == "declined":
		return StatusRejected
	case s == "revoked" || s == "cancelled" || s == "canceled":
		return StatusRevoked
	case s == "expired" || s == "lapsed":
		return StatusExpired
	default:
		return StatusUnknown
	}
}

// ConsentCreateResult is the outcome of one consent-creation call.
// ConsentID is present exactly when the bank approved synchronously;
// otherwise RequestID is the handle for later polling.
type ConsentCreateResult struct {
	Status       Status
	RawStatus    string
	ConsentID    string
	RequestID    string
	AutoApproved bool
}

type consentRequest struct {
	ClientID           string   `json:"client_id"`
	Permissions        []string `json:"permissions"`
	Reason             string   `json:"reason"`
	RequestingBank     string   `json:"requesting_bank"`
	RequestingBankName string   `json:"requesting_bank_name"`
}

var consentPermissions = []string{
	"ReadAccountsDetail",
	"ReadBalances",
	"ReadTransactionsDetail",
}

// CreateConsent posts an account-access consent request for the subject
// client. Banks vary between flat and data-nested bodies and between snake
// and camel case; the parser tries both. A body with neither a consent id
// nor a pending indicator is a *ShapeError, never a silent approval.
func (c *Client) CreateConsent(ctx context.Context, target Target, token, subjectClientID string) (*ConsentCreateResult, error) {
	body := consentRequest{
		ClientID:           subjectClientID,
		Permissions:        consentPermissions,
		Reason:             "Loan application account access",
		RequestingBank:     c.requestingBank,
		RequestingBankName: "Portal App",
	}

	payload, err := c.doJSON(ctx,
		http.MethodPost, target.BaseURL+"/account-consents/request",
		body, target, token, "", "consent create")
	if err != nil {
		return nil, err
	}

	data := dataObject(payload)
	consentID := firstString(data, "consentId", "consent_id")
	rawStatus := firstString(data, "status")
	requestID := firstString(data, "requestId", "request_id")
	autoApproved := firstBool(data, "autoApproved", "auto_approved")

	if consentID == "" && rawStatus == "" && requestID == "" {
		return nil, &ShapeError{
			Operation: "consent create",
			Detail:    "neither consent id nor pending indicator in response",
		}
	}

	result := &ConsentCreateResult{
		RawStatus:    rawStatus,
		ConsentID:    consentID,
		RequestID:    requestID,
		AutoApproved: autoApproved,
	}

	switch {
	case consentID != "" && rawStatus == "":
		// Presence of a consent id means the bank approved synchronously.
		result.Status = StatusApproved
		result.RawStatus = string(StatusApproved)
	case rawStatus == "":
		result.Status = StatusPending
		result.RawStatus = string(StatusPending)
	default:
		result.Status = NormalizeStatus(rawStatus)
	}

	return result, nil
}

// GetConsentStatus is a single idempotent round trip returning the raw
// status payload. Retry cadence and normalization belong to the caller.
func (c *Client) GetConsentStatus(ctx context.Context, target Target, token, consentID string) (map[string]any, error) {
	return c.doJSON(ctx,
		http.MethodGet, target.BaseURL+"/account-consents/"+url.PathEscape(consentID),
		nil, target, token, consentID, "consent status")
}

// PollConsentStatus is the polling-safe variant: any transport, HTTP or
// parse failure degrades to unknown instead of propagating, because a
// long-lived UI polling loop must never see a hard failure for a transient
// upstream hiccup.
func (c *Client) PollConsentStatus(ctx context.Context, target Target, token, consentID string) Status {
	payload, err := c.GetConsentStatus(ctx, target, token, consentID)
	if err != nil {
		c.logger.Debug("consent status poll degraded to unknown",
			"bank", target.Code,
			"consent_id", consentID,
			"error", err,
		)
		return StatusUnknown
	}

	raw := firstString(dataObject(payload), "status")
	if raw == "" {
		raw = firstString(payload, "status")
	}
	return NormalizeStatus(raw)
}

// DeleteConsent revokes a consent.
func (c *Client) DeleteConsent(ctx context.Context, target Target, token, consentID string) (map[string]any, error) {
	return c.doJSON(ctx,
		http.MethodDelete, target.BaseURL+"/account-consents/"+url.PathEscape(consentID),
		nil, target, token, consentID, "consent revoke")
}

// ListConsents fetches the subject's consents as reported by the bank.
func (c *Client) ListConsents(ctx context.Context, target Target, token, subjectClientID string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/account-consents?client_id=%s",
		target.BaseURL, url.QueryEscape(subjectClientID))
	return c.doJSON(ctx,
		http.MethodGet, endpoint,
		nil, target, token, "", "consents list")
}
