package obclient

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	headerRequestingBank = "X-Requesting-Bank"
	headerRequestID      = "X-Request-Id"

	// Canonical consent header. The sandboxes historically also accepted
	// X-Consent-ID and Consent-Id; they ignore variants they do not read,
	// so we send only this one.
	headerConsentID = "X-Consent-Id"
)

// decorate applies the outbound header discipline shared by every upstream
// call: bearer auth, requesting-bank attribution, consent id when one is in
// play, FAPI compliance headers behind the config flag, and a fresh trace id
// per call (never reused across retries of the same logical attempt).
func (c *Client) decorate(req *http.Request, target Target, token, consentID string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.requestingBank != "" {
		req.Header.Set(headerRequestingBank, c.requestingBank)
	}

	if consentID != "" {
		req.Header.Set(headerConsentID, consentID)
	}

	if c.compliance.SendFAPIHeaders {
		if target.FinancialID != "" {
			req.Header.Set("x-fapi-financial-id", target.FinancialID)
		}
		if ip := c.compliance.DefaultCustomerIP; ip != "" {
			req.Header.Set("x-fapi-customer-ip-address", ip)
			req.Header.Set("x-psu-ip-address", ip)
			req.Header.Set("PSU-IP-Address", ip)
		}
		req.Header.Set("x-fapi-interaction-id", uuid.NewString())
	}

	req.Header.Set(headerRequestID, uuid.NewString())
}
