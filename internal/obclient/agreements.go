package obclient

import (
	"context"
	"net/http"
)

type agreementRequest struct {
	ClientID       string `json:"client_id"`
	ConsentID      string `json:"consent_id"`
	RequestingBank string `json:"requesting_bank"`
}

// OpenLoanAgreement opens a loan agreement for the subject once their
// consent is approved, returning the opaque agreement identifier the bank
// assigns.
func (c *Client) OpenLoanAgreement(ctx context.Context, target Target, token, subjectClientID, consentID string) (string, error) {
	body := agreementRequest{
		ClientID:       subjectClientID,
		ConsentID:      consentID,
		RequestingBank: c.requestingBank,
	}

	payload, err := c.doJSON(ctx,
		http.MethodPost, target.BaseURL+"/agreements/loan",
		body, target, token, consentID, "agreement open")
	if err != nil {
		return "", err
	}

	agreementID := firstString(dataObject(payload), "agreementId", "agreement_id", "id")
	if agreementID == "" {
		return "", &ShapeError{Operation: "agreement open", Detail: "no agreement id in response"}
	}
	return agreementID, nil
}
