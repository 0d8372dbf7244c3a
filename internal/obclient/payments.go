package obclient

import (
	"context"
	"net/http"
	"net/url"
)

// InterbankPayment is the universal transfer body the sandboxes accept.
// Amount stays a string end to end; this layer never does arithmetic on it.
type InterbankPayment struct {
	ClientID        string
	DebtorAccountID string
	CreditorIBAN    string
	Amount          string
	Currency        string
	Description     string
}

type paymentAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type paymentRequest struct {
	ClientID string `json:"client_id"`
	Debtor   struct {
		AccountID string `json:"account_id"`
	} `json:"debtor"`
	Creditor struct {
		IBAN string `json:"iban"`
	} `json:"creditor"`
	InstructedAmount paymentAmount `json:"instructed_amount"`
	Description      string        `json:"description,omitempty"`
	RequestingBank   string        `json:"requesting_bank,omitempty"`
}

// CreateInterbankPayment initiates an interbank transfer. The response
// carries the payment id and status under data or at the top level; callers
// read them with PaymentID/PaymentState.
func (c *Client) CreateInterbankPayment(ctx context.Context, target Target, token string, payment InterbankPayment) (map[string]any, error) {
	body := paymentRequest{
		ClientID:         payment.ClientID,
		InstructedAmount: paymentAmount{Amount: payment.Amount, Currency: payment.Currency},
		Description:      payment.Description,
		RequestingBank:   c.requestingBank,
	}
	body.Debtor.AccountID = payment.DebtorAccountID
	body.Creditor.IBAN = payment.CreditorIBAN
	if body.InstructedAmount.Currency == "" {
		body.InstructedAmount.Currency = "EUR"
	}

	return c.doJSON(ctx,
		http.MethodPost, target.BaseURL+"/payments/interbank",
		body, target, token, "", "payment create")
}

// PaymentStatus fetches the state of a previously created payment.
func (c *Client) PaymentStatus(ctx context.Context, target Target, token, paymentID string) (map[string]any, error) {
	return c.doJSON(ctx,
		http.MethodGet, target.BaseURL+"/payments/"+url.PathEscape(paymentID),
		nil, target, token, "", "payment status")
}

// PaymentID extracts the payment identifier from a payment payload.
func PaymentID(payload map[string]any) string {
	return firstString(dataObject(payload), "paymentId", "payment_id", "id")
}

// PaymentState extracts the raw payment status from a payment payload.
func PaymentState(payload map[string]any) string {
	return firstString(dataObject(payload), "status")
}
