package obclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Accounts lists the subject's accounts. Banks answer with the array under
// data.accounts or data.account; both yield the same list.
func (c *Client) Accounts(ctx context.Context, target Target, token, subjectClientID, consentID string) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/accounts?client_id=%s", target.BaseURL, url.QueryEscape(subjectClientID))
	if consentID != "" {
		endpoint += "&consent_id=" + url.QueryEscape(consentID)
	}

	payload, err := c.doJSON(ctx, http.MethodGet, endpoint, nil, target, token, consentID, "accounts fetch")
	if err != nil {
		return nil, err
	}
	return firstArray(payload, "accounts", "account"), nil
}

// Account fetches one account's detail payload.
func (c *Client) Account(ctx context.Context, target Target, token, accountID, consentID string) (map[string]any, error) {
	endpoint := target.BaseURL + "/accounts/" + url.PathEscape(accountID)
	if consentID != "" {
		endpoint += "?consent_id=" + url.QueryEscape(consentID)
	}
	return c.doJSON(ctx, http.MethodGet, endpoint, nil, target, token, consentID, "account fetch")
}

// Balances fetches an account's balances.
func (c *Client) Balances(ctx context.Context, target Target, token, accountID, consentID string) ([]map[string]any, error) {
	endpoint := target.BaseURL + "/accounts/" + url.PathEscape(accountID) + "/balances"
	if consentID != "" {
		endpoint += "?consent_id=" + url.QueryEscape(consentID)
	}

	payload, err := c.doJSON(ctx, http.MethodGet, endpoint, nil, target, token, consentID, "balances fetch")
	if err != nil {
		return nil, err
	}
	return firstArray(payload, "balances", "balance"), nil
}

// Transactions fetches an account's transactions within a booking-date
// range. Plain YYYY-MM-DD inputs are widened to full timestamps before going
// upstream; values already carrying a time component pass through.
func (c *Client) Transactions(ctx context.Context, target Target, token, accountID, consentID, fromDate, toDate string) ([]map[string]any, error) {
	params := url.Values{}
	if from := normalizeRangeStart(fromDate); from != "" {
		params.Set("from_booking_date_time", from)
	}
	if to := normalizeRangeEnd(toDate); to != "" {
		params.Set("to_booking_date_time", to)
	}
	if consentID != "" {
		params.Set("consent_id", consentID)
	}

	endpoint := target.BaseURL + "/accounts/" + url.PathEscape(accountID) + "/transactions"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	payload, err := c.doJSON(ctx, http.MethodGet, endpoint, nil, target, token, consentID, "transactions fetch")
	if err != nil {
		return nil, err
	}
	return firstArray(payload, "transactions", "transaction"), nil
}

// normalizeRangeStart widens "YYYY-MM-DD" to "YYYY-MM-DDT00:00:00Z".
func normalizeRangeStart(d string) string {
	s := strings.TrimSpace(d)
	if s == "" || strings.Contains(s, "T") {
		return s
	}
	return s + "T00:00:00Z"
}

// normalizeRangeEnd widens "YYYY-MM-DD" to "YYYY-MM-DDT23:59:59Z".
func normalizeRangeEnd(d string) string {
	s := strings.TrimSpace(d)
	if s == "" || strings.Contains(s, "T") {
		return s
	}
	return s + "T23:59:59Z"
}
