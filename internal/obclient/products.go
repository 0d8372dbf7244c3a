package obclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Product is the normalized view of one bank product. Field names differ
// per bank; parsing tries the known variants in order.
type Product struct {
	ProductID    string `json:"productId"`
	ProductType  string `json:"productType"`
	ProductName  string `json:"productName"`
	Description  string `json:"description,omitempty"`
	InterestRate string `json:"interestRate,omitempty"`
	MinAmount    string `json:"minAmount,omitempty"`
	MaxAmount    string `json:"maxAmount,omitempty"`
	TermMonths   *int   `json:"termMonths,omitempty"`
}

// Products lists the bank's product catalogue, optionally filtered by type.
// The array arrives under data.product, data.products, or as a bare
// top-level array depending on the bank.
func (c *Client) Products(ctx context.Context, target Target, token, productType string) ([]Product, error) {
	endpoint := target.BaseURL + "/products"
	if productType != "" {
		endpoint += "?product_type=" + url.QueryEscape(productType)
	}

	respBody, err := c.do(ctx, http.MethodGet, endpoint, nil, target, token, "", "products fetch")
	if err != nil {
		return nil, err
	}

	items, err := productItems(respBody)
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(items))
	for _, item := range items {
		out = append(out, parseProduct(item))
	}
	return out, nil
}

func productItems(body []byte) ([]map[string]any, error) {
	var bare []any
	if err := json.Unmarshal(body, &bare); err == nil {
		return toObjects(bare), nil
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ShapeError{Operation: "products fetch", Detail: "neither object nor array", Err: err}
	}
	return firstArray(payload, "product", "products"), nil
}

func parseProduct(item map[string]any) Product {
	p := Product{
		ProductID:    firstString(item, "productId", "product_id", "id"),
		ProductType:  firstString(item, "productType", "product_type", "type"),
		ProductName:  firstString(item, "productName", "product_name", "name"),
		Description:  firstString(item, "description"),
		InterestRate: firstString(item, "interestRate", "interest_rate", "rate"),
		MinAmount:    firstString(item, "minAmount", "min_amount", "min"),
		MaxAmount:    firstString(item, "maxAmount", "max_amount", "max"),
	}
	if term, ok := firstInt(item, "termMonths", "term_months"); ok {
		p.TermMonths = &term
	}
	return p
}
