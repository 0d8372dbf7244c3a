package obclient

import (
	"strings"

	"github.com/OneForces/banking-mvp/internal/config"
)

// BankCode identifies one of the sandbox banks.
type BankCode string

const (
	BankV BankCode = "v"
	BankA BankCode = "a"
	BankS BankCode = "s"
)

// Target is a resolved upstream bank: where to call it and which financial
// id to present when compliance headers are on.
type Target struct {
	Code        BankCode
	BaseURL     string
	FinancialID string
}

// Directory resolves bank selectors to targets. It is immutable after
// construction and safe for concurrent use.
type Directory struct {
	v, a, s Target
}

func NewDirectory(cfg config.BanksConfig) *Directory {
	return &Directory{
		v: Target{Code: BankV, BaseURL: trimBase(cfg.VBankBaseURL), FinancialID: cfg.VBankFinancialID},
		a: Target{Code: BankA, BaseURL: trimBase(cfg.ABankBaseURL), FinancialID: cfg.ABankFinancialID},
		s: Target{Code: BankS, BaseURL: trimBase(cfg.SBankBaseURL), FinancialID: cfg.SBankFinancialID},
	}
}

// Resolve accepts short codes ("v") and long names ("vbank"), case
// insensitively. Anything unrecognized falls back to vbank; the default-bank
// fallback is deliberate, not an error.
func (d *Directory) Resolve(selector string) Target {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "a", "abank":
		return d.a
	case "s", "sbank":
		return d.s
	default:
		return d.v
	}
}

// Targets returns all known targets, for health reporting.
func (d *Directory) Targets() []Target {
	return []Target{d.v, d.a, d.s}
}

func trimBase(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}
