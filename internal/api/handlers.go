package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/OneForces/banking-mvp/internal/config"
	"github.com/OneForces/banking-mvp/internal/loanflow"
	"github.com/OneForces/banking-mvp/internal/obclient"
	"github.com/OneForces/banking-mvp/internal/store"
)

// maxUploadSize caps the multipart body of a loan application; document
// scans are a few megabytes each at most.
const maxUploadSize = 32 << 20

type Handlers struct {
	directory *obclient.Directory
	tokens    *obclient.TokenProvider
	bank      *obclient.Client
	flow      *loanflow.Service
	apps      *store.ApplicationRepository
	client    config.ClientConfig
	logger    *slog.Logger
}

func NewHandlers(
	directory *obclient.Directory,
	tokens *obclient.TokenProvider,
	bank *obclient.Client,
	flow *loanflow.Service,
	apps *store.ApplicationRepository,
	client config.ClientConfig,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		directory: directory,
		tokens:    tokens,
		bank:      bank,
		flow:      flow,
		apps:      apps,
		client:    client,
		logger:    logger,
	}
}

// token resolves the bank selector and obtains a bearer token for it in one
// step, since every resource handler needs both.
func (h *Handlers) token(r *http.Request, selector string) (obclient.Target, string, error) {
	target := h.directory.Resolve(selector)
	token, err := h.tokens.Token(r.Context(), target, h.client.ID, h.client.Secret)
	return target, token, err
}

// --- health ---

type bankHealth struct {
	Bank            string `json:"bank"`
	BaseURL         string `json:"baseUrl"`
	ClientIDSet     bool   `json:"clientIdSet"`
	ClientSecretSet bool   `json:"clientSecretSet"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	var out []bankHealth
	for _, t := range h.directory.Targets() {
		out = append(out, h.healthOf(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) HealthBank(w http.ResponseWriter, r *http.Request) {
	target := h.directory.Resolve(chi.URLParam(r, "bank"))
	writeJSON(w, http.StatusOK, h.healthOf(target))
}

func (h *Handlers) healthOf(t obclient.Target) bankHealth {
	return bankHealth{
		Bank:            string(t.Code),
		BaseURL:         t.BaseURL,
		ClientIDSet:     h.client.ID != "",
		ClientSecretSet: h.client.Secret != "",
	}
}

// --- consents ---

type createConsentRequest struct {
	Bank     string `json:"bank"`
	ClientID string `json:"client_id"`
}

type consentResponse struct {
	Status       obclient.Status `json:"status"`
	RawStatus    string          `json:"rawStatus,omitempty"`
	ConsentID    string          `json:"consentId,omitempty"`
	RequestID    string          `json:"requestId,omitempty"`
	AutoApproved bool            `json:"autoApproved"`
}

func (h *Handlers) CreateConsent(w http.ResponseWriter, r *http.Request) {
	var req createConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ClientID == "" {
		writeBadRequest(w, "client_id is required")
		return
	}

	target, token, err := h.token(r, req.Bank)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.bank.CreateConsent(r.Context(), target, token, req.ClientID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, consentResponse{
		Status:       result.Status,
		RawStatus:    result.RawStatus,
		ConsentID:    result.ConsentID,
		RequestID:    result.RequestID,
		AutoApproved: result.AutoApproved,
	})
}

func (h *Handlers) ListConsents(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeBadRequest(w, "client_id is required")
		return
	}

	target, token, err := h.token(r, r.URL.Query().Get("bank"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	payload, err := h.bank.ListConsents(r.Context(), target, token, clientID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// ConsentStatus backs the UI polling loop, so it always answers 200: a
// failed token fetch or upstream call reads as status unknown, never as an
// error page in a polling widget.
func (h *Handlers) ConsentStatus(w http.ResponseWriter, r *http.Request) {
	target, token, err := h.token(r, chi.URLParam(r, "bank"))

	status := obclient.StatusUnknown
	if err == nil {
		status = h.bank.PollConsentStatus(r.Context(), target, token, chi.URLParam(r, "id"))
	} else {
		h.logger.Debug("consent status poll could not obtain token", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]obclient.Status{"status": status})
}

func (h *Handlers) DeleteConsent(w http.ResponseWriter, r *http.Request) {
	target, token, err := h.token(r, chi.URLParam(r, "bank"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	payload, err := h.bank.DeleteConsent(r.Context(), target, token, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// --- accounts ---

func (h *Handlers) Accounts(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeBadRequest(w, "client_id is required")
		return
	}

	target, token, err := h.token(r, r.URL.Query().Get("bank"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	accounts, err := h.bank.Accounts(r.Context(), target, token, clientID, r.URL.Query().Get("consent_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handlers) Account(w http.ResponseWriter, r *http.Request) {
	target, token, err := h.token(r, r.URL.Query().Get("bank"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	account, err := h.bank.Account(r.Context(), target, token, chi.URLParam(r, "id"), r.URL.Query().Get("consent_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handlers) Balances(w http.ResponseWriter, r *http.Request) {
	target, token, err := h.token(r, r.URL.Query().Get("bank"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	balances, err := h.bank.Balances(r.Context(), target, token, chi.URLParam(r, "id"), r.URL.Query().Get("consent_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *Handlers) Transactions(w http.ResponseWriter, r *http.Request) {
	target, token, err := h.token(r, r.URL.Query().Get("bank"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	transactions, err := h.bank.Transactions(r.Context(), target, token,
		chi.URLParam(r, "id"), q.Get("consent_id"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

// --- products ---

func (h *Handlers) Products(w http.ResponseWriter, r *http.Request) {
	target, token, err := h.token(r, r.URL.Query().Get("bank"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	products, err := h.bank.Products(r.Context(), target, token, r.URL.Query().Get("product_type"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// --- payments ---

type createPaymentRequest struct {
	Bank            string `json:"bank"`
	ClientID        string `json:"client_id"`
	DebtorAccountID string `json:"debtor_account_id"`
	CreditorIBAN    string `json:"creditor_iban"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
}

func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ClientID == "" || req.DebtorAccountID == "" || req.CreditorIBAN == "" || req.Amount == "" {
		writeBadRequest(w, "client_id, debtor_account_id, creditor_iban and amount are required")
		return
	}

	target, token, err := h.token(r, req.Bank)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	payload, err := h.bank.CreateInterbankPayment(r.Context(), target, token, obclient.InterbankPayment{
		ClientID:        req.ClientID,
		DebtorAccountID: req.DebtorAccountID,
		CreditorIBAN:    req.CreditorIBAN,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Description:     req.Description,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handlers) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	target, token, err := h.token(r, chi.URLParam(r, "bank"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	payload, err := h.bank.PaymentStatus(r.Context(), target, token, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// --- loan applications ---

type applicationResponse struct {
	ID          string    `json:"id"`
	Bank        string    `json:"bank"`
	Login       string    `json:"login"`
	FullName    string    `json:"fullName"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	AgreementID string    `json:"agreementId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateLoanApplication accepts a multipart form (bank, login, full_name,
// passport plus id_front / id_back / selfie files), runs the orchestration
// workflow and records the outcome.
func (h *Handlers) CreateLoanApplication(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeBadRequest(w, "invalid multipart form")
		return
	}

	login := r.FormValue("login")
	if login == "" {
		writeBadRequest(w, "login is required")
		return
	}

	idFront, err := formFileBytes(r, "id_front")
	if err != nil {
		writeBadRequest(w, "id_front upload could not be read")
		return
	}
	idBack, _ := formFileBytes(r, "id_back")
	selfie, _ := formFileBytes(r, "selfie")

	decision, err := h.flow.Apply(r.Context(), loanflow.Application{
		Bank:           r.FormValue("bank"),
		Login:          login,
		FullName:       r.FormValue("full_name"),
		PassportNumber: r.FormValue("passport"),
		IDFront:        idFront,
		IDBack:         idBack,
		Selfie:         selfie,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	now := time.Now().UTC()
	app := &store.Application{
		ID:        uuid.NewString(),
		Bank:      string(h.directory.Resolve(r.FormValue("bank")).Code),
		Login:     login,
		FullName:  r.FormValue("full_name"),
		Status:    string(decision.Status),
		Message:   decision.Message,
		CreatedAt: now,
	}
	if decision.Status != loanflow.DecisionPending {
		app.DecidedAt = &now
	}
	if decision.AgreementID != "" {
		app.AgreementID = &decision.AgreementID
	}

	if err := h.apps.Create(r.Context(), app); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, applicationResponse{
		ID:          app.ID,
		Bank:        app.Bank,
		Login:       app.Login,
		FullName:    app.FullName,
		Status:      app.Status,
		Message:     app.Message,
		AgreementID: decision.AgreementID,
		CreatedAt:   app.CreatedAt,
	})
}

func (h *Handlers) GetLoanApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.apps.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := applicationResponse{
		ID:        app.ID,
		Bank:      app.Bank,
		Login:     app.Login,
		FullName:  app.FullName,
		Status:    app.Status,
		Message:   app.Message,
		CreatedAt: app.CreatedAt,
	}
	if app.AgreementID != nil {
		resp.AgreementID = *app.AgreementID
	}
	writeJSON(w, http.StatusOK, resp)
}

func formFileBytes(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)
	return io.ReadAll(file)
}
