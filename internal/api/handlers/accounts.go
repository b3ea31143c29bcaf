package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aific/finances-backend/internal/api/dto"
	"github.com/aific/finances-backend/internal/application/service"
	"github.com/aific/finances-backend/internal/domain/ledger"
)

// AccountsHandler handles account-related HTTP requests.
type AccountsHandler struct {
	*Base
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(svc *service.DocumentService) *AccountsHandler {
	return &AccountsHandler{Base: NewBase(svc)}
}

func toAccountResponse(a *ledger.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:          a.ID,
		Institution: a.Institution,
		Type:        string(a.Type),
		Name:        a.Name,
		ShortName:   a.ShortName,
		NumberCount: len(a.NumberHashes),
	}
}

// List handles GET /api/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts := h.svc.Accounts()
	response := make([]dto.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		response = append(response, toAccountResponse(a))
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// Create handles POST /api/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if req.Institution == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("institution is required"))
		return
	}

	account, err := h.svc.CreateAccount(req.Institution, req.Numbers,
		ledger.AccountType(req.Type), req.Name, req.ShortName)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

// ImportCSV handles POST /api/accounts/{id}/import - the request body is the
// raw CSV export.
func (h *AccountsHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	result, err := h.svc.ImportCSV(accountID, r.Body)
	if err != nil {
		if errors.Is(err, service.ErrUnknownAccount) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("account"))
			return
		}
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ImportResponse{
		AccountID:  result.Account.ID,
		NewAccount: result.NewAccount,
		Read:       result.Read,
		Added:      result.Added,
	})
}

// ImportOFX handles POST /api/import/ofx - the request body is the raw OFX
// statement. The statement identifies its own account.
func (h *AccountsHandler) ImportOFX(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ImportOFX(r.Body)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ImportResponse{
		AccountID:  result.Account.ID,
		NewAccount: result.NewAccount,
		Read:       result.Read,
		Added:      result.Added,
	})
}
