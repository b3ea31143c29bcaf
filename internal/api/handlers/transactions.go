package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aific/finances-backend/internal/api/dto"
	"github.com/aific/finances-backend/internal/application/service"
	"github.com/aific/finances-backend/internal/domain/ledger"
	"github.com/aific/finances-backend/internal/domain/rules"
)

// TransactionsHandler handles transaction-related HTTP requests.
type TransactionsHandler struct {
	*Base
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc *service.DocumentService) *TransactionsHandler {
	return &TransactionsHandler{Base: NewBase(svc)}
}

func (h *TransactionsHandler) toResponse(t *ledger.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		AccountID:   t.Account.ID,
		ID:          t.ID,
		Date:        t.Date.Format("2006-01-02"),
		Description: t.Description,
		Address:     t.Address,
		Cents:       t.Cents,
		Note:        t.Note(),
		DetectorID:  t.DetectorID(),
		Candidates:  t.Candidates(),
	}
	if c := h.svc.CategoryOf(t); c != nil {
		resp.CategoryID = c.ID()
		resp.CategoryName = c.Name()
	}
	if m := t.Match(); m != nil {
		resp.MatchedWith = m.Key().String()
	}
	return resp
}

// List handles GET /api/transactions. Supports filtering by account and by
// uncategorized=true, with limit/offset pagination.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account")
	uncategorizedOnly := ParseBoolParam(r, "uncategorized", false)
	limit := ParseIntParam(r, "limit", 50)
	offset := ParseIntParam(r, "offset", 0)

	var filtered []*ledger.Transaction
	for _, t := range h.svc.Transactions() {
		if accountID != "" && t.Account.ID != accountID {
			continue
		}
		if uncategorizedOnly && h.svc.CategoryOf(t) != nil {
			continue
		}
		filtered = append(filtered, t)
	}

	total := len(filtered)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	page := filtered[offset:end]

	response := dto.TransactionListResponse{
		Transactions: make([]dto.TransactionResponse, 0, len(page)),
		TotalCount:   total,
		Limit:        limit,
		Offset:       offset,
		HasMore:      end < total,
	}
	for _, t := range page {
		response.Transactions = append(response.Transactions, h.toResponse(t))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/transactions/{accountID}/{txID}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := ledger.Key{
		AccountID:     chi.URLParam(r, "accountID"),
		TransactionID: chi.URLParam(r, "txID"),
	}

	t, ok := h.svc.Transaction(key)
	if !ok {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
		return
	}
	h.WriteJSON(w, http.StatusOK, h.toResponse(t))
}

// AssignDetector handles PUT /api/transactions/{accountID}/{txID}/detector.
func (h *TransactionsHandler) AssignDetector(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignDetectorRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	key := ledger.Key{
		AccountID:     chi.URLParam(r, "accountID"),
		TransactionID: chi.URLParam(r, "txID"),
	}

	err := h.svc.AssignDetector(key, req.DetectorID)
	switch {
	case errors.Is(err, service.ErrUnknownTransaction):
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
	case errors.Is(err, rules.ErrUnknownDetector):
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	case err != nil:
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	default:
		t, _ := h.svc.Transaction(key)
		h.WriteJSON(w, http.StatusOK, h.toResponse(t))
	}
}

// SetNote handles PUT /api/transactions/{accountID}/{txID}/note.
func (h *TransactionsHandler) SetNote(w http.ResponseWriter, r *http.Request) {
	var req dto.SetNoteRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	key := ledger.Key{
		AccountID:     chi.URLParam(r, "accountID"),
		TransactionID: chi.URLParam(r, "txID"),
	}

	if err := h.svc.SetNote(key, req.Note); err != nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
		return
	}
	t, _ := h.svc.Transaction(key)
	h.WriteJSON(w, http.StatusOK, h.toResponse(t))
}
