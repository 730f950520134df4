package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

type createTransactionRequest struct {
	Description   string     `json:"description"`
	Amount        core.Money `json:"amount"`
	Date          core.Date  `json:"date"`
	AccountID     string     `json:"account_id"`
	SubcategoryID string     `json:"subcategory_id"`
	Notes         string     `json:"notes"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := ParseRange(q, s.today())
	if err != nil {
		writeServiceError(w, r, "list_transactions", err)
		return
	}
	limit, err := intParam(q, "limit", defaultRecentLimit, 1, 10000)
	if err != nil {
		writeServiceError(w, r, "list_transactions", err)
		return
	}
	txs, err := s.svc.Ledger.ListTransactions(r.Context(), ledger.TransactionFilter{
		From:          from,
		To:            to,
		SubcategoryID: q.Get("subcategory_id"),
		AccountID:     q.Get("account_id"),
		Limit:         limit,
	})
	if err != nil {
		writeServiceError(w, r, "list_transactions", err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// handleCreateTransaction records a manual transaction. The date defaults to
// today and a negative amount is stored as its magnitude.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, statusForDecode(err), err.Error())
		return
	}
	if req.Date.IsEmpty() {
		req.Date = s.today()
	}
	tx := core.Transaction{
		Description:   sanitizeInput(req.Description),
		Amount:        req.Amount,
		Date:          req.Date,
		AccountID:     sanitizeInput(req.AccountID),
		SubcategoryID: sanitizeInput(req.SubcategoryID),
		Notes:         sanitizeInput(req.Notes),
	}.Normalize()
	if err := tx.Validate(); err != nil {
		writeServiceError(w, r, log.OpCreate, err)
		return
	}
	if tx.Amount.IsZero() {
		writeServiceError(w, r, log.OpCreate, core.ErrInvalidAmount)
		return
	}

	created, err := s.svc.Ledger.CreateTransaction(r.Context(), tx, amqp.SourceManual)
	if errors.Is(err, ledger.ErrNotFound) {
		// The referenced subcategory or account does not exist.
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		writeServiceError(w, r, log.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.transactionsIn, 1)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ledger.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusForDecode(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
