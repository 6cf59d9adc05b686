package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/expense-ledger/internal/api/middleware"
	"github.com/dvloznov/expense-ledger/internal/domain"
	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/dvloznov/expense-ledger/internal/store"
	"github.com/rs/zerolog"
)

// CSRFHeader carries the anti-forgery token on state-changing requests.
const CSRFHeader = "X-CSRFToken"

// Row is one dashboard row: the id plus the JSON data blob the dashboard decodes.
type Row struct {
	ID      string `json:"id"`
	Details string `json:"details"`
}

// RowOf renders tx as a dashboard row.
func RowOf(tx domain.Transaction) (Row, error) {
	details, err := tx.DetailsJSON()
	if err != nil {
		return Row{}, err
	}
	return Row{ID: tx.ID, Details: details}, nil
}

// Result is the body of a mutation response.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Row     *Row   `json:"row,omitempty"`
}

func writeFailure(w http.ResponseWriter, status int, reason string) {
	middleware.WriteJSON(w, status, Result{Success: false, Error: reason})
}

// records converts transactions into ledger records through their row blobs,
// the same path the dashboard takes.
func records(txs []domain.Transaction) ([]ledger.Record, error) {
	out := make([]ledger.Record, 0, len(txs))
	for _, tx := range txs {
		details, err := tx.DetailsJSON()
		if err != nil {
			return nil, err
		}
		rec, err := ledger.DecodeRecord([]byte(details))
		if err != nil {
			return nil, fmt.Errorf("records: %s: %w", tx.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// TransactionsHandler handles the ledger endpoints.
type TransactionsHandler struct {
	repo   store.Repository
	tokens store.TokenStore
	zone   *time.Location
	window time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler. zone and window
// mirror the dashboard's deletion window on the server side.
func NewTransactionsHandler(repo store.Repository, tokens store.TokenStore, zone *time.Location, window time.Duration, now func() time.Time, log zerolog.Logger) *TransactionsHandler {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = ledger.DefaultWindow
	}
	return &TransactionsHandler{
		repo:   repo,
		tokens: tokens,
		zone:   zone,
		window: window,
		now:    now,
		log:    log,
	}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txs, err := h.repo.ListTransactions(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	rows := make([]Row, 0, len(txs))
	for _, tx := range txs {
		row, err := RowOf(tx)
		if err != nil {
			h.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to render row")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
			return
		}
		rows = append(rows, row)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

// AddRequest is the body of POST /api/transactions. Amounts are decimal strings.
type AddRequest struct {
	Name           string `json:"name"`
	Comment        string `json:"comment"`
	AmountReceived string `json:"amount_received"`
	AmountPaid     string `json:"amount_paid"`
}

// AddTransaction handles POST /api/transactions
func (h *TransactionsHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := ledger.ParseEntry(req.Name, req.Comment, req.AmountReceived, req.AmountPaid)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, ledger.ErrEmptyEntry) {
			reason = ledger.MsgEmptyEntry
		}
		writeFailure(w, http.StatusBadRequest, reason)
		return
	}

	tx, err := h.repo.AddTransaction(r.Context(), store.NewTransaction{
		Name:         entry.Name,
		Comment:      entry.Comment,
		Received:     entry.Received,
		Paid:         entry.Paid,
		RequireFunds: true,
	})
	var overdraft *ledger.OverdraftError
	if errors.As(err, &overdraft) {
		writeFailure(w, http.StatusBadRequest, overdraft.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to add transaction")
		writeFailure(w, http.StatusInternalServerError, "Failed to add transaction")
		return
	}

	row, err := RowOf(tx)
	if err != nil {
		h.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to render row")
		writeFailure(w, http.StatusInternalServerError, "Failed to add transaction")
		return
	}

	h.log.Info().
		Str("transaction_id", tx.ID).
		Str("balance", tx.RemainingBalance.StringFixed(2)).
		Msg("Transaction added")

	middleware.WriteJSON(w, http.StatusCreated, Result{Success: true, Message: "Transaction added successfully", Row: &row})
}

// DeleteTransaction handles DELETE /delete/{id}/
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if r.Method != http.MethodDelete {
		writeFailure(w, http.StatusMethodNotAllowed, "Invalid request method")
		return
	}
	if h.tokens != nil && !h.tokens.ValidToken(ctx, r.Header.Get(CSRFHeader)) {
		writeFailure(w, http.StatusForbidden, "CSRF token missing or incorrect")
		return
	}

	tx, err := h.repo.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		writeFailure(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to load transaction")
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	created := ledger.RawTimestamp(strconv.FormatInt(tx.CreatedAt.Unix(), 10))
	if st := ledger.Evaluate(h.now(), h.zone, created, h.window); !st.Eligible {
		h.log.Warn().Str("transaction_id", id).Msg("Refusing deletion outside the window")
		writeFailure(w, http.StatusForbidden, "Deletion window has expired")
		return
	}

	if err := h.repo.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info().Str("transaction_id", id).Msg("Transaction deleted")
	middleware.WriteJSON(w, http.StatusOK, Result{Success: true, Message: "Transaction deleted successfully"})
}

// Filters handles GET /api/filters
func (h *TransactionsHandler) Filters(w http.ResponseWriter, r *http.Request) {
	txs, err := h.repo.ListTransactions(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list filters")
		return
	}
	recs, err := records(txs)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to decode rows")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list filters")
		return
	}

	registry := ledger.NewRegistry(recs)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"months": nonNil(registry.Months()),
		"years":  nonNilInts(registry.Years()),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

// CSRFHandler issues anti-forgery tokens.
type CSRFHandler struct {
	tokens store.TokenStore
	log    zerolog.Logger
}

// NewCSRFHandler creates a new token handler.
func NewCSRFHandler(tokens store.TokenStore, log zerolog.Logger) *CSRFHandler {
	return &CSRFHandler{tokens: tokens, log: log}
}

// IssueToken handles GET /api/csrf
func (h *CSRFHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.IssueToken(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to issue token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}
