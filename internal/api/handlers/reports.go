package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/dvloznov/expense-ledger/internal/api/middleware"
	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/dvloznov/expense-ledger/internal/report"
	"github.com/dvloznov/expense-ledger/internal/store"
	"github.com/rs/zerolog"
)

// ReportsHandler renders printable reports of the ledger.
type ReportsHandler struct {
	repo store.Repository
	opts report.Options
	now  func() time.Time
	log  zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(repo store.Repository, opts report.Options, now func() time.Time, log zerolog.Logger) *ReportsHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportsHandler{repo: repo, opts: opts, now: now, log: log}
}

// Report handles GET /report?month=YYYY-MM&name=...&format=html|text
func (h *ReportsHandler) Report(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	format, err := report.ParseFormat(query.Get("format"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := h.repo.ListTransactions(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}
	recs, err := records(txs)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to decode rows")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}

	registry := ledger.NewRegistry(recs)
	registry.SetNameFilter(query.Get("name"))
	if err := registry.SetMonthFilter(query.Get("month")); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	var month *ledger.YearMonth
	if ym, ok := registry.MonthFilter(); ok {
		month = &ym
	}

	doc, err := report.Build(registry.Visible(), month, h.now(), h.opts)
	var noData *report.NoDataError
	if errors.As(err, &noData) {
		writeFailure(w, http.StatusUnprocessableEntity, ledger.MsgNoReportData)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, doc, format); err != nil {
		h.log.Error().Err(err).Msg("Failed to render report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	h.log.Info().
		Str("title", doc.Title).
		Int("records", doc.RecordCount).
		Msg("Report generated")

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
