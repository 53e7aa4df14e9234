package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agronond/mandi-backend/api/responses"
	"github.com/agronond/mandi-backend/internal/reports"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/logger"
)

// DailySummaryReport returns the committee's end-of-day rollup. The
// optional date query parameter selects a past market day.
func DailySummaryReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := reports.DailySummaryInput{}
		if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
			date, err := time.Parse("2006-01-02", raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD"))
				return
			}
			input.Date = date
		}

		summary, err := svc.DailySummary(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ExportTransactionsCSV streams the transaction ledger as CSV.
func ExportTransactionsCSV(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := reports.ExportInput{}
		query := r.URL.Query()
		for key, dest := range map[string]**time.Time{"from": &input.From, "to": &input.To} {
			if raw := strings.TrimSpace(query.Get(key)); raw != "" {
				at, err := time.Parse("2006-01-02", raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, key+" must be YYYY-MM-DD"))
					return
				}
				*dest = &at
			}
		}

		filename := fmt.Sprintf("transactions-%s.csv", time.Now().UTC().Format("20060102"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

		if err := svc.ExportTransactionsCSV(r.Context(), w, input); err != nil {
			// Headers may already be out; log rather than write a second body.
			if logg != nil {
				logg.Error(r.Context(), "csv export failed", err)
			}
		}
	}
}
