package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
)

type expenseJSON struct {
	ID        int64  `json:"id"`
	Amount    string `json:"amount"`
	Formatted string `json:"formatted"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	Note      string `json:"note"`
}

type totalJSON struct {
	Total     string `json:"total"`
	Formatted string `json:"formatted"`
	Compact   string `json:"compact"`
}

type categoryTotalJSON struct {
	Category  string `json:"category"`
	Total     string `json:"total"`
	Formatted string `json:"formatted"`
}

type reportJSON struct {
	Period     core.Period         `json:"period"`
	Start      string              `json:"start,omitempty"`
	End        string              `json:"end,omitempty"`
	Count      int                 `json:"count"`
	Total      totalJSON           `json:"total"`
	AllTime    totalJSON           `json:"allTime"`
	ByCategory []categoryTotalJSON `json:"byCategory"`
	Expenses   []expenseJSON       `json:"expenses"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:        e.ID,
		Amount:    e.Amount.StringFixed(2),
		Formatted: core.FormatAmount(e.Amount),
		Category:  e.Category,
		Date:      core.FormatTimestamp(e.Date),
		Note:      e.Note,
	}
}

func toExpensesJSON(list []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(list))
	for _, e := range list {
		out = append(out, toExpenseJSON(e))
	}
	return out
}

func toTotalJSON(d decimal.Decimal) totalJSON {
	return totalJSON{
		Total:     d.StringFixed(2),
		Formatted: core.FormatAmount(d),
		Compact:   core.FormatCompact(d),
	}
}

func toReportJSON(r services.Report) reportJSON {
	out := reportJSON{
		Period:     r.Period,
		Count:      len(r.Expenses),
		Total:      toTotalJSON(r.Total),
		AllTime:    toTotalJSON(r.AllTime),
		ByCategory: make([]categoryTotalJSON, 0, len(r.ByCategory)),
		Expenses:   toExpensesJSON(r.Expenses),
	}
	if r.Bounded {
		out.Start = r.Range.Start.Format(time.RFC3339Nano)
		out.End = r.Range.End.Format(time.RFC3339Nano)
	}
	for _, c := range r.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryTotalJSON{
			Category:  c.Category,
			Total:     c.Total.StringFixed(2),
			Formatted: core.FormatAmount(c.Total),
		})
	}
	return out
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports whether the store answers a query.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.expenses.Total(r.Context()); err != nil {
		log.LogError(r.Context(), "Readiness check failed", err, log.ComponentHTTP, log.OpRead, nil)
		ErrorResponse(http.StatusServiceUnavailable, "Store unavailable", "").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(core.Categories).Write(w)
}

// handleReport serves the period report: rows, totals and category breakdown.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r)
	if err != nil {
		BadRequestError("Invalid period", err.Error()).Write(w)
		return
	}

	report, err := s.reports.Build(r.Context(), p, s.now())
	if err != nil {
		log.LogError(r.Context(), "Failed to build report", err, log.ComponentReport, log.OpReport,
			log.LogFields{log.FieldPeriod: p.String()})
		internalError(w, r, "Failed to load report")
		return
	}

	NewJSONResponse().Data(toReportJSON(report)).Write(w)
}

type metricsJSON struct {
	Requests  requestMetricsJSON   `json:"requests"`
	RateLimit rateLimitMetricsJSON `json:"rateLimit"`
}

type requestMetricsJSON struct {
	Total              int64 `json:"total"`
	LastResponseMicros int64 `json:"lastResponseMicros"`
}

type rateLimitMetricsJSON struct {
	Rejected int64 `json:"rejected"`
	Clients  int64 `json:"clients"`
}

// handleMetrics reports request and rate limit counters since start.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	lm := s.limiter.GetMetrics()

	NewJSONResponse().Data(metricsJSON{
		Requests: requestMetricsJSON{
			Total:              tm.TotalRequests,
			LastResponseMicros: tm.LastResponseTime,
		},
		RateLimit: rateLimitMetricsJSON{
			Rejected: lm.TotalHits,
			Clients:  lm.ClientCount,
		},
	}).Write(w)
}

// internalError answers 500 with the request id so a failure can be matched
// to its log lines.
func internalError(w http.ResponseWriter, r *http.Request, message string) {
	InternalServerError(message, "request_id="+trace.GetRequestID(r.Context())).Write(w)
}
