package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/famledger/internal/adapter/http/dto"
	"github.com/iho/famledger/internal/analytics"
	"github.com/iho/famledger/internal/domain"
	"github.com/iho/famledger/internal/usecase"
)

// DashboardService defines the behavior needed by DashboardHandler.
type DashboardService interface {
	Upcoming(ctx context.Context, input usecase.UpcomingInput) ([]domain.Transaction, error)
	Series(ctx context.Context, input usecase.SeriesInput) (*analytics.Series, error)
	Balance(ctx context.Context, accountID string, asOf *time.Time) (*usecase.BalanceResult, error)
	Balances(ctx context.Context, userID string, asOf *time.Time) ([]usecase.BalanceResult, error)
	History(ctx context.Context, input usecase.HistoryInput) ([]analytics.BalancePoint, error)
	Forecast(ctx context.Context, accountID string, until time.Time) (*usecase.BalanceResult, error)
}

// DashboardHandler serves projected and aggregated views.
type DashboardHandler struct {
	dashboardUC DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardUC DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardUC: dashboardUC}
}

// Upcoming lists the projected occurrences of recurring transactions.
func (h *DashboardHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user_id", "")
		return
	}

	from, to, ok := optionalRange(w, r)
	if !ok {
		return
	}

	occurrences, err := h.dashboardUC.Upcoming(r.Context(), usecase.UpcomingInput{
		UserID:    userID,
		AccountID: r.URL.Query().Get("account_id"),
		From:      from,
		To:        to,
	})
	if err != nil {
		respondError(w, r, err, "failed to list upcoming payments")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(occurrences),
		Total:        int64(len(occurrences)),
	})
}

// Series aggregates the [from, to) window into day or month buckets.
func (h *DashboardHandler) Series(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user_id", "")
		return
	}

	from, to, ok := requiredRange(w, r)
	if !ok {
		return
	}

	bucketing, err := analytics.ParseBucketing(q.Get("bucket"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bucket", err.Error())
		return
	}
	dimension, err := analytics.ParseDimension(q.Get("by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid by", err.Error())
		return
	}

	series, err := h.dashboardUC.Series(r.Context(), usecase.SeriesInput{
		UserID:    userID,
		AccountID: q.Get("account_id"),
		From:      from,
		To:        to,
		Bucketing: bucketing,
		Dimension: dimension,
	})
	if err != nil {
		respondError(w, r, err, "failed to build series")
		return
	}

	writeJSON(w, http.StatusOK, dto.SeriesFromAnalytics(series))
}

// Balances projects every account of a user at as_of.
func (h *DashboardHandler) Balances(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user_id", "")
		return
	}

	asOf, err := parseDateQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of", err.Error())
		return
	}

	results, err := h.dashboardUC.Balances(r.Context(), userID, asOf)
	if err != nil {
		respondError(w, r, err, "failed to project balances")
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesFromResults(results))
}

// Balance projects one account at as_of, now when absent.
func (h *DashboardHandler) Balance(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of", err.Error())
		return
	}

	result, err := h.dashboardUC.Balance(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		respondError(w, r, err, "failed to project balance")
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromResult(result))
}

// History returns month-end balances of one account over [from, to).
func (h *DashboardHandler) History(w http.ResponseWriter, r *http.Request) {
	from, to, ok := requiredRange(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	points, err := h.dashboardUC.History(r.Context(), usecase.HistoryInput{AccountID: id, From: from, To: to})
	if err != nil {
		respondError(w, r, err, "failed to build balance history")
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromPoints(id, points))
}

// Forecast estimates the balance of one account at until.
func (h *DashboardHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	until, err := parseDateQuery(r, "until")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid until", err.Error())
		return
	}
	if until == nil {
		writeError(w, http.StatusBadRequest, "missing until", "")
		return
	}

	result, err := h.dashboardUC.Forecast(r.Context(), chi.URLParam(r, "id"), *until)
	if err != nil {
		respondError(w, r, err, "failed to forecast balance")
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromResult(result))
}

func optionalRange(w http.ResponseWriter, r *http.Request) (*time.Time, *time.Time, bool) {
	from, err := parseDateQuery(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from", err.Error())
		return nil, nil, false
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to", err.Error())
		return nil, nil, false
	}
	return from, to, true
}

func requiredRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, to, ok := optionalRange(w, r)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if from == nil || to == nil {
		writeError(w, http.StatusBadRequest, "missing from or to", "")
		return time.Time{}, time.Time{}, false
	}
	return *from, *to, true
}
