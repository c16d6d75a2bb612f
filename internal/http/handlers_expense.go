package http

import (
	"net/http"

	"razhodi/internal/core"
	applog "razhodi/internal/log"
	"razhodi/internal/services"
)

type upsertRequest struct {
	CategoryID string      `json:"category_id"`
	Year       int         `json:"year"`
	Month      int         `json:"month"`
	Amount     amountValue `json:"amount"`
}

type monthEntryRequest struct {
	CategoryID string      `json:"category_id"`
	Amount     amountValue `json:"amount"`
}

type saveMonthRequest struct {
	Entries []monthEntryRequest `json:"entries"`
}

type amountRequest struct {
	Amount *amountValue `json:"amount"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	years, err := s.expenses.AvailableYears(ctx, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err, applog.OpList)
		return
	}
	NewJSONResponse().Body(years).Write(w)
}

// handleGrid serves the year dashboard, from cache when possible.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpRead)
		return
	}
	apartmentID := r.PathValue("id")
	key := dashboardKey(apartmentID, year)

	if d, ok := s.dashboards.Get(key); ok {
		s.appMetrics.cacheHits.Add(1)
		NewJSONResponse().Header("X-Cache", "HIT").Body(d).Write(w)
		return
	}
	s.appMetrics.cacheMisses.Add(1)

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	d, err := s.expenses.Dashboard(ctx, apartmentID, year)
	if err != nil {
		s.writeError(w, r, err, applog.OpRead)
		return
	}
	s.dashboards.Set(key, d)
	NewJSONResponse().Header("X-Cache", "MISS").Body(d).Write(w)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpRead)
		return
	}
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	trends, err := s.expenses.Trends(ctx, r.PathValue("id"), year)
	if err != nil {
		s.writeError(w, r, err, applog.OpRead)
		return
	}
	if trends == nil {
		trends = []core.YearMonthlyTotals{}
	}
	NewJSONResponse().Body(trends).Write(w)
}

func (s *Server) handleUpsertExpense(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, applog.OpUpsert)
		return
	}
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	u := core.ExpenseUpsert{
		CategoryID: sanitizeInput(req.CategoryID),
		Year:       req.Year,
		Month:      req.Month,
		Amount:     float64(req.Amount),
	}
	if err := s.expenses.Upsert(ctx, r.PathValue("id"), u); err != nil {
		s.writeError(w, r, err, applog.OpUpsert)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleSaveMonth(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpUpsert)
		return
	}
	month, err := pathMonth(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpUpsert)
		return
	}
	var req saveMonthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, applog.OpUpsert)
		return
	}
	entries := make([]services.MonthEntry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = services.MonthEntry{CategoryID: sanitizeInput(e.CategoryID), Amount: float64(e.Amount)}
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	apartmentID := r.PathValue("id")
	saved, err := s.expenses.SaveMonth(ctx, apartmentID, year, month, entries)
	if err != nil {
		s.writeError(w, r, err, applog.OpUpsert)
		return
	}
	applog.FromContext(ctx).InfoContext(ctx, "Month saved",
		applog.FieldApartmentID, apartmentID,
		applog.FieldYear, year,
		applog.FieldMonth, month,
		"count", saved)
	NewJSONResponse().Body(countResponse{Count: saved}).Write(w)
}

func (s *Server) handleDeleteMonth(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpDelete)
		return
	}
	month, err := pathMonth(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpDelete)
		return
	}
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	deleted, err := s.expenses.DeleteMonth(ctx, r.PathValue("id"), year, month)
	if err != nil {
		s.writeError(w, r, err, applog.OpDelete)
		return
	}
	NewJSONResponse().Body(countResponse{Count: deleted}).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, applog.OpUpdate)
		return
	}
	if req.Amount == nil {
		s.writeError(w, r, badRequest("amount is required"), applog.OpUpdate)
		return
	}
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	if err := s.expenses.UpdateAmount(ctx, r.PathValue("expenseID"), float64(*req.Amount)); err != nil {
		s.writeError(w, r, err, applog.OpUpdate)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	if err := s.expenses.Delete(ctx, r.PathValue("expenseID")); err != nil {
		s.writeError(w, r, err, applog.OpDelete)
		return
	}
	NoContent().Write(w)
}
