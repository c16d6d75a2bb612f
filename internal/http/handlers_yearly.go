package http

import (
	"net/http"

	"razhodi/internal/core"
	applog "razhodi/internal/log"
)

type yearlyRequest struct {
	Year   int         `json:"year"`
	Name   string      `json:"name"`
	Amount amountValue `json:"amount"`
}

func (s *Server) handleListYearly(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpList)
		return
	}
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	list, err := s.yearly.List(ctx, r.PathValue("id"), year)
	if err != nil {
		s.writeError(w, r, err, applog.OpList)
		return
	}
	if list.Items == nil {
		list.Items = []core.YearlyExpense{}
	}
	NewJSONResponse().Body(list).Write(w)
}

func (s *Server) handleUpsertYearly(w http.ResponseWriter, r *http.Request) {
	var req yearlyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, applog.OpUpsert)
		return
	}
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	y, err := s.yearly.Upsert(ctx, r.PathValue("id"), core.YearlyExpense{
		Year:   req.Year,
		Name:   sanitizeInput(req.Name),
		Amount: float64(req.Amount),
	})
	if err != nil {
		s.writeError(w, r, err, applog.OpUpsert)
		return
	}
	NewJSONResponse().Body(y).Write(w)
}

func (s *Server) handleUpdateYearly(w http.ResponseWriter, r *http.Request) {
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

	if err := s.yearly.UpdateAmount(ctx, r.PathValue("yearlyID"), float64(*req.Amount)); err != nil {
		s.writeError(w, r, err, applog.OpUpdate)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleDeleteYearly(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	if err := s.yearly.Delete(ctx, r.PathValue("yearlyID")); err != nil {
		s.writeError(w, r, err, applog.OpDelete)
		return
	}
	NoContent().Write(w)
}
