package http

import (
	"net/http"

	applog "razhodi/internal/log"
)

type rentResponse struct {
	Year       int   `json:"year"`
	PaidMonths []int `json:"paid_months"`
}

type toggleResponse struct {
	Year  int  `json:"year"`
	Month int  `json:"month"`
	Paid  bool `json:"paid"`
}

func (s *Server) handleRent(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpList)
		return
	}
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	months, err := s.rent.PaidMonths(ctx, r.PathValue("id"), year)
	if err != nil {
		s.writeError(w, r, err, applog.OpList)
		return
	}
	NewJSONResponse().Body(rentResponse{Year: year, PaidMonths: months}).Write(w)
}

func (s *Server) handleToggleRent(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpToggle)
		return
	}
	month, err := pathMonth(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpToggle)
		return
	}
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	paid, err := s.rent.Toggle(ctx, r.PathValue("id"), year, month)
	if err != nil {
		s.writeError(w, r, err, applog.OpToggle)
		return
	}
	NewJSONResponse().Body(toggleResponse{Year: year, Month: month, Paid: paid}).Write(w)
}
