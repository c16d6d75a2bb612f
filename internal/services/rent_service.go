package services

import (
	"context"
	"fmt"

	"razhodi/internal/core"
	"razhodi/internal/ledger"
)

// RentService tracks which months' rent has been paid.
type RentService struct {
	base
}

func NewRentService(store ledger.Store) *RentService {
	return &RentService{base: newBase(store, nil)}
}

// PaidMonths returns the paid months of a year in ascending order.
func (s *RentService) PaidMonths(ctx context.Context, apartmentID string, year int) ([]int, error) {
	if _, err := s.store.GetApartment(ctx, apartmentID); err != nil {
		return nil, err
	}
	payments, err := s.store.ListRentPayments(ctx, apartmentID, year)
	if err != nil {
		return nil, fmt.Errorf("list rent payments: %w", err)
	}
	months := make([]int, len(payments))
	for i, p := range payments {
		months[i] = p.Month
	}
	return months, nil
}

// Toggle flips a month between paid and unpaid and returns the new state.
func (s *RentService) Toggle(ctx context.Context, apartmentID string, year, month int) (bool, error) {
	if err := core.ValidateYear(year); err != nil {
		return false, err
	}
	if err := core.ValidateMonth(month); err != nil {
		return false, err
	}
	if _, err := s.store.GetApartment(ctx, apartmentID); err != nil {
		return false, err
	}
	payments, err := s.store.ListRentPayments(ctx, apartmentID, year)
	if err != nil {
		return false, fmt.Errorf("list rent payments: %w", err)
	}
	for _, p := range payments {
		if p.Month == month {
			if err := s.store.DeleteRentPayment(ctx, p.ID); err != nil {
				return false, fmt.Errorf("delete rent payment: %w", err)
			}
			return false, nil
		}
	}
	if _, err := s.store.AddRentPayment(ctx, apartmentID, year, month); err != nil {
		return false, fmt.Errorf("add rent payment: %w", err)
	}
	return true, nil
}
