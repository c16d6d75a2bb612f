package services

import (
	"context"
	"fmt"

	"razhodi/internal/core"
	"razhodi/internal/ledger"
)

// YearlyList is a year's once-a-year expenses with their sum.
type YearlyList struct {
	Items []core.YearlyExpense `json:"items"`
	Total float64              `json:"total"`
}

// YearlyService manages once-a-year expenses.
type YearlyService struct {
	base
}

func NewYearlyService(store ledger.Store) *YearlyService {
	return &YearlyService{base: newBase(store, nil)}
}

func (s *YearlyService) List(ctx context.Context, apartmentID string, year int) (YearlyList, error) {
	if _, err := s.store.GetApartment(ctx, apartmentID); err != nil {
		return YearlyList{}, err
	}
	items, err := s.store.ListYearlyExpenses(ctx, apartmentID, year)
	if err != nil {
		return YearlyList{}, fmt.Errorf("list yearly expenses: %w", err)
	}
	var total core.Money
	for _, y := range items {
		total = total.Add(y.Amount)
	}
	return YearlyList{Items: items, Total: total.Float()}, nil
}

func (s *YearlyService) Upsert(ctx context.Context, apartmentID string, y core.YearlyExpense) (core.YearlyExpense, error) {
	if _, err := s.store.GetApartment(ctx, apartmentID); err != nil {
		return core.YearlyExpense{}, err
	}
	y.ApartmentID = apartmentID
	return s.store.UpsertYearlyExpense(ctx, y)
}

func (s *YearlyService) UpdateAmount(ctx context.Context, id string, amount float64) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	return s.store.UpdateYearlyExpense(ctx, id, amount)
}

func (s *YearlyService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteYearlyExpense(ctx, id)
}
