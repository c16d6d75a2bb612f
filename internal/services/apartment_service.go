package services

import (
	"context"
	"fmt"

	"razhodi/internal/core"
	"razhodi/internal/ledger"
)

// ApartmentService manages apartments and their categories.
type ApartmentService struct {
	base
}

func NewApartmentService(store ledger.Store, publisher GridPublisher) *ApartmentService {
	return &ApartmentService{base: newBase(store, publisher)}
}

func (s *ApartmentService) List(ctx context.Context) ([]core.Apartment, error) {
	apts, err := s.store.ListApartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list apartments: %w", err)
	}
	return apts, nil
}

func (s *ApartmentService) Create(ctx context.Context, name string) (core.Apartment, error) {
	return s.store.CreateApartment(ctx, name)
}

func (s *ApartmentService) Categories(ctx context.Context, apartmentID string) ([]core.Category, error) {
	_, cats, err := s.apartmentCategories(ctx, apartmentID)
	return cats, err
}

func (s *ApartmentService) AddCategory(ctx context.Context, apartmentID, name string) (core.Category, error) {
	return s.store.AddCategory(ctx, apartmentID, name)
}

// DeleteCategory removes a category and its expenses, then announces every
// year that lost data.
func (s *ApartmentService) DeleteCategory(ctx context.Context, categoryID string) error {
	cat, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	years, err := s.store.ExpenseYears(ctx, []string{categoryID})
	if err != nil {
		return fmt.Errorf("expense years: %w", err)
	}
	if err := s.store.DeleteCategory(ctx, categoryID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.gridChanged(ctx, cat.ApartmentID, years...)
	return nil
}
