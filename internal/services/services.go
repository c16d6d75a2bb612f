// Package services holds the application operations behind the HTTP API,
// the CLI and the worker.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"razhodi/internal/core"
	"razhodi/internal/ledger"
	applog "razhodi/internal/log"
)

// GridPublisher is notified after an apartment-year grid changes.
type GridPublisher interface {
	PublishGridChanged(ctx context.Context, apartmentID string, year int) error
}

// base carries what every service needs.
type base struct {
	store     ledger.Store
	publisher GridPublisher
	now       func() time.Time
}

func newBase(store ledger.Store, publisher GridPublisher) base {
	return base{store: store, publisher: publisher, now: time.Now}
}

// apartmentCategories loads an apartment's categories, failing with
// core.ErrNotFound for an unknown apartment.
func (b base) apartmentCategories(ctx context.Context, apartmentID string) (core.Apartment, []core.Category, error) {
	apt, err := b.store.GetApartment(ctx, apartmentID)
	if err != nil {
		return core.Apartment{}, nil, err
	}
	cats, err := b.store.ListCategories(ctx, apartmentID)
	if err != nil {
		return core.Apartment{}, nil, fmt.Errorf("list categories: %w", err)
	}
	return apt, cats, nil
}

// gridChanged publishes one message per distinct year. Publishing failures
// are logged and never fail the write that caused them.
func (b base) gridChanged(ctx context.Context, apartmentID string, years ...int) {
	if b.publisher == nil {
		return
	}
	seen := map[int]bool{}
	for _, y := range years {
		if seen[y] {
			continue
		}
		seen[y] = true
		if err := b.publisher.PublishGridChanged(ctx, apartmentID, y); err != nil {
			slog.ErrorContext(ctx, "Failed to publish grid changed message",
				applog.FieldApartmentID, apartmentID, applog.FieldYear, y, applog.FieldError, err)
		}
	}
}

func categoryIDs(cats []core.Category) []string {
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids
}

func categorySet(cats []core.Category) map[string]bool {
	set := make(map[string]bool, len(cats))
	for _, c := range cats {
		set[c.ID] = true
	}
	return set
}

func sortedDesc(years []int) []int {
	out := append([]int(nil), years...)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
