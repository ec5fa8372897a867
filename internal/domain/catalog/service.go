package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/format"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// maxCatalogSize bounds Predefined; the clinic catalogs are a few dozen rows.
const maxCatalogSize = 1000

// Predefined returns the active items of kind. Examination drafts take their
// immutable predefined catalog from here.
func (s *Service) Predefined(ctx context.Context, kind Kind) ([]Item, error) {
	items, _, err := s.repo.List(ctx, kind, maxCatalogSize, 0)
	if err != nil {
		return nil, fmt.Errorf("list %s catalog: %w", kind, err)
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.IsActive {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, kind Kind, id string) (*Item, error) {
	return s.repo.GetByID(ctx, kind, id)
}

func (s *Service) List(ctx context.Context, kind Kind, limit, offset int) ([]*Item, int, error) {
	return s.repo.List(ctx, kind, limit, offset)
}

func validateItem(it *Item) error {
	it.Name = strings.TrimSpace(it.Name)
	if it.Name == "" {
		return apperr.Invalid("name", "name is required")
	}
	switch err := format.CheckAmount(it.Price); {
	case errors.Is(err, format.ErrTooLarge):
		return apperr.Invalid("price", "price must not exceed "+format.Currency(format.MaxAmount))
	case err != nil:
		return apperr.Invalid("price", "price must be a positive amount")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, it *Item) error {
	if err := validateItem(it); err != nil {
		return err
	}
	it.ID = ""
	it.IsActive = true
	it.IsCustom = false
	return s.repo.Save(ctx, it)
}

func (s *Service) Update(ctx context.Context, it *Item) error {
	if err := validateItem(it); err != nil {
		return err
	}
	existing, err := s.repo.GetByID(ctx, it.Kind, it.ID)
	if err != nil {
		return err
	}
	it.CreatedAt = existing.CreatedAt
	return s.repo.Save(ctx, it)
}
