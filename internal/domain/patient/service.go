package patient

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// Exists returns an error wrapping apperr.ErrNotFound for unknown ids.
func (s *Service) Exists(ctx context.Context, id string) error {
	_, err := s.repo.GetByID(ctx, id)
	return err
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, query, limit, offset)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := p.Normalize(); err != nil {
		return err
	}
	p.ID = ""
	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := p.Normalize(); err != nil {
		return err
	}
	return s.repo.Save(ctx, p)
}
