package expense

import (
	"context"
	"fmt"
	"time"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id string) (*Expense, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) (*Page, error) {
	return s.repo.Search(ctx, query, limit, offset)
}

func (s *Service) ListBetween(ctx context.Context, start, end string) ([]*Expense, error) {
	return s.repo.ListBetween(ctx, start, end)
}

func (s *Service) Create(ctx context.Context, e *Expense) error {
	if err := e.Normalize(s.now()); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, e); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}
