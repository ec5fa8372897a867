package expense

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/pkg/pagination"
)

type expenseRepoMemory struct {
	mu       sync.RWMutex
	expenses map[string]*Expense
}

// NewExpenseRepoMemory returns an in-memory repository holding copies of seed.
func NewExpenseRepoMemory(seed ...*Expense) Repository {
	r := &expenseRepoMemory{expenses: make(map[string]*Expense)}
	for _, e := range seed {
		cp := *e
		r.expenses[e.ID] = &cp
	}
	return r
}

func (r *expenseRepoMemory) GetByID(_ context.Context, id string) (*Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.expenses[id]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", id, apperr.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (r *expenseRepoMemory) filter(keep func(*Expense) bool) []*Expense {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Expense
	for _, e := range r.expenses {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *expenseRepoMemory) Search(_ context.Context, query string, limit, offset int) (*Page, error) {
	all := r.filter(func(e *Expense) bool { return e.Match(query) })
	page := &Page{Expenses: pagination.Page(all, limit, offset), Total: len(all)}
	for _, e := range all {
		page.TotalAmount += e.Amount
	}
	return page, nil
}

func (r *expenseRepoMemory) ListBetween(_ context.Context, start, end string) ([]*Expense, error) {
	return r.filter(func(e *Expense) bool { return e.Date >= start && e.Date <= end }), nil
}

func (r *expenseRepoMemory) Save(_ context.Context, e *Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}
