package patient

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

type patientRepoMemory struct {
	mu       sync.RWMutex
	patients map[string]*Patient
}

// NewPatientRepoMemory returns an in-memory repository holding copies of seed.
func NewPatientRepoMemory(seed ...*Patient) Repository {
	r := &patientRepoMemory{patients: make(map[string]*Patient)}
	for _, p := range seed {
		cp := *p
		r.patients[p.ID] = &cp
	}
	return r
}

func (r *patientRepoMemory) GetByID(_ context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient %s: %w", id, apperr.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *patientRepoMemory) Search(_ context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	r.mu.RLock()
	var all []*Patient
	for _, p := range r.patients {
		if p.Match(query) {
			cp := *p
			all = append(all, &cp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return pagination.Page(all, limit, offset), len(all), nil
}

func (r *patientRepoMemory) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patients), nil
}

func (r *patientRepoMemory) Save(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = time.Now().UTC()
	} else {
		existing, ok := r.patients[p.ID]
		if !ok {
			return fmt.Errorf("patient %s: %w", p.ID, apperr.ErrNotFound)
		}
		p.CreatedAt = existing.CreatedAt
	}
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}
