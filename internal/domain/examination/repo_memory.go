package examination

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/pkg/pagination"
)

type examRepoMemory struct {
	mu    sync.RWMutex
	exams map[string]*Examination
}

// NewExamRepoMemory returns an in-memory repository holding copies of seed.
func NewExamRepoMemory(seed ...*Examination) Repository {
	r := &examRepoMemory{exams: make(map[string]*Examination)}
	for _, e := range seed {
		r.exams[e.ID] = clone(e)
	}
	return r
}

func clone(e *Examination) *Examination {
	cp := *e
	cp.Services = append([]LineItem(nil), e.Services...)
	cp.Diseases = append([]LineItem(nil), e.Diseases...)
	return &cp
}

func (r *examRepoMemory) GetByID(_ context.Context, id string) (*Examination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exams[id]
	if !ok {
		return nil, fmt.Errorf("examination %s: %w", id, apperr.ErrNotFound)
	}
	return clone(e), nil
}

func (r *examRepoMemory) filter(keep func(*Examination) bool) []*Examination {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Examination
	for _, e := range r.exams {
		if keep(e) {
			out = append(out, clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *examRepoMemory) List(_ context.Context, limit, offset int) ([]*Examination, int, error) {
	all := r.filter(func(*Examination) bool { return true })
	return pagination.Page(all, limit, offset), len(all), nil
}

func (r *examRepoMemory) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*Examination, int, error) {
	all := r.filter(func(e *Examination) bool { return e.PatientID == patientID })
	return pagination.Page(all, limit, offset), len(all), nil
}

func (r *examRepoMemory) ListBetween(_ context.Context, start, end string) ([]*Examination, error) {
	return r.filter(func(e *Examination) bool { return e.Date >= start && e.Date <= end }), nil
}

func (r *examRepoMemory) Save(_ context.Context, exam *Examination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exams[exam.ID] = clone(exam)
	return nil
}
