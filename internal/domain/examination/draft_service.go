package examination

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentaldesk/clinic/internal/domain/catalog"
	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/format"
)

// CatalogProvider supplies the predefined items a new draft offers.
// *catalog.Service satisfies it.
type CatalogProvider interface {
	Predefined(ctx context.Context, kind catalog.Kind) ([]catalog.Item, error)
}

// PatientLookup confirms a patient exists. It returns an error wrapping
// apperr.ErrNotFound for unknown ids.
type PatientLookup interface {
	Exists(ctx context.Context, id string) error
}

type draftEntry struct {
	mu      sync.Mutex
	draft   *Draft
	touched time.Time
	closed  bool
}

// DraftService holds the examination drafts that are being filled in. Each
// draft is guarded by its own mutex; a draft is gone once saved or
// cancelled.
type DraftService struct {
	catalog  CatalogProvider
	patients PatientLookup
	repo     Repository
	logger   zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	drafts map[string]*draftEntry
}

// NewDraftService wires the draft workflow. patients may be nil, in which
// case patient ids are not checked on save.
func NewDraftService(provider CatalogProvider, patients PatientLookup, repo Repository, logger zerolog.Logger) *DraftService {
	return &DraftService{
		catalog:  provider,
		patients: patients,
		repo:     repo,
		logger:   logger.With().Str("component", "drafts").Logger(),
		now:      time.Now,
		drafts:   make(map[string]*draftEntry),
	}
}

func (s *DraftService) normalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return format.Today(s.now()), nil
	}
	t, err := format.ParseISODate(date)
	if err != nil {
		return "", apperr.Invalid("date", "date must be yyyy-mm-dd")
	}
	return format.ISODate(t), nil
}

// Start opens a draft for patientID on date (today in Vietnam when blank),
// offering the currently active catalogs.
func (s *DraftService) Start(ctx context.Context, patientID, date string) (DraftView, error) {
	date, err := s.normalizeDate(date)
	if err != nil {
		return DraftView{}, err
	}

	services, err := s.catalog.Predefined(ctx, catalog.KindService)
	if err != nil {
		return DraftView{}, fmt.Errorf("load services: %w", err)
	}
	diseases, err := s.catalog.Predefined(ctx, catalog.KindDisease)
	if err != nil {
		return DraftView{}, fmt.Errorf("load diseases: %w", err)
	}

	now := s.now()
	d := &Draft{
		ID:        uuid.NewString(),
		PatientID: strings.TrimSpace(patientID),
		Date:      date,
		Services:  NewSelection(catalog.KindService, services, s.logger),
		Diseases:  NewSelection(catalog.KindDisease, diseases, s.logger),
		CreatedAt: now.UTC(),
	}

	s.mu.Lock()
	s.drafts[d.ID] = &draftEntry{draft: d, touched: now}
	s.mu.Unlock()

	s.logger.Debug().Str("draft_id", d.ID).Str("patient_id", d.PatientID).Msg("draft started")
	return d.View(), nil
}

func (s *DraftService) entry(id string) (*draftEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, apperr.ErrNotFound)
	}
	return e, nil
}

// with runs fn on the draft under its lock and returns the resulting view.
// The view is returned even when fn fails so callers can re-render.
func (s *DraftService) with(id string, fn func(d *Draft) error) (DraftView, error) {
	e, err := s.entry(id)
	if err != nil {
		return DraftView{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return DraftView{}, fmt.Errorf("draft %s: %w", id, apperr.ErrNotFound)
	}
	e.touched = s.now()
	err = fn(e.draft)
	return e.draft.View(), err
}

func (s *DraftService) Get(id string) (DraftView, error) {
	return s.with(id, func(*Draft) error { return nil })
}

func (s *DraftService) Toggle(id string, kind catalog.Kind, itemID string) (DraftView, error) {
	return s.with(id, func(d *Draft) error {
		sel, err := d.Selection(kind)
		if err != nil {
			return err
		}
		_, err = sel.Toggle(itemID)
		return err
	})
}

func (s *DraftService) RemoveSelection(id string, kind catalog.Kind, itemID string) (DraftView, error) {
	return s.with(id, func(d *Draft) error {
		sel, err := d.Selection(kind)
		if err != nil {
			return err
		}
		sel.RemoveSelection(itemID)
		return nil
	})
}

func (s *DraftService) CreateCustomItem(id string, kind catalog.Kind, name string, price int64) (catalog.Item, DraftView, error) {
	var created catalog.Item
	view, err := s.with(id, func(d *Draft) error {
		sel, err := d.Selection(kind)
		if err != nil {
			return err
		}
		created, _, err = sel.CreateCustomItem(name, price)
		return err
	})
	return created, view, err
}

func (s *DraftService) UpdateCustomItem(id string, kind catalog.Kind, itemID, name string, price int64) (catalog.Item, DraftView, error) {
	var updated catalog.Item
	view, err := s.with(id, func(d *Draft) error {
		sel, err := d.Selection(kind)
		if err != nil {
			return err
		}
		updated, _, err = sel.UpdateCustomItem(itemID, name, price)
		return err
	})
	return updated, view, err
}

func (s *DraftService) SetNotes(id, notes string) (DraftView, error) {
	return s.with(id, func(d *Draft) error {
		d.MedicalNotes = notes
		return nil
	})
}

func (s *DraftService) SetPatient(id, patientID string) (DraftView, error) {
	return s.with(id, func(d *Draft) error {
		d.PatientID = strings.TrimSpace(patientID)
		return nil
	})
}

func (s *DraftService) SetDate(id, date string) (DraftView, error) {
	return s.with(id, func(d *Draft) error {
		normalized, err := s.normalizeDate(date)
		if err != nil {
			return err
		}
		d.Date = normalized
		return nil
	})
}

// SetDentist records who performed the examination.
func (s *DraftService) SetDentist(id, dentistID, name string) (DraftView, error) {
	return s.with(id, func(d *Draft) error {
		d.DentistID = dentistID
		d.DentistName = strings.TrimSpace(name)
		return nil
	})
}

// Save finalizes the draft, stores the examination and discards the draft.
// On any failure the draft stays open so the user can fix it and retry.
func (s *DraftService) Save(ctx context.Context, id string) (*Examination, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("draft %s: %w", id, apperr.ErrNotFound)
	}

	exam, err := e.draft.Finalize(s.now())
	if err != nil {
		return nil, err
	}
	if s.patients != nil {
		if err := s.patients.Exists(ctx, exam.PatientID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.Invalid("patient_id", "patient does not exist")
			}
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, exam); err != nil {
		return nil, fmt.Errorf("save examination: %w", err)
	}

	e.closed = true
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()

	s.logger.Info().
		Str("draft_id", id).
		Str("examination_id", exam.ID).
		Str("patient_id", exam.PatientID).
		Int64("total_cost", exam.TotalCost).
		Msg("examination saved")
	return exam, nil
}

// Cancel discards the draft and everything created in it.
func (s *DraftService) Cancel(id string) error {
	e, err := s.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of open drafts.
func (s *DraftService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// Sweep discards drafts untouched for longer than maxIdle and returns how
// many were dropped. Abandoned workflows never call Cancel.
func (s *DraftService) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	entries := make(map[string]*draftEntry, len(s.drafts))
	for id, e := range s.drafts {
		entries[id] = e
	}
	s.mu.Unlock()

	dropped := 0
	for id, e := range entries {
		e.mu.Lock()
		stale := !e.closed && e.touched.Before(cutoff)
		if stale {
			e.closed = true
		}
		e.mu.Unlock()
		if !stale {
			continue
		}
		s.mu.Lock()
		delete(s.drafts, id)
		s.mu.Unlock()
		dropped++
	}
	if dropped > 0 {
		s.logger.Info().Int("dropped", dropped).Msg("discarded abandoned drafts")
	}
	return dropped
}

// RunJanitor calls Sweep every interval until ctx is done.
func (s *DraftService) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(maxIdle)
		}
	}
}
