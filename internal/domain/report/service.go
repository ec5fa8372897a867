package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dentaldesk/clinic/internal/domain/examination"
	"github.com/dentaldesk/clinic/internal/domain/expense"
	"github.com/dentaldesk/clinic/internal/platform/format"
)

type ExaminationSource interface {
	ListBetween(ctx context.Context, start, end string) ([]*examination.Examination, error)
}

type ExpenseSource interface {
	ListBetween(ctx context.Context, start, end string) ([]*expense.Expense, error)
}

type PatientCounter interface {
	Count(ctx context.Context) (int, error)
}

// Service aggregates saved examinations and expenses into period reports.
// Cancelled examinations earn nothing and are left out entirely.
type Service struct {
	exams    ExaminationSource
	expenses ExpenseSource
	patients PatientCounter
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(exams ExaminationSource, expenses ExpenseSource, patients PatientCounter, logger zerolog.Logger) *Service {
	return &Service{
		exams:    exams,
		expenses: expenses,
		patients: patients,
		logger:   logger.With().Str("component", "report").Logger(),
		now:      time.Now,
	}
}

// Range resolves a period relative to the current time.
func (s *Service) Range(period, start, end string) (Range, error) {
	return ResolveRange(period, start, end, s.now())
}

func (s *Service) Summary(ctx context.Context, r Range) (*Summary, error) {
	exams, err := s.exams.ListBetween(ctx, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("list examinations: %w", err)
	}
	expenses, err := s.expenses.ListBetween(ctx, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	registered, err := s.patients.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}

	sum := &Summary{Range: r, Currency: format.CurrencyCode}
	sum.Statistics.RegisteredPatients = registered

	seen := make(map[string]bool)
	services := newTally()
	diseases := newTally()
	for _, e := range exams {
		if e.Status == examination.StatusCancelled {
			continue
		}
		sum.Statistics.TotalExaminations++
		sum.Statistics.TotalRevenue += e.TotalCost
		if !seen[e.PatientID] {
			seen[e.PatientID] = true
			sum.Statistics.TotalPatients++
		}
		services.add(e.Services)
		diseases.add(e.Diseases)
	}

	cats := make(map[string]*CategoryExpense)
	for _, x := range expenses {
		sum.Statistics.TotalExpenses += x.Amount
		c, ok := cats[x.Category]
		if !ok {
			c = &CategoryExpense{Category: x.Category}
			cats[x.Category] = c
		}
		c.Count++
		c.Amount += x.Amount
	}
	sum.Statistics.Profit = sum.Statistics.TotalRevenue - sum.Statistics.TotalExpenses

	sum.RevenueByService = services.sorted()
	sum.RevenueByDisease = diseases.sorted()
	sum.ExpensesByCat = make([]CategoryExpense, 0, len(cats))
	for _, c := range cats {
		sum.ExpensesByCat = append(sum.ExpensesByCat, *c)
	}
	sort.Slice(sum.ExpensesByCat, func(i, j int) bool {
		a, b := sum.ExpensesByCat[i], sum.ExpensesByCat[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Category < b.Category
	})

	s.logger.Debug().
		Str("start", r.Start).
		Str("end", r.End).
		Int("examinations", sum.Statistics.TotalExaminations).
		Int64("revenue", sum.Statistics.TotalRevenue).
		Msg("report computed")
	return sum, nil
}

// tally groups line items. Custom items are per-draft, so they are grouped
// by name instead of id.
type tally struct {
	byKey map[string]*ItemRevenue
}

func newTally() *tally {
	return &tally{byKey: make(map[string]*ItemRevenue)}
}

func (t *tally) add(lines []examination.LineItem) {
	for _, l := range lines {
		key := "id:" + l.ItemID
		if l.IsCustom {
			key = "custom:" + l.Name
		}
		r, ok := t.byKey[key]
		if !ok {
			r = &ItemRevenue{ItemID: l.ItemID, Name: l.Name, IsCustom: l.IsCustom}
			if l.IsCustom {
				r.ItemID = ""
			}
			t.byKey[key] = r
		}
		r.Count += l.Quantity
		r.Revenue += l.Subtotal
	}
}

func (t *tally) sorted() []ItemRevenue {
	out := make([]ItemRevenue, 0, len(t.byKey))
	for _, r := range t.byKey {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	return out
}
