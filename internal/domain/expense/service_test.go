package expense

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/format"
)

// fixedNow is 2024-03-10 20:00 UTC, already 2024-03-11 in Vietnam.
var fixedNow = time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)

func newTestService() *Service {
	svc := NewService(NewExpenseRepoMemory(Seed(fixedNow)...))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestExpense_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		e     Expense
		field string
	}{
		{"ok", Expense{Description: " Thuê phòng ", Amount: 1, Category: "Thuê mặt bằng"}, ""},
		{"blank description", Expense{Description: " ", Amount: 1, Category: "Khác"}, "description"},
		{"zero amount", Expense{Description: "X", Category: "Khác"}, "amount"},
		{"negative amount", Expense{Description: "X", Amount: -1, Category: "Khác"}, "amount"},
		{"amount above maximum", Expense{Description: "X", Amount: format.MaxAmount + 1, Category: "Khác"}, "amount"},
		{"missing category", Expense{Description: "X", Amount: 1}, "category"},
		{"unknown category", Expense{Description: "X", Amount: 1, Category: "Du lịch"}, "category"},
		{"bad date", Expense{Description: "X", Amount: 1, Category: "Khác", Date: "11-03-2024"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Normalize(fixedNow)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tt.e.Date != "2024-03-11" {
					t.Errorf("expected blank date to become today, got %s", tt.e.Date)
				}
				return
			}
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, ve.Field)
			}
		})
	}
}

func TestService_Search(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	page, err := svc.Search(ctx, "", 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 3 || len(page.Expenses) != 2 {
		t.Errorf("expected 2 of 3 expenses, got %d of %d", len(page.Expenses), page.Total)
	}
	if page.TotalAmount != 22000000 {
		t.Errorf("expected total amount over every match 22000000, got %d", page.TotalAmount)
	}

	page, _ = svc.Search(ctx, "TIỆN", 10, 0)
	if page.Total != 1 || page.TotalAmount != 2000000 {
		t.Errorf("expected the electricity bill, got %d totalling %d", page.Total, page.TotalAmount)
	}
}

func TestService_CreateAndListBetween(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	e := &Expense{Description: "Quảng cáo Facebook", Amount: 3000000, Category: "Marketing", Date: "2024-02-20"}
	if err := svc.Create(ctx, e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("expected id and timestamp, got %+v", e)
	}

	got, err := svc.Get(ctx, e.ID)
	if err != nil || got.Amount != 3000000 {
		t.Fatalf("expected stored expense, got %+v (%v)", got, err)
	}

	feb, _ := svc.ListBetween(ctx, "2024-02-01", "2024-02-29")
	if len(feb) != 1 || feb[0].ID != e.ID {
		t.Errorf("expected only the February expense, got %d", len(feb))
	}
	march, _ := svc.ListBetween(ctx, "2024-03-11", "2024-03-11")
	if len(march) != 3 {
		t.Errorf("expected the 3 seeded expenses today, got %d", len(march))
	}
}

func TestService_CreateInvalid(t *testing.T) {
	svc := newTestService()
	if err := svc.Create(context.Background(), &Expense{Description: "X", Amount: 10, Category: "?"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
