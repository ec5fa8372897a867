package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
)

var fixedNow = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestService() *Service {
	return NewService(NewPatientRepoMemory(Seed(fixedNow)...))
}

func TestService_Search(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	all, total, err := svc.Search(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || all[0].ID != "3" || all[2].ID != "1" {
		t.Errorf("expected newest first, got total %d", total)
	}

	found, total, _ := svc.Search(ctx, "321", 10, 0)
	if total != 1 || found[0].Name != "Trần Thị B" {
		t.Errorf("expected Trần Thị B by last phone digits, got %d", total)
	}

	page, total, _ := svc.Search(ctx, "văn", 1, 1)
	if total != 2 || len(page) != 1 || page[0].ID != "1" {
		t.Errorf("expected second of two matches, got %d of %d", len(page), total)
	}
}

func TestService_CreateAndExists(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	p := &Patient{ID: "ignored", Name: "Phạm Thị D", Phone: "0933 444 555"}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" || p.ID == "ignored" {
		t.Errorf("expected a generated id, got %q", p.ID)
	}
	if p.Phone != "0933444555" || p.CreatedAt.IsZero() {
		t.Errorf("unexpected patient: %+v", p)
	}
	if err := svc.Exists(ctx, p.ID); err != nil {
		t.Errorf("expected new patient to exist: %v", err)
	}
	if n, _ := svc.Count(ctx); n != 4 {
		t.Errorf("expected 4 patients, got %d", n)
	}

	if err := svc.Exists(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_CreateInvalid(t *testing.T) {
	svc := newTestService()
	if err := svc.Create(context.Background(), &Patient{Name: "X", Phone: "12"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if n, _ := svc.Count(context.Background()); n != 3 {
		t.Errorf("invalid patient must not be stored, got %d", n)
	}
}

func TestService_Update(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	p, _ := svc.Get(ctx, "2")
	created := p.CreatedAt
	p.Notes = ptr("Tái khám sau 6 tháng")
	p.CreatedAt = time.Time{}
	if err := svc.Update(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again, _ := svc.Get(ctx, "2")
	if *again.Notes != "Tái khám sau 6 tháng" || !again.CreatedAt.Equal(created) {
		t.Errorf("unexpected patient after update: %+v", again)
	}

	missing := &Patient{ID: "missing", Name: "X", Phone: "0900000000"}
	if err := svc.Update(ctx, missing); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepoMemory_ReturnsCopies(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	p, _ := svc.Get(ctx, "1")
	p.Name = "changed"
	again, _ := svc.Get(ctx, "1")
	if again.Name != "Nguyễn Văn A" {
		t.Error("mutating a returned patient must not change the store")
	}
}

func TestSearchFilter(t *testing.T) {
	tests := []struct {
		query   string
		where   string
		pattern string
	}{
		{"", "", ""},
		{"567", `WHERE name ILIKE $1 OR RIGHT(phone, 3) LIKE $1`, "%567%"},
		{"0901", `WHERE name ILIKE $1 OR phone LIKE $1`, "%0901%"},
		{"50%_off", `WHERE name ILIKE $1 OR email ILIKE $1`, `%50\%\_off%`},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			where, args := searchFilter(tt.query)
			if where != tt.where {
				t.Errorf("where = %q, want %q", where, tt.where)
			}
			if tt.pattern == "" {
				if len(args) != 0 {
					t.Errorf("expected no args, got %v", args)
				}
				return
			}
			if len(args) != 1 || args[0] != tt.pattern {
				t.Errorf("args = %v, want [%s]", args, tt.pattern)
			}
		})
	}
}
