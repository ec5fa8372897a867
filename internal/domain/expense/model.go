package expense

import (
	"errors"
	"strings"
	"time"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/format"
)

// Categories are the expense categories offered by the clinic, in display
// order.
var Categories = []string{"Vật tư", "Tiện ích", "Nhân sự", "Thuê mặt bằng", "Marketing", "Khác"}

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is money paid out by the clinic. Amount is in đồng; Date is the
// Vietnam calendar day, yyyy-mm-dd.
type Expense struct {
	ID          string    `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	Amount      int64     `db:"amount" json:"amount"`
	Category    string    `db:"category" json:"category"`
	Date        string    `db:"expense_date" json:"date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Normalize trims the input, fills a blank date with today and validates.
func (e *Expense) Normalize(now time.Time) error {
	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" {
		return apperr.Invalid("description", "description is required")
	}
	switch err := format.CheckAmount(e.Amount); {
	case errors.Is(err, format.ErrTooLarge):
		return apperr.Invalid("amount", "amount must not exceed "+format.Currency(format.MaxAmount))
	case err != nil:
		return apperr.Invalid("amount", "amount must be a positive number")
	}
	e.Category = strings.TrimSpace(e.Category)
	if e.Category == "" {
		return apperr.Invalid("category", "category is required")
	}
	if !validCategory(e.Category) {
		return apperr.Invalid("category", "unknown category")
	}
	e.Date = strings.TrimSpace(e.Date)
	if e.Date == "" {
		e.Date = format.Today(now)
		return nil
	}
	if _, err := format.ParseISODate(e.Date); err != nil {
		return apperr.Invalid("date", "date must be yyyy-mm-dd")
	}
	return nil
}

// Match reports whether the description or category contains query,
// ignoring case.
func (e *Expense) Match(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Description), query) ||
		strings.Contains(strings.ToLower(e.Category), query)
}

// Page is one page of a search plus the totals over every match.
type Page struct {
	Expenses    []*Expense
	Total       int
	TotalAmount int64
}
