package expense

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (*Expense, error)
	// Search returns expenses matching query (see Expense.Match), newest
	// first.
	Search(ctx context.Context, query string, limit, offset int) (*Page, error)
	// ListBetween returns every expense dated within [start, end], both
	// yyyy-mm-dd and inclusive.
	ListBetween(ctx context.Context, start, end string) ([]*Expense, error)
	// Save inserts an expense with an empty ID.
	Save(ctx context.Context, e *Expense) error
}
