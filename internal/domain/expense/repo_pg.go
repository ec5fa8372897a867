package expense

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/db"
)

type expenseRepoPG struct{ pool *pgxpool.Pool }

func NewExpenseRepoPG(pool *pgxpool.Pool) Repository {
	return &expenseRepoPG{pool: pool}
}

const expenseCols = `id, description, amount, category, to_char(expense_date, 'YYYY-MM-DD'), created_at`

func (r *expenseRepoPG) scanRow(row pgx.Row) (*Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &e.Date, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return &e, err
}

func (r *expenseRepoPG) GetByID(ctx context.Context, id string) (*Expense, error) {
	e, err := r.scanRow(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+expenseCols+` FROM expense WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.Storage("get expense "+id, err)
	}
	return e, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *expenseRepoPG) Search(ctx context.Context, query string, limit, offset int) (*Page, error) {
	q := db.Conn(ctx, r.pool)
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(query)) + "%"
	const where = `WHERE description ILIKE $1 OR category ILIKE $1`

	page := &Page{}
	err := q.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM expense `+where, pattern).
		Scan(&page.Total, &page.TotalAmount)
	if err != nil {
		return nil, apperr.Storage("sum expenses", err)
	}

	rows, err := q.Query(ctx, `SELECT `+expenseCols+` FROM expense `+where+`
		ORDER BY expense_date DESC, created_at DESC, id LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, apperr.Storage("search expenses", err)
	}
	page.Expenses, err = r.collect(rows)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *expenseRepoPG) ListBetween(ctx context.Context, start, end string) ([]*Expense, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+expenseCols+` FROM expense
		WHERE expense_date BETWEEN $1::text::date AND $2::text::date
		ORDER BY expense_date DESC, created_at DESC`, start, end)
	if err != nil {
		return nil, apperr.Storage("list expenses", err)
	}
	return r.collect(rows)
}

func (r *expenseRepoPG) collect(rows pgx.Rows) ([]*Expense, error) {
	defer rows.Close()
	var out []*Expense
	for rows.Next() {
		e, err := r.scanRow(rows)
		if err != nil {
			return nil, apperr.Storage("scan expense", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list expenses", err)
	}
	return out, nil
}

func (r *expenseRepoPG) Save(ctx context.Context, e *Expense) error {
	id := uuid.NewString()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO expense (id, description, amount, category, expense_date)
		VALUES ($1, $2, $3, $4, $5::text::date)
		RETURNING created_at`,
		id, e.Description, e.Amount, e.Category, e.Date,
	).Scan(&e.CreatedAt)
	if err != nil {
		return apperr.Storage("insert expense", err)
	}
	e.ID = id
	return nil
}

// Upsert writes an expense with a fixed id; used by the seed command.
func Upsert(ctx context.Context, pool *pgxpool.Pool, e *Expense) error {
	_, err := db.Conn(ctx, pool).Exec(ctx, `
		INSERT INTO expense (id, description, amount, category, expense_date, created_at)
		VALUES ($1, $2, $3, $4, $5::text::date, $6)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Description, e.Amount, e.Category, e.Date, e.CreatedAt)
	return err
}
