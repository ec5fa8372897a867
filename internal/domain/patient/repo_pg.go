package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/db"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, name, phone, email, address, to_char(date_of_birth, 'YYYY-MM-DD'), gender, notes, created_at`

func (r *patientRepoPG) scanRow(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.Address, &p.DateOfBirth, &p.Gender, &p.Notes, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return &p, err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id string) (*Patient, error) {
	p, err := r.scanRow(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.Storage("get patient "+id, err)
	}
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchFilter renders Patient.Match as a WHERE clause.
func searchFilter(query string) (string, []interface{}) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}
	pattern := "%" + likeEscaper.Replace(query) + "%"
	switch {
	case isDigits(query) && len(query) <= 3:
		return `WHERE name ILIKE $1 OR RIGHT(phone, 3) LIKE $1`, []interface{}{pattern}
	case isDigits(query):
		return `WHERE name ILIKE $1 OR phone LIKE $1`, []interface{}{pattern}
	}
	return `WHERE name ILIKE $1 OR email ILIKE $1`, []interface{}{pattern}
}

func (r *patientRepoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	q := db.Conn(ctx, r.pool)
	where, args := searchFilter(query)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM patient `+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Storage("count patients", err)
	}

	n := len(args)
	sql := fmt.Sprintf(`SELECT %s FROM patient %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		patientCols, where, n+1, n+2)
	rows, err := q.Query(ctx, sql, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, apperr.Storage("search patients", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, apperr.Storage("scan patient", err)
		}
		patients = append(patients, p)
	}
	return patients, total, apperr.Storage("search patients", rows.Err())
}

func (r *patientRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&n)
	return n, apperr.Storage("count patients", err)
}

func (r *patientRepoPG) Save(ctx context.Context, p *Patient) error {
	q := db.Conn(ctx, r.pool)
	if p.ID == "" {
		p.ID = uuid.NewString()
		err := q.QueryRow(ctx, `
			INSERT INTO patient (id, name, phone, email, address, date_of_birth, gender, notes)
			VALUES ($1, $2, $3, $4, $5, $6::text::date, $7, $8)
			RETURNING created_at`,
			p.ID, p.Name, p.Phone, p.Email, p.Address, p.DateOfBirth, p.Gender, p.Notes,
		).Scan(&p.CreatedAt)
		if err != nil {
			p.ID = ""
		}
		return apperr.Storage("insert patient", err)
	}

	err := q.QueryRow(ctx, `
		UPDATE patient SET name=$2, phone=$3, email=$4, address=$5, date_of_birth=$6::text::date,
			gender=$7, notes=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at`,
		p.ID, p.Name, p.Phone, p.Email, p.Address, p.DateOfBirth, p.Gender, p.Notes,
	).Scan(&p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("patient %s: %w", p.ID, apperr.ErrNotFound)
	}
	return apperr.Storage("update patient", err)
}

// Upsert writes a patient with a fixed id; used by the seed command.
func Upsert(ctx context.Context, pool *pgxpool.Pool, p *Patient) error {
	_, err := db.Conn(ctx, pool).Exec(ctx, `
		INSERT INTO patient (id, name, phone, email, address, date_of_birth, gender, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::text::date, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, p.Phone, p.Email, p.Address, p.DateOfBirth, p.Gender, p.Notes, p.CreatedAt)
	return err
}
