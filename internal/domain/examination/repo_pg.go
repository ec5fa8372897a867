package examination

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentaldesk/clinic/internal/domain/catalog"
	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/db"
)

type examRepoPG struct{ pool *pgxpool.Pool }

func NewExamRepoPG(pool *pgxpool.Pool) Repository {
	return &examRepoPG{pool: pool}
}

const examCols = `id, patient_id, to_char(exam_date, 'YYYY-MM-DD'), medical_notes, total_cost, status, dentist_id, dentist_name, created_at`

func (r *examRepoPG) scanRow(row pgx.Row) (*Examination, error) {
	var e Examination
	err := row.Scan(&e.ID, &e.PatientID, &e.Date, &e.MedicalNotes, &e.TotalCost, &e.Status,
		&e.DentistID, &e.DentistName, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return &e, err
}

func (r *examRepoPG) GetByID(ctx context.Context, id string) (*Examination, error) {
	e, err := r.scanRow(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+examCols+` FROM examination WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.Storage("get examination "+id, err)
	}
	if err := r.loadLines(ctx, []*Examination{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *examRepoPG) List(ctx context.Context, limit, offset int) ([]*Examination, int, error) {
	return r.page(ctx, `FROM examination`, []interface{}{}, limit, offset)
}

func (r *examRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Examination, int, error) {
	return r.page(ctx, `FROM examination WHERE patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *examRepoPG) page(ctx context.Context, from string, args []interface{}, limit, offset int) ([]*Examination, int, error) {
	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) `+from, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Storage("count examinations", err)
	}
	n := len(args)
	query := fmt.Sprintf(`SELECT %s %s ORDER BY exam_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		examCols, from, n+1, n+2)
	exams, err := r.query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

func (r *examRepoPG) ListBetween(ctx context.Context, start, end string) ([]*Examination, error) {
	return r.query(ctx, `SELECT `+examCols+` FROM examination
		WHERE exam_date BETWEEN $1::text::date AND $2::text::date
		ORDER BY exam_date DESC, created_at DESC`, start, end)
}

func (r *examRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Examination, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Storage("list examinations", err)
	}
	var exams []*Examination
	for rows.Next() {
		e, err := r.scanRow(rows)
		if err != nil {
			rows.Close()
			return nil, apperr.Storage("scan examination", err)
		}
		exams = append(exams, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list examinations", err)
	}
	if err := r.loadLines(ctx, exams); err != nil {
		return nil, err
	}
	return exams, nil
}

func (r *examRepoPG) loadLines(ctx context.Context, exams []*Examination) error {
	if len(exams) == 0 {
		return nil
	}
	byID := make(map[string]*Examination, len(exams))
	ids := make([]string, len(exams))
	for i, e := range exams {
		byID[e.ID] = e
		ids[i] = e.ID
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT examination_id, kind, item_id, name, is_custom, quantity, price, subtotal
		FROM examination_line WHERE examination_id = ANY($1)
		ORDER BY examination_id, kind, position`, ids)
	if err != nil {
		return apperr.Storage("load examination lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			examID string
			kind   catalog.Kind
			l      LineItem
		)
		if err := rows.Scan(&examID, &kind, &l.ItemID, &l.Name, &l.IsCustom, &l.Quantity, &l.Price, &l.Subtotal); err != nil {
			return apperr.Storage("scan examination line", err)
		}
		e := byID[examID]
		if kind == catalog.KindDisease {
			e.Diseases = append(e.Diseases, l)
		} else {
			e.Services = append(e.Services, l)
		}
	}
	return apperr.Storage("load examination lines", rows.Err())
}

// Save writes the examination and its lines in one transaction.
func (r *examRepoPG) Save(ctx context.Context, exam *Examination) error {
	err := db.InTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)
		_, err := q.Exec(ctx, `
			INSERT INTO examination (id, patient_id, exam_date, medical_notes, total_cost, status, dentist_id, dentist_name, created_at)
			VALUES ($1, $2, $3::text::date, $4, $5, $6, $7, $8, $9)`,
			exam.ID, exam.PatientID, exam.Date, exam.MedicalNotes, exam.TotalCost, exam.Status,
			exam.DentistID, exam.DentistName, exam.CreatedAt)
		if err != nil {
			return apperr.Storage("insert examination", err)
		}

		batch := &pgx.Batch{}
		queue := func(kind catalog.Kind, lines []LineItem) {
			for i, l := range lines {
				batch.Queue(`
					INSERT INTO examination_line (examination_id, position, kind, item_id, name, is_custom, quantity, price, subtotal)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
					exam.ID, i, kind, l.ItemID, l.Name, l.IsCustom, l.Quantity, l.Price, l.Subtotal)
			}
		}
		queue(catalog.KindService, exam.Services)
		queue(catalog.KindDisease, exam.Diseases)

		tx := db.TxFromContext(ctx)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return apperr.Storage("insert examination lines", err)
		}
		return nil
	})
	return apperr.Storage("save examination", err)
}
