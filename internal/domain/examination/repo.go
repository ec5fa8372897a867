package examination

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (*Examination, error)
	// List returns examinations newest first.
	List(ctx context.Context, limit, offset int) ([]*Examination, int, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Examination, int, error)
	// ListBetween returns every examination dated within [start, end],
	// both yyyy-mm-dd and inclusive.
	ListBetween(ctx context.Context, start, end string) ([]*Examination, error)
	// Save stores a finalized examination together with its line items.
	Save(ctx context.Context, exam *Examination) error
}
