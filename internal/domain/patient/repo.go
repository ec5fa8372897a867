package patient

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (*Patient, error)
	// Search returns patients matching query (see Patient.Match), newest
	// first. A blank query lists everyone.
	Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error)
	// Count returns the number of stored patients.
	Count(ctx context.Context) (int, error)
	// Save inserts the patient when its ID is empty and updates it
	// otherwise.
	Save(ctx context.Context, p *Patient) error
}
