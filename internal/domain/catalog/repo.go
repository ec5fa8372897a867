package catalog

import "context"

type Repository interface {
	GetByID(ctx context.Context, kind Kind, id string) (*Item, error)
	List(ctx context.Context, kind Kind, limit, offset int) ([]*Item, int, error)
	// Save inserts the item when its ID is empty (assigning the next
	// numeric id for the kind) and updates it otherwise.
	Save(ctx context.Context, item *Item) error
}
