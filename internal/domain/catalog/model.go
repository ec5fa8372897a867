package catalog

import (
	"fmt"
	"time"
)

// Kind distinguishes the two priced catalogs offered during an examination.
type Kind string

const (
	KindService Kind = "service"
	KindDisease Kind = "disease"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindService, KindDisease:
		return Kind(s), nil
	case "services":
		return KindService, nil
	case "diseases", "disease-categories":
		return KindDisease, nil
	}
	return "", fmt.Errorf("unknown catalog kind %q", s)
}

// Item is a priced dental service or disease category. Price is in đồng.
type Item struct {
	ID          string    `db:"id" json:"id"`
	Kind        Kind      `db:"kind" json:"kind"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Price       int64     `db:"price" json:"price"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	IsCustom    bool      `db:"-" json:"is_custom"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
