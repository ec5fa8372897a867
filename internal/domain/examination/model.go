package examination

import (
	"time"

	"github.com/dentaldesk/clinic/internal/domain/catalog"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// LineItem is one priced service or disease on an examination. Prices are
// in đồng.
type LineItem struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	IsCustom bool   `json:"is_custom"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
	Subtotal int64  `json:"subtotal"`
}

func newLineItem(it catalog.Item) LineItem {
	return LineItem{
		ItemID:   it.ID,
		Name:     it.Name,
		IsCustom: it.IsCustom,
		Quantity: 1,
		Price:    it.Price,
		Subtotal: it.Price,
	}
}

// Examination is a saved visit. Date is the Vietnam calendar day, yyyy-mm-dd.
type Examination struct {
	ID           string     `db:"id" json:"id"`
	PatientID    string     `db:"patient_id" json:"patient_id"`
	Date         string     `db:"exam_date" json:"date"`
	Services     []LineItem `db:"-" json:"services"`
	Diseases     []LineItem `db:"-" json:"diseases"`
	MedicalNotes *string    `db:"medical_notes" json:"medical_notes,omitempty"`
	TotalCost    int64      `db:"total_cost" json:"total_cost"`
	Status       Status     `db:"status" json:"status"`
	DentistID    *string    `db:"dentist_id" json:"dentist_id,omitempty"`
	DentistName  *string    `db:"dentist_name" json:"dentist_name,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// LineTotal sums the subtotals of all line items.
func (e *Examination) LineTotal() int64 {
	var total int64
	for _, l := range e.Services {
		total += l.Subtotal
	}
	for _, l := range e.Diseases {
		total += l.Subtotal
	}
	return total
}
