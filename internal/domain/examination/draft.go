package examination

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dentaldesk/clinic/internal/domain/catalog"
	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/format"
)

// Draft is an examination being assembled. It lives only in memory and is
// discarded on save or cancel.
type Draft struct {
	ID           string
	PatientID    string
	Date         string
	DentistID    string
	DentistName  string
	MedicalNotes string
	Services     *Selection
	Diseases     *Selection
	CreatedAt    time.Time
}

// GrandTotal is the services total plus the diseases total, recomputed on
// every call.
func (d *Draft) GrandTotal() int64 {
	return d.Services.Total() + d.Diseases.Total()
}

// Selection returns the selection for kind.
func (d *Draft) Selection(kind catalog.Kind) (*Selection, error) {
	switch kind {
	case catalog.KindService:
		return d.Services, nil
	case catalog.KindDisease:
		return d.Diseases, nil
	}
	return nil, apperr.Invalid("kind", fmt.Sprintf("unknown catalog kind %q", kind))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Finalize checks the draft can be saved and builds the examination record
// from the currently selected items.
func (d *Draft) Finalize(now time.Time) (*Examination, error) {
	if strings.TrimSpace(d.PatientID) == "" {
		return nil, apperr.Invalid("patient_id", "select a patient")
	}
	if _, err := format.ParseISODate(d.Date); err != nil {
		return nil, apperr.Invalid("date", "date must be yyyy-mm-dd")
	}
	services := d.Services.Selected()
	diseases := d.Diseases.Selected()
	if len(services) == 0 && len(diseases) == 0 {
		return nil, apperr.Invalid("items", "select at least one service or disease")
	}

	exam := &Examination{
		ID:           uuid.NewString(),
		PatientID:    d.PatientID,
		Date:         d.Date,
		Services:     services,
		Diseases:     diseases,
		MedicalNotes: optional(d.MedicalNotes),
		Status:       StatusCompleted,
		DentistID:    optional(d.DentistID),
		DentistName:  optional(d.DentistName),
		CreatedAt:    now.UTC(),
	}
	exam.TotalCost = exam.LineTotal()
	return exam, nil
}

// DraftView is the JSON shape of a draft.
type DraftView struct {
	ID           string        `json:"id"`
	PatientID    string        `json:"patient_id"`
	Date         string        `json:"date"`
	DentistName  string        `json:"dentist_name,omitempty"`
	MedicalNotes string        `json:"medical_notes"`
	Services     SelectionView `json:"services"`
	Diseases     SelectionView `json:"diseases"`
	GrandTotal   int64         `json:"grand_total"`
	CreatedAt    time.Time     `json:"created_at"`
}

// SelectionView lists every offerable item with its selected flag.
type SelectionView struct {
	Items       []ItemView     `json:"items"`
	Selected    []LineItem     `json:"selected"`
	CustomItems []catalog.Item `json:"custom_items"`
	Total       int64          `json:"total"`
}

type ItemView struct {
	catalog.Item
	Selected bool `json:"selected"`
}

func (s *Selection) View() SelectionView {
	items := s.Items()
	views := make([]ItemView, len(items))
	for i, it := range items {
		views[i] = ItemView{Item: it, Selected: s.IsSelected(it.ID)}
	}
	return SelectionView{
		Items:       views,
		Selected:    s.Selected(),
		CustomItems: s.CustomItems(),
		Total:       s.Total(),
	}
}

func (d *Draft) View() DraftView {
	return DraftView{
		ID:           d.ID,
		PatientID:    d.PatientID,
		Date:         d.Date,
		DentistName:  d.DentistName,
		MedicalNotes: d.MedicalNotes,
		Services:     d.Services.View(),
		Diseases:     d.Diseases.View(),
		GrandTotal:   d.GrandTotal(),
		CreatedAt:    d.CreatedAt,
	}
}
