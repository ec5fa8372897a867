package examination

import (
	"time"

	"github.com/dentaldesk/clinic/internal/platform/format"
)

func line(id, name string, price int64) LineItem {
	return LineItem{ItemID: id, Name: name, Quantity: 1, Price: price, Subtotal: price}
}

func strPtr(s string) *string { return &s }

// Seed returns the sample examinations shown before real data exists,
// dated relative to now.
func Seed(now time.Time) []*Examination {
	day := func(ago int) string { return format.ISODate(now.AddDate(0, 0, -ago)) }

	exams := []*Examination{
		{
			ID: "1", PatientID: "1", Date: day(7), Status: StatusCompleted,
			DentistName: strPtr("BS. Nguyễn Thị C"),
			Services:    []LineItem{line("1", "Khám răng tổng quát", 200000), line("2", "Lấy cao răng", 300000)},
			Diseases:    []LineItem{line("1", "Sâu răng", 300000)},
		},
		{
			ID: "2", PatientID: "2", Date: day(5), Status: StatusPending,
			DentistName: strPtr("BS. Lê Văn D"),
			Services:    []LineItem{line("2", "Lấy cao răng", 300000)},
			Diseases:    []LineItem{line("2", "Viêm nướu", 250000)},
		},
		{
			ID: "3", PatientID: "1", Date: day(30), Status: StatusCompleted,
			DentistName: strPtr("BS. Lê Văn D"),
			Services:    []LineItem{line("1", "Khám răng tổng quát", 200000), line("2", "Lấy cao răng", 300000)},
			Diseases:    []LineItem{line("2", "Viêm nướu", 250000)},
		},
		{
			ID: "4", PatientID: "3", Date: day(2), Status: StatusCompleted,
			DentistName: strPtr("BS. Nguyễn Thị C"),
			Services:    []LineItem{line("4", "Nhổ răng", 400000)},
			Diseases:    []LineItem{line("4", "Viêm tủy răng", 800000)},
		},
		{
			ID: "5", PatientID: "3", Date: day(0), Status: StatusPending,
			DentistName: strPtr("BS. Lê Văn D"),
			Services:    []LineItem{line("1", "Khám răng tổng quát", 200000), line("4", "Nhổ răng", 400000)},
		},
	}
	for _, e := range exams {
		e.TotalCost = e.LineTotal()
		e.CreatedAt = now.UTC()
	}
	return exams
}
