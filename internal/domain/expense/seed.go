package expense

import (
	"time"

	"github.com/dentaldesk/clinic/internal/platform/format"
)

// Seed returns the sample expenses shown before real data exists, all dated
// today.
func Seed(now time.Time) []*Expense {
	today := format.Today(now)
	return []*Expense{
		{ID: "1", Description: "Mua vật tư y tế", Amount: 5000000, Category: "Vật tư", Date: today, CreatedAt: now.UTC()},
		{ID: "2", Description: "Tiền điện tháng 12", Amount: 2000000, Category: "Tiện ích", Date: today, CreatedAt: now.UTC()},
		{ID: "3", Description: "Lương nhân viên", Amount: 15000000, Category: "Nhân sự", Date: today, CreatedAt: now.UTC()},
	}
}
