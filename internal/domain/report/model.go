package report

import (
	"strings"
	"time"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/format"
)

type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

// maxCustomDays bounds a custom range so a typo cannot scan years of data.
const maxCustomDays = 366

// Range is an inclusive span of Vietnam calendar days, yyyy-mm-dd.
type Range struct {
	Period Period `json:"period"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// ResolveRange turns a period name into concrete dates. Week and month
// reach back 7 and 30 days from today; custom takes start and end as given.
// A blank period means today.
func ResolveRange(period, start, end string, now time.Time) (Range, error) {
	switch Period(strings.TrimSpace(period)) {
	case "", PeriodToday:
		today := format.Today(now)
		return Range{Period: PeriodToday, Start: today, End: today}, nil
	case PeriodWeek:
		s, e := format.DateRange(now, 7)
		return Range{Period: PeriodWeek, Start: s, End: e}, nil
	case PeriodMonth:
		s, e := format.DateRange(now, 30)
		return Range{Period: PeriodMonth, Start: s, End: e}, nil
	case PeriodCustom:
		from, err := format.ParseISODate(start)
		if err != nil {
			return Range{}, apperr.Invalid("start", "start must be yyyy-mm-dd")
		}
		to, err := format.ParseISODate(end)
		if err != nil {
			return Range{}, apperr.Invalid("end", "end must be yyyy-mm-dd")
		}
		if to.Before(from) {
			return Range{}, apperr.Invalid("end", "end must not be before start")
		}
		if to.Sub(from) > maxCustomDays*24*time.Hour {
			return Range{}, apperr.Invalid("end", "range must not exceed one year")
		}
		return Range{Period: PeriodCustom, Start: format.ISODate(from), End: format.ISODate(to)}, nil
	}
	return Range{}, apperr.Invalid("period", "period must be today, week, month or custom")
}

// Statistics are the headline numbers of a period. Money is in đồng.
type Statistics struct {
	TotalPatients      int   `json:"total_patients"`
	RegisteredPatients int   `json:"registered_patients"`
	TotalExaminations  int   `json:"total_examinations"`
	TotalRevenue       int64 `json:"total_revenue"`
	TotalExpenses      int64 `json:"total_expenses"`
	Profit             int64 `json:"profit"`
}

// ItemRevenue is how often one service or disease was billed in a period
// and what it brought in.
type ItemRevenue struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	IsCustom bool   `json:"is_custom"`
	Count    int    `json:"count"`
	Revenue  int64  `json:"revenue"`
}

// Summary is the full report for one range.
type Summary struct {
	Range            Range             `json:"range"`
	Statistics       Statistics        `json:"statistics"`
	RevenueByService []ItemRevenue     `json:"revenue_by_service"`
	RevenueByDisease []ItemRevenue     `json:"revenue_by_disease"`
	ExpensesByCat    []CategoryExpense `json:"expenses_by_category"`
	Currency         string            `json:"currency"`
}

type CategoryExpense struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Amount   int64  `json:"amount"`
}
