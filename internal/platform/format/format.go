// Package format renders money and dates the way the clinic front-end shows
// them: Vietnamese đồng with "." grouping and dd-mm-yyyy dates in UTC+7.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Vietnam is the clinic's fixed UTC+7 zone.
var Vietnam = time.FixedZone("ICT", 7*60*60)

const vndSymbol = "₫"

var (
	ErrEmptyAmount   = errors.New("amount is required")
	ErrInvalidAmount = errors.New("amount must be a whole number of đồng")
	ErrNonPositive   = errors.New("amount must be positive")
	ErrTooLarge      = errors.New("amount exceeds the largest accepted price")
)

// MaxAmount is the largest single price or expense accepted, one trillion
// đồng. Sums of bounded amounts stay far from the int64 limit.
const MaxAmount int64 = 1_000_000_000_000

// CheckAmount reports whether v is a usable price: positive and at most
// MaxAmount.
func CheckAmount(v int64) error {
	if v <= 0 {
		return ErrNonPositive
	}
	if v > MaxAmount {
		return ErrTooLarge
	}
	return nil
}

// CurrencyCode is the ISO 4217 code attached to every amount the API returns.
var CurrencyCode = currency.MustParseISO("VND").String()

// Formatter formats numbers for one locale.
type Formatter struct {
	p *message.Printer
}

// New returns a Formatter for the BCP 47 tag. Unknown tags fall back to vi-VN.
func New(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Vietnamese
	}
	return &Formatter{p: message.NewPrinter(tag)}
}

var vi = New("vi-VN")

// Number formats an amount with locale grouping and no symbol.
func (f *Formatter) Number(amount int64) string {
	return f.p.Sprint(number.Decimal(amount))
}

// Currency formats an amount of đồng followed by the ₫ symbol.
func (f *Formatter) Currency(amount int64) string {
	return f.Number(amount) + " " + vndSymbol
}

// Number formats using the default vi-VN formatter.
func Number(amount int64) string { return vi.Number(amount) }

// Currency formats using the default vi-VN formatter.
func Currency(amount int64) string { return vi.Currency(amount) }

// ParseAmount parses user-entered money such as "200000", "200.000",
// "1,800,000" or "2 000 000". Đồng has no minor unit, so anything that
// looks like a fractional part is rejected, as is a result outside
// (0, MaxAmount].
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), vndSymbol))
	if s == "" {
		return 0, ErrEmptyAmount
	}

	groups := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == ',' || r == ' ' })
	if len(groups) == 0 {
		return 0, ErrInvalidAmount
	}
	// Every group after the first must be a full thousands group; otherwise
	// the separator was a decimal point.
	if len(groups) > 1 {
		for i, g := range groups {
			if (i == 0 && len(g) > 3) || (i > 0 && len(g) != 3) {
				return 0, ErrInvalidAmount
			}
		}
	}

	v, err := strconv.ParseInt(strings.Join(groups, ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if err := CheckAmount(v); err != nil {
		return 0, err
	}
	return v, nil
}

// Date formats t as dd-mm-yyyy in Vietnam time.
func Date(t time.Time) string {
	return t.In(Vietnam).Format("02-01-2006")
}

// ISODate formats t as yyyy-mm-dd in Vietnam time.
func ISODate(t time.Time) string {
	return t.In(Vietnam).Format("2006-01-02")
}

// ParseISODate parses yyyy-mm-dd as midnight Vietnam time.
func ParseISODate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), Vietnam)
}

// Today returns the current Vietnam calendar date as yyyy-mm-dd.
func Today(now time.Time) string {
	return ISODate(now)
}

// DateRange returns the yyyy-mm-dd bounds covering the last days days,
// ending today in Vietnam time.
func DateRange(now time.Time, days int) (start, end string) {
	end = ISODate(now)
	start = ISODate(now.In(Vietnam).AddDate(0, 0, -days))
	return start, end
}
