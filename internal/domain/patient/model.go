package patient

import (
	"strings"
	"time"
	"unicode"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/format"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Patient struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Phone       string    `db:"phone" json:"phone"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Address     *string   `db:"address" json:"address,omitempty"`
	DateOfBirth *string   `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *Gender   `db:"gender" json:"gender,omitempty"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Normalize trims the text fields, strips spaces from the phone number and
// validates the result.
func (p *Patient) Normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Invalid("name", "name is required")
	}

	p.Phone = stripSpaces(p.Phone)
	if p.Phone == "" {
		return apperr.Invalid("phone", "phone is required")
	}
	if !isDigits(p.Phone) || len(p.Phone) < 10 || len(p.Phone) > 11 {
		return apperr.Invalid("phone", "phone must be 10 or 11 digits")
	}

	p.Email = trimOptional(p.Email)
	if p.Email != nil && !strings.Contains(*p.Email, "@") {
		return apperr.Invalid("email", "email is not valid")
	}

	p.DateOfBirth = trimOptional(p.DateOfBirth)
	if p.DateOfBirth != nil {
		if _, err := format.ParseISODate(*p.DateOfBirth); err != nil {
			return apperr.Invalid("date_of_birth", "date of birth must be yyyy-mm-dd")
		}
	}

	if p.Gender != nil {
		switch *p.Gender {
		case GenderMale, GenderFemale, GenderOther:
		case "":
			p.Gender = nil
		default:
			return apperr.Invalid("gender", "gender must be male, female or other")
		}
	}

	p.Address = trimOptional(p.Address)
	p.Notes = trimOptional(p.Notes)
	return nil
}

// Match reports whether the patient satisfies a search query. A numeric
// query of up to three digits is compared against the last three phone
// digits only, a longer one against the whole number. Any query also
// matches a case-insensitive substring of the name; non-numeric queries
// match the email too.
func (p *Patient) Match(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	lower := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Name), lower) {
		return true
	}

	if isDigits(query) {
		if len(query) <= 3 {
			last3 := p.Phone
			if len(last3) > 3 {
				last3 = last3[len(last3)-3:]
			}
			return strings.Contains(last3, query)
		}
		return strings.Contains(p.Phone, query)
	}

	return p.Email != nil && strings.Contains(strings.ToLower(*p.Email), lower)
}
