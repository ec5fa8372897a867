package examination

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentaldesk/clinic/internal/domain/catalog"
	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/format"
)

// CustomIDPrefix marks ids generated for items created inside a draft.
// Predefined catalog ids are plain integers, so the two never collide.
const CustomIDPrefix = "custom-"

// Selection is the priced selection of one catalog kind within a draft:
// the immutable predefined catalog, the custom items created alongside it,
// and the ids currently chosen. The total is never stored; every read
// recomputes it from the selected ids. A Selection is not safe for
// concurrent use; DraftService serializes access per draft.
type Selection struct {
	kind       catalog.Kind
	predefined []catalog.Item
	index      map[string]int // predefined id -> position
	custom     []catalog.Item
	selected   []string
	logger     zerolog.Logger
	newID      func() string
	now        func() time.Time
}

// NewSelection copies predefined so later catalog edits do not leak into an
// open draft.
func NewSelection(kind catalog.Kind, predefined []catalog.Item, logger zerolog.Logger) *Selection {
	s := &Selection{
		kind:       kind,
		predefined: make([]catalog.Item, len(predefined)),
		index:      make(map[string]int, len(predefined)),
		logger:     logger.With().Str("component", "selection").Str("kind", string(kind)).Logger(),
		newID:      func() string { return CustomIDPrefix + uuid.NewString() },
		now:        time.Now,
	}
	copy(s.predefined, predefined)
	for i := range s.predefined {
		s.predefined[i].IsCustom = false
		s.index[s.predefined[i].ID] = i
	}
	return s
}

func (s *Selection) Kind() catalog.Kind { return s.kind }

func (s *Selection) resolve(id string) (catalog.Item, bool) {
	if i, ok := s.index[id]; ok {
		return s.predefined[i], true
	}
	if i := s.customIndex(id); i >= 0 {
		return s.custom[i], true
	}
	return catalog.Item{}, false
}

func (s *Selection) customIndex(id string) int {
	for i := range s.custom {
		if s.custom[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Selection) selectedIndex(id string) int {
	for i, sel := range s.selected {
		if sel == id {
			return i
		}
	}
	return -1
}

// IsSelected reports whether id is currently chosen.
func (s *Selection) IsSelected(id string) bool {
	return s.selectedIndex(id) >= 0
}

// Toggle removes id from the selection when present and adds it otherwise.
// Adding an id that names no known item fails with ErrInvalidReference.
func (s *Selection) Toggle(id string) (int64, error) {
	if i := s.selectedIndex(id); i >= 0 {
		s.selected = append(s.selected[:i], s.selected[i+1:]...)
		return s.Total(), nil
	}
	if _, ok := s.resolve(id); !ok {
		return s.Total(), fmt.Errorf("%s %q: %w", s.kind, id, apperr.ErrInvalidReference)
	}
	s.selected = append(s.selected, id)
	return s.Total(), nil
}

// RemoveSelection deselects id. Removing an id that is not selected is a
// no-op.
func (s *Selection) RemoveSelection(id string) int64 {
	if i := s.selectedIndex(id); i >= 0 {
		s.selected = append(s.selected[:i], s.selected[i+1:]...)
	}
	return s.Total()
}

func validateCustom(name string, price int64) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid("name", "name is required")
	}
	if err := format.CheckAmount(price); err != nil {
		return "", apperr.Invalid("price", priceMessage(err))
	}
	return name, nil
}

func priceMessage(err error) string {
	if errors.Is(err, format.ErrTooLarge) {
		return "price must not exceed " + format.Currency(format.MaxAmount)
	}
	return "price must be a positive amount"
}

// CreateCustomItem adds a draft-owned item and selects it.
func (s *Selection) CreateCustomItem(name string, price int64) (catalog.Item, int64, error) {
	name, err := validateCustom(name, price)
	if err != nil {
		return catalog.Item{}, s.Total(), err
	}

	id := s.newID()
	for {
		if _, taken := s.resolve(id); !taken {
			break
		}
		id = s.newID()
	}

	it := catalog.Item{
		ID:        id,
		Kind:      s.kind,
		Name:      name,
		Price:     price,
		IsActive:  true,
		IsCustom:  true,
		CreatedAt: s.now().UTC(),
	}
	s.custom = append(s.custom, it)
	s.selected = append(s.selected, id)
	return it, s.Total(), nil
}

// UpdateCustomItem renames and reprices a custom item in place. Predefined
// items cannot be edited.
func (s *Selection) UpdateCustomItem(id, name string, price int64) (catalog.Item, int64, error) {
	if _, ok := s.index[id]; ok {
		return catalog.Item{}, s.Total(), fmt.Errorf("%s %q is predefined: %w", s.kind, id, apperr.ErrInvalidOperation)
	}
	i := s.customIndex(id)
	if i < 0 {
		return catalog.Item{}, s.Total(), fmt.Errorf("custom %s %q: %w", s.kind, id, apperr.ErrNotFound)
	}
	name, err := validateCustom(name, price)
	if err != nil {
		return catalog.Item{}, s.Total(), err
	}

	s.custom[i].Name = name
	s.custom[i].Price = price
	return s.custom[i], s.Total(), nil
}

// Total sums the prices of the selected ids. An id that no longer resolves
// counts as zero and is logged.
func (s *Selection) Total() int64 {
	var total int64
	for _, id := range s.selected {
		it, ok := s.resolve(id)
		if !ok {
			s.logger.Warn().Str("item_id", id).Msg("selected item does not resolve, counting it as 0")
			continue
		}
		total += it.Price
	}
	return total
}

// Selected returns the resolved line items in selection order.
func (s *Selection) Selected() []LineItem {
	out := make([]LineItem, 0, len(s.selected))
	for _, id := range s.selected {
		it, ok := s.resolve(id)
		if !ok {
			continue
		}
		out = append(out, newLineItem(it))
	}
	return out
}

// CustomItems returns copies of the custom items in creation order.
func (s *Selection) CustomItems() []catalog.Item {
	out := make([]catalog.Item, len(s.custom))
	copy(out, s.custom)
	return out
}

// Items returns the predefined catalog followed by the custom items.
func (s *Selection) Items() []catalog.Item {
	out := make([]catalog.Item, 0, len(s.predefined)+len(s.custom))
	out = append(out, s.predefined...)
	return append(out, s.custom...)
}
