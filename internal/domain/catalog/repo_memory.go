package catalog

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/pkg/pagination"
)

type memoryKey struct {
	kind Kind
	id   string
}

type catalogRepoMemory struct {
	mu    sync.RWMutex
	items map[memoryKey]*Item
	next  map[Kind]int
}

// NewCatalogRepoMemory returns an in-memory repository holding copies of seed.
func NewCatalogRepoMemory(seed ...Item) Repository {
	r := &catalogRepoMemory{
		items: make(map[memoryKey]*Item),
		next:  map[Kind]int{KindService: 1, KindDisease: 1},
	}
	now := time.Now().UTC()
	for _, it := range seed {
		cp := it
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = now
		}
		r.items[memoryKey{cp.Kind, cp.ID}] = &cp
		if n, err := strconv.Atoi(cp.ID); err == nil && n >= r.next[cp.Kind] {
			r.next[cp.Kind] = n + 1
		}
	}
	return r
}

func (r *catalogRepoMemory) GetByID(_ context.Context, kind Kind, id string) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[memoryKey{kind, id}]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}
	cp := *it
	return &cp, nil
}

func (r *catalogRepoMemory) List(_ context.Context, kind Kind, limit, offset int) ([]*Item, int, error) {
	r.mu.RLock()
	var all []*Item
	for k, it := range r.items {
		if k.kind == kind {
			cp := *it
			all = append(all, &cp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return lessID(all[i].ID, all[j].ID) })

	return pagination.Page(all, limit, offset), len(all), nil
}

func (r *catalogRepoMemory) Save(_ context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = strconv.Itoa(r.next[item.Kind])
		r.next[item.Kind]++
		item.CreatedAt = time.Now().UTC()
	} else {
		existing, ok := r.items[memoryKey{item.Kind, item.ID}]
		if !ok {
			return fmt.Errorf("%s %s: %w", item.Kind, item.ID, apperr.ErrNotFound)
		}
		item.CreatedAt = existing.CreatedAt
	}
	cp := *item
	r.items[memoryKey{item.Kind, item.ID}] = &cp
	return nil
}

// lessID orders numeric ids numerically and everything else lexically.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	if errA == nil {
		return true
	}
	if errB == nil {
		return false
	}
	return a < b
}
