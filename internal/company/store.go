package company

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Store is the durable collaborator behind the Service.
type Store interface {
	FindAll(ctx context.Context, filters Filters) ([]Company, error)
	FindByID(ctx context.Context, id string) (Company, error)
	Create(ctx context.Context, c Company) (Company, error)
	// Update runs mutate against the current attributes and persists the
	// result atomically. It fails with ErrNotFound for unknown ids.
	Update(ctx context.Context, id string, mutate func(Attributes) (Attributes, error)) (Company, error)
	// Delete is idempotent: deleting an unknown id succeeds.
	Delete(ctx context.Context, id string) error
	// ReplaceAll deletes every record and inserts companies.
	ReplaceAll(ctx context.Context, companies []Company) (int, error)
}

// Match reports whether c satisfies both filter clauses. The search clause
// matches name OR description by case-folded substring; the industry clause
// matches the plain string OR the structured primary exactly.
func (f Filters) Match(c Company) bool {
	return f.matchSearch(c) && f.matchIndustry(c)
}

func (f Filters) matchSearch(c Company) bool {
	needle := strings.TrimSpace(f.Search)
	if needle == "" {
		return true
	}
	folder := cases.Fold()
	needle = folder.String(needle)
	if strings.Contains(folder.String(c.Name), needle) {
		return true
	}
	return c.Description != "" && strings.Contains(folder.String(c.Description), needle)
}

func (f Filters) matchIndustry(c Company) bool {
	industry := strings.TrimSpace(f.Industry)
	if industry == "" {
		return true
	}
	if c.Industry.IsZero() {
		return false
	}
	return c.IndustryKey() == industry
}

// SortByName orders companies by name (byte-wise, so case-sensitive) and
// breaks ties by id. PGStore uses the same order via COLLATE "C".
func SortByName(companies []Company) {
	sort.SliceStable(companies, func(i, j int) bool {
		if companies[i].Name != companies[j].Name {
			return companies[i].Name < companies[j].Name
		}
		return companies[i].ID < companies[j].ID
	})
}

// MemoryStore keeps records in process. It backs STORE_DRIVER=memory and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Company
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Company)}
}

func (s *MemoryStore) FindAll(ctx context.Context, filters Filters) ([]Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]Company, 0, len(s.records))
	for _, c := range s.records {
		if filters.Match(c) {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()
	SortByName(out)
	return out, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.records[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) Create(ctx context.Context, c Company) (Company, error) {
	if c.ID == "" {
		return Company{}, errors.New("company: create: id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[c.ID]; exists {
		return Company{}, fmt.Errorf("company: create %s: %w", c.ID, ErrPersistence)
	}
	s.records[c.ID] = c
	return c, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, mutate func(Attributes) (Attributes, error)) (Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	next, err := mutate(current.Attributes)
	if err != nil {
		return Company{}, err
	}
	updated := Company{ID: id, Attributes: next}
	s.records[id] = updated
	return updated, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ReplaceAll(ctx context.Context, companies []Company) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Company, len(companies))
	for _, c := range companies {
		s.records[c.ID] = c
	}
	return len(companies), nil
}
