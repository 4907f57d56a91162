package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Cache tags invalidated by mutations.
const TagCompanies = "companies"

// TagCompany is the tag of a single record.
func TagCompany(id string) string { return "company:" + id }

// ReadCache memoises list and record reads under tag-scoped keys.
type ReadCache interface {
	Key(ctx context.Context, tag string, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

// Invalidator publishes invalidated tags.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

// ServiceConfig carries optional collaborators.
type ServiceConfig struct {
	Cache       ReadCache
	Invalidator Invalidator
	Logger      *slog.Logger
	// BulkConcurrency caps parallel deletes in BulkDelete. Defaults to 8.
	BulkConcurrency int
	// NewID provisions record ids. Defaults to random UUIDs.
	NewID func() string
}

// Service is the repository facade used by every presentation surface.
type Service struct {
	store  Store
	cache  ReadCache
	inval  Invalidator
	logger *slog.Logger
	bulk   int
	newID  func() string
}

// NewService wires a Service over store.
func NewService(store Store, cfg ServiceConfig) *Service {
	s := &Service{
		store:  store,
		cache:  cfg.Cache,
		inval:  cfg.Invalidator,
		logger: cfg.Logger,
		bulk:   cfg.BulkConcurrency,
		newID:  cfg.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.bulk <= 0 {
		s.bulk = 8
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// List returns companies matching filters, ordered by name then id.
func (s *Service) List(ctx context.Context, filters Filters) ([]Company, error) {
	filters = filters.Normalize()
	if s.cache == nil {
		return s.store.FindAll(ctx, filters)
	}
	key, err := s.cache.Key(ctx, TagCompanies, "list", filters.Search, filters.Industry)
	if err != nil {
		s.logger.Warn("company cache key", slog.Any("error", err))
		return s.store.FindAll(ctx, filters)
	}
	var companies []Company
	err = s.cache.FetchJSON(ctx, key, &companies, func(ctx context.Context) (any, error) {
		return s.store.FindAll(ctx, filters)
	})
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// Get returns one company or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (Company, error) {
	if id == "" {
		return Company{}, ErrNotFound
	}
	if s.cache == nil {
		return s.store.FindByID(ctx, id)
	}
	key, err := s.cache.Key(ctx, TagCompany(id), "record")
	if err != nil {
		s.logger.Warn("company cache key", slog.Any("error", err), slog.String("id", id))
		return s.store.FindByID(ctx, id)
	}
	var c Company
	err = s.cache.FetchJSON(ctx, key, &c, func(ctx context.Context) (any, error) {
		return s.store.FindByID(ctx, id)
	})
	if err != nil {
		return Company{}, err
	}
	return c, nil
}

// Create validates attrs and stores them under a freshly provisioned id.
func (s *Service) Create(ctx context.Context, attrs Attributes) (Company, error) {
	attrs = attrs.Normalize()
	if err := attrs.Validate(); err != nil {
		return Company{}, err
	}
	created, err := s.store.Create(ctx, Company{ID: s.newID(), Attributes: attrs})
	if err != nil {
		return Company{}, err
	}
	s.invalidate(ctx, TagCompanies)
	return created, nil
}

// Update applies patch to an existing record.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Company, error) {
	if id == "" {
		return Company{}, ErrNotFound
	}
	updated, err := s.store.Update(ctx, id, func(current Attributes) (Attributes, error) {
		next := patch.Apply(current).Normalize()
		if err := next.Validate(); err != nil {
			return Attributes{}, err
		}
		return next, nil
	})
	if err != nil {
		return Company{}, err
	}
	s.invalidate(ctx, TagCompanies, TagCompany(id))
	return updated, nil
}

// Delete removes a record. Unknown ids are treated as already deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	s.invalidate(ctx, TagCompanies, TagCompany(id))
	return nil
}

// DeleteResult is the outcome for one id of a bulk delete.
type DeleteResult struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}

// BulkResult summarises a bulk delete.
type BulkResult struct {
	Results []DeleteResult
}

// Deleted counts successful deletes.
func (r BulkResult) Deleted() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the ids that could not be deleted.
func (r BulkResult) Failed() []string {
	var ids []string
	for _, res := range r.Results {
		if res.Err != nil {
			ids = append(ids, res.ID)
		}
	}
	return ids
}

// Message is the user-facing summary.
func (r BulkResult) Message() string {
	if failed := len(r.Failed()); failed > 0 {
		return fmt.Sprintf("Failed to delete %d of %d companies. Please try again.", failed, len(r.Results))
	}
	return fmt.Sprintf("%d %s deleted successfully!", len(r.Results), plural(len(r.Results), "company", "companies"))
}

// BulkDelete deletes ids concurrently. A failure for one id does not stop
// the others; outcomes are reported per id in input order.
func (s *Service) BulkDelete(ctx context.Context, ids []string) BulkResult {
	results := make([]DeleteResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.bulk)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = DeleteResult{ID: id}
			if id == "" {
				return nil
			}
			if err := s.store.Delete(gctx, id); err != nil && !errors.Is(err, ErrNotFound) {
				results[i].Err = err
				s.logger.Error("bulk delete company", slog.Any("error", err), slog.String("id", id))
			}
			return nil
		})
	}
	_ = g.Wait()

	tags := make([]string, 0, len(ids)+1)
	tags = append(tags, TagCompanies)
	for _, id := range ids {
		tags = append(tags, TagCompany(id))
	}
	s.invalidate(ctx, tags...)
	return BulkResult{Results: results}
}

// Reseed replaces every stored record with dataset. Records without an id
// get a fresh one.
func (s *Service) Reseed(ctx context.Context, dataset []Company) (int, error) {
	records := make([]Company, 0, len(dataset))
	for _, c := range dataset {
		c.Attributes = c.Attributes.Normalize()
		if err := c.Attributes.Validate(); err != nil {
			return 0, fmt.Errorf("company: reseed %q: %w", c.Name, err)
		}
		if c.ID == "" {
			c.ID = s.newID()
		}
		records = append(records, c)
	}
	tags := []string{TagCompanies}
	if existing, err := s.store.FindAll(ctx, Filters{}); err == nil {
		for _, c := range existing {
			tags = append(tags, TagCompany(c.ID))
		}
	}
	n, err := s.store.ReplaceAll(ctx, records)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, tags...)
	return n, nil
}

func (s *Service) invalidate(ctx context.Context, tags ...string) {
	if s.inval == nil {
		return
	}
	if err := s.inval.Invalidate(ctx, tags...); err != nil {
		s.logger.Warn("invalidate cache tags", slog.Any("error", err), slog.Any("tags", tags))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// SeedMessage is the user-facing summary of a reseed.
func SeedMessage(n int) string {
	return fmt.Sprintf("Successfully seeded %d %s!", n, plural(n, "company", "companies"))
}
