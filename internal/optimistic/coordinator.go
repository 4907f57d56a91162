// Package optimistic applies company mutations to a local list before the
// durable store confirms them, and reverts them when it does not.
//
// The visible list is the confirmed base list with every pending operation
// folded over it in submission order. Confirming an operation moves its
// effect into the base; failing it drops the operation, which restores the
// previous state of the record. Durable calls for one id run in submission
// order while calls for different ids run concurrently.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/odyssey-erp/companydir/internal/company"
)

// LocalIDPrefix marks ids assigned to records the server has not confirmed.
const LocalIDPrefix = "local-"

// ErrStaleReload is returned when a reload was superseded before it landed.
var ErrStaleReload = errors.New("optimistic: reload superseded")

// Backend performs the durable operations.
type Backend interface {
	List(ctx context.Context) ([]company.Company, error)
	Create(ctx context.Context, attrs company.Attributes) (company.Company, error)
	Update(ctx context.Context, id string, patch company.Patch) (company.Company, error)
	Delete(ctx context.Context, id string) error
}

// Recorder counts mutation outcomes.
type Recorder interface {
	ObserveMutation(kind, outcome string)
}

// Config carries optional collaborators.
type Config struct {
	Notifier Notifier
	Logger   *slog.Logger
	Metrics  Recorder
	// OnChange receives the visible list after every change. It runs
	// without the coordinator lock and may be called from any goroutine,
	// but calls are serialized and a list older than one already delivered
	// is skipped.
	OnChange func([]company.Company)
	// NewLocalID overrides temporary id generation in tests.
	NewLocalID func() string
}

// Coordinator owns the visible company list.
type Coordinator struct {
	backend  Backend
	notifier Notifier
	logger   *slog.Logger
	metrics  Recorder
	onChange func([]company.Company)
	newLocal func() string

	mu      sync.Mutex
	base    []company.Company
	pending []*operation
	tails   map[string]chan struct{}
	alias   map[string]string

	// reloads issued, newest applied, and confirmations seen; see Reload.
	reloadSeq  uint64
	appliedSeq uint64
	confirmed  uint64

	// version stamps each visible list under mu; deliver drops lists older
	// than the last one handed to onChange.
	version   uint64
	deliverMu sync.Mutex
	delivered uint64

	wg sync.WaitGroup
}

// New returns a Coordinator with an empty list. Call Reload to populate it.
func New(backend Backend, cfg Config) *Coordinator {
	c := &Coordinator{
		backend:  backend,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		onChange: cfg.OnChange,
		newLocal: cfg.NewLocalID,
		tails:    make(map[string]chan struct{}),
		alias:    make(map[string]string),
	}
	if c.notifier == nil {
		c.notifier = NotifierFunc(func(Notice) {})
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.onChange == nil {
		c.onChange = func([]company.Company) {}
	}
	if c.newLocal == nil {
		c.newLocal = func() string { return LocalIDPrefix + uuid.NewString() }
	}
	return c
}

// IsLocalID reports whether id was assigned locally to an unconfirmed record.
func IsLocalID(id string) bool { return strings.HasPrefix(id, LocalIDPrefix) }

// Snapshot returns a copy of the visible list.
func (c *Coordinator) Snapshot() []company.Company {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

// PendingCount returns how many mutations await confirmation.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Create shows attrs at the head of the list under a temporary id and
// stores it in the background. Invalid input is rejected without touching
// the list.
func (c *Coordinator) Create(ctx context.Context, attrs company.Attributes) *Pending {
	attrs = attrs.Normalize()
	if err := attrs.Validate(); err != nil {
		return c.reject(KindCreate, err)
	}
	record := company.Company{ID: c.newLocal(), Attributes: attrs}
	return c.submit(ctx, &operation{kind: KindCreate, id: record.ID, record: record, name: attrs.Name})
}

// Update replaces the record with the same id and stores it in the
// background. The whole record is written, so every field of next counts.
func (c *Coordinator) Update(ctx context.Context, next company.Company) *Pending {
	next.Attributes = next.Attributes.Normalize()
	if err := next.Attributes.Validate(); err != nil {
		return c.reject(KindUpdate, err)
	}
	return c.submit(ctx, &operation{kind: KindUpdate, id: next.ID, record: next, name: next.Name})
}

// Delete hides the record and deletes it in the background.
func (c *Coordinator) Delete(ctx context.Context, id string) *Pending {
	name := ""
	c.mu.Lock()
	for _, rec := range c.visibleLocked() {
		if rec.ID == c.resolveLocked(id) {
			name = rec.Name
			break
		}
	}
	c.mu.Unlock()
	return c.submit(ctx, &operation{kind: KindDelete, id: id, name: name})
}

// Wait blocks until every submitted mutation has settled.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Reload replaces the confirmed list with a fresh fetch. Pending mutations
// stay applied on top. A fetch is dropped with ErrStaleReload when a newer
// reload has already landed, or when a mutation was confirmed while it was
// in flight, since its result may predate that confirmation.
func (c *Coordinator) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.reloadSeq++
	seq := c.reloadSeq
	confirmed := c.confirmed
	c.mu.Unlock()

	companies, err := c.backend.List(ctx)
	if err != nil {
		return fmt.Errorf("optimistic: reload: %w", err)
	}

	c.mu.Lock()
	if seq <= c.appliedSeq || confirmed != c.confirmed {
		c.mu.Unlock()
		c.logger.Debug("drop stale company reload", slog.Uint64("seq", seq))
		return ErrStaleReload
	}
	c.appliedSeq = seq
	c.base = c.withoutUnconfirmedCreatesLocked(companies)
	v, visible := c.stampLocked()
	c.mu.Unlock()

	c.deliver(v, visible)
	return nil
}

func (c *Coordinator) reject(kind Kind, err error) *Pending {
	c.observe(kind, "rejected")
	c.notifier.Notify(Notice{Level: LevelError, Kind: kind, Message: company.UserMessage(kind.verb(), err)})
	p := newPending("")
	p.resolve(company.Company{}, err)
	return p
}

func (c *Coordinator) submit(ctx context.Context, op *operation) *Pending {
	ctx = context.WithoutCancel(ctx)

	c.mu.Lock()
	op.id = c.resolveLocked(op.id)
	op.record.ID = op.id
	op.done = make(chan struct{})
	prev := c.tails[op.id]
	c.tails[op.id] = op.done
	c.pending = append(c.pending, op)
	v, visible := c.stampLocked()
	c.mu.Unlock()

	c.deliver(v, visible)

	p := newPending(op.id)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if prev != nil {
			<-prev
		}
		res, err := c.execute(ctx, op)
		c.settle(op, res, err)
		close(op.done)
		p.resolve(res, err)
	}()
	return p
}

// execute runs the durable call for op. The op id is read under the lock
// because confirming an earlier create rewrites it.
func (c *Coordinator) execute(ctx context.Context, op *operation) (company.Company, error) {
	c.mu.Lock()
	id := op.id
	c.mu.Unlock()

	switch op.kind {
	case KindCreate:
		return c.backend.Create(ctx, op.record.Attributes)
	case KindUpdate:
		if IsLocalID(id) {
			// The create this record came from failed.
			return company.Company{}, company.ErrNotFound
		}
		return c.backend.Update(ctx, id, company.PatchFrom(op.record.Attributes))
	case KindDelete:
		if IsLocalID(id) {
			return company.Company{}, nil
		}
		return company.Company{ID: id}, c.backend.Delete(ctx, id)
	default:
		return company.Company{}, fmt.Errorf("optimistic: unknown operation %d", op.kind)
	}
}

func (c *Coordinator) settle(op *operation, res company.Company, err error) {
	c.mu.Lock()
	c.pending = slices.DeleteFunc(c.pending, func(o *operation) bool { return o == op })
	if c.tails[op.id] == op.done {
		delete(c.tails, op.id)
	}
	if err == nil {
		c.confirmLocked(op, res)
	}
	v, visible := c.stampLocked()
	c.mu.Unlock()

	c.deliver(v, visible)

	if err != nil {
		c.observe(op.kind, "rolled_back")
		c.logger.Warn("company mutation rolled back",
			slog.String("kind", op.kind.String()), slog.String("id", op.id), slog.Any("error", err))
		c.notifier.Notify(Notice{Level: LevelError, Kind: op.kind, ID: op.id, Message: company.UserMessage(op.kind.verb(), err)})
		return
	}
	c.observe(op.kind, "confirmed")
	name := op.name
	if res.Name != "" {
		name = res.Name
	}
	c.notifier.Notify(Notice{Level: LevelSuccess, Kind: op.kind, ID: res.ID, Message: successMessage(op.kind, name)})
}

func (c *Coordinator) confirmLocked(op *operation, res company.Company) {
	c.confirmed++
	switch op.kind {
	case KindCreate:
		local := op.id
		c.alias[local] = res.ID
		for _, o := range c.pending {
			if o.id == local {
				o.id = res.ID
				o.record.ID = res.ID
			}
		}
		if tail, ok := c.tails[local]; ok {
			delete(c.tails, local)
			c.tails[res.ID] = tail
		}
		c.base = slices.DeleteFunc(c.base, func(rec company.Company) bool { return rec.ID == res.ID })
		c.base = slices.Insert(c.base, 0, res)
	case KindUpdate:
		for i := range c.base {
			if c.base[i].ID == res.ID {
				c.base[i] = res
			}
		}
	case KindDelete:
		c.base = slices.DeleteFunc(c.base, func(rec company.Company) bool { return rec.ID == op.id })
	}
}

func (c *Coordinator) observe(kind Kind, outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveMutation(kind.String(), outcome)
	}
}

func (c *Coordinator) resolveLocked(id string) string {
	if real, ok := c.alias[id]; ok {
		return real
	}
	return id
}

func (c *Coordinator) stampLocked() (uint64, []company.Company) {
	c.version++
	return c.version, c.visibleLocked()
}

// deliver hands list to onChange unless a newer list was already delivered.
func (c *Coordinator) deliver(version uint64, list []company.Company) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	if version <= c.delivered {
		return
	}
	c.delivered = version
	c.onChange(list)
}

// withoutUnconfirmedCreatesLocked drops fetched rows that are the server
// copy of a create still awaiting its response: rows new to the base whose
// name matches a pending create. The confirmation inserts them.
func (c *Coordinator) withoutUnconfirmedCreatesLocked(fetched []company.Company) []company.Company {
	waiting := make(map[string]int)
	for _, op := range c.pending {
		if op.kind == KindCreate {
			waiting[op.record.Name]++
		}
	}
	if len(waiting) == 0 {
		return slices.Clone(fetched)
	}
	known := make(map[string]bool, len(c.base))
	for _, rec := range c.base {
		known[rec.ID] = true
	}
	out := make([]company.Company, 0, len(fetched))
	for _, rec := range fetched {
		if !known[rec.ID] && waiting[rec.Name] > 0 {
			waiting[rec.Name]--
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (c *Coordinator) visibleLocked() []company.Company {
	list := slices.Clone(c.base)
	for _, op := range c.pending {
		list = op.apply(list)
	}
	return list
}

func successMessage(kind Kind, name string) string {
	switch kind {
	case KindCreate:
		return fmt.Sprintf("Company %q created successfully!", name)
	case KindUpdate:
		return fmt.Sprintf("Company %q updated successfully!", name)
	default:
		return "Company deleted successfully!"
	}
}
