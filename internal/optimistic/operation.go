package optimistic

import (
	"context"
	"slices"

	"github.com/odyssey-erp/companydir/internal/company"
)

// Kind is the mutation command type.
type Kind uint8

const (
	KindCreate Kind = iota + 1
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

func (k Kind) verb() string { return k.String() }

type operation struct {
	kind   Kind
	id     string
	record company.Company
	name   string
	done   chan struct{}
}

// apply folds the optimistic effect of op into list.
func (op *operation) apply(list []company.Company) []company.Company {
	switch op.kind {
	case KindCreate:
		return slices.Insert(list, 0, op.record)
	case KindUpdate:
		for i := range list {
			if list[i].ID == op.id {
				list[i] = op.record
			}
		}
		return list
	case KindDelete:
		return slices.DeleteFunc(list, func(c company.Company) bool { return c.ID == op.id })
	default:
		return list
	}
}

// Pending is the handle of a submitted mutation.
type Pending struct {
	id   string
	done chan struct{}
	res  company.Company
	err  error
}

func newPending(id string) *Pending {
	return &Pending{id: id, done: make(chan struct{})}
}

func (p *Pending) resolve(res company.Company, err error) {
	p.res, p.err = res, err
	close(p.done)
}

// ID is the id the record was shown under when submitted. For creates this
// is the temporary local id.
func (p *Pending) ID() string { return p.id }

// Done is closed once the mutation has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the mutation settles or ctx ends, and returns the
// confirmed record or the failure.
func (p *Pending) Wait(ctx context.Context) (company.Company, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return company.Company{}, ctx.Err()
	}
}
