// Package ledger tracks the prize pool of the current epoch. It is pure
// bookkeeping over amounts already moved by the treasury; the raffle service
// keeps the two in step and serializes access.
//
// Invariant: while a round is open, Total() equals entrance fee times the
// number of occupied slots.
package ledger

import (
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
)

// Ledger is the pool counter for one raffle line.
type Ledger struct {
	total domain.Amount
}

// New returns an empty ledger.
func New() *Ledger { return &Ledger{} }

// Total returns the funds currently attributed to the pool.
func (l *Ledger) Total() domain.Amount { return l.total }

// Add credits the pool.
func (l *Ledger) Add(amount domain.Amount) {
	l.total += amount
}

// Subtract debits the pool. The pool can never go negative; a request that
// would is a bookkeeping bug, not a caller error.
func (l *Ledger) Subtract(amount domain.Amount) error {
	if amount > l.total {
		return dErrors.New(dErrors.CodeInvariantViolation, "pool cannot go negative")
	}
	l.total -= amount
	return nil
}

// Drain empties the pool and returns what it held. Settlement uses this to
// claim the full pot.
func (l *Ledger) Drain() domain.Amount {
	t := l.total
	l.total = 0
	return t
}

// Restore puts a drained amount back. It exists for settlement rollback.
func (l *Ledger) Restore(amount domain.Amount) {
	l.total = amount
}
