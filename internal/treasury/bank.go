// Package treasury provides the in-memory host ledger. Accounts hold
// currency balances; the raffle's pool is just another account. Recipients
// may register payout hooks, which run synchronously while the paying
// operation is still in flight, exactly like a transfer callback on a real
// settlement rail. Hooks are how the test suite exercises reentrancy.
package treasury

import (
	"context"
	"fmt"
	"sync"

	"tombola/pkg/domain"
	"tombola/pkg/platform/sentinel"
)

// PayoutHook observes a payout to the account it is registered for. It runs
// before Payout returns; returning an error fails the payout and reverses
// the balance movement.
type PayoutHook func(ctx context.Context, amount domain.Amount) error

// Bank is an in-memory treasury.
type Bank struct {
	mu       sync.Mutex
	pool     domain.AccountID
	balances map[domain.AccountID]domain.Amount
	hooks    map[domain.AccountID]PayoutHook
}

// NewBank creates a bank whose pool account collects entry fees and funds
// payouts.
func NewBank(pool domain.AccountID) *Bank {
	return &Bank{
		pool:     pool,
		balances: make(map[domain.AccountID]domain.Amount),
		hooks:    make(map[domain.AccountID]PayoutHook),
	}
}

// Deposit credits an account directly. Used to fund entrants in development
// and tests.
func (b *Bank) Deposit(account domain.AccountID, amount domain.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] += amount
}

// Balance returns the current balance of an account.
func (b *Bank) Balance(account domain.AccountID) domain.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

// RegisterPayoutHook attaches a hook to an account. One hook per account;
// registering again replaces it.
func (b *Bank) RegisterPayoutHook(account domain.AccountID, hook PayoutHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[account] = hook
}

// Collect debits the payer into the pool. No payer code runs during Collect.
func (b *Bank) Collect(ctx context.Context, from domain.AccountID, amount domain.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[from] < amount {
		return fmt.Errorf("collect %s from %s: %w", amount, from, sentinel.ErrInsufficientFunds)
	}
	b.balances[from] -= amount
	b.balances[b.pool] += amount
	return nil
}

// Payout credits the recipient out of the pool, then runs the recipient's
// hook with the bank unlocked so the hook may call back into the system. A
// hook error reverses this call's movement and fails the payout.
func (b *Bank) Payout(ctx context.Context, to domain.AccountID, amount domain.Amount) error {
	b.mu.Lock()
	if b.balances[b.pool] < amount {
		b.mu.Unlock()
		return fmt.Errorf("payout %s to %s: %w", amount, to, sentinel.ErrInsufficientFunds)
	}
	b.balances[b.pool] -= amount
	b.balances[to] += amount
	hook := b.hooks[to]
	b.mu.Unlock()

	if hook == nil {
		return nil
	}

	if err := hook(ctx, amount); err != nil {
		// Reverse exactly this call's movement. Effects of nested
		// operations the hook performed stand on their own.
		b.mu.Lock()
		b.balances[to] -= amount
		b.balances[b.pool] += amount
		b.mu.Unlock()
		return fmt.Errorf("payout hook rejected transfer: %w", err)
	}
	return nil
}

// Reclaim pulls a same-operation payout back into the pool without the
// recipient's cooperation. The recipient may be overdrawn as a result; the
// ledger accepts settlement reversals unconditionally.
func (b *Bank) Reclaim(ctx context.Context, from domain.AccountID, amount domain.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.balances[from] -= amount
	b.balances[b.pool] += amount
	return nil
}
