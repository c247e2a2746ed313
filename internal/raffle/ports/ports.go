// Package ports declares the raffle's outbound dependencies. The service
// talks to the host ledger, the randomness beacon, the collectible minter and
// the epoch archive exclusively through these interfaces.
package ports

//go:generate mockgen -source=ports.go -destination=../mocks/ports.go -package=mocks

import (
	"context"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
)

// Treasury moves value on the host ledger.
//
// Collect debits the payer into the pool account. The host ledger never runs
// payer-controlled code during Collect, so it is safe to call with internal
// state locked.
//
// Payout credits a recipient out of the pool, all-or-nothing per call. The
// recipient may observe the payment synchronously and re-invoke raffle
// operations before Payout returns; callers must have externalized their
// state changes first.
//
// Reclaim reverses a payout made earlier in the same operation, without
// recipient cooperation. The host ledger accepts settlement reversals
// unconditionally, even when they overdraw the recipient. Only rollback
// paths may use it.
type Treasury interface {
	Collect(ctx context.Context, from domain.AccountID, amount domain.Amount) error
	Payout(ctx context.Context, to domain.AccountID, amount domain.Amount) error
	Reclaim(ctx context.Context, from domain.AccountID, amount domain.Amount) error
}

// RandomnessSource supplies the settlement seed. The seed must not be
// predictable or influenceable by entrants. A failure aborts settlement with
// no state change; the service never substitutes a fallback seed.
type RandomnessSource interface {
	Seed(ctx context.Context) ([]byte, error)
}

// CollectibleMinter mints one collectible of the given rarity for the winner.
type CollectibleMinter interface {
	Mint(ctx context.Context, to domain.AccountID, rarity models.Rarity) (domain.TokenID, error)
}

// ArchiveStore persists settled epochs. Append is called once per
// settlement; List returns the most recent records first.
type ArchiveStore interface {
	Append(ctx context.Context, record models.EpochRecord) error
	List(ctx context.Context, limit int) ([]models.EpochRecord, error)
}
