// Package models defines the raffle domain types: lifecycle states, slots,
// rarity tiers and the records produced by settlement.
package models

import (
	"time"

	"tombola/pkg/domain"
)

// State is the raffle lifecycle state. A round is Open while it accepts
// entries and refunds; Settling and Settled exist only inside a settlement
// attempt, which either completes (new Open epoch) or rolls back (same Open
// epoch). External observers always find the raffle Open.
type State string

const (
	StateOpen     State = "open"
	StateSettling State = "settling"
	StateSettled  State = "settled"
)

// Rarity grades a minted collectible.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Valid reports whether r is a known rarity tier.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// Slot is one paid entry position. Slot indices are stable for the lifetime
// of an epoch: a refund vacates the slot in place, it is never reused.
//
// Invariants:
//   - Index matches the slot's position in the registry.
//   - A vacant slot keeps its last occupant for the audit trail but never
//     matches lookups.
type Slot struct {
	Index     int
	Occupant  domain.AccountID
	EnteredAt time.Time
	Vacant    bool
}

// EntryReceipt reports the slots assigned by one enter call.
type EntryReceipt struct {
	Epoch uint64
	Slots []int
}

// Status is the externally observable raffle state.
type Status struct {
	State            State
	Epoch            uint64
	EntranceFee      domain.Amount
	OccupiedCount    int
	TotalCollected   domain.Amount
	OpenedAt         time.Time
	SettleEligibleAt time.Time
	PreviousWinner   domain.AccountID
	PreviousRarity   Rarity
}

// SettlementOutcome reports one completed settlement.
type SettlementOutcome struct {
	Epoch         uint64
	Winner        domain.AccountID
	WinnerSlot    int
	Rarity        Rarity
	Prize         domain.Amount
	OperatorShare domain.Amount
	Token         domain.TokenID
	EntrantCount  int
	SettledAt     time.Time
}

// EpochRecord is the archived trace of a settled epoch.
type EpochRecord struct {
	Epoch         uint64
	Winner        domain.AccountID
	WinnerSlot    int
	Rarity        Rarity
	Prize         domain.Amount
	OperatorShare domain.Amount
	Token         domain.TokenID
	EntrantCount  int
	SeedDigest    string
	SettledAt     time.Time
}
