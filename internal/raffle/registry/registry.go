// Package registry tracks the entrants of the current epoch: ordered slots,
// occupancy and the duplicate index.
//
// The registry is not goroutine-safe; the raffle service serializes access.
//
// Invariants:
//   - Slot indices are append-only and stable within an epoch. A refund
//     vacates a slot in place and never shifts later indices.
//   - The duplicate index is epoch-scoped: entries are tagged with the epoch
//     they were written in and only match while that epoch is current.
//     Advancing the epoch invalidates the whole index without clearing it.
//   - OccupiedCount() equals the number of non-vacant slots.
package registry

import (
	"time"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
)

type indexEntry struct {
	epoch uint64
	slot  int
}

// Registry holds the live entrant state for one raffle line.
type Registry struct {
	epoch    uint64
	slots    []models.Slot
	occupied int

	// index maps account to its active slot. Entries from past epochs are
	// left in place and ignored; lookups compare the stored epoch first.
	index map[domain.AccountID]indexEntry
}

// New returns an empty registry at epoch 1.
func New() *Registry {
	return &Registry{
		epoch: 1,
		index: make(map[domain.AccountID]indexEntry),
	}
}

// Epoch returns the current epoch number.
func (r *Registry) Epoch() uint64 { return r.epoch }

// OccupiedCount returns the number of occupied slots.
func (r *Registry) OccupiedCount() int { return r.occupied }

// SlotCount returns the total number of slots issued this epoch, vacant
// included.
func (r *Registry) SlotCount() int { return len(r.slots) }

// Enter assigns the next slot to account. Each account holds at most one
// active slot per epoch.
func (r *Registry) Enter(account domain.AccountID, now time.Time) (int, error) {
	if account.IsNil() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "account must not be nil")
	}
	if e, ok := r.index[account]; ok && e.epoch == r.epoch {
		return 0, dErrors.New(dErrors.CodeDuplicateEntrant, "account already holds a slot this epoch")
	}

	idx := len(r.slots)
	r.slots = append(r.slots, models.Slot{
		Index:     idx,
		Occupant:  account,
		EnteredAt: now,
	})
	r.index[account] = indexEntry{epoch: r.epoch, slot: idx}
	r.occupied++
	return idx, nil
}

// Vacate releases the slot at index on behalf of caller and returns the slot
// as it was while occupied, for use by rollback.
func (r *Registry) Vacate(index int, caller domain.AccountID) (models.Slot, error) {
	if index < 0 || index >= len(r.slots) {
		return models.Slot{}, dErrors.New(dErrors.CodeAlreadyVacant, "slot is not occupied")
	}
	slot := r.slots[index]
	if slot.Vacant {
		return models.Slot{}, dErrors.New(dErrors.CodeAlreadyVacant, "slot is not occupied")
	}
	if slot.Occupant != caller {
		return models.Slot{}, dErrors.New(dErrors.CodeNotOccupant, "slot is held by another account")
	}

	r.slots[index].Vacant = true
	if e, ok := r.index[slot.Occupant]; ok && e.epoch == r.epoch && e.slot == index {
		delete(r.index, slot.Occupant)
	}
	r.occupied--
	return slot, nil
}

// Restore re-occupies a slot vacated this epoch. It is the inverse of Vacate
// and exists for refund rollback.
func (r *Registry) Restore(slot models.Slot) error {
	if slot.Index < 0 || slot.Index >= len(r.slots) {
		return dErrors.New(dErrors.CodeInvariantViolation, "restore target out of range")
	}
	if !r.slots[slot.Index].Vacant {
		return dErrors.New(dErrors.CodeInvariantViolation, "restore target is occupied")
	}

	r.slots[slot.Index] = models.Slot{
		Index:     slot.Index,
		Occupant:  slot.Occupant,
		EnteredAt: slot.EnteredAt,
	}
	r.index[slot.Occupant] = indexEntry{epoch: r.epoch, slot: slot.Index}
	r.occupied++
	return nil
}

// ActiveIndexOf returns the slot index held by account this epoch. The
// second return distinguishes "holds slot 0" from "holds no slot".
func (r *Registry) ActiveIndexOf(account domain.AccountID) (int, bool) {
	e, ok := r.index[account]
	if !ok || e.epoch != r.epoch {
		return 0, false
	}
	return e.slot, true
}

// OccupiedSlots returns the occupied slots in insertion order. The result is
// a copy safe to hand to the selector.
func (r *Registry) OccupiedSlots() []models.Slot {
	out := make([]models.Slot, 0, r.occupied)
	for _, s := range r.slots {
		if !s.Vacant {
			out = append(out, s)
		}
	}
	return out
}

// Advance archives the epoch conceptually and opens the next one: slots are
// dropped, occupancy zeroed, the epoch counter incremented. The duplicate
// index is deliberately left alone; its entries no longer match.
func (r *Registry) Advance() {
	r.epoch++
	r.slots = nil
	r.occupied = 0
}

// Snapshot captures the state Advance destroys so settlement can roll back.
type Snapshot struct {
	epoch    uint64
	slots    []models.Slot
	occupied int
}

// Snapshot returns a deep copy of the registry's epoch state.
func (r *Registry) Snapshot() Snapshot {
	slots := make([]models.Slot, len(r.slots))
	copy(slots, r.slots)
	return Snapshot{epoch: r.epoch, slots: slots, occupied: r.occupied}
}

// RestoreSnapshot rewinds the registry to a snapshot taken this process.
// Index entries written in the snapshot's epoch become valid again because
// Advance never removed them.
func (r *Registry) RestoreSnapshot(s Snapshot) {
	r.epoch = s.epoch
	r.slots = make([]models.Slot, len(s.slots))
	copy(r.slots, s.slots)
	r.occupied = s.occupied
}
