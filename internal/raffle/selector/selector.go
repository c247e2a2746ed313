// Package selector implements the pure winner and rarity draw. Given the
// same seed and the same occupied-slot snapshot it always produces the same
// result, so settlement stays auditable after the fact.
package selector

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"tombola/internal/raffle/models"
)

// Rarity odds in basis points of a 10000-roll, cumulative from rarest to
// most common. Common takes the remaining 5000.
const (
	LegendaryCeiling uint64 = 100
	EpicCeiling      uint64 = 500
	RareCeiling      uint64 = 2000
	UncommonCeiling  uint64 = 5000

	rarityRollSpace uint64 = 10_000
)

// Domain separation tags for the two draws derived from one seed.
var (
	winnerTag = []byte("winner")
	rarityTag = []byte("rarity")
)

// Result is the outcome of one draw.
type Result struct {
	// SlotIndex is the winning slot's registry index.
	SlotIndex int
	Winner    models.Slot
	Rarity    models.Rarity
}

// Pick selects the winner and rarity for the given occupied slots. The slice
// must be the insertion-ordered occupied snapshot; vacant slots must already
// be filtered out.
func Pick(occupied []models.Slot, seed []byte) (Result, error) {
	if len(occupied) == 0 {
		return Result{}, fmt.Errorf("no occupied slots to draw from")
	}
	if len(seed) == 0 {
		return Result{}, fmt.Errorf("empty seed")
	}

	winnerRoll := draw(seed, winnerTag)
	position := int(winnerRoll % uint64(len(occupied)))
	winner := occupied[position]

	return Result{
		SlotIndex: winner.Index,
		Winner:    winner,
		Rarity:    rarityFor(draw(seed, rarityTag) % rarityRollSpace),
	}, nil
}

// draw hashes the seed under a domain tag and folds the digest into a
// uniform uint64.
func draw(seed, tag []byte) uint64 {
	h := sha256.New()
	h.Write(seed)
	h.Write(tag)
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

func rarityFor(roll uint64) models.Rarity {
	switch {
	case roll < LegendaryCeiling:
		return models.RarityLegendary
	case roll < EpicCeiling:
		return models.RarityEpic
	case roll < RareCeiling:
		return models.RarityRare
	case roll < UncommonCeiling:
		return models.RarityUncommon
	default:
		return models.RarityCommon
	}
}

// SeedDigest returns the hex digest archived with a settled epoch so the
// draw can be re-verified without storing the raw seed.
func SeedDigest(seed []byte) string {
	sum := sha256.Sum256(seed)
	return fmt.Sprintf("%x", sum)
}
