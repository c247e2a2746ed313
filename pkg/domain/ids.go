// Package domain holds the shared primitives of the raffle domain: typed
// identifiers and the money amount type. Typed IDs prevent cross-type
// assignment at compile time (an AccountID can never be passed where a
// TokenID is expected).
package domain

import (
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "tombola/pkg/domain-errors"
)

// AccountID identifies an account on the host ledger. Entrants, the winner,
// the operator and the pool itself are all accounts.
type AccountID uuid.UUID

// TokenID identifies a minted collectible token.
type TokenID uuid.UUID

// NewAccountID returns a random AccountID.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewTokenID returns a random TokenID.
func NewTokenID() TokenID { return TokenID(uuid.New()) }

// ParseAccountID parses s into an AccountID. IDs must be valid, non-empty,
// non-nil UUIDs; anything else is CodeInvalidInput.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// ParseTokenID parses s into a TokenID with the same rules as ParseAccountID.
func ParseTokenID(s string) (TokenID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return TokenID{}, err
	}
	return TokenID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	if !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be valid UTF-8")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

func (id AccountID) String() string { return uuid.UUID(id).String() }
func (id TokenID) String() string   { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero value.
func (id AccountID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// IsNil reports whether the ID is the zero value.
func (id TokenID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
