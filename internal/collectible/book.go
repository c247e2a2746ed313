// Package collectible provides the in-memory mint book: every token the
// raffle awards is recorded with its owner and rarity and can be listed per
// account.
package collectible

import (
	"context"
	"sync"
	"time"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/requestcontext"
)

// Token is one minted collectible.
type Token struct {
	ID       domain.TokenID
	Owner    domain.AccountID
	Rarity   models.Rarity
	MintedAt time.Time
}

// Book mints and indexes collectibles.
type Book struct {
	mu      sync.Mutex
	tokens  map[domain.TokenID]Token
	byOwner map[domain.AccountID][]domain.TokenID
}

// NewBook returns an empty mint book.
func NewBook() *Book {
	return &Book{
		tokens:  make(map[domain.TokenID]Token),
		byOwner: make(map[domain.AccountID][]domain.TokenID),
	}
}

// Mint creates one token of the given rarity for the owner.
func (b *Book) Mint(ctx context.Context, to domain.AccountID, rarity models.Rarity) (domain.TokenID, error) {
	if to.IsNil() {
		return domain.TokenID{}, dErrors.New(dErrors.CodeInvalidInput, "owner must not be nil")
	}
	if !rarity.Valid() {
		return domain.TokenID{}, dErrors.New(dErrors.CodeInvalidInput, "unknown rarity")
	}

	token := Token{
		ID:       domain.NewTokenID(),
		Owner:    to,
		Rarity:   rarity,
		MintedAt: requestcontext.Now(ctx),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token.ID] = token
	b.byOwner[to] = append(b.byOwner[to], token.ID)
	return token.ID, nil
}

// ListByOwner returns the owner's tokens in mint order.
func (b *Book) ListByOwner(ctx context.Context, owner domain.AccountID) []Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := b.byOwner[owner]
	out := make([]Token, 0, len(ids))
	for _, tid := range ids {
		out = append(out, b.tokens[tid])
	}
	return out
}
