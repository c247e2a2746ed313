package collectible

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/requestcontext"
)

func TestMintAndList(t *testing.T) {
	book := NewBook()
	owner := domain.NewAccountID()
	mintedAt := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), mintedAt)

	first, err := book.Mint(ctx, owner, models.RarityRare)
	require.NoError(t, err)
	second, err := book.Mint(ctx, owner, models.RarityCommon)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	tokens := book.ListByOwner(ctx, owner)
	require.Len(t, tokens, 2)
	assert.Equal(t, first, tokens[0].ID)
	assert.Equal(t, models.RarityRare, tokens[0].Rarity)
	assert.Equal(t, second, tokens[1].ID)
	assert.Equal(t, mintedAt, tokens[0].MintedAt)
}

func TestMint_Validation(t *testing.T) {
	book := NewBook()

	_, err := book.Mint(context.Background(), domain.AccountID{}, models.RarityCommon)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = book.Mint(context.Background(), domain.NewAccountID(), models.Rarity("mythic"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestListByOwner_EmptyForStranger(t *testing.T) {
	book := NewBook()
	assert.Empty(t, book.ListByOwner(context.Background(), domain.NewAccountID()))
}
