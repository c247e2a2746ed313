package randomness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	src := New()

	first, err := src.Seed(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := src.Seed(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "consecutive seeds must differ")
}
