package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 0, RoundPercent(1, 0))
	assert.Equal(t, 0, RoundPercent(0, 10))
	assert.Equal(t, 50, RoundPercent(1, 2))
	assert.Equal(t, 33, RoundPercent(1, 3))
	assert.Equal(t, 67, RoundPercent(2, 3))
	assert.Equal(t, 100, RoundPercent(3, 3))
}

func TestMustParseUint(t *testing.T) {
	assert.Equal(t, uint(42), MustParseUint("42"))
	assert.Equal(t, uint(0), MustParseUint("abc"))
}
