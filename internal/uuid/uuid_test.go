package uuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoogleUUIDGenerator(t *testing.T) {
	gen := NewGoogleUUIDGenerator()

	first := gen.New()
	second := gen.New()

	assert.True(t, Valid(first))
	assert.NotEqual(t, first, second)
	assert.False(t, Valid("spell-1"))
}
