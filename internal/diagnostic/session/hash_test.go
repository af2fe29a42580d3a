package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeVersionOptionsHash(t *testing.T) {
	base := ComputeVersionOptionsHash(12, []int64{3, 5})

	// deterministic and order-independent
	assert.Equal(t, base, ComputeVersionOptionsHash(12, []int64{3, 5}))
	assert.Equal(t, base, ComputeVersionOptionsHash(12, []int64{5, 3}))

	// sensitive to version and option set
	assert.NotEqual(t, base, ComputeVersionOptionsHash(13, []int64{3, 5}))
	assert.NotEqual(t, base, ComputeVersionOptionsHash(12, []int64{3, 5, 7}))
	assert.NotEqual(t, base, ComputeVersionOptionsHash(12, []int64{3}))

	// lowercase hex sha-256
	assert.Len(t, base, 64)
	assert.Regexp(t, "^[0-9a-f]+$", base)
}

func TestComputeVersionOptionsHashEmptySet(t *testing.T) {
	a := ComputeVersionOptionsHash(1, nil)
	b := ComputeVersionOptionsHash(1, []int64{})
	assert.Equal(t, a, b)
}
