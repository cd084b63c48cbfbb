package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBridge_OriginPerInstance(t *testing.T) {
	a, err := NewBridge(nil, "events")
	require.NoError(t, err)
	b, err := NewBridge(nil, "events")
	require.NoError(t, err)

	assert.Len(t, a.origin, 16)
	assert.Len(t, b.origin, 16)
	// two instances must never share an origin or they would swallow
	// each other's events
	assert.NotEqual(t, a.origin, b.origin)
}
