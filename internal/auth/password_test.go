package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerify(t *testing.T) {
	hash, err := Hash("senha-secreta")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	ok, err := Verify("senha-secreta", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("senha-errada", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}
