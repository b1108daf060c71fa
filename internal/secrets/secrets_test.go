package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	keyring "github.com/zalando/go-keyring"
)

func TestStoreRoundTrip(t *testing.T) {
	keyring.MockInit()
	store := NewStore()

	require.NoError(t, store.Put("main", "deadbeef"))

	secret, err := store.Get("main")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", secret)
}

func TestStoreGetMissing(t *testing.T) {
	keyring.MockInit()
	store := NewStore()

	_, err := store.Get("no-such-ref")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreOverwrite(t *testing.T) {
	keyring.MockInit()
	store := NewStore()

	require.NoError(t, store.Put("main", "first"))
	require.NoError(t, store.Put("main", "second"))

	secret, err := store.Get("main")
	require.NoError(t, err)
	assert.Equal(t, "second", secret)
}
