package keys

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndDerive(t *testing.T) {
	publicKey, secret, err := Generate()
	require.NoError(t, err)
	assert.Len(t, secret, SecretKeyLength)
	assert.NotEmpty(t, publicKey)

	derived, err := Derive(secret)
	require.NoError(t, err)
	assert.Equal(t, publicKey, derived)
}

func TestDeriveRejectsShortKey(t *testing.T) {
	_, err := Derive(make([]byte, 32))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestDecodeFlexibleBase58RoundTrip(t *testing.T) {
	_, secret, err := Generate()
	require.NoError(t, err)

	decoded, err := DecodeFlexible(base58.Encode(secret))
	require.NoError(t, err)
	assert.Equal(t, secret, decoded)
}

func TestDecodeFlexibleHexRoundTrip(t *testing.T) {
	_, secret, err := Generate()
	require.NoError(t, err)

	encoded := EncodeSecret(secret)
	require.Len(t, encoded, 128)

	decoded, err := DecodeFlexible(encoded)
	require.NoError(t, err)
	assert.Equal(t, secret, decoded)

	// Hex detection is case-insensitive
	decoded, err = DecodeFlexible(strings.ToUpper(encoded))
	require.NoError(t, err)
	assert.Equal(t, secret, decoded)
}

func TestDecodeFlexibleRejectsOddHexLength(t *testing.T) {
	// 127 hex-looking characters miss the hex pattern and fall through to
	// base58, which decodes them to the wrong length
	_, err := DecodeFlexible(strings.Repeat("a", 127))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	_, err = DecodeFlexible(strings.Repeat("a", 129))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestDecodeFlexibleKeypairFile(t *testing.T) {
	_, secret, err := Generate()
	require.NoError(t, err)

	parts := make([]string, len(secret))
	for i, b := range secret {
		parts[i] = strconv.Itoa(int(b))
	}
	path := filepath.Join(t.TempDir(), "keypair.json")
	require.NoError(t, os.WriteFile(path, []byte("["+strings.Join(parts, ",")+"]"), 0600))

	decoded, err := DecodeFlexible(path)
	require.NoError(t, err)
	assert.Equal(t, secret, decoded)
}

func TestDecodeFlexibleRejectsNonArrayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypair.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"secret": true}`), 0600))

	_, err := DecodeFlexible(path)
	assert.ErrorIs(t, err, ErrMalformedKeyFile)
}

func TestDecodeFlexibleMissingFileFallsThrough(t *testing.T) {
	// A .json path that does not exist is treated as key material; it is not
	// valid base58 either, so decoding fails there
	_, err := DecodeFlexible("./no-such-keypair.json")
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestDecodeSecretRoundTrip(t *testing.T) {
	_, secret, err := Generate()
	require.NoError(t, err)

	decoded, err := DecodeSecret(EncodeSecret(secret))
	require.NoError(t, err)
	assert.Equal(t, secret, decoded)
}
