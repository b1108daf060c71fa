package keys

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// SecretKeyLength is the byte length of an Ed25519 secret key: a 32-byte seed
// concatenated with its 32-byte derived public key.
const SecretKeyLength = 64

var (
	// ErrInvalidKeyLength is returned when decoded key material is not 64 bytes
	ErrInvalidKeyLength = errors.New("invalid private key: expected 64 bytes after decoding")

	// ErrInvalidEncoding is returned when the input fails both hex and base58 decoding
	ErrInvalidEncoding = errors.New("invalid private key encoding")

	// ErrMalformedKeyFile is returned when a keypair file is not a JSON array of numbers
	ErrMalformedKeyFile = errors.New("invalid keypair file: expected JSON array of numbers")
)

var hexKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{128}$`)

// Generate creates a new Ed25519 keypair and returns the base58 public
// address together with the full 64-byte secret key.
func Generate() (string, []byte, error) {
	wallet := solana.NewWallet()
	return wallet.PublicKey().String(), []byte(wallet.PrivateKey), nil
}

// Derive returns the base58 public address for a 64-byte secret key.
func Derive(secret []byte) (string, error) {
	if len(secret) != SecretKeyLength {
		return "", ErrInvalidKeyLength
	}
	return solana.PrivateKey(secret).PublicKey().String(), nil
}

// DecodeFlexible decodes private key material from any of the accepted input
// forms, tried in fixed order: a path to an existing .json keypair file
// containing a JSON array of integers, a 128-character hex string, and
// finally a base58 string. The decoded key must be exactly 64 bytes.
func DecodeFlexible(input string) ([]byte, error) {
	var secret []byte

	switch {
	case isKeypairFile(input):
		content, err := os.ReadFile(filepath.Clean(input))
		if err != nil {
			return nil, fmt.Errorf("failed to read keypair file: %w", err)
		}
		var raw []int
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, ErrMalformedKeyFile
		}
		secret = make([]byte, len(raw))
		for i, b := range raw {
			if b < 0 || b > 255 {
				return nil, ErrMalformedKeyFile
			}
			secret[i] = byte(b)
		}

	case hexKeyPattern.MatchString(input):
		decoded, err := hex.DecodeString(input)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
		secret = decoded

	default:
		decoded, err := base58.Decode(input)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
		secret = decoded
	}

	if len(secret) != SecretKeyLength {
		return nil, ErrInvalidKeyLength
	}

	return secret, nil
}

// EncodeSecret returns the canonical storage form of a secret key. Keys are
// stored hex-encoded regardless of the input encoding they arrived in.
func EncodeSecret(secret []byte) string {
	return hex.EncodeToString(secret)
}

// DecodeSecret reverses EncodeSecret.
func DecodeSecret(stored string) ([]byte, error) {
	secret, err := hex.DecodeString(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(secret) != SecretKeyLength {
		return nil, ErrInvalidKeyLength
	}
	return secret, nil
}

func isKeypairFile(input string) bool {
	if !strings.HasSuffix(strings.ToLower(input), ".json") {
		return false
	}
	info, err := os.Stat(input)
	return err == nil && !info.IsDir()
}
