package secrets

import (
	"errors"
	"fmt"

	keyring "github.com/zalando/go-keyring"
)

// service is the keyring namespace under which all secrets are stored.
const service = "hoard"

// ErrNotFound is returned when no secret exists for a reference
var ErrNotFound = errors.New("secret not found")

// Store is the durable private-key store. References are opaque strings
// decoupled from the key material itself.
type Store interface {
	Put(ref, secret string) error
	Get(ref string) (string, error)
}

// NewStore returns a Store backed by the OS keyring.
func NewStore() Store {
	return osStore{}
}

type osStore struct{}

func (osStore) Put(ref, secret string) error {
	if err := keyring.Set(service, ref, secret); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}
	return nil
}

func (osStore) Get(ref string) (string, error) {
	secret, err := keyring.Get(service, ref)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return secret, nil
}
