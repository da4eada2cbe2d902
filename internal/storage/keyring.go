package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "payhub-cli"

// KeyringStore keeps values in the OS keychain/credential manager
type KeyringStore struct {
	origin string
}

// NewKeyringStore creates a keyring-backed store namespaced by API URL
func NewKeyringStore(apiURL string) *KeyringStore {
	return &KeyringStore{origin: OriginKey(apiURL)}
}

// account returns a unique keyring account name per origin and key
func (k *KeyringStore) account(key string) string {
	return fmt.Sprintf("%s/%s", k.origin, key)
}

func (k *KeyringStore) StoreItem(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := keyring.Set(keyringService, k.account(key), string(data)); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

func (k *KeyringStore) GetItem(key string, out any) bool {
	secret, err := keyring.Get(keyringService, k.account(key))
	if err != nil {
		return false
	}
	return decodeInto([]byte(secret), out)
}

func (k *KeyringStore) RemoveItem(key string) error {
	if err := keyring.Delete(keyringService, k.account(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}
