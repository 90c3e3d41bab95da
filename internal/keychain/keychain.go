// Package keychain keeps the contentflow session token out of plain files.
package keychain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	ServiceName  = "contentflow"
	KeyAuthToken = "contentflow-auth-token"
)

var (
	// ErrNotFound means no secret is stored under the key.
	ErrNotFound = errors.New("key not found in keychain")
	// ErrTooLarge means the OS store rejected the secret for its size.
	ErrTooLarge = errors.New("secret too large for the system keychain")
)

// Keychain stores secrets by key.
type Keychain interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// MemoryKeychain holds secrets in process memory. Tests swap it in for the OS store.
type MemoryKeychain struct {
	mu      sync.Mutex
	secrets map[string]string
}

func NewMemoryKeychain() *MemoryKeychain {
	return &MemoryKeychain{secrets: map[string]string{}}
}

func (m *MemoryKeychain) Set(key, value string) error {
	m.mu.Lock()
	m.secrets[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryKeychain) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.secrets[key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (m *MemoryKeychain) Delete(key string) error {
	m.mu.Lock()
	delete(m.secrets, key)
	m.mu.Unlock()
	return nil
}

// SystemKeychain is backed by the platform secret service through go-keyring.
type SystemKeychain struct {
	service string
}

func NewSystemKeychain() *SystemKeychain {
	return &SystemKeychain{service: ServiceName}
}

func (s *SystemKeychain) Set(key, value string) error {
	return translate("store", keyring.Set(s.service, key, value))
}

func (s *SystemKeychain) Get(key string) (string, error) {
	value, err := keyring.Get(s.service, key)
	if err != nil {
		return "", translate("read", err)
	}
	return value, nil
}

// Delete is idempotent: a missing key is not an error.
func (s *SystemKeychain) Delete(key string) error {
	err := translate("remove", keyring.Delete(s.service, key))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// translate maps go-keyring errors onto this package's sentinels.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, keyring.ErrSetDataTooBig):
		return ErrTooLarge
	}
	return fmt.Errorf("keychain %s failed: %w", op, err)
}
