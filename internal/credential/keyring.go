// Package credential keeps secrets such as the bootstrap administrator's
// password in the system keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "taskapp"

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = keyring.ErrKeyNotFound

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/taskapp/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("taskapp-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// AdminPasswordKey is the keyring key holding the password of the named
// bootstrap administrator.
func AdminPasswordKey(username string) string {
	return "admin-password:" + username
}

// Source reads and writes credentials. Keyring is the production
// implementation.
type Source interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Keyring is a Source backed by the system keyring.
type Keyring struct{}

// Get reads key from the system keyring.
func (Keyring) Get(key string) (string, error) { return Get(key) }

// Set writes key to the system keyring.
func (Keyring) Set(key, value string) error { return Set(key, value) }

// Delete removes key from the system keyring.
func (Keyring) Delete(key string) error { return Delete(key) }

// ClearAdminPassword forgets the stored password of the named
// administrator. Clearing a password that was never stored succeeds.
func ClearAdminPassword(src Source, username string) error {
	if err := src.Delete(AdminPasswordKey(username)); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// ResolveAdminPassword returns configured when it is non-empty, otherwise
// the password stored for username in src.
func ResolveAdminPassword(src Source, username, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	password, err := src.Get(AdminPasswordKey(username))
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("no password configured for admin %q: set admin.password or run `taskapp admin set-password`", username)
	}
	if err != nil {
		return "", err
	}
	return password, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "taskapp " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
