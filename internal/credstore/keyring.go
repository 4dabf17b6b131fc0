package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps records in OS-native secure credential storage.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
// Each record is a separate keyring item named "<service>/<record>".
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore using the given service and user identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

func (k *KeyringStore) item(record Record) string {
	return k.service + "/" + string(record)
}

// Get returns the record from the system keyring.
func (k *KeyringStore) Get(ctx context.Context, record Record) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := checkRecord("read", record); err != nil {
		return "", false, err
	}

	value, err := keyring.Get(k.item(record), k.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, storageErr("read", record, err)
	}
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Put writes the record to the system keyring, overwriting any existing value.
func (k *KeyringStore) Put(ctx context.Context, record Record, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkRecord("write", record); err != nil {
		return err
	}

	if err := keyring.Set(k.item(record), k.user, value); err != nil {
		return storageErr("write", record, err)
	}
	return nil
}

// Delete removes the record from the system keyring if present.
func (k *KeyringStore) Delete(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkRecord("delete", record); err != nil {
		return err
	}

	if err := keyring.Delete(k.item(record), k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return storageErr("delete", record, err)
	}
	return nil
}
