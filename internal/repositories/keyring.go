package repositories

import (
	"errors"
	"sort"

	"github.com/zalando/go-keyring"
)

// KeyringStore implements [Store] on the operating system keyring.
//
// Each key is a keyring entry under one service name. The keyring has no transactions,
// so SetMany applies keys one at a time and stops at the first failure.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a [KeyringStore] for the given keyring service name.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = "litfav"
	}
	return &KeyringStore{service: service}
}

func (k *KeyringStore) Get(key string) (string, bool, error) {
	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get", key, err)
	}
	return v, true, nil
}

func (k *KeyringStore) Set(key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

func (k *KeyringStore) SetMany(values map[string]string) error {
	for key, value := range values {
		if err := k.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the access token before anything else and keeps going past failures.
// A partial failure can then only leave an identity without a credential, which
// the session treats as signed out.
func (k *KeyringStore) Delete(keys ...string) error {
	var errs []error
	for _, key := range deleteOrder(keys) {
		if err := keyring.Delete(k.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, storageErr("delete", key, err))
		}
	}
	return errors.Join(errs...)
}

// deleteOrder sorts credential keys ahead of identity keys, keeping the rest in order.
func deleteOrder(keys []string) []string {
	rank := func(key string) int {
		switch key {
		case KeyAccessToken:
			return 0
		case KeyRefreshToken:
			return 1
		case KeyUser:
			return 2
		case KeyUserEmail:
			return 3
		default:
			return 4
		}
	}

	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}
