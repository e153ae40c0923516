//go:build darwin

package keychain

import (
	"errors"

	gokeychain "github.com/keybase/go-keychain"
)

// SystemBackend stores the secret as a generic password in macOS Keychain.
type SystemBackend struct {
	name Name
}

// NewSystemBackend returns the Keychain-backed Backend for name.
func NewSystemBackend(name Name) Backend {
	return &SystemBackend{name: name}
}

func (s *SystemBackend) Name() Name { return s.name }

// Store adds the item, or updates its data in place when it already exists
// so readers never observe a gap between delete and add.
func (s *SystemBackend) Store(secret string) error {
	item := gokeychain.NewGenericPassword(
		s.name.Service,
		s.name.Account,
		s.name.Label(),
		[]byte(secret),
		"",
	)
	item.SetSynchronizable(gokeychain.SynchronizableNo)
	item.SetAccessible(gokeychain.AccessibleWhenUnlockedThisDeviceOnly)

	err := gokeychain.AddItem(item)
	if errors.Is(err, gokeychain.ErrorDuplicateItem) {
		query := gokeychain.NewItem()
		query.SetSecClass(gokeychain.SecClassGenericPassword)
		query.SetService(s.name.Service)
		query.SetAccount(s.name.Account)

		update := gokeychain.NewItem()
		update.SetData([]byte(secret))
		err = gokeychain.UpdateItem(query, update)
	}
	if err != nil {
		return classify("store", err)
	}
	return nil
}

func (s *SystemBackend) Retrieve() (string, bool, error) {
	data, err := gokeychain.GetGenericPassword(s.name.Service, s.name.Account, "", "")
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return "", false, nil
		}
		return "", false, classify("retrieve", err)
	}
	if len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

func (s *SystemBackend) Delete() error {
	err := gokeychain.DeleteGenericPasswordItem(s.name.Service, s.name.Account)
	if err != nil && !errors.Is(err, gokeychain.ErrorItemNotFound) {
		return classify("delete", err)
	}
	return nil
}

func (s *SystemBackend) Exists() (bool, error) {
	return exists(s)
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, gokeychain.ErrorNotAvailable),
		errors.Is(err, gokeychain.ErrorNoSuchKeychain):
		return newError(ErrUnavailable, op, err)
	case errors.Is(err, gokeychain.ErrorAuthFailed),
		errors.Is(err, gokeychain.ErrorInteractionNotAllowed),
		errors.Is(err, gokeychain.ErrorUserCanceled),
		errors.Is(err, gokeychain.ErrorNoAccessForItem):
		return newError(ErrAccessDenied, op, err)
	default:
		return newError(ErrFailed, op, err)
	}
}
