package credstore

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func stubKeyring(t *testing.T) map[string]string {
	t.Helper()

	stored := map[string]string{}
	origSet, origGet, origDelete := keyringSet, keyringGet, keyringDelete
	t.Cleanup(func() {
		keyringSet, keyringGet, keyringDelete = origSet, origGet, origDelete
	})

	keyringSet = func(service, user, password string) error {
		stored[service+"/"+user] = password
		return nil
	}
	keyringGet = func(service, user string) (string, error) {
		value, ok := stored[service+"/"+user]
		if !ok {
			return "", keyring.ErrNotFound
		}
		return value, nil
	}
	keyringDelete = func(service, user string) error {
		delete(stored, service+"/"+user)
		return nil
	}
	return stored
}

func TestStoreRoundTrip(t *testing.T) {
	stubKeyring(t)
	store := NewStore()

	if err := store.Set("1//refresh-token"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "1//refresh-token" {
		t.Fatalf("unexpected token: %q", got)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreRejectsEmptyToken(t *testing.T) {
	stubKeyring(t)
	if err := NewStore().Set(""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestResolvePrefersConfiguredValue(t *testing.T) {
	stubKeyring(t)
	store := NewStore()
	if err := store.Set("from-keyring"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Resolve("from-config")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "from-config" {
		t.Fatalf("expected configured token to win, got %q", got)
	}

	got, err = store.Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "from-keyring" {
		t.Fatalf("expected keyring fallback, got %q", got)
	}
}

func TestResolveNotFound(t *testing.T) {
	stubKeyring(t)
	if _, err := NewStore().Resolve(""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
