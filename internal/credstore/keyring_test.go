package credstore

import (
	"context"
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyringStoreRoundTrip(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()

	store, err := NewKeyringStore("devrunner", "dev")
	if err != nil {
		t.Fatalf("NewKeyringStore() error = %v", err)
	}

	if _, ok, err := store.Get(ctx, RecordAccessToken); err != nil || ok {
		t.Fatalf("Get() before Put = ok %v, err %v; want absent", ok, err)
	}

	if err := store.Put(ctx, RecordAccessToken, "abc"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, RecordRefreshToken, "xyz"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := store.Get(ctx, RecordAccessToken)
	if err != nil || !ok || got != "abc" {
		t.Fatalf("Get(access) = %q, %v, %v; want abc", got, ok, err)
	}

	if err := store.Delete(ctx, RecordAccessToken); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, RecordAccessToken); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}

	if _, ok, _ := store.Get(ctx, RecordAccessToken); ok {
		t.Fatal("access token still present after Delete")
	}
	if got, ok, _ := store.Get(ctx, RecordRefreshToken); !ok || got != "xyz" {
		t.Fatalf("refresh token = %q, %v; records must be independent", got, ok)
	}
}

func TestKeyringStoreBackendFailure(t *testing.T) {
	keyring.MockInitWithError(errors.New("secret service unavailable"))
	t.Cleanup(keyring.MockInit)

	store, _ := NewKeyringStore("devrunner", "dev")
	_, _, err := store.Get(context.Background(), RecordAccessToken)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("Get() error = %v, want ErrStorage", err)
	}
}

func TestNewKeyringStoreValidation(t *testing.T) {
	if _, err := NewKeyringStore("", "dev"); err == nil {
		t.Error("NewKeyringStore(empty service) error = nil")
	}
	if _, err := NewKeyringStore("devrunner", ""); err == nil {
		t.Error("NewKeyringStore(empty user) error = nil")
	}
}
