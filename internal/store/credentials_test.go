package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tokens.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cred := &Credential{
		UserID:       "default",
		RealmID:      "realm-1",
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Unix() + 3600,
	}
	if err := s.Save(ctx, cred); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := s.Get(ctx, "default")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.RealmID != "realm-1" || got.AccessToken != "at" || got.RefreshToken != "rt" {
		t.Errorf("unexpected credential: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be stamped on save")
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &Credential{UserID: "default", RealmID: "realm-1", AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 100}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	second := &Credential{UserID: "default", RealmID: "realm-2", AccessToken: "a2", RefreshToken: "r2", ExpiresAt: 200}
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := s.Get(ctx, "default")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.RealmID != "realm-2" || got.AccessToken != "a2" {
		t.Errorf("save should replace the existing record, got %+v", got)
	}
}

func TestUpdateKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cred := &Credential{UserID: "default", RealmID: "realm-1", AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 100}
	if err := s.Save(ctx, cred); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	saved, err := s.Get(ctx, "default")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	updated := &Credential{
		UserID:       "default",
		RealmID:      "realm-1",
		AccessToken:  "a2",
		RefreshToken: "r2",
		ExpiresAt:    200,
		CreatedAt:    saved.CreatedAt,
	}
	if err := s.Update(ctx, updated); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := s.Get(ctx, "default")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.AccessToken != "a2" || got.RefreshToken != "r2" || got.ExpiresAt != 200 {
		t.Errorf("update not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v vs %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, expected ErrNotFound", err)
	}
}

func TestLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest() on empty store = %v, expected ErrNotFound", err)
	}

	older := &Credential{UserID: "u1", RealmID: "realm-1", AccessToken: "a", RefreshToken: "r", ExpiresAt: 100}
	if err := s.Save(ctx, older); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	// updated_at has second precision; a shorter sleep can produce a tie.
	time.Sleep(1100 * time.Millisecond)
	newer := &Credential{UserID: "u2", RealmID: "realm-2", AccessToken: "a", RefreshToken: "r", ExpiresAt: 100}
	if err := s.Save(ctx, newer); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if got.UserID != "u2" {
		t.Errorf("Latest() = %q, expected most recently updated u2", got.UserID)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cred := &Credential{UserID: "default", RealmID: "realm-1", AccessToken: "a", RefreshToken: "r", ExpiresAt: 100}
	if err := s.Save(ctx, cred); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := s.Delete(ctx, "default"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Get(ctx, "default"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete = %v, expected ErrNotFound", err)
	}

	// Deleting a missing record is not an error.
	if err := s.Delete(ctx, "default"); err != nil {
		t.Errorf("Delete() on missing record = %v, expected nil", err)
	}
}
