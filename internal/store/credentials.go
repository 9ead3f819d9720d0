package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Credential is one stored OAuth credential record. At most one live record
// exists per user id; RefreshToken is never empty while AccessToken is set.
type Credential struct {
	UserID       string
	RealmID      string
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // epoch seconds
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Save inserts or replaces the credential for its user id, stamping both
// created_at and updated_at. Used after the initial authorization-code
// exchange.
func (s *Store) Save(ctx context.Context, cred *Credential) error {
	now := time.Now().UTC()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	const query = `
INSERT INTO credentials (user_id, realm_id, access_token, refresh_token, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    realm_id=excluded.realm_id,
    access_token=excluded.access_token,
    refresh_token=excluded.refresh_token,
    expires_at=excluded.expires_at,
    updated_at=excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		cred.UserID, cred.RealmID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Update rewrites an existing credential in place, bumping updated_at.
// Used on every token refresh.
func (s *Store) Update(ctx context.Context, cred *Credential) error {
	now := time.Now().UTC()
	cred.UpdatedAt = now

	const query = `
UPDATE credentials
SET realm_id=?, access_token=?, refresh_token=?, expires_at=?, updated_at=?
WHERE user_id=?`

	_, err := s.db.ExecContext(ctx, query,
		cred.RealmID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt,
		now.Format(time.RFC3339), cred.UserID)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	return nil
}

// Get retrieves the credential for a user id. Returns ErrNotFound when no
// record exists.
func (s *Store) Get(ctx context.Context, userID string) (*Credential, error) {
	const query = `
SELECT user_id, realm_id, access_token, refresh_token, expires_at, created_at, updated_at
FROM credentials WHERE user_id = ?`

	return s.scanOne(s.db.QueryRowContext(ctx, query, userID))
}

// Latest returns the most recently updated credential regardless of user id.
// Used as a fallback when the configured identity has no record yet.
func (s *Store) Latest(ctx context.Context) (*Credential, error) {
	const query = `
SELECT user_id, realm_id, access_token, refresh_token, expires_at, created_at, updated_at
FROM credentials ORDER BY updated_at DESC LIMIT 1`

	return s.scanOne(s.db.QueryRowContext(ctx, query))
}

// Delete removes the credential for a user id (explicit disconnect).
func (s *Store) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM credentials WHERE user_id = ?`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

func (s *Store) scanOne(row *sql.Row) (*Credential, error) {
	var cred Credential
	var createdAt, updatedAt string

	err := row.Scan(&cred.UserID, &cred.RealmID, &cred.AccessToken, &cred.RefreshToken,
		&cred.ExpiresAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}

	if cred.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if cred.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &cred, nil
}
