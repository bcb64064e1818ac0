package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore holds the credentials allowed to write, and the refresh token
// ids issued to them.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db}
}

// Ensure creates the account, or resets its password if it already exists.
func (s *AccountStore) Ensure(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO account (username, password_hash) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`,
		username,
		hash,
	)
	return errors.Wrapf(err, "ensure account %s", username)
}

// Verify checks the password against the stored hash.
func (s *AccountStore) Verify(ctx context.Context, username, password string) error {
	var hash []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT password_hash FROM account WHERE username = $1`,
		username,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "get account")
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

func (s *AccountStore) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token (username, token_id, refresh_token_id, expiration)
		VALUES ($1, $2, $3, $4)`,
		username,
		tokenID,
		refreshTokenID,
		expiration.Unix(),
	)
	return errors.Wrap(err, "store token")
}

// ConsumeToken deletes a stored token and returns its expiration, so each
// refresh token can be used once.
func (s *AccountStore) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error) {
	var expiration int64
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM token
		WHERE username = $1
			AND token_id = $2
			AND refresh_token_id = $3
		RETURNING expiration`,
		username,
		tokenID,
		refreshTokenID,
	).Scan(&expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	return time.Unix(expiration, 0), errors.Wrap(err, "consume token")
}

// RevokeTokens drops every refresh token of the account.
func (s *AccountStore) RevokeTokens(ctx context.Context, username string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM token WHERE username = $1`, username)
	if err != nil {
		return 0, errors.Wrap(err, "revoke tokens")
	}
	return res.RowsAffected()
}
