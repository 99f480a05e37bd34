package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/errs"
	"messaging-service/internal/models"
)

// KeyRepository persists versioned user keypairs. Old versions are never
// deleted; rotation only appends.
type KeyRepository interface {
	Insert(ctx context.Context, pair models.UserKeyPair) error
	Current(ctx context.Context, userID int) (models.UserKeyPair, error)
	Version(ctx context.Context, userID, version int) (models.UserKeyPair, error)
	CurrentVersion(ctx context.Context, userID int) (int, error)
}

// KeyRepo is a sqlx-backed repository.
type KeyRepo struct {
	db *sqlx.DB
}

// NewKeyRepo constructs KeyRepo.
func NewKeyRepo(db *sqlx.DB) *KeyRepo {
	return &KeyRepo{db: db}
}

// Insert stores a new keypair version.
func (r *KeyRepo) Insert(ctx context.Context, pair models.UserKeyPair) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_keys
        (user_id, version, public_key, encrypted_private_key, fingerprint, generated_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		pair.UserID, pair.Version, pair.PublicKey, pair.EncryptedPrivateKey, pair.Fingerprint, pair.GeneratedAt)
	return err
}

// Current returns the highest-version keypair for the user.
func (r *KeyRepo) Current(ctx context.Context, userID int) (models.UserKeyPair, error) {
	var pair models.UserKeyPair
	err := r.db.GetContext(ctx, &pair, `SELECT user_id, version, public_key, encrypted_private_key, fingerprint, generated_at
        FROM user_keys WHERE user_id=$1 ORDER BY version DESC LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserKeyPair{}, errs.ErrKeyNotFound
	}
	return pair, err
}

// Version returns one historical keypair version.
func (r *KeyRepo) Version(ctx context.Context, userID, version int) (models.UserKeyPair, error) {
	var pair models.UserKeyPair
	err := r.db.GetContext(ctx, &pair, `SELECT user_id, version, public_key, encrypted_private_key, fingerprint, generated_at
        FROM user_keys WHERE user_id=$1 AND version=$2`, userID, version)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserKeyPair{}, errs.ErrKeyNotFound
	}
	return pair, err
}

// CurrentVersion returns 0 when the user has never initialized keys.
func (r *KeyRepo) CurrentVersion(ctx context.Context, userID int) (int, error) {
	var version int
	err := r.db.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM user_keys WHERE user_id=$1`, userID)
	return version, err
}
