package models

import "time"

// UserKeyPair holds one version of a user's asymmetric keypair. The
// private key is stored only in encrypted form; the fingerprint is always
// recomputable as SHA-256 over the DER-encoded public key. Old versions
// are retained after rotation so historical envelopes stay decryptable.
type UserKeyPair struct {
	UserID              int       `db:"user_id" json:"user_id"`
	PublicKey           string    `db:"public_key" json:"public_key"`
	EncryptedPrivateKey string    `db:"encrypted_private_key" json:"-"`
	Fingerprint         string    `db:"fingerprint" json:"fingerprint"`
	Version             int       `db:"version" json:"version"`
	GeneratedAt         time.Time `db:"generated_at" json:"generated_at"`
}
