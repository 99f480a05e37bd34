// Package keys owns per-user asymmetric keypairs: generation, rotation
// with retained history, and private-key-at-rest encryption.
package keys

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"messaging-service/internal/crypto"
	"messaging-service/internal/errs"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

const rsaBits = 2048

// Service implements key management over a KeyRepository. Private keys are
// PKCS#8-marshalled and sealed with AES-256-GCM under a per-user key
// derived from the master secret via HKDF-SHA256; they are never stored
// or returned in plaintext.
type Service struct {
	repo   repositories.KeyRepository
	master []byte
}

// NewService constructs the key service.
func NewService(repo repositories.KeyRepository, masterSecret string) *Service {
	return &Service{repo: repo, master: []byte(masterSecret)}
}

// GenerateKeyPair creates and stores a keypair for the user. Without
// rotate it fails with ErrKeyAlreadyExists once a keypair is present;
// rotation appends version n+1, keeping old versions for historical
// decryption.
func (s *Service) GenerateKeyPair(ctx context.Context, userID int, rotate bool) (models.UserKeyPair, error) {
	current, err := s.repo.CurrentVersion(ctx, userID)
	if err != nil {
		return models.UserKeyPair{}, err
	}
	if current > 0 && !rotate {
		return models.UserKeyPair{}, errs.ErrKeyAlreadyExists
	}

	priv, err := rsa.GenerateKey(rand.Reader, rsaBits)
	if err != nil {
		return models.UserKeyPair{}, err
	}

	publicPEM, err := crypto.EncodePublicKey(&priv.PublicKey)
	if err != nil {
		return models.UserKeyPair{}, err
	}
	fingerprint, err := crypto.Fingerprint(&priv.PublicKey)
	if err != nil {
		return models.UserKeyPair{}, err
	}
	encryptedPriv, err := s.sealPrivateKey(priv, userID)
	if err != nil {
		return models.UserKeyPair{}, err
	}

	pair := models.UserKeyPair{
		UserID:              userID,
		PublicKey:           publicPEM,
		EncryptedPrivateKey: encryptedPriv,
		Fingerprint:         fingerprint,
		Version:             current + 1,
		GeneratedAt:         time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, pair); err != nil {
		return models.UserKeyPair{}, err
	}
	return pair, nil
}

// GetPublicKey returns the current public key and fingerprint; the
// encrypted private key is stripped.
func (s *Service) GetPublicKey(ctx context.Context, userID int) (models.UserKeyPair, error) {
	pair, err := s.repo.Current(ctx, userID)
	if err != nil {
		return models.UserKeyPair{}, err
	}
	pair.EncryptedPrivateKey = ""
	return pair, nil
}

// GetDecryptionKey returns the encrypted private key blob of one version
// (0 = current) for client-side decryption.
func (s *Service) GetDecryptionKey(ctx context.Context, userID, version int) (models.UserKeyPair, error) {
	if version == 0 {
		return s.repo.Current(ctx, userID)
	}
	return s.repo.Version(ctx, userID, version)
}

// deriveWrapKey derives the per-user private-key wrapping key.
func (s *Service) deriveWrapKey(userID int) ([]byte, error) {
	info := []byte(fmt.Sprintf("user-key-wrap:%d", userID))
	h := hkdf.New(sha256.New, s.master, nil, info)
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *Service) sealPrivateKey(priv *rsa.PrivateKey, userID int) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", err
	}
	wrapKey, err := s.deriveWrapKey(userID)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(wrapKey)
	if err != nil {
		return "", err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, der, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// openPrivateKey reverses sealPrivateKey. Kept unexported: the server only
// needs it to verify round-trips, never to read user messages.
func (s *Service) openPrivateKey(encrypted string, userID int) (*rsa.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, err
	}
	wrapKey, err := s.deriveWrapKey(userID)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(wrapKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(raw) < aead.NonceSize() {
		return nil, errors.New("encrypted private key too short")
	}
	der, err := aead.Open(nil, raw[:aead.NonceSize()], raw[aead.NonceSize():], nil)
	if err != nil {
		return nil, errs.ErrAuthenticationFailed
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("stored key is not RSA")
	}
	return rsaKey, nil
}
