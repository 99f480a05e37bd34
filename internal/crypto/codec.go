package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"io"

	"messaging-service/internal/errs"
)

// Role selects which wrapped key a viewer unwraps.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

const (
	contentKeySize = 32
	ivSize         = 12
	tagSize        = 16
)

// SealedMessage carries the crypto fields of one encrypted message. One
// ciphertext, two wrapped copies of the content key: ciphertext size stays
// independent of recipient count and the sender can re-read sent history.
type SealedMessage struct {
	EncryptedContent   string
	IV                 string
	AuthTag            string
	SenderWrappedKey   string
	ReceiverWrappedKey string
	ContentHash        string
}

// Encode seals plaintext under a fresh one-time AES-256-GCM content key,
// wraps the key with RSA-OAEP-SHA256 for both parties, and records a
// SHA-256 content hash. Neither plaintext nor the content key leave this
// function in the clear.
func Encode(plaintext []byte, senderPub, receiverPub *rsa.PublicKey) (SealedMessage, error) {
	key := make([]byte, contentKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return SealedMessage{}, err
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return SealedMessage{}, err
	}

	aead, err := newGCM(key)
	if err != nil {
		return SealedMessage{}, err
	}

	sealed := aead.Seal(nil, iv, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	senderWrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, senderPub, key, nil)
	if err != nil {
		return SealedMessage{}, err
	}
	receiverWrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, receiverPub, key, nil)
	if err != nil {
		return SealedMessage{}, err
	}

	hash := sha256.Sum256(plaintext)

	return SealedMessage{
		EncryptedContent:   base64.StdEncoding.EncodeToString(ciphertext),
		IV:                 base64.StdEncoding.EncodeToString(iv),
		AuthTag:            base64.StdEncoding.EncodeToString(tag),
		SenderWrappedKey:   base64.StdEncoding.EncodeToString(senderWrapped),
		ReceiverWrappedKey: base64.StdEncoding.EncodeToString(receiverWrapped),
		ContentHash:        hex.EncodeToString(hash[:]),
	}, nil
}

// Decode unwraps the viewer's copy of the content key and opens the
// ciphertext. A failed unwrap or tag check returns ErrAuthenticationFailed;
// a plaintext that does not hash to ContentHash returns
// ErrIntegrityMismatch. Altered plaintext is never returned.
func Decode(sealed SealedMessage, priv *rsa.PrivateKey, role Role) ([]byte, error) {
	wrapped := sealed.ReceiverWrappedKey
	if role == RoleSender {
		wrapped = sealed.SenderWrappedKey
	}

	wrappedKey, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidArgument, "malformed wrapped key", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sealed.EncryptedContent)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidArgument, "malformed ciphertext", err)
	}
	iv, err := base64.StdEncoding.DecodeString(sealed.IV)
	if err != nil || len(iv) != ivSize {
		return nil, errs.Wrap(errs.CodeInvalidArgument, "malformed iv", err)
	}
	tag, err := base64.StdEncoding.DecodeString(sealed.AuthTag)
	if err != nil || len(tag) != tagSize {
		return nil, errs.Wrap(errs.CodeInvalidArgument, "malformed auth tag", err)
	}

	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrappedKey, nil)
	if err != nil {
		return nil, errs.ErrAuthenticationFailed
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, errs.ErrAuthenticationFailed
	}

	hash := sha256.Sum256(plaintext)
	if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(hash[:])), []byte(sealed.ContentHash)) != 1 {
		return nil, errs.ErrIntegrityMismatch
	}
	return plaintext, nil
}

// HashContent returns the hex SHA-256 digest recorded alongside a message.
func HashContent(plaintext []byte) string {
	hash := sha256.Sum256(plaintext)
	return hex.EncodeToString(hash[:])
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
