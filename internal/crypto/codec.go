package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrDecrypt is returned when an attachment blob fails authentication.
// Unlike text fields there is no fallback: a tampered or truncated
// attachment must not be served.
var ErrDecrypt = errors.New("crypto: decryption failed")

// Codec provides AES-256-GCM encryption for attachment blobs and for
// the subject/details text columns. The key is derived once from the
// process-wide APP_KEY.
type Codec struct {
	aead cipher.AEAD
}

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("crypto: empty secret")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext into nonce||ciphertext.
func (c *Codec) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. Any structural or
// authentication failure yields ErrDecrypt.
func (c *Codec) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < c.aead.NonceSize() {
		return nil, ErrDecrypt
	}
	nonce, ciphertext := blob[:c.aead.NonceSize()], blob[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// EncryptField encrypts a text column value for storage.
func (c *Codec) EncryptField(value string) (string, error) {
	blob, err := c.Encrypt([]byte(value))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptField reverses EncryptField. Rows written before encryption
// was introduced hold raw text; those (and anything else that fails to
// decode or authenticate) are returned unchanged rather than erroring.
func (c *Codec) DecryptField(stored string) string {
	blob, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return stored
	}
	plaintext, err := c.Decrypt(blob)
	if err != nil {
		return stored
	}
	return string(plaintext)
}
