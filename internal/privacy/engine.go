// Package privacy implements the selective field-level encryption engine:
// authenticated encryption of single string values, a path-based traversal
// that encrypts or decrypts fields inside nested documents, and a keyed hash
// for identifiers that leave the service boundary.
package privacy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
)

const nonceSize = 12

// base64 of a 12-byte nonce is always 16 characters, no padding.
const encodedNonceLen = 16

// Engine performs AES-256-GCM encryption of string values with a single
// symmetric key fixed at instantiation. Scalar operations are stateless and
// safe for concurrent use.
type Engine struct {
	aead    cipher.AEAD
	hashKey []byte
	logger  *slog.Logger
}

// NewEngine creates an engine from a 32-byte key. The same key drives both
// the reversible cipher and the keyed identifier hash.
func NewEngine(key []byte, logger *slog.Logger) (*Engine, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return &Engine{
		aead:    aead,
		hashKey: key,
		logger:  logger,
	}, nil
}

// Encrypt seals the plaintext under a fresh random nonce. The result is
// base64(nonce) immediately followed by base64(ciphertext‖tag), one string,
// safe to store in any text field.
func (e *Engine) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(nonce) + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt is the left inverse of Encrypt for values produced under the same
// key. Any failure (malformed input, bad encoding, authentication failure)
// is logged and the input is returned unchanged; callers must tolerate
// receiving still-encrypted-looking values.
func (e *Engine) Decrypt(ciphertext string) string {
	if len(ciphertext) < encodedNonceLen {
		e.logDecryptFailure("ciphertext shorter than encoded nonce")
		return ciphertext
	}
	nonce, err := base64.StdEncoding.DecodeString(ciphertext[:encodedNonceLen])
	if err != nil || len(nonce) != nonceSize {
		e.logDecryptFailure("malformed nonce encoding")
		return ciphertext
	}
	sealed, err := base64.StdEncoding.DecodeString(ciphertext[encodedNonceLen:])
	if err != nil {
		e.logDecryptFailure("malformed ciphertext encoding")
		return ciphertext
	}
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		e.logDecryptFailure("authentication failed")
		return ciphertext
	}
	return string(plaintext)
}

// HashIdentifier returns a keyed, non-reversible digest of an identifier.
// Used for ids embedded in journal events.
func (e *Engine) HashIdentifier(id string) string {
	mac := hmac.New(sha256.New, e.hashKey)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

func (e *Engine) logDecryptFailure(reason string) {
	if e.logger != nil {
		e.logger.Warn("decryption_failed_returning_input", slog.String("reason", reason))
	}
}
