// Package token seals and opens QR code payloads. A code displayed on an
// employer station is an encrypted, authenticated envelope carrying the
// issuing employer, an optional target employee, the issue timestamp, and a
// purpose tag. Tampered or foreign codes fail to open.
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/argon2"
)

const (
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

// keySalt is fixed: the secret is per deployment, the salt only separates
// this key derivation from any other use of the same secret.
var keySalt = []byte("punchcard-qr-v1!")

// Payload is the plaintext content of a sealed code.
type Payload struct {
	EmployerID       int64  `json:"emp"`
	TargetEmployeeID *int64 `json:"tgt,omitempty"`
	Purpose          string `json:"pur"`
	IssuedAtUnix     int64  `json:"iat"`
	Nonce            string `json:"non"`
}

// IssuedAt returns the issue timestamp in UTC.
func (p Payload) IssuedAt() time.Time {
	return time.Unix(p.IssuedAtUnix, 0).UTC()
}

// Codec seals payloads into opaque base64url codes and opens them again.
// The AES-256 key is derived once from the deployment secret with Argon2id.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives the sealing key from secret and prepares the cipher.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty")
	}

	key := argon2.IDKey([]byte(secret), keySalt, argonTime, argonMem, argonPar, keySize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Seal encrypts the payload into an opaque code.
// Output format before encoding: [12-byte nonce][AES-256-GCM ciphertext].
func (c *Codec) Seal(p Payload) (string, error) {
	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a code back into its payload. Any format, key, or
// authentication failure is reported as a single opaque error so callers
// treat all bad codes alike.
func (c *Codec) Open(code string) (Payload, error) {
	data, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return Payload{}, fmt.Errorf("decode code: %w", err)
	}
	if len(data) < nonceSize {
		return Payload{}, fmt.Errorf("code too short")
	}

	nonce := data[:nonceSize]
	ciphertext := data[nonceSize:]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("open code: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return Payload{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return p, nil
}
