package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
)

// ErrEmptySecret is returned when a secret-keyed primitive is built without a
// secret.
var ErrEmptySecret = errors.New("secret must not be empty")

// NonceGenerator issues sign-in nonces as HMAC-SHA256(secret, uuidv4).
type NonceGenerator struct {
	secret []byte
}

func NewNonceGenerator(secret string) (*NonceGenerator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &NonceGenerator{secret: []byte(secret)}, nil
}

// Generate returns a fresh 64-character lowercase hex nonce.
func (g *NonceGenerator) Generate() string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(uuid.NewString()))
	return hex.EncodeToString(mac.Sum(nil))
}
