package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MintInput describes the credential to sign with [Mint].
//
// MintInput instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MintInput struct {
	Subject   string
	Email     string
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Mint signs a credential the way the identity backend does (HS256 over the
// user_id/email/type payload). Production clients never mint; this exists so
// tests and examples can fabricate backend-shaped tokens.
func Mint(in MintInput, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("mint requires a signing secret")
	}
	if in.Subject == "" {
		return "", errors.New("mint requires a subject")
	}
	kind := in.Kind
	if kind == "" {
		kind = KindAccess
	}

	claims := payload{
		Email: in.Email,
		Type:  string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   in.Subject,
			IssuedAt:  jwt.NewNumericDate(in.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(in.ExpiresAt),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
