package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a credential cannot be parsed at all.
var ErrMalformed = errors.New("malformed token")

// Kind identifies which half of the credential pair a token represents.
type Kind string

const (
	// KindAccess is an exported constant or variable used by the session controller.
	KindAccess Kind = "access"
	// KindRefresh is an exported constant or variable used by the session controller.
	KindRefresh Kind = "refresh"
)

// Claims is the decoded payload of a credential.
//
// Claims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Claims struct {
	Subject   string
	Email     string
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type payload struct {
	// Older backend releases carried the subject in user_id instead of sub.
	LegacyUserID string `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
	Type         string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Config defines a public type used by sessionkit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Leeway widens expiry comparisons to absorb clock drift between the
	// client and the identity backend. Zero means exact comparison.
	Leeway time.Duration
}

// Codec defines a public type used by sessionkit APIs.
//
// Codec instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Codec struct {
	config Config
}

// NewCodec describes the newcodec operation and its observable behavior.
//
// NewCodec may return an error when input validation, dependency calls, or security checks fail.
// NewCodec does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// Decode describes the decode operation and its observable behavior.
//
// Decode may return an error when input validation, dependency calls, or security checks fail.
// Decode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMalformed
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	var p payload
	if _, _, err := parser.ParseUnverified(tokenStr, &p); err != nil {
		return nil, ErrMalformed
	}

	claims := &Claims{
		Subject: p.RegisteredClaims.Subject,
		Email:   p.Email,
		Kind:    Kind(p.Type),
	}
	if claims.Subject == "" {
		claims.Subject = p.LegacyUserID
	}
	if p.IssuedAt != nil {
		claims.IssuedAt = p.IssuedAt.Time
	}
	if p.ExpiresAt != nil {
		claims.ExpiresAt = p.ExpiresAt.Time
	}

	return claims, nil
}

// IsExpired reports whether the token is unusable at the supplied instant.
// A token that fails to decode, or that carries no expiry, is expired: an
// unparsable credential must never be treated as valid.
func (c *Codec) IsExpired(tokenStr string, now time.Time) bool {
	claims, err := c.Decode(tokenStr)
	if err != nil {
		return true
	}
	if claims.ExpiresAt.IsZero() {
		return true
	}
	return !claims.ExpiresAt.After(now.Add(-c.config.Leeway))
}

// Subject describes the subject operation and its observable behavior.
//
// Subject may return an error when input validation, dependency calls, or security checks fail.
// Subject does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Codec) Subject(tokenStr string) string {
	claims, err := c.Decode(tokenStr)
	if err != nil {
		return ""
	}
	return claims.Subject
}
