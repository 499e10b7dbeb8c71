package authn

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Principal is the identity carried by a verified token. It is never
// persisted; it only lives for the duration of a request.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Complete reports whether the principal carries every claim the
// authorization layer depends on.
func (p Principal) Complete() bool {
	return p.Username != "" && p.Email != "" && p.Role != ""
}

// Matches compares the identity claims of two principals. Token IDs and
// expiries are allowed to differ between an access/refresh pair.
func (p Principal) Matches(other Principal) bool {
	return p.Username == other.Username && p.Email == other.Email && p.Role == other.Role
}

type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	UserID   string `json:"uid"`
}

// Codec signs and verifies the self-contained bearer tokens used by the
// API. The signing secret and token lifetimes are explicit configuration;
// there is no package-level state.
type Codec struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(signingKey []byte, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the lifetime used for freshly minted access tokens,
// both at login and on the silent-refresh path.
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

// Encode signs a principal snapshot with the given lifetime.
func (c *Codec) Encode(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: p.Username,
		Email:    p.Email,
		Role:     p.Role,
		UserID:   p.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// EncodeAccess signs a short-lived access token for the principal.
func (c *Codec) EncodeAccess(p Principal) (string, error) {
	return c.Encode(p, c.accessTTL)
}

// EncodeRefresh signs a long-lived refresh token for the principal.
func (c *Codec) EncodeRefresh(p Principal) (string, error) {
	return c.Encode(p, c.refreshTTL)
}

// Decode verifies a token and returns the principal it carries. An expired
// token returns the decoded principal alongside ErrTokenExpired so the
// verifier can compare claims before deciding on the refresh path; any
// other failure returns a zero principal and ErrTokenInvalid.
func (c *Codec) Decode(raw string) (Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return principalFromClaims(claims), ErrTokenExpired
		}
		return Principal{}, ErrTokenInvalid
	}

	return principalFromClaims(claims), nil
}

func principalFromClaims(claims *Claims) Principal {
	return Principal{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	}
}
