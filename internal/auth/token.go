package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long an issued session token stays valid. There is
// no revocation list; expiry is the only deauthorization path.
const TokenLifetime = 7 * 24 * time.Hour

var (
	ErrInvalidSignature      = errors.New("invalid token signature")
	ErrInvalidIssuerAudience = errors.New("invalid token issuer or audience")
	ErrExpired               = errors.New("token expired")
	ErrMalformedClaims       = errors.New("malformed token claims")
)

type Claims struct {
	Username string `json:"name"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints signed session tokens for authenticated users.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewTokenIssuer(secret []byte, issuer, audience string) *TokenIssuer {
	return &TokenIssuer{secret: secret, issuer: issuer, audience: audience, now: time.Now}
}

func (ti *TokenIssuer) Issue(user *User) (string, error) {
	now := ti.now().UTC()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    ti.issuer,
			Audience:  jwt.ClaimStrings{ti.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return tok.SignedString(ti.secret)
}

// TokenValidator checks presented tokens against the shared secret and the
// configured issuer/audience. Validation is stateless: no store lookup
// happens here, so a deleted or demoted account keeps a working token until
// it expires.
type TokenValidator struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewTokenValidator(secret []byte, issuer, audience string) *TokenValidator {
	return &TokenValidator{secret: secret, issuer: issuer, audience: audience, now: time.Now}
}

// Validate returns the Identity carried by tokenString, or one of the
// token error kinds. Checks run in order: signature, issuer/audience,
// expiry, required claims.
func (tv *TokenValidator) Validate(tokenString string) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return tv.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(tv.issuer),
		jwt.WithAudience(tv.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tv.now),
	)
	if err != nil {
		return Identity{}, classifyTokenError(err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, ErrMalformedClaims
	}
	role, ok := ParseRole(string(claims.Role))
	if !ok {
		return Identity{}, ErrMalformedClaims
	}
	return Identity{UserID: userID, Role: role}, nil
}

// classifyTokenError maps jwt/v5 errors onto the local kinds, in check
// order: signature, issuer/audience, expiry, everything else.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrInvalidIssuerAudience
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformedClaims
	}
}
