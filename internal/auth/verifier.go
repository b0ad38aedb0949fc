package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned for any token that cannot be trusted:
// missing, malformed, expired, wrongly signed, or lacking a username.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims is the payload we expect inside the session token. The token is
// minted by the identity provider, not by this service; we only verify it.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Verifier validates externally issued session tokens.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates the token string and returns its claims.
// Every failure mode collapses into ErrUnauthenticated; callers have no
// reason to distinguish a bad signature from an expired token.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	if claims.Username == "" {
		return nil, ErrUnauthenticated
	}

	return claims, nil
}
