package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"jobboard-chat/internal/apperror"
)

// Claims are the custom claims carried by job-board access tokens.
// Token issuance belongs to the main backend; the chat core only
// verifies.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the result of a successful credential verification.
type Identity struct {
	UserID   string
	Role     string
	IssuedAt time.Time
}

// TokenVerifier validates HMAC-signed access tokens.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for the given shared secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify checks the token's signature and expiry and returns the
// bound identity. Any failure maps to InvalidCredential.
func (v *TokenVerifier) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, apperror.InvalidCredential("No token provided")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.InvalidCredential("Token has expired")
		}
		return nil, apperror.InvalidCredential("Invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, apperror.InvalidCredential("Invalid token")
	}

	identity := &Identity{
		UserID: claims.UserID,
		Role:   claims.Role,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}

	return identity, nil
}
