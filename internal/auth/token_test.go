package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"jobboard-chat/internal/apperror"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	issued := time.Now().Add(-time.Minute)
	token := signToken(t, testSecret, Claims{
		UserID: "user-42",
		Role:   "JOB_SEEKER",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	identity, err := NewTokenVerifier(testSecret).Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if identity.UserID != "user-42" {
		t.Errorf("user id = %q, want user-42", identity.UserID)
	}
	if identity.Role != "JOB_SEEKER" {
		t.Errorf("role = %q, want JOB_SEEKER", identity.Role)
	}
	if identity.IssuedAt.Unix() != issued.Unix() {
		t.Errorf("issued at = %v, want %v", identity.IssuedAt, issued)
	}
}

func TestVerifyFailures(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)

	expired := signToken(t, testSecret, Claims{
		UserID: "user-42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	wrongSecret := signToken(t, "other-secret", Claims{UserID: "user-42"})
	missingUser := signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "not.a.token"},
		{"expired token", expired},
		{"wrong secret", wrongSecret},
		{"missing user id", missingUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			if !apperror.IsKind(err, apperror.KindInvalidCredential) {
				t.Errorf("error = %v, want invalid_credential", err)
			}
			if !apperror.From(err).Fatal() {
				t.Error("credential failures must be fatal to the connection")
			}
		})
	}
}

func TestVerifyRejectsUnexpectedSigningMethod(t *testing.T) {
	// alg=none tokens must never pass, whatever the payload says.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-42"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	_, err = NewTokenVerifier(testSecret).Verify(signed)
	if !apperror.IsKind(err, apperror.KindInvalidCredential) {
		t.Errorf("error = %v, want invalid_credential", err)
	}
}
