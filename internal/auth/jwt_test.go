package auth

import (
	"testing"
	"time"

	"github.com/feedbackfortress/backend/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(expiry time.Duration) *JWTService {
	return NewJWTService(&config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", Expiry: expiry},
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWT(time.Hour)
	userID := uuid.New()

	token, expiresIn, err := svc.GenerateToken(userID, "student", "S0000001")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Sub)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "S0000001", claims.StudentID)
	assert.Equal(t, "feedback-fortress", claims.Issuer)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestJWT(-time.Minute)

	token, _, err := svc.GenerateToken(uuid.New(), "student", "S0000001")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateWrongSecret(t *testing.T) {
	issuer := newTestJWT(time.Hour)
	verifier := NewJWTService(&config.Config{
		JWT: config.JWTConfig{Secret: "other-secret", Expiry: time.Hour},
	})

	token, _, err := issuer.GenerateToken(uuid.New(), "student", "S0000001")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateWrongIssuer(t *testing.T) {
	svc := newTestJWT(time.Hour)

	claims := AccessTokenClaims{
		Sub:  uuid.New().String(),
		Role: "student",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateGarbageToken(t *testing.T) {
	svc := newTestJWT(time.Hour)
	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
