package auth

import (
	"fmt"
	"time"

	"github.com/feedbackfortress/backend/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JWTService struct {
	secret string
	expiry time.Duration
}

type AccessTokenClaims struct {
	Sub       string `json:"sub"`
	Role      string `json:"role"`
	StudentID string `json:"student_id"`
	jwt.RegisteredClaims
}

func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{
		secret: cfg.JWT.Secret,
		expiry: cfg.JWT.Expiry,
	}
}

func (j *JWTService) GenerateToken(userID uuid.UUID, role, studentID string) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(j.expiry)

	claims := AccessTokenClaims{
		Sub:       userID.String(),
		Role:      role,
		StudentID: studentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "feedback-fortress",
			Audience:  jwt.ClaimStrings{"feedback-fortress-api"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(j.secret))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, int64(j.expiry.Seconds()), nil
}

func (j *JWTService) ValidateToken(tokenString string) (*AccessTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != "feedback-fortress" {
		return nil, fmt.Errorf("invalid issuer")
	}

	return claims, nil
}
