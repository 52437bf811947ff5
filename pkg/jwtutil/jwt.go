package jwtutil

import (
	"errors"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	secret     []byte
	expiration = 24 * time.Hour
)

// ErrInvalidToken is returned when a token fails signature or expiry checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	UserID   string  `json:"userId"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	TenantID *string `json:"tenantId,omitempty"` // nil only for super_admin
	jwt.RegisteredClaims
}

// Initialize configures the signing key and token lifetime from config.
// Must be called before GenerateToken/ValidateToken.
func Initialize(cfg *config.JWTConfig) {
	secret = []byte(cfg.SigningKey)
	if cfg.ExpirationTime > 0 {
		expiration = cfg.ExpirationTime
	}
}

// GenerateToken creates a JWT token with user and tenant information
func GenerateToken(userID, username, role string, tenantID *string) (string, error) {
	claims := UserClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
