package jwtutil

import (
	"errors"
	"testing"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/pkg/config"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-secret", ExpirationTime: time.Hour})

	tenantID := "11111111-1111-1111-1111-111111111111"
	token, err := GenerateToken("user-1", "alice", "cashier", &tenantID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" || claims.Role != "cashier" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TenantID == nil || *claims.TenantID != tenantID {
		t.Fatalf("expected tenant id %q, got %v", tenantID, claims.TenantID)
	}
}

func TestValidateTokenNilTenant(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-secret", ExpirationTime: time.Hour})

	token, err := GenerateToken("user-2", "root", "super_admin", nil)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.TenantID != nil {
		t.Fatalf("expected nil tenant id, got %v", *claims.TenantID)
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationTime: time.Hour})
	token, err := GenerateToken("user-3", "bob", "worker", nil)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationTime: time.Hour})
	if _, err := ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-secret", ExpirationTime: -time.Minute})
	token, err := GenerateToken("user-4", "carol", "viewer", nil)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-secret", ExpirationTime: time.Hour})
	if _, err := ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
