package auth

import (
	"testing"
	"time"
)

const testSecret = "my_test_jwt_secret"

func TestGenerateAndParseJWT(t *testing.T) {
	userId := uint(42)
	phone := "9876543210"
	exp := time.Hour

	tokenString, err := GenerateJWT(testSecret, userId, phone, exp)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	if tokenString == "" {
		t.Fatalf("empty token string")
	}

	claims, err := ParseJWT(testSecret, tokenString)
	if err != nil {
		t.Fatalf("failed to parse JWT: %v", err)
	}
	if claims.UserID != userId {
		t.Errorf("expected userId=%d, got %d", userId, claims.UserID)
	}
	if claims.Phone != phone {
		t.Errorf("expected phone=%s, got %s", phone, claims.Phone)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		t.Errorf("token should not be expired, got expiresAt=%v", claims.ExpiresAt)
	}
}

func TestParseJWT_InvalidToken(t *testing.T) {
	invalidToken := "this.is.not.a.valid.jwt"
	_, err := ParseJWT(testSecret, invalidToken)
	if err == nil {
		t.Errorf("expected error for invalid JWT, got nil")
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, 99, "9876543210", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	_, err = ParseJWT("a_different_secret", tokenString)
	if err == nil {
		t.Errorf("expected error for wrong secret, got nil")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, 7, "9876543210", -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	_, err = ParseJWT(testSecret, tokenString)
	if err == nil {
		t.Errorf("expected error for expired token, got nil")
	}
}
