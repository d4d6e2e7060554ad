package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if token == "" {
		t.Fatal("Expected a non-empty token")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if claims.PlayerID != 42 {
		t.Errorf("Expected player ID 42, got %d", claims.PlayerID)
	}
	if claims.Username != "alice" {
		t.Errorf("Expected username alice, got %s", claims.Username)
	}
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	if _, err := svc.ValidateToken("not-a-token"); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken for garbage, got: %v", err)
	}

	other := NewJWTService("other-secret", time.Hour)
	token, _ := other.GenerateToken(1, "bob")
	if _, err := svc.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken for wrong secret, got: %v", err)
	}

	expired := NewJWTService("test-secret", -time.Minute)
	token, _ = expired.GenerateToken(1, "bob")
	if _, err := svc.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken for expired token, got: %v", err)
	}
}
