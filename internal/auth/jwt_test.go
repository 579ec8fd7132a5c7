package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateToken(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "kino", "kino", time.Hour)

	token, err := a.GenerateToken("reviewer-1", "moderator")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	parsed, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("expected map claims, got %T", parsed.Claims)
	}
	if sub, _ := claims["sub"].(string); sub != "reviewer-1" {
		t.Errorf("sub claim: expected reviewer-1, got %v", claims["sub"])
	}
	if role, _ := claims["role"].(string); role != "moderator" {
		t.Errorf("role claim: expected moderator, got %v", claims["role"])
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "kino", "kino", time.Hour)
	token, err := a.GenerateToken("reviewer-1", "")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := NewJWTAuthenticator("different-secret", "kino", "kino", time.Hour)
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}
