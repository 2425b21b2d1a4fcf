package auth

import "testing"

func TestGenerateAndValidateUserToken(t *testing.T) {
	token, err := GenerateUserToken("user-1", "guardian")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", claims.UserID)
	}
	if claims.Role != "guardian" {
		t.Errorf("expected guardian role, got %s", claims.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-jwt"); err == nil {
		t.Fatal("garbage token should be rejected")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	original := JWTSecret
	JWTSecret = []byte("secret-a")
	token, err := GenerateUserToken("user-1", "guardian")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	JWTSecret = []byte("secret-b")
	defer func() { JWTSecret = original }()

	if _, err := ValidateToken(token); err == nil {
		t.Fatal("token signed with a different secret should be rejected")
	}
}
