package service

import (
	"errors"
	"testing"
	"time"

	"github.com/hadirku/hadirku-backend/internal/config"
)

func authTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4, // minimum cost keeps the test fast
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	svc := NewAuthService(authTestConfig(), nil)

	hash, err := svc.HashPassword("hadirku123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hadirku123" {
		t.Fatal("hash equals plaintext")
	}
	if err := svc.CheckPassword(hash, "hadirku123"); err != nil {
		t.Errorf("CheckPassword with correct password: %v", err)
	}
	if err := svc.CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword with wrong password = %v, want ErrInvalidCredentials", err)
	}
}

func TestTeacherTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(authTestConfig(), nil)

	token, err := svc.GenerateTeacherToken(42)
	if err != nil {
		t.Fatalf("GenerateTeacherToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != TokenTypeTeacher {
		t.Errorf("token_type = %s, want teacher", claims.TokenType)
	}
	if claims.UserID != 42 {
		t.Errorf("user_id = %d, want 42", claims.UserID)
	}
	if claims.ClassID != 0 {
		t.Errorf("class_id = %d, want 0 for teacher", claims.ClassID)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService(authTestConfig(), nil)
	other := NewAuthService(&config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour}, nil)

	token, err := other.GenerateTeacherToken(42)
	if err != nil {
		t.Fatalf("GenerateTeacherToken: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(authTestConfig(), nil)
	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected validation failure for malformed token")
	}
}
