package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("expected wrong password to fail")
	}
}

func TestGenerateSessionToken_IsUUID(t *testing.T) {
	a := GenerateSessionToken()
	b := GenerateSessionToken()
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("token %q is not a UUID: %v", a, err)
	}
	if a == b {
		t.Error("expected distinct tokens")
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("expected identical digests for identical tokens")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("expected different digests for different tokens")
	}
	if len(HashToken("abc")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(HashToken("abc")))
	}
}

func TestResetToken(t *testing.T) {
	token, err := GenerateResetToken("grower1", "$2a$10$hash", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateResetToken failed: %v", err)
	}

	claims, err := ValidateResetToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateResetToken failed: %v", err)
	}
	if claims.Username != "grower1" {
		t.Errorf("expected grower1, got %s", claims.Username)
	}
	if claims.Password != PasswordFingerprint("$2a$10$hash") {
		t.Error("expected token to carry the password fingerprint")
	}
	if claims.Password == PasswordFingerprint("$2a$10$other") {
		t.Error("fingerprint should change with the hash")
	}

	if _, err := ValidateResetToken(token, "other-secret"); err == nil {
		t.Error("expected wrong secret to fail")
	}

	expired, err := GenerateResetToken("grower1", "$2a$10$hash", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateResetToken failed: %v", err)
	}
	if _, err := ValidateResetToken(expired, "secret"); err == nil {
		t.Error("expected expired token to fail")
	}

	if _, err := GenerateResetToken("grower1", "$2a$10$hash", "", time.Hour); err == nil {
		t.Error("expected missing secret to fail")
	}
}
