package auth

import (
	"testing"
	"time"
)

func TestSignAndParseToken(t *testing.T) {
	tok, err := SignToken(7, "alice", "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ParseToken(tok, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := SignToken(7, "alice", "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(tok, "other"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	tok, err := SignToken(7, "alice", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(tok, "secret"); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword("password1", hash) {
		t.Fatal("expected password to verify")
	}
	if CheckPassword("password2", hash) {
		t.Fatal("expected wrong password to fail")
	}
}
