package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("test1234", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "test1234" {
		t.Fatal("hash equals plaintext")
	}
	if !VerifyPassword(hash, "test1234") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "test12345") {
		t.Error("wrong password accepted")
	}
	if VerifyPassword("not-a-hash", "test1234") {
		t.Error("malformed hash accepted")
	}
}
