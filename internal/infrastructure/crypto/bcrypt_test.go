package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "secret1" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash %q", hash)
	}
	if !h.Compare(hash, "secret1") {
		t.Fatal("expected matching password")
	}
	if h.Compare(hash, "secret2") {
		t.Fatal("expected mismatch")
	}
	if h.Compare("not-a-hash", "secret1") {
		t.Fatal("malformed hash must not match")
	}
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	if got := NewBcryptHasher(99).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want default", got)
	}
	if got := NewBcryptHasher(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want default", got)
	}
}

func TestBcryptHasher_TooLong(t *testing.T) {
	if _, err := NewBcryptHasher(bcrypt.MinCost).Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatal("expected error for password over 72 bytes")
	}
}
