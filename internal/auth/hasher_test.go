package auth

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext password")
	}
	if !VerifyPassword("correct horse battery staple", hash) {
		t.Fatal("expected the original password to verify")
	}
	if VerifyPassword("wrong password", hash) {
		t.Fatal("expected a wrong password to fail verification")
	}
}

func TestHashPasswordProducesDistinctHashes(t *testing.T) {
	first, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	second, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected salted hashes to differ for the same password")
	}
	if !VerifyPassword("same password", first) || !VerifyPassword("same password", second) {
		t.Fatal("both hashes should verify the original password")
	}
}

func TestVerifyPasswordRejectsGarbageHash(t *testing.T) {
	if VerifyPassword("anything", "not a bcrypt hash") {
		t.Fatal("expected verification against a malformed hash to fail")
	}
}
