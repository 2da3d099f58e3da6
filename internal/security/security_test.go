package security

import (
	"strings"
	"testing"
)

func testHasher() *Hasher {
	return NewHasher(Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func TestHashAndVerify(t *testing.T) {
	h := testHasher()

	encoded, err := h.Hash("1234")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}

	ok, err := h.Verify("1234", encoded)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("1235", encoded)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestHashUsesSalt(t *testing.T) {
	h := testHasher()
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatal("expected different hashes for the same secret")
	}
}

func TestVerifyEmptyHashNeverMatches(t *testing.T) {
	ok, err := testHasher().Verify("", "")
	if err != nil || ok {
		t.Fatalf("expected no match, got ok=%v err=%v", ok, err)
	}
}

func TestVerifyInvalidFormat(t *testing.T) {
	if _, err := VerifyPassword("x", "plaintext"); err == nil {
		t.Fatal("expected error for invalid hash format")
	}
	if _, err := VerifyPassword("x", "$bcrypt$v=19$m=1,t=1,p=1$aaaa$bbbb"); err == nil {
		t.Fatal("expected error for foreign algorithm")
	}
}

func TestRandomCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := RandomCode(6)
		if err != nil {
			t.Fatalf("code: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in %q", code)
			}
		}
	}
}

func TestSessionToken(t *testing.T) {
	a, err := SessionToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	b, _ := SessionToken()
	if a == b {
		t.Fatal("expected unique tokens")
	}
	if len(a) != 43 {
		t.Fatalf("expected 43 chars for 32 bytes, got %d", len(a))
	}
}
