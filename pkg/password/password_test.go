package password

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("secret123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !Verify("secret123", hash) {
		t.Fatal("expected correct password to verify")
	}
	if Verify("wrong", hash) {
		t.Fatal("expected wrong password to fail")
	}
}

func TestVerifyLegacySHA256(t *testing.T) {
	sum := sha256.Sum256([]byte("legacy-pass"))
	legacy := hex.EncodeToString(sum[:])

	if !Verify("legacy-pass", legacy) {
		t.Fatal("expected legacy sha256 hash to verify")
	}
	if Verify("other", legacy) {
		t.Fatal("expected wrong password to fail against legacy hash")
	}
}

func TestVerifyMalformedStoredHash(t *testing.T) {
	for _, stored := range []string{"", "not-a-hash", "$2z$garbage", "deadbeef"} {
		if Verify("anything", stored) {
			t.Fatalf("malformed stored hash %q must not verify", stored)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	bcryptHash, err := Hash("x")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if NeedsRehash(bcryptHash) {
		t.Fatal("bcrypt hash should not need rehash")
	}

	sum := sha256.Sum256([]byte("x"))
	if !NeedsRehash(hex.EncodeToString(sum[:])) {
		t.Fatal("legacy sha256 hash should need rehash")
	}
}
