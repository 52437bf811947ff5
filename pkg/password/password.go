package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verification tries an ordered list of schemes: bcrypt first, then the
// legacy unsalted sha256 scheme still present in data migrated from older
// deployments. Callers should re-hash with Hash whenever NeedsRehash reports
// true so the legacy path drains over time.

// Hash hashes a password with the primary scheme (bcrypt).
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches storedHash under any supported
// scheme. It never fails on a malformed stored hash; it just returns false.
func Verify(password, storedHash string) bool {
	if storedHash == "" {
		return false
	}

	// Bcrypt hashes carry a recognizable prefix; try the strong scheme first
	if isBcrypt(storedHash) {
		return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
	}

	// Legacy scheme: hex-encoded sha256 of the raw password
	sum := sha256.Sum256([]byte(password))
	legacy := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(legacy), []byte(strings.ToLower(storedHash))) == 1
}

// NeedsRehash reports whether storedHash uses a scheme weaker than the
// primary one and should be replaced after a successful verification.
func NeedsRehash(storedHash string) bool {
	return !isBcrypt(storedHash)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
