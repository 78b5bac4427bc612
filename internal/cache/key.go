package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidKey is returned for a key that is not 64 lowercase hex digits.
var ErrInvalidKey = errors.New("invalid cache key")

// Shards lists the shard directory names, one per leading hex digit.
var Shards = [16]string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b", "c", "d", "e", "f"}

// Key is the lowercase hex SHA-256 digest of an equation's serialized markup.
type Key string

// DeriveKey fingerprints serialized markup. Leading and trailing whitespace
// is ignored; inner whitespace is significant.
func DeriveKey(serialized string) Key {
	sum := sha256.Sum256([]byte(strings.TrimSpace(serialized)))
	return Key(hex.EncodeToString(sum[:]))
}

// Shard returns the shard directory name for k.
func (k Key) Shard() string {
	if k == "" {
		return ""
	}
	return string(k[:1])
}

// Valid reports whether k has the shape DeriveKey produces.
func (k Key) Valid() bool {
	if len(k) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func (k Key) String() string { return string(k) }
