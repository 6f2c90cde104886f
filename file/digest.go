package file

import (
	"crypto/sha256"
	"encoding/hex"
)

// sha256Hex returns the lowercase-hex SHA-256 digest of data, the same
// digest form used as a chunk's on-disk and on-wire name (see
// warehouse.DigestSize).
func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
