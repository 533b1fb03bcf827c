// Package hash provides hashing utilities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// SHA256 computes the SHA256 hash of data and returns it as a hex string.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SHA256String computes the SHA256 hash of a string.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// SHA256Short returns the first n characters of a SHA256 hash.
func SHA256Short(data []byte, n int) string {
	h := SHA256(data)
	if n > len(h) {
		return h
	}
	return h[:n]
}

// RecordID generates a deterministic id for a breach record so repeated
// imports of the same record deduplicate.
func RecordID(email, breachName, username string) string {
	data := strings.ToLower(email) + "|" + strings.ToLower(breachName) + "|" + strings.ToLower(username)
	return SHA256Short([]byte(data), 16)
}

// ResultID generates a deterministic id for an indexed result position.
func ResultID(queryID string, position int) string {
	return SHA256Short([]byte(queryID+":"+strconv.Itoa(position)), 16)
}
