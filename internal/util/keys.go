package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SlotKey returns the provider key for a named credential slot.
func SlotKey(namespace, name string) string {
	return "cred:" + namespace + ":" + name
}

// Redact returns a short stable fingerprint of s (first 16 hex chars of
// its SHA-256) for logs that must not carry credential material.
func Redact(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
