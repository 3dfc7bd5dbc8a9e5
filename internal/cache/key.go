package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Options carries the analysis preferences that participate in key
// derivation. Field order never affects the derived key.
type Options map[string]interface{}

// keyPayload is the canonical representation hashed into a cache key.
// encoding/json serializes map keys in sorted order, which keeps the
// derivation independent of option insertion order.
type keyPayload struct {
	Lyrics      string  `json:"lyrics"`
	Preferences Options `json:"preferences"`
}

// DeriveKey turns raw lyrics text and analysis options into a stable
// fingerprint. Text is lower-cased and trimmed first, so inputs differing
// only by case or surrounding whitespace share a key.
func DeriveKey(text string, options Options) string {
	normalized := strings.ToLower(strings.TrimSpace(text))

	if options == nil {
		options = Options{}
	}

	data, err := json.Marshal(keyPayload{
		Lyrics:      normalized,
		Preferences: options,
	})
	if err != nil {
		// Unserializable option values fall back to the normalized text so
		// the derivation stays deterministic.
		data = []byte(normalized)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
