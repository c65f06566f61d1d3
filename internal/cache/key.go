package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// DeriveKey maps an endpoint path and its query parameters to a stable cache
// key. url.Values.Encode sorts parameters by name, so two logically identical
// requests produce the same key regardless of insertion order. The canonical
// string is hashed to bound key length and neutralise special characters.
func DeriveKey(endpoint string, params url.Values) string {
	canonical := endpoint + "?" + params.Encode()
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
