package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching oracle responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// OracleKey generates a content-addressed cache key for one oracle call.
// Identical (provider, model, input) triples re-use the cached response
// across runs instead of re-billing the API.
func OracleKey(provider, model, input string) string {
	hash := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + input))
	return "leakbench-v1-" + hex.EncodeToString(hash[:])
}
