package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
	// Extensible: add more algorithms here
	// SHA512 HashAlgorithm = "sha512"
	// BLAKE3 HashAlgorithm = "blake3"
)

// Hasher provides extensible hashing functionality
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes a hash of the input data
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		hash := sha256.Sum256(data)
		return hex.EncodeToString(hash[:])
	// Extensible: add more cases here
	default:
		// Fallback to SHA256
		hash := sha256.Sum256(data)
		return hex.EncodeToString(hash[:])
	}
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashJSON computes a hash of a JSON-serializable object
// The hash is deterministic (same object = same hash)
func (h *Hasher) HashJSON(v interface{}) (string, error) {
	// Marshal to JSON with sorted keys for deterministic output
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return h.Hash(data), nil
}

// HashFields computes a hash from multiple fields
// Fields are concatenated with a delimiter for consistent hashing
func (h *Hasher) HashFields(fields ...string) string {
	// Sort fields for deterministic ordering
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)

	combined := strings.Join(sorted, "|")
	return h.HashString(combined)
}

// DocumentIdentifier fingerprints document markup so callers can detect
// whether a sync actually changed anything
type DocumentIdentifier struct {
	hasher *Hasher
}

// NewDocumentIdentifier creates a new document identifier
func NewDocumentIdentifier(hasher *Hasher) *DocumentIdentifier {
	if hasher == nil {
		hasher = DefaultHasher()
	}
	return &DocumentIdentifier{hasher: hasher}
}

// Fingerprint generates a deterministic hash for document markup.
// Identical markup always produces the identical fingerprint, so an
// unchanged content-changed echo can be dropped without a string compare
// against the full document.
func (di *DocumentIdentifier) Fingerprint(markup string) string {
	return di.hasher.HashString(markup)
}

// ShortFingerprint generates a short (8-character) fingerprint for logs
func (di *DocumentIdentifier) ShortFingerprint(fullHash string) string {
	if len(fullHash) < 8 {
		return fullHash
	}
	return fullHash[:8]
}

// Changed reports whether markup no longer matches a prior fingerprint
func (di *DocumentIdentifier) Changed(priorHash, markup string) bool {
	return priorHash != di.Fingerprint(markup)
}
