// Package id provides centralized ID generation for the backend.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: element order follows tagging order
//   - Prefixed types: Type-specific prefixes for debugging (el_*, tpl_*, chan_*)
//   - Type safety: Separate types prevent ID misuse
//   - Stability: once attached to an element, an identifier never changes
//
// Design Principles:
//   - ULIDs only: Single ID format across entire system
//   - Debuggable: Prefixes make logs and exported markup readable
//   - Zero conflicts: Guaranteed uniqueness within a document instance
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// ElementID identifies a taggable element within a document instance
type ElementID string

// TemplateID identifies a starter template
type TemplateID string

// ChannelToken scopes one host/context message channel pair
type ChannelToken string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	ElementPrefix  = "el"
	TemplatePrefix = "tpl"
	ChannelPrefix  = "chan"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	// Default generator with cryptographically secure entropy
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewElement generates a new element identifier from this generator.
// The tagger calls this once per untagged element.
func (g *Generator) NewElement() ElementID {
	return ElementID(g.GenerateWithPrefix(ElementPrefix))
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewElementID generates a new element identifier
func NewElementID() ElementID {
	return Default().NewElement()
}

// NewTemplateID generates a new template ID
func NewTemplateID() TemplateID {
	return TemplateID(Default().GenerateWithPrefix(TemplatePrefix))
}

// NewChannelToken generates a new channel token
func NewChannelToken() ChannelToken {
	return ChannelToken(Default().GenerateWithPrefix(ChannelPrefix))
}

// ============================================================================
// Type Conversion and Validation
// ============================================================================

// String methods for ID types
func (id ElementID) String() string   { return string(id) }
func (id TemplateID) String() string  { return string(id) }
func (t ChannelToken) String() string { return string(t) }

// Parse parses a ULID string
func Parse(s string) (ulid.ULID, error) {
	return ulid.Parse(s)
}

// IsValid checks if a string is a valid ULID
func IsValid(s string) bool {
	_, err := ulid.Parse(s)
	return err == nil
}

// IsElement checks whether a raw attribute value is a well-formed element identifier.
// Hand-written markup can carry arbitrary attribute values; the tagger tolerates
// them but command routing rejects them here so lookups stay unambiguous.
func IsElement(id string) bool {
	prefix, raw, found := strings.Cut(id, "_")
	return found && prefix == ElementPrefix && IsValid(raw)
}

// Timestamp extracts the embedded timestamp from a prefixed or bare ID
func Timestamp(id string) (time.Time, error) {
	raw := id
	if _, rest, found := strings.Cut(id, "_"); found {
		raw = rest
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse id %q: %w", id, err)
	}
	return ulid.Time(parsed.Time()), nil
}
