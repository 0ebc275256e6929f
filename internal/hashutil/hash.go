// Package hashutil provides stable content-addressed hashing of bytes,
// files, and normalized mappings.
//
// Every hash produced here is a 16-hex-character prefix of SHA-256.
// Equality of two ContentHash values is the only operation that matters;
// hashing is pure and deterministic across processes and platforms.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// ContentHash is an opaque, stable digest of some content.
type ContentHash string

// Empty reports whether the hash has never been set.
func (h ContentHash) Empty() bool {
	return h == ""
}

func (h ContentHash) String() string {
	return string(h)
}

// prefixLen is the number of hex characters kept from the full SHA-256 digest.
const prefixLen = 16

// HashBytes returns the content hash of b.
func HashBytes(b []byte) ContentHash {
	sum := sha256.Sum256(b)
	return ContentHash(hex.EncodeToString(sum[:])[:prefixLen])
}

// HashFile reads path and returns the content hash of its bytes.
func HashFile(path string) (ContentHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}
	return ContentHash(hex.EncodeToString(h.Sum(nil))[:prefixLen]), nil
}

// HashMapping canonicalizes m (deterministic key sort, stable scalar
// serialization, recursive handling of nested maps/sequences) and returns
// its content hash. Two mappings that are deeply equal, regardless of key
// insertion order, always hash to the same value.
func HashMapping(m map[string]interface{}) ContentHash {
	canon := canonicalize(m)
	// encoding/json on a []byte-keyed structure built purely from
	// canonicalize's ordered pairs is deterministic because canonicalize
	// never emits a Go map — only ordered slices and scalars.
	b, err := json.Marshal(canon)
	if err != nil {
		// canonicalize only ever produces JSON-marshalable values; a
		// failure here indicates a caller passed an unsupported type.
		panic(fmt.Sprintf("hashutil: cannot canonicalize mapping: %v", err))
	}
	return HashBytes(b)
}

// orderedPair is a single key/value entry in a canonicalized mapping.
// Using a slice of pairs (rather than a Go map) preserves the sorted
// order through json.Marshal, which is what makes HashMapping stable.
type orderedPair struct {
	K string      `json:"k"`
	V interface{} `json:"v"`
}

func canonicalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]orderedPair, 0, len(val))
		for _, k := range keys {
			pairs = append(pairs, orderedPair{K: k, V: canonicalize(val[k])})
		}
		return pairs
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = canonicalize(e)
		}
		return out
	default:
		return val
	}
}
