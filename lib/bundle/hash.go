// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 keyed digest of a bundle payload.
type Hash [32]byte

// domainKey is the BLAKE3 key for bundle hashes: the ASCII domain name
// zero-padded to 32 bytes. Changing it invalidates every published
// catalog.
var domainKey = [32]byte{
	's', 'c', 'e', 'n', 'e', 'n', 'a', 'v', '.', 'b', 'u', 'n', 'd', 'l', 'e', 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Sum returns the bundle-domain hash of payload.
func Sum(payload []byte) Hash {
	hasher := NewHasher()
	hasher.Write(payload)
	var result Hash
	copy(result[:], hasher.Sum(nil))
	return result
}

// NewHasher returns a streaming hasher in the bundle domain, for
// payloads too large to hold in memory.
func NewHasher() hash.Hash {
	hasher, err := blake3.NewKeyed(domainKey[:])
	if err != nil {
		panic("bundle: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

// String returns the lowercase hex form used in catalogs.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash parses the hex form produced by String.
func ParseHash(text string) (Hash, error) {
	var h Hash
	if len(text) != hex.EncodedLen(len(h)) {
		return Hash{}, fmt.Errorf("bundle hash %q: want %d hex digits, got %d", text, hex.EncodedLen(len(h)), len(text))
	}
	if _, err := hex.Decode(h[:], []byte(text)); err != nil {
		return Hash{}, fmt.Errorf("bundle hash %q: %w", text, err)
	}
	return h, nil
}
