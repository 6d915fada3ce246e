// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/scenenav/lib/catalog"
	"github.com/bureau-foundation/scenenav/lib/codec"
)

// FormatVersion is written into every archive. Open rejects other
// versions.
const FormatVersion = 1

// ErrHashMismatch is returned by Open when a payload does not match
// its catalog hash.
var ErrHashMismatch = errors.New("bundle: hash mismatch")

// Archive is the decoded payload of a bundle.
type Archive struct {
	Version int    `cbor:"version"`
	Units   []Unit `cbor:"units"`
}

// Unit is one content unit carried by a bundle.
type Unit struct {
	ID   string `cbor:"id"`
	Type string `cbor:"type,omitempty"`
	Data []byte `cbor:"data,omitempty"`
}

// Unit returns the unit with the given ID.
func (archive *Archive) Unit(id string) (Unit, bool) {
	for _, unit := range archive.Units {
		if unit.ID == id {
			return unit, true
		}
	}
	return Unit{}, false
}

// Pack encodes units as a bundle named name. It returns the stored
// bytes and the catalog entry describing them. When the payload does
// not shrink under the requested compression it is stored
// uncompressed and the entry says so.
func Pack(name string, units []Unit, compression string) ([]byte, catalog.Bundle, error) {
	payload, err := codec.Marshal(Archive{Version: FormatVersion, Units: units})
	if err != nil {
		return nil, catalog.Bundle{}, fmt.Errorf("bundle %s: encoding archive: %w", name, err)
	}

	compression = normalizeCompression(compression)
	stored, err := Compress(payload, compression)
	if errors.Is(err, ErrIncompressible) {
		stored, compression = payload, catalog.CompressionNone
	} else if err != nil {
		return nil, catalog.Bundle{}, fmt.Errorf("bundle %s: %w", name, err)
	}

	entry := catalog.Bundle{
		Name:             name,
		Size:             int64(len(stored)),
		Hash:             Sum(payload).String(),
		Compression:      compression,
		UncompressedSize: int64(len(payload)),
	}
	return stored, entry, nil
}

// Verify decompresses stored and checks it against entry, returning
// the payload.
func Verify(stored []byte, entry catalog.Bundle) ([]byte, error) {
	if int64(len(stored)) != entry.Size {
		return nil, fmt.Errorf("bundle %s: stored size %d, catalog says %d", entry.Name, len(stored), entry.Size)
	}
	want, err := ParseHash(entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", entry.Name, err)
	}
	uncompressedSize := entry.UncompressedSize
	if normalizeCompression(entry.Compression) == catalog.CompressionNone {
		uncompressedSize = entry.Size
	}
	payload, err := Decompress(stored, entry.Compression, int(uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", entry.Name, err)
	}
	if got := Sum(payload); got != want {
		return nil, fmt.Errorf("bundle %s: %w: got %s, want %s", entry.Name, ErrHashMismatch, got, want)
	}
	return payload, nil
}

// Open verifies stored against entry and decodes the archive.
func Open(stored []byte, entry catalog.Bundle) (*Archive, error) {
	payload, err := Verify(stored, entry)
	if err != nil {
		return nil, err
	}
	var archive Archive
	if err := codec.Unmarshal(payload, &archive); err != nil {
		return nil, fmt.Errorf("bundle %s: decoding archive: %w", entry.Name, err)
	}
	if archive.Version != FormatVersion {
		return nil, fmt.Errorf("bundle %s: unsupported format version %d", entry.Name, archive.Version)
	}
	return &archive, nil
}
