// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/scenenav/lib/atomicfile"
	"github.com/bureau-foundation/scenenav/lib/codec"
)

// Format selects the catalog encoding.
type Format string

const (
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

// FormatForPath returns the format implied by a file name's extension.
// ".yaml" and ".yml" are YAML; everything else is treated as JSONC,
// which also accepts plain JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSONC
	}
}

// Parse decodes a catalog in the given format.
func Parse(data []byte, format Format) (*Catalog, error) {
	var c Catalog
	switch format {
	case FormatJSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), &c); err != nil {
			return nil, fmt.Errorf("parsing catalog: %w", err)
		}
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&c); err != nil {
			return nil, fmt.Errorf("parsing catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("parsing catalog: unknown format %q", format)
	}
	if c.Routes == nil {
		return nil, fmt.Errorf("parsing catalog: no routes")
	}
	return &c, nil
}

// ReadFile reads and parses a catalog file, choosing the format from
// the extension. An unnamed catalog takes the file's base name.
func ReadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = NameFromPath(path)
	}
	return c, nil
}

// NameFromPath strips the directory and extension from path:
// "content/main.jsonc" → "main".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MarshalSnapshot encodes c as CBOR.
func MarshalSnapshot(c *Catalog) ([]byte, error) {
	data, err := codec.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding catalog snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a CBOR snapshot.
func UnmarshalSnapshot(data []byte) (*Catalog, error) {
	var c Catalog
	if err := codec.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog snapshot: %w", err)
	}
	return &c, nil
}

// WriteSnapshot atomically replaces the snapshot file at path.
func WriteSnapshot(path string, c *Catalog) error {
	data, err := MarshalSnapshot(c)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data, 0o644)
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Catalog, error) {
	data, err := atomicfile.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	c, err := UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
