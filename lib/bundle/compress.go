// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/scenenav/lib/catalog"
)

// ErrIncompressible is returned by Compress when the compressed form
// would not be smaller than the input. Callers store the data with
// catalog.CompressionNone instead.
var ErrIncompressible = errors.New("bundle: data is incompressible")

// zstdEncoder and zstdDecoder are shared; both are safe for concurrent
// use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("bundle: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("bundle: zstd decoder initialization failed: " + err.Error())
	}
}

// normalizeCompression maps the empty name to CompressionNone.
func normalizeCompression(compression string) string {
	if compression == "" {
		return catalog.CompressionNone
	}
	return compression
}

// Compress compresses data with the named algorithm. For
// CompressionNone it returns data unchanged.
func Compress(data []byte, compression string) ([]byte, error) {
	switch normalizeCompression(compression) {
	case catalog.CompressionNone:
		return data, nil
	case catalog.CompressionLZ4:
		return compressLZ4(data)
	case catalog.CompressionZstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("bundle: unsupported compression %q", compression)
	}
}

// Decompress reverses Compress. The result must be exactly
// uncompressedSize bytes long.
func Decompress(stored []byte, compression string, uncompressedSize int) ([]byte, error) {
	switch normalizeCompression(compression) {
	case catalog.CompressionNone:
		if len(stored) != uncompressedSize {
			return nil, fmt.Errorf("bundle: uncompressed size %d does not match expected %d", len(stored), uncompressedSize)
		}
		return stored, nil
	case catalog.CompressionLZ4:
		return decompressLZ4(stored, uncompressedSize)
	case catalog.CompressionZstd:
		return decompressZstd(stored, uncompressedSize)
	default:
		return nil, fmt.Errorf("bundle: unsupported compression %q", compression)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, ErrIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, ErrIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
	}
	return result, nil
}
