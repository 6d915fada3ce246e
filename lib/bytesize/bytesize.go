// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bytesize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidArgument is returned by [New] for negative byte counts.
var ErrInvalidArgument = errors.New("bytesize: invalid argument")

var suffixes = [...]string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// ByteSize is a non-negative number of bytes.
type ByteSize struct {
	bytes int64
}

// New returns a ByteSize for the given count. Negative counts fail
// with an error wrapping [ErrInvalidArgument].
func New(bytes int64) (ByteSize, error) {
	if bytes < 0 {
		return ByteSize{}, fmt.Errorf("%w: byte size cannot be negative (got %d)", ErrInvalidArgument, bytes)
	}
	return ByteSize{bytes: bytes}, nil
}

// Must is like [New] but panics on a negative count. Use it for
// constants and values already known to be non-negative.
func Must(bytes int64) ByteSize {
	size, err := New(bytes)
	if err != nil {
		panic(err)
	}
	return size
}

// Sum adds sizes together.
func Sum(sizes ...ByteSize) ByteSize {
	var total ByteSize
	for _, size := range sizes {
		total = total.Add(size)
	}
	return total
}

// Int64 returns the byte count.
func (size ByteSize) Int64() int64 {
	return size.bytes
}

// IsZero reports whether the size is zero bytes.
func (size ByteSize) IsZero() bool {
	return size.bytes == 0
}

// Add returns size + other.
func (size ByteSize) Add(other ByteSize) ByteSize {
	return ByteSize{bytes: size.bytes + other.bytes}
}

// String renders the size with a binary-prefix suffix, e.g. "1.5 KB".
func (size ByteSize) String() string {
	if size.bytes == 0 {
		return "0 B"
	}

	index := 0
	scaled := float64(size.bytes)
	for scaled >= 1024 && index < len(suffixes)-1 {
		scaled /= 1024
		index++
	}

	formatted := strconv.FormatFloat(scaled, 'f', 2, 64)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimSuffix(formatted, ".")
	return formatted + " " + suffixes[index]
}

// MarshalText implements encoding.TextMarshaler as the plain byte
// count, so sizes round-trip through YAML, JSON, and CBOR as integers
// in text form.
func (size ByteSize) MarshalText() ([]byte, error) {
	return strconv.AppendInt(nil, size.bytes, 10), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Negative values
// are rejected.
func (size *ByteSize) UnmarshalText(text []byte) error {
	value, err := strconv.ParseInt(string(text), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a byte count", ErrInvalidArgument, text)
	}
	parsed, err := New(value)
	if err != nil {
		return err
	}
	*size = parsed
	return nil
}
