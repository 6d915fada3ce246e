// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bytesize

import (
	"errors"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1024 + 10, "1.01 KB"},
		{1024 * 1024, "1 MB"},
		{1024*1024 - 1, "1024 KB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{1 << 40, "1 TB"},
		{1 << 50, "1 PB"},
		{1 << 60, "1 EB"},
	}
	for _, test := range tests {
		got := Must(test.bytes).String()
		if got != test.want {
			t.Errorf("ByteSize(%d).String() = %q, want %q", test.bytes, got, test.want)
		}
	}
}

func TestNewRejectsNegative(t *testing.T) {
	_, err := New(-1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("New(-1) error = %v, want ErrInvalidArgument", err)
	}
}

func TestMustPanicsOnNegative(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Must(-1) did not panic")
		}
	}()
	Must(-1)
}

func TestSumAndConversion(t *testing.T) {
	total := Sum(Must(512), Must(512), Must(0))
	if total.Int64() != 1024 {
		t.Fatalf("Sum = %d, want 1024", total.Int64())
	}
	if total.String() != "1 KB" {
		t.Errorf("Sum.String() = %q, want %q", total.String(), "1 KB")
	}
	if !Sum().IsZero() {
		t.Error("empty Sum should be zero")
	}
}

func TestTextRoundTrip(t *testing.T) {
	text, err := Must(4096).MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "4096" {
		t.Fatalf("MarshalText = %q, want %q", text, "4096")
	}

	var parsed ByteSize
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed.Int64() != 4096 {
		t.Errorf("parsed = %d, want 4096", parsed.Int64())
	}

	if err := parsed.UnmarshalText([]byte("-5")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("UnmarshalText(-5) error = %v, want ErrInvalidArgument", err)
	}
	if err := parsed.UnmarshalText([]byte("lots")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("UnmarshalText(lots) error = %v, want ErrInvalidArgument", err)
	}
}
