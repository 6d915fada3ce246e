// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry installs the process-wide OpenTelemetry tracer
// provider. Tracing is opt-in: with no endpoint configured, Setup
// leaves the global no-op provider in place and navigator spans cost
// nothing.
package telemetry
