// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scene tracks the content units resident in the running
// application: the scene manager the content provider loads into.
//
// A [Registry] holds one primary unit, which exists before any
// navigation and can never be unloaded, plus every unit loaded since.
// Units are loaded, then activated. When a manifest path is
// configured, the resident set is persisted after every change, so a
// process that restarts sees the units its predecessor left behind and
// the navigator can unload them as strays.
package scene
