// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Scenenav drives the scene navigator from the command line.
//
// Commands:
//
//	scenenav run [script]        initialize and execute a navigation script
//	scenenav info <path>...      show what navigating to each path would download
//	scenenav keys                list the routes the catalogs define
//	scenenav browse              interactive route browser
//	scenenav bundle pack         build a bundle and print its catalog entry
//	scenenav cache stats|list|prune
//	scenenav version
//
// Configuration comes from --config or SCENENAV_CONFIG; see lib/config.
// Setting SCENENAV_OTEL_ENDPOINT exports navigation spans over OTLP/HTTP.
package main
