// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the cadence application.
//
// It covers the three concerns every other package leans on:
//
// String handling:
//   - TruncateRunes, TruncateWidth: UTF-8 and display-width safe truncation
//   - PadRight, StringWidth: column-accurate layout helpers
//
// Type conversion:
//   - IntToString, Int64ToString, FloatToString: allocation-light formatting
//     for hot render paths
//
// File operations:
//   - AtomicWriteFile: crash-safe persistence (temp file, fsync, rename)
//
// # Usage
//
//	title := util.TruncateRunes(firstLine, 50)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
