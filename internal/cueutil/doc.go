// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities for command files
// and configuration.
//
// ParseAndDecode runs the schema flow used by config loading:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go struct
//
// Issues flattens a CUE error into positioned entries so callers can turn
// them into diagnostics.
package cueutil
