// SPDX-License-Identifier: MPL-2.0

// Package testutil provides the Clock seam shared by the pipeline, the
// execution bridge and the engine, together with a manually driven
// FakeClock for deterministic tests.
package testutil
