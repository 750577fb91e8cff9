// SPDX-License-Identifier: MPL-2.0

// Package host provides a single-threaded execution loop for embedding
// hosts that do not bring their own.
//
// The loop goroutine is locked to one OS thread for its whole lifetime so
// "the host thread" has a stable identity. Work reaches the loop only
// through Signal and Post; neither ever blocks the caller.
package host
