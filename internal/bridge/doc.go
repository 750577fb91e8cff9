// SPDX-License-Identifier: MPL-2.0

// Package bridge hands command execution requests from any goroutine to
// the host loop.
//
// The bridge is a single-slot mailbox: Submit overwrites the slot and
// signals the host, Drain (host loop only) takes the slot and runs the
// command outside the lock. Between two Drains only the most recent
// submission survives.
package bridge
