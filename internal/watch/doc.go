// SPDX-License-Identifier: MPL-2.0

// Package watch provides debounced file watching over several root
// directories.
//
// It monitors paths matching per-root glob patterns and invokes a callback
// once a burst of events has been quiet for the debounce period. Events
// within the window are coalesced so the callback fires once with the full
// set of changed paths.
package watch
