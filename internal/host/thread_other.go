// SPDX-License-Identifier: MPL-2.0

//go:build !linux && !windows

package host

// currentThreadID reports 0: thread identity is unavailable on this
// platform and the loop thread check degrades to a running check.
func currentThreadID() int64 {
	return 0
}
