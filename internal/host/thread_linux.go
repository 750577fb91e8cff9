// SPDX-License-Identifier: MPL-2.0

//go:build linux

package host

import "golang.org/x/sys/unix"

// currentThreadID returns the kernel thread id of the calling thread.
func currentThreadID() int64 {
	return int64(unix.Gettid())
}
