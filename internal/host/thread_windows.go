// SPDX-License-Identifier: MPL-2.0

//go:build windows

package host

import "golang.org/x/sys/windows"

// currentThreadID returns the Win32 thread id of the calling thread.
func currentThreadID() int64 {
	return int64(windows.GetCurrentThreadId())
}
