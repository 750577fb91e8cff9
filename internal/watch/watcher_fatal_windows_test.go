// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sys/windows"
)

func TestExhausted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{windows.ERROR_TOO_MANY_OPEN_FILES, true},
		{windows.ERROR_INVALID_HANDLE, true},
		{windows.ERROR_NOT_ENOUGH_MEMORY, true},
		{fmt.Errorf("ReadDirectoryChanges: %w", windows.ERROR_INVALID_HANDLE), true},
		{windows.ERROR_ACCESS_DENIED, false},
		{windows.ERROR_FILE_NOT_FOUND, false},
		{errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			if got := exhausted(tt.err); got != tt.want {
				t.Errorf("exhausted(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
