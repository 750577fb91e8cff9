// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"testing"
)

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateCollecting, "collecting"},
		{StateResolving, "resolving"},
		{StateCompiling, "compiling"},
		{StateLoading, "loading"},
		{StatePublishing, "publishing"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStateValidate(t *testing.T) {
	t.Parallel()

	for s := StateIdle; s <= StateFailed; s++ {
		if err := s.Validate(); err != nil {
			t.Errorf("State(%d).Validate() = %v", s, err)
		}
	}

	err := State(-1).Validate()
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("State(-1).Validate() = %v, want ErrInvalidState", err)
	}
	var stateErr *InvalidStateError
	if !errors.As(err, &stateErr) || stateErr.Value != -1 {
		t.Errorf("State(-1).Validate() = %v, want *InvalidStateError", err)
	}
	if StateIdle.IsBusy() || !StateLoading.IsBusy() {
		t.Error("IsBusy() mismatch")
	}
}
