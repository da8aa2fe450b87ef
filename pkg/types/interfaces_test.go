package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolState_String(t *testing.T) {
	tests := []struct {
		state PoolState
		want  string
	}{
		{PoolCreated, "created"},
		{PoolRunning, "running"},
		{PoolDraining, "draining"},
		{PoolTerminated, "terminated"},
		{PoolState(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestHandleState_String(t *testing.T) {
	tests := []struct {
		state HandleState
		want  string
	}{
		{HandlePending, "pending"},
		{HandleCompleted, "completed"},
		{HandleFailed, "failed"},
		{HandleCancelled, "cancelled"},
		{HandleState(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
