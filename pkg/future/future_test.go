package future

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopoolkit/poolkit/internal/testutils"
	"github.com/gopoolkit/poolkit/pkg/types"
)

func TestHandle_CompleteResolvesOnce(t *testing.T) {
	h := New[int]("task-1", nil)
	assert.Equal(t, types.HandlePending, h.State())
	assert.False(t, h.Resolved())

	assert.True(t, h.Complete(42))
	assert.Equal(t, types.HandleCompleted, h.State())
	assert.True(t, h.Resolved())

	// later resolutions are no-ops
	assert.False(t, h.Complete(99))
	assert.False(t, h.Fail(errors.New("late")))
	assert.False(t, h.MarkCancelled())

	value, err := h.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestHandle_Fail(t *testing.T) {
	h := New[string]("task-2", nil)
	cause := errors.New("boom")

	assert.True(t, h.Fail(cause))
	assert.Equal(t, types.HandleFailed, h.State())

	_, err := h.Await(context.Background(), time.Second)
	assert.ErrorIs(t, err, cause)
}

func TestHandle_CancelWhileQueued(t *testing.T) {
	h := New[int]("task-3", nil)

	var detached bool
	h.SetDetach(func() bool {
		detached = true
		return true
	})

	assert.True(t, h.Cancel())
	assert.True(t, detached)
	assert.Equal(t, types.HandleCancelled, h.State())

	// cancel is not repeatable
	assert.False(t, h.Cancel())

	_, err := h.Await(context.Background(), time.Second)
	assert.ErrorIs(t, err, types.ErrTaskCancelled)
}

func TestHandle_CancelAfterClaimFails(t *testing.T) {
	h := New[int]("task-4", nil)

	require.True(t, h.TryClaim())
	assert.False(t, h.Cancel())
	assert.Equal(t, types.HandlePending, h.State())

	// the claiming worker still resolves the handle
	assert.True(t, h.Complete(7))
}

func TestHandle_TryClaimAfterCancelFails(t *testing.T) {
	h := New[int]("task-5", nil)

	require.True(t, h.Cancel())
	assert.False(t, h.TryClaim())
}

func TestHandle_AwaitTimeout(t *testing.T) {
	mock := testutils.NewMockClock(t)
	h := New[int]("task-6", testutils.NewClockWrapper(mock))

	errCh := make(chan error, 1)
	go func() {
		_, err := h.Await(context.Background(), time.Second)
		errCh <- err
	}()

	var got error
	require.Eventually(t, func() bool {
		mock.Advance(250 * time.Millisecond)
		select {
		case got = <-errCh:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, got, types.ErrAwaitTimeout)
	// the handle itself stays pending; only the wait gave up
	assert.Equal(t, types.HandlePending, h.State())
}

func TestHandle_AwaitContextCancel(t *testing.T) {
	h := New[int]("task-7", nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := h.Await(ctx, 0)
		errCh <- err
	}()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("await did not unblock on context cancellation")
	}
}

func TestHandle_AwaitZeroTimeoutWaitsForResolution(t *testing.T) {
	h := New[int]("task-8", nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		h.Complete(5)
	}()

	value, err := h.Await(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, value)
}

func TestHandle_Done(t *testing.T) {
	h := New[int]("task-9", nil)

	select {
	case <-h.Done():
		t.Fatal("done closed before resolution")
	default:
	}

	h.Complete(1)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed after resolution")
	}
}

func TestMap_TransformsValue(t *testing.T) {
	src := New[int]("task-10", nil)
	derived := Map(src, func(v int) (string, error) {
		return fmt.Sprintf("value-%d", v), nil
	})

	src.Complete(3)

	value, err := derived.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "value-3", value)
	assert.Equal(t, "task-10", derived.ID())
}

func TestMap_PropagatesFailure(t *testing.T) {
	src := New[int]("task-11", nil)
	cause := errors.New("upstream failed")
	derived := Map(src, func(v int) (int, error) {
		t.Error("fn must not run on failure")
		return 0, nil
	})

	src.Fail(cause)

	_, err := derived.Await(context.Background(), time.Second)
	assert.ErrorIs(t, err, cause)
}

func TestMap_PropagatesCancellation(t *testing.T) {
	src := New[int]("task-12", nil)
	derived := Map(src, func(v int) (int, error) { return v, nil })

	src.MarkCancelled()

	_, err := derived.Await(context.Background(), time.Second)
	assert.ErrorIs(t, err, types.ErrTaskCancelled)
	assert.Equal(t, types.HandleCancelled, derived.State())
}

func TestMap_FnError(t *testing.T) {
	src := New[int]("task-13", nil)
	cause := errors.New("transform failed")
	derived := Map(src, func(v int) (int, error) { return 0, cause })

	src.Complete(1)

	_, err := derived.Await(context.Background(), time.Second)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, types.HandleFailed, derived.State())
}

func TestMap_Chaining(t *testing.T) {
	src := New[int]("task-14", nil)
	doubled := Map(src, func(v int) (int, error) { return v * 2, nil })
	plusOne := Map(doubled, func(v int) (int, error) { return v + 1, nil })

	src.Complete(10)

	value, err := plusOne.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 21, value)
}

func TestMapErr_RewritesFailure(t *testing.T) {
	src := New[int]("task-15", nil)
	wrapped := errors.New("wrapped")
	derived := MapErr(src, func(err error) error { return wrapped })

	src.Fail(errors.New("original"))

	_, err := derived.Await(context.Background(), time.Second)
	assert.ErrorIs(t, err, wrapped)
}

func TestMapErr_PassesValueThrough(t *testing.T) {
	src := New[int]("task-16", nil)
	derived := MapErr(src, func(err error) error {
		t.Error("fn must not run on success")
		return err
	})

	src.Complete(8)

	value, err := derived.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 8, value)
}
