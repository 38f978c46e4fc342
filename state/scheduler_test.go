package state

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T, buf int) (*Env, chan func(*State) error, context.CancelCauseFunc) {
	t.Helper()
	ctx, cancel := context.WithCancelCause(context.Background())
	t.Cleanup(func() { cancel(context.Canceled) })
	dispatch := make(chan func(*State) error, buf)
	env := &Env{
		DispatchChannel: dispatch,
		Context:         ctx,
		Cancel:          cancel,
	}
	return env, dispatch, cancel
}

func TestDispatch(t *testing.T) {
	env, dispatchChan, _ := testEnv(t, 10)
	state := &State{Env: env}

	var called bool
	env.Dispatch(func(s *State) error {
		called = true
		return nil
	})

	select {
	case f := <-dispatchChan:
		require.NoError(t, f(state))
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timed out waiting for dispatched function")
	}
	assert.True(t, called, "Dispatch function was not executed")
}

func TestDispatchAfterCancel(t *testing.T) {
	env, dispatchChan, cancel := testEnv(t, 0)
	cancel(errors.New("stopped"))

	done := make(chan struct{})
	go func() {
		env.Dispatch(func(s *State) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked after cancellation")
	}
	assert.Len(t, dispatchChan, 0)
}

func TestDispatchWait(t *testing.T) {
	env, dispatchChan, _ := testEnv(t, 10)
	state := &State{Env: env}
	go func() {
		f := <-dispatchChan
		_ = f(state)
	}()
	res, err := env.DispatchWait(func(s *State) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res)
}

func TestDispatchWaitCancelled(t *testing.T) {
	env, _, cancel := testEnv(t, 0)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel(context.Canceled)
	}()
	_, err := env.DispatchWait(func(s *State) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduleTask(t *testing.T) {
	env, dispatchChan, _ := testEnv(t, 10)
	state := &State{Env: env}

	var taskCalled bool
	env.ScheduleTask(func(s *State) error {
		taskCalled = true
		return nil
	}, 50*time.Millisecond)

	select {
	case f := <-dispatchChan:
		require.NoError(t, f(state))
	case <-time.After(time.Second):
		t.Fatal("No task was scheduled")
	}
	assert.True(t, taskCalled, "Scheduled task was not executed")
}

func TestRepeatTask(t *testing.T) {
	env, dispatchChan, cancel := testEnv(t, 10)
	state := &State{Env: env}

	var count atomic.Int32
	env.RepeatTask(func(s *State) error {
		if s.Context.Err() != nil {
			return nil
		}
		if count.Add(1) >= 3 {
			cancel(context.Canceled)
		}
		return nil
	}, 20*time.Millisecond)

loop:
	for {
		select {
		case f := <-dispatchChan:
			require.NoError(t, f(state))
		case <-env.Context.Done():
			break loop
		case <-time.After(500 * time.Millisecond):
			t.Fatal("Timed out waiting for RepeatTask to execute")
		}
	}
	env.WaitTasks()
	assert.Equal(t, int32(3), count.Load())
}
