package live

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/encodeous/dvr/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingModule struct {
	inits, cleanups int
}

func (m *countingModule) Init(s *state.State) error {
	m.inits++
	return nil
}

func (m *countingModule) Cleanup(s *state.State) error {
	m.cleanups++
	return nil
}

func testState(t *testing.T) (*state.State, chan func(*state.State) error) {
	t.Helper()
	ctx, cancel := context.WithCancelCause(context.Background())
	t.Cleanup(func() { cancel(context.Canceled) })
	dispatch := make(chan func(*state.State) error, 8)
	return &state.State{
		Modules: make(map[string]state.NyModule),
		Env: &state.Env{
			DispatchChannel: dispatch,
			Id:              "a",
			Context:         ctx,
			Cancel:          cancel,
			Log:             slog.New(slog.DiscardHandler),
		},
	}, dispatch
}

func TestMainLoopRunsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, dispatch := testState(t)
	m := &countingModule{}
	require.NoError(t, initModules(s, m))
	assert.Same(t, m, Get[*countingModule](s))
	assert.Equal(t, 1, m.inits)

	order := make([]int, 0)
	for i := range 5 {
		s.Dispatch(func(s *state.State) error {
			order = append(order, i)
			return nil
		})
	}
	s.Dispatch(func(s *state.State) error {
		s.Cancel(ErrStopped)
		return nil
	})

	require.NoError(t, MainLoop(s, dispatch))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.True(t, s.Started.Load())
	assert.True(t, s.Stopping.Load())
	assert.Equal(t, 1, m.cleanups)

	// stopping again does nothing
	Stop(s)
	assert.Equal(t, 1, m.cleanups)
}

func TestMainLoopStopsOnError(t *testing.T) {
	s, dispatch := testState(t)
	boom := errors.New("boom")
	ran := false
	s.Dispatch(func(s *state.State) error {
		return boom
	})
	s.Dispatch(func(s *state.State) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, MainLoop(s, dispatch), boom)
	assert.False(t, ran)
	assert.ErrorIs(t, context.Cause(s.Context), boom)
}
