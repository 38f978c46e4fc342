package live

import (
	"context"
	"errors"
	"reflect"
	"runtime"
	"time"

	"github.com/encodeous/dvr/perf"
	"github.com/encodeous/dvr/state"
)

// ErrStopped is the cancellation cause of a network that was stopped on request
var ErrStopped = errors.New("network stopped")

func Get[T state.NyModule](s *state.State) T {
	t := reflect.TypeFor[T]()
	return s.Modules[t.String()].(T)
}

func initModules(s *state.State, modules ...state.NyModule) error {
	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return err
		}
	}
	return nil
}

// MainLoop runs dispatched functions one at a time until the node's context is cancelled. It returns the error of
// the dispatch that stopped the node, if any.
func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	var failure error
	for {
		select {
		case fun := <-dispatch:
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch: ", "error", err)
				failure = err
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > state.DispatchWarnThreshold {
				s.Log.Warn("dispatch took a long time!", "fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(), "elapsed", elapsed, "len", len(dispatch))
			}
			if failure != nil {
				goto endLoop
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Debug("stopped main loop", "reason", context.Cause(s.Context).Error())
	Stop(s)
	return failure
}

// Stop cancels the node and cleans up its modules. The dispatch channel stays open, late dispatches observe the
// cancelled context instead.
func Stop(s *state.State) {
	if s.Stopping.Swap(true) {
		return // don't stop twice
	}
	s.Cancel(context.Canceled)
	for moduleName, module := range s.Modules {
		err := module.Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during Stop: ", "module", moduleName, "error", err)
		}
	}
	s.WaitTasks()
}
