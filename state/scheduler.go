package state

import (
	"time"
)

// Dispatch Dispatches the function to run on the main thread without waiting for it to complete.
// Functions dispatched after the context is cancelled are discarded.
func (e *Env) Dispatch(fun func(*State) error) {
	select {
	case e.DispatchChannel <- fun:
	case <-e.Context.Done():
	}
}

// DispatchWait Dispatches the function to run on the main thread and wait for it to complete
func (e *Env) DispatchWait(fun func(*State) (any, error)) (any, error) {
	ret := make(chan Pair[any, error], 1)
	e.Dispatch(func(s *State) error {
		res, err := fun(s)
		ret <- Pair[any, error]{res, err}
		return err
	})
	select {
	case res := <-ret:
		return res.V1, res.V2
	case <-e.Context.Done():
		return nil, e.Context.Err()
	}
}

// ScheduleTask dispatches fun once delay has elapsed, unless the context is cancelled first. It never blocks, so it is
// safe to call from the main loop, but tasks scheduled with the same delay may run in any order.
func (e *Env) ScheduleTask(fun func(*State) error, delay time.Duration) {
	if delay <= 0 {
		go e.Dispatch(fun)
		return
	}
	time.AfterFunc(delay, func() {
		if e.Context.Err() != nil {
			return
		}
		e.Dispatch(fun)
	})
}

// RepeatTask dispatches fun immediately, then every delay until the context is cancelled
func (e *Env) RepeatTask(fun func(*State) error, delay time.Duration) {
	e.tasks.Add(1)
	go func() {
		defer e.tasks.Done()
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		for {
			e.Dispatch(fun)
			select {
			case <-e.Context.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
