package state

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type NyModule interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on a single Goroutine
type State struct {
	*Env
	Modules map[string]NyModule
}

// Env can be read from any Goroutine
type Env struct {
	DispatchChannel chan<- func(s *State) error
	Id              NodeId
	Scenario        *Scenario
	Context         context.Context
	Cancel          context.CancelCauseFunc
	Log             *slog.Logger
	// Epoch is the wall clock instant that router time is measured from
	Epoch    time.Time
	Started  atomic.Bool
	Stopping atomic.Bool
	// tasks tracks goroutines started by RepeatTask
	tasks sync.WaitGroup
}

// Now returns the router clock, the time elapsed since Epoch
func (e *Env) Now() time.Duration {
	return time.Since(e.Epoch)
}

// WaitTasks blocks until every repeated task has observed cancellation
func (e *Env) WaitTasks() {
	e.tasks.Wait()
}
