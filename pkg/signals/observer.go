package signals

import "time"

// PassStats summarizes one propagation pass.
type PassStats struct {
	// Pass is the 1-based pass counter.
	Pass uint64 `json:"pass"`

	// Sends counts send-queue entries committed this pass, after
	// last-write-wins collapse.
	Sends int `json:"sends"`

	// Dirtied counts nodes marked dirty, carryover included.
	Dirtied int `json:"dirtied"`

	// Evaluated counts computed bodies that actually ran.
	Evaluated int `json:"evaluated"`

	EffectsRun   int `json:"effectsRun"`
	TasksSpawned int `json:"tasksSpawned"`

	// TasksDeduped counts dirty task activations dropped because an
	// instance was already in flight.
	TasksDeduped int `json:"tasksDeduped"`

	// Completions counts task completions observed at this pass's poll
	// point; their batches land on the next pass.
	Completions int `json:"completions"`

	Failures int           `json:"failures"`
	Duration time.Duration `json:"duration"`
}

// PassObserver receives engine lifecycle events. Implementations must be
// fast and must not call back into the engine: events fire while the pass
// holds the engine lock. pkg/observe ships Prometheus and OpenTelemetry
// implementations; pkg/inspect streams the same events to attached clients.
type PassObserver interface {
	PassStarted(pass uint64)
	PassCompleted(stats PassStats)

	// ComputedEvaluated fires after each computed body run, err non-nil on
	// a contained failure.
	ComputedEvaluated(h Handle, dur time.Duration, err error)

	// EffectRan fires after each effect body run.
	EffectRan(h Handle, dur time.Duration, err error)

	// TaskStarted fires when a task instance is handed to the executor.
	TaskStarted(h Handle, run TaskRun)

	// TaskDeduped fires when a dirty task declined to spawn because an
	// instance was already running.
	TaskDeduped(h Handle)

	// TaskCompleted fires at the poll point that observed the completion.
	TaskCompleted(h Handle, run TaskRun, dur time.Duration, err error)

	// FailureRecorded fires for every diagnostic, whatever the node kind.
	FailureRecorded(d Diagnostic)
}

// BaseObserver is a PassObserver with no-op methods, meant for embedding so
// implementations override only the events they care about.
type BaseObserver struct{}

func (BaseObserver) PassStarted(uint64)                                  {}
func (BaseObserver) PassCompleted(PassStats)                             {}
func (BaseObserver) ComputedEvaluated(Handle, time.Duration, error)      {}
func (BaseObserver) EffectRan(Handle, time.Duration, error)              {}
func (BaseObserver) TaskStarted(Handle, TaskRun)                         {}
func (BaseObserver) TaskDeduped(Handle)                                  {}
func (BaseObserver) TaskCompleted(Handle, TaskRun, time.Duration, error) {}
func (BaseObserver) FailureRecorded(Diagnostic)                          {}

// MultiObserver fans each event out to its members in order.
type MultiObserver []PassObserver

// CombineObservers merges observers into one, dropping nils. With no live
// members it returns a no-op observer.
func CombineObservers(obs ...PassObserver) PassObserver {
	var live MultiObserver
	for _, o := range obs {
		if o != nil {
			live = append(live, o)
		}
	}
	switch len(live) {
	case 0:
		return BaseObserver{}
	case 1:
		return live[0]
	default:
		return live
	}
}

func (m MultiObserver) PassStarted(pass uint64) {
	for _, o := range m {
		o.PassStarted(pass)
	}
}

func (m MultiObserver) PassCompleted(stats PassStats) {
	for _, o := range m {
		o.PassCompleted(stats)
	}
}

func (m MultiObserver) ComputedEvaluated(h Handle, dur time.Duration, err error) {
	for _, o := range m {
		o.ComputedEvaluated(h, dur, err)
	}
}

func (m MultiObserver) EffectRan(h Handle, dur time.Duration, err error) {
	for _, o := range m {
		o.EffectRan(h, dur, err)
	}
}

func (m MultiObserver) TaskStarted(h Handle, run TaskRun) {
	for _, o := range m {
		o.TaskStarted(h, run)
	}
}

func (m MultiObserver) TaskDeduped(h Handle) {
	for _, o := range m {
		o.TaskDeduped(h)
	}
}

func (m MultiObserver) TaskCompleted(h Handle, run TaskRun, dur time.Duration, err error) {
	for _, o := range m {
		o.TaskCompleted(h, run, dur, err)
	}
}

func (m MultiObserver) FailureRecorded(d Diagnostic) {
	for _, o := range m {
		o.FailureRecorded(d)
	}
}
