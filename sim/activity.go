package sim

// ActivityState is the activity lifecycle: init -> run <-> pause -> done.
type ActivityState int

// The four ActivityState values.
const (
	ActivityInit ActivityState = iota
	ActivityRun
	ActivityPause
	ActivityDone
)

// String names an ActivityState for diagnostics.
func (s ActivityState) String() string {
	switch s {
	case ActivityInit:
		return "init"
	case ActivityRun:
		return "run"
	case ActivityPause:
		return "pause"
	case ActivityDone:
		return "done"
	default:
		return "unknown"
	}
}

// SuspensionKind tags what an Activity is currently waiting on.
type SuspensionKind int

// The three suspension kinds.
const (
	SuspendTimer SuspensionKind = iota
	SuspendSignal
	SuspendPad
)

// Suspension records what a paused Activity is waiting for, so that the
// dispatcher can cancel a stale timeout when the activity resumes early.
type Suspension struct {
	Kind       SuspensionKind
	WakeTime   Time
	SignalName string
	PadName    string
	hasTimeout bool
	timeout    EventHandle
}

// resumeSignal is what the dispatcher hands a paused activity's goroutine
// to wake it.
type resumeSignal struct {
	source  ResumeSource
	result  ResumeResult
	payload Payload
}

type stepOutcomeKind int

const (
	stepDone stepOutcomeKind = iota
	stepPaused
)

// stepOutcome is what an activity goroutine hands back to whoever is
// driving it (the dispatcher, or another activity resuming it inline from
// pad_send/raise) after running to its next suspension point or to
// completion.
type stepOutcome struct {
	kind       stepOutcomeKind
	suspension Suspension
}

// Activity is a named unit of model behavior running on its own goroutine,
// used strictly as a fiber: the goroutine only ever executes between a
// resumeSignal it receives and the stepOutcome it sends back, and it is the
// only activity goroutine doing so at any instant — the dispatcher (or
// whichever activity is currently resuming it inline) blocks on the
// unbuffered yield channel until that happens, so no two activity bodies
// are ever runnable concurrently.
type Activity struct {
	HookableBase

	name  string
	owner *Instance
	sim   *Simulation
	spec  ActivitySpec

	state      ActivityState
	suspension *Suspension

	resumeCh chan resumeSignal
	yieldCh  chan stepOutcome
}

func newActivity(sim *Simulation, owner *Instance, spec ActivitySpec, name string) *Activity {
	return &Activity{
		name:     name,
		owner:    owner,
		sim:      sim,
		spec:     spec,
		state:    ActivityInit,
		resumeCh: make(chan resumeSignal),
		yieldCh:  make(chan stepOutcome),
	}
}

// Name returns the activity's name, unique within its owning Instance.
func (a *Activity) Name() string { return a.name }

// Owner returns the Instance this activity belongs to.
func (a *Activity) Owner() *Instance { return a.owner }

// State reports the activity's current lifecycle state.
func (a *Activity) State() ActivityState { return a.state }

// Spec returns the ActivitySpec this activity was created from.
func (a *Activity) Spec() ActivitySpec { return a.spec }

// start launches the activity's body on its own goroutine and blocks until
// it reaches its first suspension point or completes. Called exactly once,
// by the dispatcher's spawn_activity handler.
func (a *Activity) start() stepOutcome {
	a.setState(ActivityRun)

	go func() {
		a.spec.Body(a.owner, a, "", Payload{})
		a.yieldCh <- stepOutcome{kind: stepDone}
	}()

	return <-a.yieldCh
}

// resume hands a wake signal to a paused activity and blocks for its next
// yield. Used both by the main dispatch loop (a Timeline-scheduled
// resume_activity event firing) and inline by pad delivery or signal raise,
// which must resume a waiter synchronously within the same step.
func (a *Activity) resume(sig resumeSignal) stepOutcome {
	a.resumeCh <- sig
	return <-a.yieldCh
}

// suspend is the shared core of every suspension primitive: record what is
// being waited on, yield control back to whoever is driving this activity,
// and block until resumed.
func (a *Activity) suspend(s Suspension) resumeSignal {
	a.suspension = &s
	a.setState(ActivityPause)

	a.yieldCh <- stepOutcome{kind: stepPaused, suspension: s}
	sig := <-a.resumeCh

	a.suspension = nil
	a.setState(ActivityRun)
	return sig
}

func (a *Activity) setState(s ActivityState) {
	a.state = s
	if a.NumHooks() > 0 {
		a.InvokeHook(HookCtx{
			Domain: a,
			Pos:    HookPosActivityStateChange,
			Now:    a.sim.simtime,
			Item:   s,
		})
	}
}

// WaitFor suspends the calling activity until simtime + d, then resumes
// with no payload.
func (a *Activity) WaitFor(d Duration) {
	a.WaitUntil(a.sim.simtime.Add(d))
}

// WaitUntil suspends the calling activity until absolute time t. If t is at
// or before the current simtime, it resumes at the next tick (the current
// simtime) rather than in the past.
func (a *Activity) WaitUntil(t Time) {
	wake := t
	if wake <= a.sim.simtime {
		wake = a.sim.simtime
	}

	handle := a.sim.scheduleResume(a.owner.name, a.name, wake)
	a.suspend(Suspension{Kind: SuspendTimer, WakeTime: wake, hasTimeout: true, timeout: handle})
}

// WaitOn suspends the calling activity until another activity raises the
// named signal, or until deadline elapses if given. It returns
// ResultDelivered or ResultTimedOut.
func (a *Activity) WaitOn(signal string, deadline *Duration) ResumeResult {
	a.sim.addSignalWaiter(signal, a.owner.name, a.name)

	s := Suspension{Kind: SuspendSignal, SignalName: signal}
	if deadline != nil {
		wake := a.sim.simtime.Add(*deadline)
		s.WakeTime = wake
		s.hasTimeout = true
		s.timeout = a.sim.scheduleResume(a.owner.name, a.name, wake)
	}

	sig := a.suspend(s)
	return sig.result
}

// PadReceive returns the head of the named pad's buffer immediately if
// non-empty. Otherwise it suspends the calling activity until a peer sends
// to that pad, or until deadline elapses if given. Returns a runtime error
// if no pad with that name exists on the owning instance; this does not
// change the activity's state.
func (a *Activity) PadReceive(padName string, deadline *Duration) (Payload, ResumeResult, error) {
	pad, ok := a.owner.Pad(padName)
	if !ok {
		return Payload{}, ResultCancelled, newRuntimeError(
			"instance %s has no pad named %q", a.owner.name, padName)
	}

	if payload, ok := pad.tryReceive(); ok {
		return payload, ResultDelivered, nil
	}

	pad.addWaiter(a.name)

	s := Suspension{Kind: SuspendPad, PadName: padName}
	if deadline != nil {
		wake := a.sim.simtime.Add(*deadline)
		s.WakeTime = wake
		s.hasTimeout = true
		s.timeout = a.sim.scheduleResume(a.owner.name, a.name, wake)
	}

	sig := a.suspend(s)
	if sig.result == ResultTimedOut {
		pad.removeWaiter(a.name)
		return Payload{}, ResultTimedOut, nil
	}
	return sig.payload, ResultDelivered, nil
}

// PadSend delivers payload to the peer of the named pad. Non-blocking: the
// calling activity never suspends. Returns a runtime error if no such pad
// exists or if the pad is unbound.
func (a *Activity) PadSend(padName string, payload Payload) error {
	pad, ok := a.owner.Pad(padName)
	if !ok {
		return newRuntimeError("instance %s has no pad named %q", a.owner.name, padName)
	}
	return a.sim.deliver(pad, payload)
}

// Raise wakes the earliest activity waiting on the named signal, if any.
// A no-op if nothing is currently waiting on it.
func (a *Activity) Raise(signal string) {
	a.sim.raiseSignal(signal)
}
