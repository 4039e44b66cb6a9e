package sim

import (
	"sort"
	"sync"
)

// SimulationState is the run-state machine: init -> run <-> pause -> done.
type SimulationState int

// The four SimulationState values.
const (
	StateInit SimulationState = iota
	StateRun
	StatePause
	StateDone
)

// String names a SimulationState for diagnostics.
func (s SimulationState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRun:
		return "run"
	case StatePause:
		return "pause"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

type waiterRef struct {
	instanceName string
	activityName string
}

// Simulation is the engine: it owns the Timeline, the map of instances, the
// signal-waiter lists, the global clock and the run-state machine, and
// drains events in time order, dispatching each to its handler.
//
// Dispatch is single-threaded and cooperative, grounded directly on the
// teacher's SerialEngine.Run loop: pop the earliest event, advance simtime
// to its timestamp, invoke the handler, repeat. External producers (model
// code running on another goroutine, or a CLI/monitoring caller) may call
// SpawnInstance, SpawnActivity, SetState and SetParameter concurrently with
// Run; mu serializes those against the dispatch loop's own Timeline and
// parameter mutations, matching the single engine-ingress mutex the
// concurrency model calls for.
type Simulation struct {
	HookableBase

	mu   sync.Mutex
	cond *sync.Cond

	registry ModelRegistry

	simtime      Time
	state        SimulationState
	pendingState *SimulationState

	parameters map[string]Unstructured
	instances  map[string]*Instance

	// pendingSpawns reserves instance names that have a spawn_instance
	// event already queued but not yet dispatched, so a second
	// spawn_instance for the same name fails immediately rather than
	// racing the Timeline.
	pendingSpawns map[string]bool

	timeline      *Timeline
	signalWaiters map[string][]waiterRef
}

// NewSimulation returns a Simulation in state init, backed by the given
// model registry.
func NewSimulation(registry ModelRegistry) *Simulation {
	s := &Simulation{
		registry:      registry,
		state:         StateInit,
		parameters:    map[string]Unstructured{},
		instances:     map[string]*Instance{},
		pendingSpawns: map[string]bool{},
		timeline:      NewTimeline(),
		signalWaiters: map[string][]waiterRef{},
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Simtime returns the current virtual time.
func (s *Simulation) Simtime() Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simtime
}

// State returns the current, already-applied run state.
func (s *Simulation) State() SimulationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StateWithPending returns both the current state and any transition that
// has been requested but not yet observed by the dispatch loop.
func (s *Simulation) StateWithPending() (current SimulationState, pending *SimulationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingState == nil {
		return s.state, nil
	}
	p := *s.pendingState
	return s.state, &p
}

// SetState requests a state transition. The dispatch loop applies it at its
// next iteration; a paused loop is woken immediately.
func (s *Simulation) SetState(newState SimulationState) {
	s.mu.Lock()
	s.pendingState = &newState
	s.timeline.Push(&Event{Kind: EventStateChange, Time: s.simtime})
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Parameter returns a simulation-global parameter, or the none arm if unset.
func (s *Simulation) Parameter(name string) Unstructured {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.parameters[name]; ok {
		return v
	}
	return NoneValue()
}

// SetParameter sets a simulation-global parameter.
func (s *Simulation) SetParameter(name string, value Unstructured) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parameters[name] = value
}

// Instance looks up a spawned instance by name.
func (s *Simulation) Instance(name string) (*Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[name]
	return inst, ok
}

// Instances returns every currently spawned instance, sorted by name for
// deterministic iteration (monitoring listings, diagnostics).
func (s *Simulation) Instances() []*Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.instances))
	for n := range s.instances {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]*Instance, len(names))
	for i, n := range names {
		out[i] = s.instances[n]
	}
	return out
}

// SpawnInstance validates the instance name is unique against both the
// current instance map and any already-queued spawn, then schedules a
// spawn_instance event at max(at, simtime). The exception is a spawn made
// while the state is still init and at or before the current simtime: the
// instance is created at once and only its start activity is scheduled.
func (s *Simulation) SpawnInstance(modelName, instanceName string, params map[string]Unstructured, at Time) error {
	if instanceName == "" {
		return newValidationError("instance name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[instanceName]; exists {
		return newValidationError("instance %q is not unique", instanceName)
	}
	if s.pendingSpawns[instanceName] {
		return newValidationError("instance %q is not unique", instanceName)
	}
	model, ok := s.registry.Lookup(modelName)
	if !ok {
		return newValidationError("no model registered as %q", modelName)
	}

	when := at
	if when < s.simtime {
		when = s.simtime
	}

	// Before the dispatch loop has started, topology construction (spawn,
	// bind, set_parameter, spawn_activity, in that order per the topology
	// loader's contract) must see each spawned instance immediately, since
	// the binding step that follows needs a real Instance to attach pads
	// to. Once the run is underway, a spawn_instance is a genuinely
	// deferred operation: it is scheduled and only takes effect when the
	// dispatch loop reaches it, so that a mid-run spawn requested from
	// outside the loop cannot race dispatch order.
	if s.state == StateInit && when <= s.simtime {
		inst := newInstance(s, instanceName, model, params)
		s.instances[instanceName] = inst
		s.timeline.Push(&Event{
			Kind:         EventSpawnActivity,
			Time:         when,
			InstanceName: instanceName,
			ActivityName: StartActivityName,
			SpecName:     StartActivityName,
		})
		s.cond.Broadcast()
		return nil
	}

	s.pendingSpawns[instanceName] = true
	s.timeline.Push(&Event{
		Kind:         EventSpawnInstance,
		Time:         when,
		InstanceName: instanceName,
		ModelName:    modelName,
		Params:       params,
	})
	s.cond.Broadcast()
	return nil
}

// SpawnActivity schedules a spawn_activity event. The target instance must
// either already exist or have an earlier-scheduled spawn_instance pending.
func (s *Simulation) SpawnActivity(specName, activityName, instanceName string, at Time) error {
	if activityName == "" {
		return newValidationError("activity name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.instances[instanceName]
	if !exists && !s.pendingSpawns[instanceName] {
		return newValidationError("no instance named %q", instanceName)
	}

	when := at
	if when < s.simtime {
		when = s.simtime
	}

	s.timeline.Push(&Event{
		Kind:         EventSpawnActivity,
		Time:         when,
		InstanceName: instanceName,
		ActivityName: activityName,
		SpecName:     specName,
	})
	s.cond.Broadcast()
	return nil
}

// Bind establishes a symmetric binding between two named pads, materializing
// by_request/is_template pads on demand.
func (s *Simulation) Bind(aInstance, aPad, bInstance, bPad string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ia, ok := s.instances[aInstance]
	if !ok {
		return newBindingError("no instance named %q", aInstance)
	}
	ib, ok := s.instances[bInstance]
	if !ok {
		return newBindingError("no instance named %q", bInstance)
	}

	pa, err := ia.materializePadForBind(aPad)
	if err != nil {
		return err
	}
	pb, err := ib.materializePadForBind(bPad)
	if err != nil {
		return err
	}

	return pa.bind(bInstance, pb)
}

// Unbind severs a pad's binding(s), if any. For an ordinary or by_request
// pad there is at most one. For an is_template pad with several
// simultaneous live bindings, instanceName/padName alone cannot name a
// single one of them (the spec's unbind operation takes no peer
// argument), so every live binding under that name is severed.
func (s *Simulation) Unbind(instanceName, padName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[instanceName]
	if !ok {
		return newBindingError("no instance named %q", instanceName)
	}
	pads := inst.padsNamed(padName)
	if len(pads) == 0 {
		return newBindingError("instance %s has no pad named %q", instanceName, padName)
	}

	for _, pad := range pads {
		var peer *Pad
		if peerInst, peerPad, bound := pad.Peer(); bound {
			if pi, ok := s.instances[peerInst]; ok {
				peer, _ = pi.padForPeer(peerPad, instanceName, padName)
			}
		}
		pad.unbind(peer)
	}
	return nil
}

// Run drains the Timeline in time order until the run-state leaves {run,
// pause} with an empty Timeline, or the state is explicitly set to done.
// It blocks the calling goroutine for the duration of the run.
func (s *Simulation) Run() {
	s.mu.Lock()
	if s.state == StateInit {
		s.state = StateRun
	}
	s.mu.Unlock()

	for {
		s.mu.Lock()

		if s.pendingState != nil {
			s.state = *s.pendingState
			s.pendingState = nil
		}

		for s.state == StatePause {
			s.cond.Wait()
			if s.pendingState != nil {
				s.state = *s.pendingState
				s.pendingState = nil
			}
		}

		if s.state != StateRun {
			s.mu.Unlock()
			return
		}

		e := s.timeline.PopMin()
		if e == nil {
			s.state = StateDone
			s.mu.Unlock()
			return
		}
		if e.Time > s.simtime {
			s.simtime = e.Time
		}
		s.mu.Unlock()

		s.dispatch(e)
	}
}

func (s *Simulation) dispatch(e *Event) {
	if s.NumHooks() > 0 {
		s.InvokeHook(HookCtx{Domain: s, Pos: HookPosBeforeEvent, Now: s.simtime, Item: e})
	}

	switch e.Kind {
	case EventStateChange:
		s.mu.Lock()
		if s.pendingState != nil {
			s.state = *s.pendingState
			s.pendingState = nil
		}
		s.mu.Unlock()
	case EventSpawnInstance:
		s.handleSpawnInstance(e)
	case EventSpawnActivity:
		s.handleSpawnActivity(e)
	case EventResumeActivity:
		s.handleResumeActivity(e)
	case EventPadDeliver:
		s.handlePadDeliver(e)
	}

	if s.NumHooks() > 0 {
		s.InvokeHook(HookCtx{Domain: s, Pos: HookPosAfterEvent, Now: s.simtime, Item: e})
	}
}

func (s *Simulation) handleSpawnInstance(e *Event) {
	s.mu.Lock()
	delete(s.pendingSpawns, e.InstanceName)

	if _, exists := s.instances[e.InstanceName]; exists {
		s.mu.Unlock()
		s.dropped(e, "duplicate instance name at dispatch time")
		return
	}

	model, ok := s.registry.Lookup(e.ModelName)
	if !ok {
		s.mu.Unlock()
		s.dropped(e, "model not found at dispatch time")
		return
	}

	inst := newInstance(s, e.InstanceName, model, e.Params)
	s.instances[e.InstanceName] = inst

	s.timeline.Push(&Event{
		Kind:         EventSpawnActivity,
		Time:         s.simtime,
		InstanceName: e.InstanceName,
		ActivityName: StartActivityName,
		SpecName:     StartActivityName,
	})
	s.mu.Unlock()
}

func (s *Simulation) handleSpawnActivity(e *Event) {
	s.mu.Lock()
	inst, ok := s.instances[e.InstanceName]
	s.mu.Unlock()
	if !ok {
		s.dropped(e, "instance missing at dispatch time")
		return
	}

	spec, specOK := inst.model.ActivitySpec(e.SpecName)
	if !specOK {
		s.dropped(e, "unknown activity spec")
		return
	}
	act, err := inst.addActivity(spec, e.ActivityName)
	if err != nil {
		s.dropped(e, err.Error())
		return
	}

	outcome := act.start()
	s.settle(act, outcome)
}

func (s *Simulation) handleResumeActivity(e *Event) {
	s.mu.Lock()
	inst, ok := s.instances[e.InstanceName]
	s.mu.Unlock()
	if !ok {
		s.dropped(e, "instance missing at dispatch time")
		return
	}
	act, ok := inst.Activity(e.ActivityName)
	if !ok || act.state != ActivityPause {
		s.dropped(e, "activity not awaiting resume")
		return
	}

	sig := resumeSignal{source: ResumeTimer, result: ResultTimedOut}
	if act.suspension != nil && act.suspension.Kind == SuspendSignal {
		s.removeSignalWaiter(act.suspension.SignalName, inst.name, act.name)
	}

	outcome := act.resume(sig)
	s.settle(act, outcome)
}

func (s *Simulation) handlePadDeliver(e *Event) {
	s.mu.Lock()
	inst, ok := s.instances[e.InstanceName]
	s.mu.Unlock()
	if !ok {
		s.dropped(e, "target instance missing at dispatch time")
		return
	}
	pad, ok := inst.padForPeer(e.PadName, e.SourceInstance, e.SourcePad)
	if !ok || !pad.IsBound() {
		s.dropped(e, "target pad missing or unbound at dispatch time")
		return
	}

	waiterName, hasWaiter := pad.enqueue(e.Payload)
	if !hasWaiter {
		return
	}

	act, ok := inst.Activity(waiterName)
	if !ok {
		return
	}
	if act.suspension != nil && act.suspension.hasTimeout {
		s.timeline.Remove(act.suspension.timeout)
	}

	outcome := act.resume(resumeSignal{source: ResumePad, result: ResultDelivered, payload: e.Payload})
	s.settle(act, outcome)
}

// settle applies the result of driving an activity one step: either it is
// now done, or its new suspension (with any freshly scheduled timeout) is
// already recorded by Activity.suspend.
func (s *Simulation) settle(act *Activity, outcome stepOutcome) {
	if outcome.kind == stepDone {
		act.setState(ActivityDone)
	}
}

func (s *Simulation) dropped(e *Event, reason string) {
	if s.NumHooks() > 0 {
		s.InvokeHook(HookCtx{
			Domain: s,
			Pos:    HookPosDispatchDropped,
			Now:    s.simtime,
			Item:   e,
			Detail: reason,
		})
	}
}

// scheduleResume pushes a resume_activity event and returns its handle, so
// the caller can cancel it if the activity resumes early via another path.
func (s *Simulation) scheduleResume(instanceName, activityName string, at Time) EventHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Push(&Event{
		Kind:         EventResumeActivity,
		Time:         at,
		InstanceName: instanceName,
		ActivityName: activityName,
	})
}

// deliver schedules a pad_deliver event at the current simtime targeting
// the peer of pad. Returns a runtime error if pad is unbound.
func (s *Simulation) deliver(pad *Pad, payload Payload) error {
	peerInst, peerPad, bound := pad.Peer()
	if !bound {
		return newRuntimeError("pad %s.%s is not bound", pad.ownerName, pad.name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline.Push(&Event{
		Kind:           EventPadDeliver,
		Time:           s.simtime,
		InstanceName:   peerInst,
		PadName:        peerPad,
		SourceInstance: pad.ownerName,
		SourcePad:      pad.name,
		Payload:        payload,
		HasPayload:     true,
	})
	return nil
}

// addSignalWaiter appends an activity to a signal's FIFO waiter list.
func (s *Simulation) addSignalWaiter(signal, instanceName, activityName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signalWaiters[signal] = append(s.signalWaiters[signal], waiterRef{instanceName, activityName})
}

func (s *Simulation) removeSignalWaiter(signal, instanceName, activityName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws := s.signalWaiters[signal]
	for i, w := range ws {
		if w.instanceName == instanceName && w.activityName == activityName {
			s.signalWaiters[signal] = append(ws[:i], ws[i+1:]...)
			return
		}
	}
}

// raiseSignal wakes the earliest activity waiting on signal, if any,
// resuming it synchronously within the current step.
func (s *Simulation) raiseSignal(signal string) {
	s.mu.Lock()
	ws := s.signalWaiters[signal]
	if len(ws) == 0 {
		s.mu.Unlock()
		return
	}
	w := ws[0]
	s.signalWaiters[signal] = ws[1:]
	s.mu.Unlock()

	inst, ok := s.instances[w.instanceName]
	if !ok {
		return
	}
	act, ok := inst.Activity(w.activityName)
	if !ok {
		return
	}
	if act.suspension != nil && act.suspension.hasTimeout {
		s.timeline.Remove(act.suspension.timeout)
	}

	outcome := act.resume(resumeSignal{source: ResumeSignal, result: ResultDelivered})
	s.settle(act, outcome)
}
