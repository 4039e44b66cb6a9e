package sim

// Pad is a named connection point on an Instance. It owns an ordered
// message buffer and may be bound to exactly one peer pad on another
// instance. Per the source's peer-ownership redesign, a Pad never holds a
// direct reference to its peer: the peer is a logical (instance, pad) name
// pair resolved through the owning Simulation on every operation. This
// avoids the raw shared-pointer cycle the original implementation built
// between Instance, Activity and Pad.
type Pad struct {
	HookableBase

	name       string
	ownerName  string
	spec       PadSpec
	sim        *Simulation

	peerInstance string
	peerPad      string
	bound        bool

	buffer  []Payload
	waiters []string // activity names waiting on pad_receive, FIFO
}

func newPad(sim *Simulation, ownerName string, spec PadSpec) *Pad {
	return &Pad{
		name:      spec.Name,
		ownerName: ownerName,
		spec:      spec,
		sim:       sim,
	}
}

// Name returns the pad's name.
func (p *Pad) Name() string { return p.name }

// Owner returns the name of the Instance this pad belongs to.
func (p *Pad) Owner() string { return p.ownerName }

// Spec returns the PadSpec this pad was materialized from.
func (p *Pad) Spec() PadSpec { return p.spec }

// IsBound reports whether the pad currently has a peer.
func (p *Pad) IsBound() bool { return p.bound }

// Peer returns the (instance, pad) name pair this pad is bound to, if any.
func (p *Pad) Peer() (instance, pad string, ok bool) {
	return p.peerInstance, p.peerPad, p.bound
}

// Available returns the current buffer length.
func (p *Pad) Available() int {
	return len(p.buffer)
}

// PeerAvailable resolves the bound peer pad through the owning Simulation
// and returns its buffer length. Models use this to gate a send on
// downstream queue depth without ever holding a direct pointer to the peer.
// ok is false if the pad is unbound or the peer instance has since gone
// away.
func (p *Pad) PeerAvailable() (n int, ok bool) {
	if !p.bound {
		return 0, false
	}
	peerInst, ok := p.sim.Instance(p.peerInstance)
	if !ok {
		return 0, false
	}
	peerPad, ok := peerInst.Pad(p.peerPad)
	if !ok {
		return 0, false
	}
	return peerPad.Available(), true
}

// bind establishes a symmetric binding with the named peer pad. Fails if
// either side is already bound to a different peer; succeeds idempotently
// if already bound to that exact peer. Both sides observe the binding
// atomically: the caller must hold the engine mutex, which Simulation.Bind
// arranges for.
func (p *Pad) bind(peerInstanceName string, peer *Pad) error {
	if peerInstanceName == p.ownerName {
		return newBindingError("pad %s.%s cannot bind to a pad on its own instance", p.ownerName, p.name)
	}

	if p.bound {
		if p.peerInstance == peerInstanceName && p.peerPad == peer.name {
			return nil
		}
		return newBindingError("pad %s.%s is already bound to %s.%s",
			p.ownerName, p.name, p.peerInstance, p.peerPad)
	}
	if peer.bound {
		if peer.peerInstance == p.ownerName && peer.peerPad == p.name {
			return nil
		}
		return newBindingError("pad %s.%s is already bound to %s.%s",
			peer.ownerName, peer.name, peer.peerInstance, peer.peerPad)
	}

	p.peerInstance, p.peerPad, p.bound = peerInstanceName, peer.name, true
	peer.peerInstance, peer.peerPad, peer.bound = p.ownerName, p.name, true

	return nil
}

// unbind severs both sides of a binding. A no-op if already unbound.
func (p *Pad) unbind(peer *Pad) {
	p.peerInstance, p.peerPad, p.bound = "", "", false
	if peer != nil {
		peer.peerInstance, peer.peerPad, peer.bound = "", "", false
	}
}

// enqueue appends a payload to this pad's own buffer (the receiving side).
// It returns the name of the earliest receive-waiter to resume, if any, and
// pops that waiter off the list in the same step so a delivered payload is
// never handed to two waiters.
func (p *Pad) enqueue(payload Payload) (waiter string, hasWaiter bool) {
	if len(p.waiters) > 0 {
		waiter = p.waiters[0]
		p.waiters = p.waiters[1:]
		hasWaiter = true
		// The waiter consumes the payload directly; it is never placed on
		// the buffer at all, matching "no payload is ever duplicated."
		if p.NumHooks() > 0 {
			p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPadReceive, Now: p.sim.simtime, Item: payload})
		}
		return waiter, true
	}

	p.buffer = append(p.buffer, payload)
	if p.NumHooks() > 0 {
		p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPadSend, Now: p.sim.simtime, Item: payload})
	}
	return "", false
}

// tryReceive dequeues the head of this pad's own buffer, if non-empty.
func (p *Pad) tryReceive() (Payload, bool) {
	if len(p.buffer) == 0 {
		return Payload{}, false
	}
	payload := p.buffer[0]
	p.buffer = p.buffer[1:]
	if p.NumHooks() > 0 {
		p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPadReceive, Now: p.sim.simtime, Item: payload})
	}
	return payload, true
}

// addWaiter appends an activity name to this pad's receive-waiter list.
func (p *Pad) addWaiter(activityName string) {
	p.waiters = append(p.waiters, activityName)
}

// removeWaiter removes an activity name from this pad's receive-waiter
// list, used when a pad_receive times out or its owning activity is
// otherwise woken by another path.
func (p *Pad) removeWaiter(activityName string) {
	for i, w := range p.waiters {
		if w == activityName {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}
