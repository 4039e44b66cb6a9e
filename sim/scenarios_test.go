package sim_test

import (
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tessera-sim/evsim/registry"
	"github.com/tessera-sim/evsim/sim"
)

func newSuite() (*sim.Simulation, *registry.Registry) {
	reg := registry.New()
	return sim.NewSimulation(reg), reg
}

func mustRegister(reg *registry.Registry, m *sim.Model) {
	Expect(reg.Register(m)).To(Succeed())
}

// stopAfter halts a run once n events have dispatched, so tests with
// looping activities terminate deterministically on the dispatch goroutine
// itself rather than racing a separate stop signal in from another
// goroutine.
type stopAfter struct {
	remaining int
	s         *sim.Simulation
}

func (h *stopAfter) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}
	h.remaining--
	if h.remaining <= 0 {
		h.s.SetState(sim.StateDone)
	}
}

var _ = Describe("Simulation", func() {
	Describe("timer loop", func() {
		It("wakes an activity repeatedly at the requested interval", func() {
			var ticks int32

			model := sim.NewModel("ticker", nil, []sim.ActivitySpec{
				{Name: sim.StartActivityName, Body: func(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
					for {
						atomic.AddInt32(&ticks, 1)
						self.WaitFor(sim.Millisecond)
					}
				}},
			})

			s, reg := newSuite()
			mustRegister(reg, model)
			s.AcceptHook(&stopAfter{remaining: 10, s: s})

			Expect(s.SpawnInstance("ticker", "t1", nil, 0)).To(Succeed())

			s.SetState(sim.StateRun)
			s.Run()

			Expect(atomic.LoadInt32(&ticks)).To(BeNumerically(">=", 5))
			Expect(s.Simtime()).To(BeNumerically(">", 0))
		})
	})

	Describe("pad round-trip", func() {
		It("delivers a sent payload to the receiving activity", func() {
			var received sim.Payload
			var gotResult sim.ResumeResult
			var gotErr error

			sender := sim.NewModel("sender", []sim.PadSpec{{Name: "out", CanOutput: true}},
				[]sim.ActivitySpec{
					{Name: sim.StartActivityName, Body: func(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
						_ = self.PadSend("out", sim.Payload{Tag: "ping", Value: 42})
					}},
				})
			receiver := sim.NewModel("receiver", []sim.PadSpec{{Name: "in", CanInput: true}},
				[]sim.ActivitySpec{
					{Name: sim.StartActivityName, Body: func(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
						received, gotResult, gotErr = self.PadReceive("in", nil)
					}},
				})

			s, reg := newSuite()
			mustRegister(reg, sender)
			mustRegister(reg, receiver)

			Expect(s.SpawnInstance("sender", "s1", nil, 0)).To(Succeed())
			Expect(s.SpawnInstance("receiver", "r1", nil, 0)).To(Succeed())
			Expect(s.Bind("s1", "out", "r1", "in")).To(Succeed())

			s.SetState(sim.StateRun)
			s.Run()

			Expect(gotErr).ToNot(HaveOccurred())
			Expect(gotResult).To(Equal(sim.ResultDelivered))
			Expect(received.Tag).To(Equal("ping"))
			Expect(received.Value).To(Equal(42))
		})
	})

	Describe("pad_receive timeout", func() {
		It("resumes with ResultTimedOut when no payload arrives before the deadline", func() {
			var result sim.ResumeResult
			var gotErr error

			receiver := sim.NewModel("lonely", []sim.PadSpec{{Name: "in", CanInput: true}},
				[]sim.ActivitySpec{
					{Name: sim.StartActivityName, Body: func(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
						deadline := sim.Millisecond
						_, result, gotErr = self.PadReceive("in", &deadline)
					}},
				})

			s, reg := newSuite()
			mustRegister(reg, receiver)
			Expect(s.SpawnInstance("lonely", "r1", nil, 0)).To(Succeed())

			s.SetState(sim.StateRun)
			s.Run()

			Expect(gotErr).ToNot(HaveOccurred())
			Expect(result).To(Equal(sim.ResultTimedOut))
			Expect(s.Simtime()).To(Equal(sim.Time(sim.Millisecond)))
		})
	})

	Describe("signal wakes an activity before its timeout", func() {
		It("resumes with ResultDelivered and cancels the pending timeout", func() {
			var waiterResult sim.ResumeResult

			waiter := sim.NewModel("waiter", nil, []sim.ActivitySpec{
				{Name: sim.StartActivityName, Body: func(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
					deadline := sim.Second
					waiterResult = self.WaitOn("go", &deadline)
				}},
			})
			raiser := sim.NewModel("raiser", nil, []sim.ActivitySpec{
				{Name: sim.StartActivityName, Body: func(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
					self.WaitFor(sim.Millisecond)
					self.Raise("go")
				}},
			})

			s, reg := newSuite()
			mustRegister(reg, waiter)
			mustRegister(reg, raiser)

			Expect(s.SpawnInstance("waiter", "w1", nil, 0)).To(Succeed())
			Expect(s.SpawnInstance("raiser", "r1", nil, 0)).To(Succeed())

			s.SetState(sim.StateRun)
			s.Run()

			Expect(waiterResult).To(Equal(sim.ResultDelivered))
			// The raiser woke it after 1ms, well inside the 1s deadline; the
			// simulation must not have run all the way out to the timeout.
			Expect(s.Simtime()).To(BeNumerically("<", sim.Time(sim.Second)))
		})
	})

	Describe("duplicate spawn_instance", func() {
		It("rejects a second instance under an already-used name", func() {
			model := sim.NewModel("noop", nil, []sim.ActivitySpec{
				{Name: sim.StartActivityName, Body: func(*sim.Instance, *sim.Activity, sim.ResumeSource, sim.Payload) {}},
			})

			s, reg := newSuite()
			mustRegister(reg, model)

			Expect(s.SpawnInstance("noop", "a", nil, 0)).To(Succeed())
			err := s.SpawnInstance("noop", "a", nil, 0)
			Expect(err).To(HaveOccurred())

			var simErr *sim.Error
			Expect(err).To(BeAssignableToTypeOf(simErr))
		})

		It("rejects a second spawn under a name already reserved by a queued spawn", func() {
			model := sim.NewModel("noop", nil, []sim.ActivitySpec{
				{Name: sim.StartActivityName, Body: func(*sim.Instance, *sim.Activity, sim.ResumeSource, sim.Payload) {}},
			})

			s, reg := newSuite()
			mustRegister(reg, model)

			// A future spawn (at > simtime, before Run) is queued rather
			// than materialized immediately, but still reserves the name.
			Expect(s.SpawnInstance("noop", "a", nil, sim.Time(sim.Second))).To(Succeed())
			err := s.SpawnInstance("noop", "a", nil, 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("unbind while a delivery is in flight", func() {
		// unbindOnDeliver severs r1.in the instant the pad_deliver event
		// reaches the front of the Timeline — after the sender already
		// committed to the send, before the receiver ever sees it.
		It("drops the in-flight payload instead of delivering to an unbound pad", func() {
			var result sim.ResumeResult
			var gotErr error

			sender := sim.NewModel("sender2", []sim.PadSpec{{Name: "out", CanOutput: true}},
				[]sim.ActivitySpec{
					{Name: sim.StartActivityName, Body: func(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
						_ = self.PadSend("out", sim.Payload{Tag: "late"})
					}},
				})
			receiver := sim.NewModel("receiver2", []sim.PadSpec{{Name: "in", CanInput: true}},
				[]sim.ActivitySpec{
					{Name: sim.StartActivityName, Body: func(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
						deadline := sim.Millisecond
						_, result, gotErr = self.PadReceive("in", &deadline)
					}},
				})

			s, reg := newSuite()
			mustRegister(reg, sender)
			mustRegister(reg, receiver)

			s.AcceptHook(&unbindOnDeliver{s: s, instanceName: "r1", padName: "in"})

			Expect(s.SpawnInstance("receiver2", "r1", nil, 0)).To(Succeed())
			Expect(s.SpawnInstance("sender2", "s1", nil, 0)).To(Succeed())
			Expect(s.Bind("s1", "out", "r1", "in")).To(Succeed())

			s.SetState(sim.StateRun)
			s.Run()

			Expect(gotErr).ToNot(HaveOccurred())
			Expect(result).To(Equal(sim.ResultTimedOut))
		})
	})
})

// unbindOnDeliver severs a named pad the first time a pad_deliver event is
// about to dispatch, simulating a concurrent topology change racing an
// already-committed send.
type unbindOnDeliver struct {
	s                     *sim.Simulation
	instanceName, padName string
	fired                 bool
}

func (h *unbindOnDeliver) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosBeforeEvent || h.fired {
		return
	}
	e, ok := ctx.Item.(*sim.Event)
	if !ok || e.Kind != sim.EventPadDeliver {
		return
	}
	if e.InstanceName != h.instanceName || e.PadName != h.padName {
		return
	}
	h.fired = true
	_ = h.s.Unbind(h.instanceName, h.padName)
}
