package queuing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessera-sim/evsim/registry"
	"github.com/tessera-sim/evsim/sim"
)

func newTestSim(t *testing.T) (*sim.Simulation, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, Register(reg))
	return sim.NewSimulation(reg), reg
}

// stopAfterN is a test Hook that halts the simulation once a fixed number
// of events have dispatched. Every model this package exposes loops
// forever, so a test driving Run() needs a deterministic, same-goroutine
// way to stop it rather than racing SetState from another goroutine.
type stopAfterN struct {
	remaining int
	s         *sim.Simulation
}

func (h *stopAfterN) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}
	h.remaining--
	if h.remaining <= 0 {
		h.s.SetState(sim.StateDone)
	}
}

func TestRegisterAddsAllSixModels(t *testing.T) {
	_, reg := newTestSim(t)
	require.ElementsMatch(t, []string{
		"queuing.Source", "queuing.Queue", "queuing.Processor",
		"queuing.Delay", "queuing.Multiplex", "queuing.Sink",
	}, reg.Names())
}

func TestPadSpecFlags(t *testing.T) {
	in, ok := QueueModel.PadSpec("in")
	require.True(t, ok)
	require.True(t, in.CanInput)
	require.False(t, in.CanOutput)

	out, ok := MultiplexModel.PadSpec("out")
	require.True(t, ok)
	require.True(t, out.CanOutput)
	require.True(t, out.ByRequest)
}

func TestSourceToSinkPipeline(t *testing.T) {
	s, _ := newTestSim(t)

	require.NoError(t, s.SpawnInstance("queuing.Source", "src",
		map[string]sim.Unstructured{"duty_cycle": sim.DoubleValue(10)}, s.Simtime()))
	require.NoError(t, s.SpawnInstance("queuing.Sink", "snk", nil, s.Simtime()))
	require.NoError(t, s.Bind("src", "out", "snk", "in"))

	s.AcceptHook(&stopAfterN{remaining: 20, s: s})

	s.SetState(sim.StateRun)
	s.Run()

	src, ok := s.Instance("src")
	require.True(t, ok)
	pad, ok := src.Pad("out")
	require.True(t, ok)
	_, _, bound := pad.Peer()
	require.True(t, bound)
}

func TestProcessorComputesServiceDelay(t *testing.T) {
	s, _ := newTestSim(t)

	require.NoError(t, s.SpawnInstance("queuing.Source", "src",
		map[string]sim.Unstructured{"duty_cycle": sim.DoubleValue(1000)}, s.Simtime()))
	require.NoError(t, s.SpawnInstance("queuing.Processor", "p",
		map[string]sim.Unstructured{"rate": sim.DoubleValue(2)}, s.Simtime()))
	require.NoError(t, s.SpawnInstance("queuing.Sink", "snk", nil, s.Simtime()))
	require.NoError(t, s.Bind("src", "out", "p", "in"))
	require.NoError(t, s.Bind("p", "out", "snk", "in"))

	s.AcceptHook(&stopAfterN{remaining: 40, s: s})

	s.SetState(sim.StateRun)
	s.Run()

	require.Greater(t, s.Simtime(), sim.Time(0))
}
