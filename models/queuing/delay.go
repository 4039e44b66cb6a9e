package queuing

import "github.com/tessera-sim/evsim/sim"

// DefaultDelay is DelayModel's fallback fixed latency when an instance sets
// no "delay" parameter (nanoseconds).
const DefaultDelay = sim.Duration(sim.Second)

// DelayModel receives a message, holds it for a fixed latency regardless of
// message length, then forwards it. SimQueuing.cpp's DelayModel computed
// its wait from message.length * rate, identically to ProcessorModel — a
// copy-paste draft bug that erased the distinction the module list
// describes ("service-time-gated" vs "fixed-delay" passthrough). This
// restores the fixed-delay behavior the name and the module table promise.
var DelayModel = sim.NewModel(
	"queuing.Delay",
	[]sim.PadSpec{
		{Name: "in", CanInput: true},
		{Name: "out", CanOutput: true},
	},
	[]sim.ActivitySpec{
		{Name: sim.StartActivityName, Body: delayStart},
	},
)

func delayStart(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
	delay := DefaultDelay
	if v, ok := inst.Parameter("delay").AsInt(); ok && v > 0 {
		delay = sim.Duration(v)
	}

	for {
		payload, result, err := self.PadReceive("in", nil)
		if err != nil || result != sim.ResultDelivered {
			continue
		}

		self.WaitFor(delay)
		_ = self.PadSend("out", payload)
	}
}
