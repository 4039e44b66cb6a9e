package queuing

import "github.com/tessera-sim/evsim/sim"

// DefaultRate is ProcessorModel's fallback service rate, in length units
// per second, when an instance sets no "rate" parameter.
const DefaultRate = 1.0

// ProcessorModel receives a message, busies itself for Length/rate seconds,
// then forwards it. Grounded on SimQueuing.cpp's ProcessorModel, which left
// an undeclared "duty_cycle" identifier and a dangling m_received field
// meant to survive a callback re-entry; the goroutine-as-fiber model has no
// re-entry to survive, so the service-time computation and the pending
// message both collapse to ordinary local variables in a straight-line
// loop.
var ProcessorModel = sim.NewModel(
	"queuing.Processor",
	[]sim.PadSpec{
		{Name: "in", CanInput: true},
		{Name: "out", CanOutput: true},
	},
	[]sim.ActivitySpec{
		{Name: sim.StartActivityName, Body: processorStart},
	},
)

func processorStart(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
	rate := DefaultRate
	if v, ok := inst.Parameter("rate").AsFloat(); ok && v > 0 {
		rate = v
	}

	for {
		payload, result, err := self.PadReceive("in", nil)
		if err != nil || result != sim.ResultDelivered {
			continue
		}

		if msg, ok := AsMessage(payload); ok {
			self.WaitFor(sim.Duration(msg.Length / rate * float64(sim.Second)))
		}

		_ = self.PadSend("out", payload)
	}
}
