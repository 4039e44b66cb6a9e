package queuing

import "github.com/tessera-sim/evsim/sim"

// DefaultDutyCycle is SourceModel's fallback rate, in messages per second,
// when an instance sets no "duty_cycle" parameter.
const DefaultDutyCycle = 2.0

// SourceModel emits a steady stream of messages on its "out" pad at a fixed
// duty cycle, never receiving anything. Grounded on SimQueuing.cpp's
// SourceModel, whose only well-formed body is its ACPP_LESSON>4 branch.
var SourceModel = sim.NewModel(
	"queuing.Source",
	[]sim.PadSpec{
		{Name: "out", CanOutput: true},
	},
	[]sim.ActivitySpec{
		{Name: sim.StartActivityName, Body: sourceStart},
	},
)

func sourceStart(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
	dutyCycle := DefaultDutyCycle
	if v, ok := inst.Parameter("duty_cycle").AsFloat(); ok && v > 0 {
		dutyCycle = v
	}
	interval := sim.Duration(float64(sim.Second) / dutyCycle)

	var nextID int64
	for {
		_ = self.PadSend("out", NewMessagePayload(nextID, 1))
		nextID++
		self.WaitFor(interval)
	}
}
