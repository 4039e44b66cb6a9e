package queuing

import "github.com/tessera-sim/evsim/sim"

// SinkModel consumes everything sent to its "in" pad and discards it. Its
// startActivity body in SimQueuing.cpp is an empty stub; this gives it the
// one behavior a terminal pipeline stage needs so messages don't pile up
// unread in its pad buffer.
var SinkModel = sim.NewModel(
	"queuing.Sink",
	[]sim.PadSpec{
		{Name: "in", CanInput: true},
	},
	[]sim.ActivitySpec{
		{Name: sim.StartActivityName, Body: sinkStart},
	},
)

func sinkStart(_ *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
	for {
		if _, _, err := self.PadReceive("in", nil); err != nil {
			return
		}
	}
}
