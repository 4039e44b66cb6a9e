package queuing

import "github.com/tessera-sim/evsim/sim"

// MultiplexModel forwards everything it receives on "in" to "out". Its
// startActivity body in SimQueuing.cpp is an empty stub; the only concrete
// intent it leaves behind is the pad flags on "out"
// (CAN_OUTPUT | BY_REQUEST), which this completes as a straight passthrough
// so the by_request flag has a model that actually exercises it: "out" is
// never materialized until some peer's bind names it.
var MultiplexModel = sim.NewModel(
	"queuing.Multiplex",
	[]sim.PadSpec{
		{Name: "in", CanInput: true},
		{Name: "out", CanOutput: true, ByRequest: true},
	},
	[]sim.ActivitySpec{
		{Name: sim.StartActivityName, Body: multiplexStart},
	},
)

func multiplexStart(_ *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
	for {
		payload, result, err := self.PadReceive("in", nil)
		if err != nil || result != sim.ResultDelivered {
			continue
		}
		_ = self.PadSend("out", payload)
	}
}
