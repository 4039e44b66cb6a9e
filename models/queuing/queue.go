package queuing

import "github.com/tessera-sim/evsim/sim"

// DefaultDepth is QueueModel's fallback capacity when an instance sets no
// "depth" parameter.
const DefaultDepth = 1

// pollBackoff is how long QueueModel waits before re-checking downstream
// capacity. The engine has no "buffer drained" signal to wake on, so this
// is a bounded poll rather than a busy spin.
const pollBackoff = sim.Millisecond

// QueueModel is a bounded-depth passthrough: it holds at most "depth"
// messages in flight downstream of it, refusing to pull from "in" until its
// peer on "out" has room. Grounded on SimQueuing.cpp's QueueModel, whose
// depth check against out.peer().available() is preserved; here it is
// resolved through Pad.PeerAvailable rather than a cached peer pointer.
var QueueModel = sim.NewModel(
	"queuing.Queue",
	[]sim.PadSpec{
		{Name: "in", CanInput: true},
		{Name: "out", CanOutput: true},
	},
	[]sim.ActivitySpec{
		{Name: sim.StartActivityName, Body: queueStart},
	},
)

func queueStart(inst *sim.Instance, self *sim.Activity, _ sim.ResumeSource, _ sim.Payload) {
	depth := int64(DefaultDepth)
	if v, ok := inst.Parameter("depth").AsInt(); ok && v > 0 {
		depth = v
	}

	out, _ := inst.Pad("out")

	for {
		for {
			avail, bound := out.PeerAvailable()
			if !bound || int64(avail) < depth {
				break
			}
			self.WaitFor(pollBackoff)
		}

		payload, result, err := self.PadReceive("in", nil)
		if err != nil || result != sim.ResultDelivered {
			continue
		}
		_ = self.PadSend("out", payload)
	}
}
