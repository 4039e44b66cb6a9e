// Package queuing is an example model library exercising the engine's
// public surface: a small pipeline of Source, Queue, Processor, Delay,
// Multiplex and Sink models, ported from a draft C++ queuing network into
// the goroutine-as-fiber activity model.
package queuing

import "github.com/tessera-sim/evsim/sim"

// MessageTag is the Payload.Tag every model in this package uses for the
// units flowing through a pipeline.
const MessageTag = "queue_message"

// Message is the unit of work passed between Source, Queue, Processor,
// Delay and Sink. Length is in the same units as a Processor instance's
// "rate" parameter expects (service time = Length / rate); Delay ignores it.
type Message struct {
	ID     int64
	Length float64
}

// NewMessagePayload wraps a Message as a Payload tagged MessageTag.
func NewMessagePayload(id int64, length float64) sim.Payload {
	return sim.Payload{Tag: MessageTag, Value: Message{ID: id, Length: length}}
}

// AsMessage unwraps a Payload produced by NewMessagePayload. ok is false for
// any other tag or value shape, so a model can safely ignore payloads it
// does not recognize rather than panic on a type assertion.
func AsMessage(p sim.Payload) (Message, bool) {
	if p.Tag != MessageTag {
		return Message{}, false
	}
	m, ok := p.Value.(Message)
	return m, ok
}
