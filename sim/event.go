package sim

// EventKind tags the variant of a dispatcher Event.
type EventKind int

// The five event variants the dispatcher routes on.
const (
	EventStateChange EventKind = iota
	EventSpawnInstance
	EventSpawnActivity
	EventResumeActivity
	EventPadDeliver
)

// String names an EventKind for diagnostics and logging.
func (k EventKind) String() string {
	switch k {
	case EventStateChange:
		return "state_change"
	case EventSpawnInstance:
		return "spawn_instance"
	case EventSpawnActivity:
		return "spawn_activity"
	case EventResumeActivity:
		return "resume_activity"
	case EventPadDeliver:
		return "pad_deliver"
	default:
		return "unknown"
	}
}

// ResumeSource names what woke a resume_activity event, passed to the
// activity body as its "source" argument.
type ResumeSource string

// The three sources a resume_activity event can wake an activity from.
const (
	ResumeTimer  ResumeSource = "timer"
	ResumeSignal ResumeSource = "signal"
	ResumePad    ResumeSource = "pad"
)

// ResumeResult reports how a suspension was resolved.
type ResumeResult int

// The three ways a suspension can resolve.
const (
	ResultDelivered ResumeResult = iota
	ResultTimedOut
	ResultCancelled
)

// Payload is an opaque tagged value. The engine never inspects Value; Tag is
// solely a convenience for model code's own dispatch on payload shape.
type Payload struct {
	Tag   string
	Value interface{}
}

// Event is one entry in the Timeline: a time-stamped, kind-tagged record
// naming the instance/activity/pad/signal it concerns, carrying at most one
// payload. Events are totally ordered by (Time, seq); seq is assigned at
// push time and is never exposed outside the package, so that ordering is
// the Timeline's responsibility alone.
type Event struct {
	Kind EventKind
	Time Time

	InstanceName string
	ActivityName string
	PadName      string
	SignalName   string

	// SourceInstance and SourcePad name the sending pad's own identity.
	// Only populated on a pad_deliver event, where they let the receiving
	// side pick the one binding an is_template pad means among several
	// simultaneous ones under the same PadName.
	SourceInstance string
	SourcePad      string

	// ModelName, Params and SpecName are only populated on
	// spawn_instance/spawn_activity events.
	ModelName string
	Params    map[string]Unstructured
	SpecName  string

	Source       ResumeSource
	ResumeResult ResumeResult
	Payload      Payload
	HasPayload   bool

	seq       uint64
	cancelled bool
	index     int
}

// EventHandle identifies a pushed Event for later cancellation. It is opaque
// to callers outside the package.
type EventHandle = *Event
