package sim

// ModelRegistry is the read-only lookup interface the Simulation uses to
// resolve a model name at spawn_instance time. It is injected at
// construction rather than reached for as process-global state, so engine
// correctness never depends on what else has registered a model in the
// same process.
type ModelRegistry interface {
	Lookup(name string) (*Model, bool)
}

// ActivityKind tags the suspension shape an ActivitySpec's body is expected
// to use.
type ActivityKind int

// The three activity spec kinds.
const (
	ActivityPlain ActivityKind = iota
	ActivityPadReceive
	ActivityPadSend
)

// ActivityBody is a model's behavior: invoked once by the dispatcher on
// spawn_activity, on the activity's own goroutine, it runs cooperatively
// until it either returns (the activity becomes done) or calls a suspension
// primitive on self (wait_for, wait_until, wait_on, pad_receive), at which
// point the goroutine running it blocks until the dispatcher resumes it. A
// resume_activity continues the body from inside that primitive; it does
// not invoke the body again.
//
// The body is always called with an empty source and a zero Payload. What
// woke the activity, and any delivered value, come back as the return
// values of the suspension primitive instead.
type ActivityBody func(inst *Instance, self *Activity, source ResumeSource, payload Payload)

// ActivitySpec is an immutable, named unit of behavior registered on a
// Model. Name is unique within the Model.
type ActivitySpec struct {
	Name         string
	Kind         ActivityKind
	TriggerEvent string
	Body         ActivityBody
}

// StartActivityName is the name every Instance's entry-point activity is
// given; every Model must register an ActivitySpec under this name.
const StartActivityName = "start"

// PadSpec is an immutable, named connection point registered on a Model.
// Name is unique within the Model.
type PadSpec struct {
	Name       string
	CanInput   bool
	CanOutput  bool
	IsTemplate bool
	ByRequest  bool
	Properties map[string]Unstructured
}

// Model is an immutable prototype shared by name across Simulations: a set
// of pad specs, a set of activity specs (including the mandatory "start"
// spec), and nothing else. Models never hold per-instance state.
type Model struct {
	Name          string
	padSpecs      map[string]PadSpec
	activitySpecs map[string]ActivitySpec
}

// NewModel builds a Model from its pad and activity specs. It panics if no
// "start" activity spec is present: every Model must define an entry point.
func NewModel(name string, pads []PadSpec, activities []ActivitySpec) *Model {
	m := &Model{
		Name:          name,
		padSpecs:      make(map[string]PadSpec, len(pads)),
		activitySpecs: make(map[string]ActivitySpec, len(activities)),
	}

	for _, p := range pads {
		m.padSpecs[p.Name] = p
	}
	for _, a := range activities {
		m.activitySpecs[a.Name] = a
	}

	if _, ok := m.activitySpecs[StartActivityName]; !ok {
		panic("sim: model " + name + " has no \"start\" activity spec")
	}

	return m
}

// PadSpecs returns the Model's pad specs.
func (m *Model) PadSpecs() map[string]PadSpec {
	return m.padSpecs
}

// ActivitySpecs returns the Model's activity specs.
func (m *Model) ActivitySpecs() map[string]ActivitySpec {
	return m.activitySpecs
}

// PadSpec looks up a single pad spec by name.
func (m *Model) PadSpec(name string) (PadSpec, bool) {
	p, ok := m.padSpecs[name]
	return p, ok
}

// ActivitySpec looks up a single activity spec by name.
func (m *Model) ActivitySpec(name string) (ActivitySpec, bool) {
	a, ok := m.activitySpecs[name]
	return a, ok
}
