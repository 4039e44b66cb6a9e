package queuing

import (
	"github.com/tessera-sim/evsim/registry"
	"github.com/tessera-sim/evsim/sim"
)

// Register adds every model in this package to r. SimQueuing.cpp registers
// its models through a static ModelRegistrar ctor running against a process
// singleton; this is the explicit, testable replacement the redesign calls
// for — callers decide when and against which registry this package's
// models become available, rather than it happening implicitly at process
// start.
func Register(r *registry.Registry) error {
	for _, m := range []*sim.Model{
		SourceModel,
		QueueModel,
		ProcessorModel,
		DelayModel,
		MultiplexModel,
		SinkModel,
	} {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}
