package monitoring

import (
	"reflect"

	"github.com/tessera-sim/evsim/registry"
	"github.com/tessera-sim/evsim/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sampleStruct struct {
	field1 int
	field2 string
	field3 *sampleStruct
	field4 []sampleStruct
}

func noopModel(name string, pads ...sim.PadSpec) *sim.Model {
	return sim.NewModel(name, pads, []sim.ActivitySpec{
		{Name: sim.StartActivityName, Body: func(*sim.Instance, *sim.Activity, sim.ResumeSource, sim.Payload) {}},
	})
}

var _ = Describe("Monitor", func() {
	var (
		m *Monitor
		s *sim.Simulation
	)

	BeforeEach(func() {
		m = &Monitor{}
		reg := registry.New()
		Expect(reg.Register(noopModel("echo", sim.PadSpec{Name: "out", CanOutput: true}))).To(Succeed())
		s = sim.NewSimulation(reg)
		m.RegisterSimulation(s)
	})

	It("should report registered instances", func() {
		Expect(s.SpawnInstance("echo", "a", nil, s.Simtime())).To(Succeed())

		inst, ok := s.Instance("a")
		Expect(ok).To(BeTrue())
		Expect(inst.Name()).To(Equal("a"))
	})

	It("should give every progress bar a distinct, generated ID", func() {
		first := m.CreateProgressBar("load", 10)
		second := m.CreateProgressBar("run", 20)

		Expect(first.ID).NotTo(BeEmpty())
		Expect(second.ID).NotTo(BeEmpty())
		Expect(first.ID).NotTo(Equal(second.ID))
	})

	It("should walk int fields", func() {
		v := &sampleStruct{
			field1: 1,
		}

		elem, err := m.walkFields(v, "field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Type().Name()).To(Equal("int"))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk string fields", func() {
		v := &sampleStruct{
			field2: "abc",
		}

		elem, err := m.walkFields(v, "field2")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.String))
		Expect(elem.Type().Name()).To(Equal("string"))
		Expect(elem.String()).To(Equal("abc"))
	})

	It("should walk struct", func() {
		v := &sampleStruct{
			field3: &sampleStruct{},
		}

		elem, err := m.walkFields(v, "field3")

		Expect(err).To(BeNil())

		Expect(elem.Kind()).To(Equal(reflect.Struct))
		Expect(elem.Type().Name()).To(Equal("sampleStruct"))
	})

	It("should walk recursively", func() {
		v := &sampleStruct{
			field3: &sampleStruct{
				field1: 1,
			},
		}

		elem, err := m.walkFields(v, "field3.field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Type().Name()).To(Equal("int"))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk slice", func() {
		v := &sampleStruct{
			field4: []sampleStruct{{}, {}},
		}

		elem, err := m.walkFields(v, "field4")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Slice))
	})

	It("should walk slice recursively", func() {
		v := &sampleStruct{
			field4: []sampleStruct{{
				field4: []sampleStruct{
					{field1: 1},
				},
			}, {}},
		}

		elem, err := m.walkFields(v, "field4.0.field4.0.field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Type().Name()).To(Equal("int"))
		Expect(elem.Int()).To(Equal(int64(1)))
	})
})
