package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/tessera-sim/evsim/sim"
)

var _ = Describe("Simulation with a mocked ModelRegistry", func() {
	var (
		mockCtrl *gomock.Controller
		reg      *MockModelRegistry
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		reg = NewMockModelRegistry(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("looks up the model by name and spawns an instance on success", func() {
		model := sim.NewModel("echo", nil, []sim.ActivitySpec{
			{Name: sim.StartActivityName, Body: func(*sim.Instance, *sim.Activity, sim.ResumeSource, sim.Payload) {}},
		})
		reg.EXPECT().Lookup("echo").Return(model, true)

		s := sim.NewSimulation(reg)
		Expect(s.SpawnInstance("echo", "e1", nil, 0)).To(Succeed())

		inst, ok := s.Instance("e1")
		Expect(ok).To(BeTrue())
		Expect(inst.Name()).To(Equal("e1"))
	})

	It("returns a validation error when the registry has no such model", func() {
		reg.EXPECT().Lookup("missing").Return(nil, false)

		s := sim.NewSimulation(reg)
		err := s.SpawnInstance("missing", "m1", nil, 0)
		Expect(err).To(HaveOccurred())

		var simErr *sim.Error
		Expect(err).To(BeAssignableToTypeOf(simErr))
	})

	It("never calls Lookup when the instance name is already taken", func() {
		model := sim.NewModel("echo", nil, []sim.ActivitySpec{
			{Name: sim.StartActivityName, Body: func(*sim.Instance, *sim.Activity, sim.ResumeSource, sim.Payload) {}},
		})
		reg.EXPECT().Lookup("echo").Return(model, true).Times(1)

		s := sim.NewSimulation(reg)
		Expect(s.SpawnInstance("echo", "e1", nil, 0)).To(Succeed())

		err := s.SpawnInstance("echo", "e1", nil, 0)
		Expect(err).To(HaveOccurred())
	})
})
