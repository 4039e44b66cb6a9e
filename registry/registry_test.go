package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessera-sim/evsim/sim"
)

func testModel(name string) *sim.Model {
	return sim.NewModel(name,
		nil,
		[]sim.ActivitySpec{{Name: sim.StartActivityName, Body: func(*sim.Instance, *sim.Activity, sim.ResumeSource, sim.Payload) {}}},
	)
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()

	m := testModel("echo")
	require.NoError(t, r.Register(m))

	got, ok := r.Lookup("echo")
	require.True(t, ok)
	require.Same(t, m, got)

	_, ok = r.Lookup("missing")
	require.False(t, ok)
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(testModel("echo")))
	require.Error(t, r.Register(testModel("echo")))
}

func TestNames(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(testModel("a")))
	require.NoError(t, r.Register(testModel("b")))
	require.ElementsMatch(t, []string{"a", "b"}, r.Names())
}
