package dwellsim

import (
	"testing"

	"gotest.tools/v3/assert"
)

func testSimTime(t *testing.T, start, end, step float64) *SimulationTime {
	t.Helper()
	st, err := NewSimulationTime(start, end, step)
	assert.NilError(t, err)
	return st
}

func constantSeries(value float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = value
	}
	return s
}

// testExternalConditions builds hourly external conditions with constant
// weather: steady southerly wind, no sun.
func testExternalConditions(t *testing.T, simTime *SimulationTime, airTemp float64, n int) *ExternalConditions {
	t.Helper()
	ec, err := NewExternalConditions(
		simTime,
		constantSeries(airTemp, n),
		constantSeries(4.0, n),
		constantSeries(180.0, n),
		constantSeries(0.0, n),
		constantSeries(0.0, n),
		0.2, 0.0, 1.0)
	assert.NilError(t, err)
	return ec
}

func assertNear(t *testing.T, got, want, tolerance float64) {
	t.Helper()
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		t.Fatalf("got %g, want %g (tolerance %g)", got, want, tolerance)
	}
}
