package dwellsim

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestTerrainRoughnessCoeff(t *testing.T) {
	// Below the minimum height the coefficient is clamped.
	low := terrainRoughnessCoeff(TerrainOpenField, 2.0)
	atMin := terrainRoughnessCoeff(TerrainOpenField, 4.0)
	assert.Equal(t, low, atMin)

	// Above it the coefficient grows with height.
	higher := terrainRoughnessCoeff(TerrainOpenField, 10.0)
	assert.Assert(t, higher > atMin)

	// Rougher terrain reduces the wind speed at the same height.
	urban := terrainRoughnessCoeff(TerrainUrban, 30.0)
	open := terrainRoughnessCoeff(TerrainOpenWater, 30.0)
	assert.Assert(t, urban < open)
}

func TestOrientationDifference(t *testing.T) {
	assert.Equal(t, orientationDifference(0.0, 90.0), 90.0)
	// The shortest way round the circle counts.
	assert.Equal(t, orientationDifference(350.0, 10.0), 20.0)
	assert.Equal(t, orientationDifference(180.0, 180.0), 0.0)
}

func TestFacadeDirection(t *testing.T) {
	assert.Equal(t, facadeDirection(true, 0.0, 90.0, 0.0), FacadeWindward)
	assert.Equal(t, facadeDirection(true, 0.0, 90.0, 180.0), FacadeLeeward)
	assert.Equal(t, facadeDirection(true, 0.0, 90.0, 90.0), FacadeNeither)

	// Pitched surfaces are roof bands when cross ventilation is possible.
	assert.Equal(t, facadeDirection(true, 0.0, 5.0, 0.0), FacadeRoof10)
	assert.Equal(t, facadeDirection(true, 0.0, 25.0, 0.0), FacadeRoof1030)
	assert.Equal(t, facadeDirection(true, 0.0, 45.0, 0.0), FacadeRoof30)
	assert.Equal(t, facadeDirection(false, 0.0, 45.0, 0.0), FacadeRoof)
}

func TestWindPressureCoeff(t *testing.T) {
	// Without cross ventilation only a small differential applies.
	assert.Equal(t, windPressureCoeff(false, ShieldOpen, 10.0, FacadeWindward), 0.05)
	assert.Equal(t, windPressureCoeff(false, ShieldOpen, 10.0, FacadeLeeward), -0.05)
	assert.Equal(t, windPressureCoeff(false, ShieldOpen, 10.0, FacadeRoof), 0.0)

	// With cross ventilation the coefficient depends on height band and
	// shielding.
	assert.Equal(t, windPressureCoeff(true, ShieldOpen, 10.0, FacadeWindward), 0.50)
	assert.Equal(t, windPressureCoeff(true, ShieldOpen, 20.0, FacadeWindward), 0.65)
	assert.Equal(t, windPressureCoeff(true, ShieldNormal, 10.0, FacadeWindward), 0.25)
	assert.Equal(t, windPressureCoeff(true, ShieldShielded, 10.0, FacadeLeeward), -0.30)
	assert.Equal(t, windPressureCoeff(true, ShieldOpen, 10.0, FacadeRoof10), -0.70)
	assert.Equal(t, windPressureCoeff(true, ShieldNormal, 10.0, FacadeRoof1030), -0.50)
	assert.Equal(t, windPressureCoeff(true, ShieldShielded, 10.0, FacadeRoof30), -0.20)

	// Above 50 m only the open shield class is defined.
	assert.Equal(t, windPressureCoeff(true, ShieldShielded, 60.0, FacadeWindward), 0.80)
}

func TestLeakSplitBetweenFacadesAndRoof(t *testing.T) {
	const (
		testPressure = 50.0
		testResult   = 1.2
		areaRoof     = 25.0
		areaFacades  = 85.0
		envArea      = 220.0
	)
	windward := NewLeak(1.25, testPressure, testResult, FacadeWindward,
		areaRoof, areaFacades, envArea, 0.0, 0.0)
	roof := NewLeak(5.0, testPressure, testResult, FacadeRoof,
		areaRoof, areaFacades, envArea, 0.0, 0.0)

	// Each of the four facade paths carries a quarter of the facade
	// share; the roof path carries the roof share whole.
	ratio := windward.cLeakPath / roof.cLeakPath
	assertNear(t, ratio, 0.25*areaFacades/areaRoof, 1e-12)
}

func TestVentFlowCoeffScalesWithOpening(t *testing.T) {
	vent := NewVent(1.5, 100.0, 20.0, 0.0, 90.0, 0.0, 0.0)
	full := vent.flowCoeff(1.0)
	half := vent.flowCoeff(0.5)
	assert.Assert(t, full > 0.0)
	assertNear(t, half, full/2.0, 1e-12)
}

func TestVentWindowPartHeights(t *testing.T) {
	w := NewVentWindow(1.0, 1.5, 0.5, []float64{1.5}, 0.0, 90.0, 0.0, nil, 0.0)
	assert.Equal(t, len(w.partHeights), 1)
	assertNear(t, w.partHeights[0], 1.5, 1e-12)

	// Two parts split the free area height between them.
	w2 := NewVentWindow(1.0, 1.5, 0.5, []float64{1.0, 2.0}, 0.0, 90.0, 0.0, nil, 0.0)
	assert.Equal(t, len(w2.partHeights), 2)
	assertNear(t, w2.partHeights[0], 0.75, 1e-12)
	assertNear(t, w2.partHeights[1], 2.0, 1e-12)
}

func TestVentWindowShutWithoutControl(t *testing.T) {
	w := NewVentWindow(1.0, 1.5, 0.5, []float64{1.5}, 0.0, 90.0, 0.0, nil, 0.0)
	assert.Equal(t, w.openingRatio(0, 1.0), 0.0)
}
