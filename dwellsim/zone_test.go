package dwellsim

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"
)

// testZone builds a single-zone box: 40 m2 floor area, one external
// wall, one window-less roof and a floor to an unconditioned space.
func testZone(t *testing.T, extCond *ExternalConditions, useFastSolver bool) *Zone {
	t.Helper()

	wall, err := NewOpaqueElement(
		"external wall", 60.0, false, 90.0, 0.6, 1.7, 19000.0, MassDistIE, 180.0, extCond)
	assert.NilError(t, err)
	roof, err := NewOpaqueElement(
		"roof", 40.0, false, 0.0, 0.6, 2.5, 18000.0, MassDistIE, 0.0, extCond)
	assert.NilError(t, err)
	floor, err := NewAdjacentUnconditionedElement(
		"floor", 40.0, 180.0, 1.0, 0.8, 110000.0, MassDistIE, extCond)
	assert.NilError(t, err)

	bridges := []ThermalBridge{
		ThermalBridgeLinear{LinearThermTrans: 0.28, Length: 5.0},
		ThermalBridgePoint{Coeff: 1.4},
	}

	z, err := NewZone(
		40.0, 100.0,
		[]BuildingElement{wall, roof, floor},
		bridges,
		extCond.AirTemp(0), 21.0,
		SetpointBasisOperative, nil, useFastSolver)
	assert.NilError(t, err)
	return z
}

func TestZoneWarmupReachesSetpoint(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ec := testExternalConditions(t, st, 5.0, 24)
	z := testZone(t, ec, false)

	// Warm-up meets all demand, so the zone starts at the setpoint.
	assertNear(t, z.TempOperative(), 21.0, 0.05)
	assert.Assert(t, z.TempInternalAir() > 5.0)
}

func TestZoneAggregates(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ec := testExternalConditions(t, st, 5.0, 24)
	z := testZone(t, ec, false)

	assert.Equal(t, z.Area(), 40.0)
	assert.Equal(t, z.Volume(), 100.0)
	assertNear(t, z.TotalThermalBridges(), 0.28*5.0+1.4, 1e-12)
	assert.Equal(t, z.TotalHeatLossArea(), 140.0)
	assert.Assert(t, z.TotalFabricHeatLoss() > 0.0)
	assert.Assert(t, z.TotalHeatCapacity() > 0.0)
}

func TestSpaceHeatDemandColdDay(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ec := testExternalConditions(t, st, 5.0, 24)
	z := testZone(t, ec, false)

	heat, cool, _, _, err := z.SpaceHeatCoolDemand(
		0, 1.0, ec.AirTemp(0),
		0.0, 0.0,
		0.4, 0.4,
		21.0, 25.0,
		ec.AirTemp(0),
		0.0, 0.0,
		nil, ptr(0.5), nil)
	assert.NilError(t, err)

	assert.Assert(t, heat > 0.0)
	assert.Equal(t, cool, 0.0)
}

func TestSpaceHeatDemandNoneInDeadband(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ec := testExternalConditions(t, st, 5.0, 24)
	z := testZone(t, ec, false)

	// With the heating setpoint below the free-floating temperature and
	// cooling above, no load is needed.
	heat, cool, _, _, err := z.SpaceHeatCoolDemand(
		0, 1.0, ec.AirTemp(0),
		0.0, 0.0,
		0.4, 0.4,
		-KelvinOffset, 50.0,
		ec.AirTemp(0),
		0.0, 0.0,
		nil, ptr(0.5), nil)
	assert.NilError(t, err)
	assert.Equal(t, heat, 0.0)
	assert.Equal(t, cool, 0.0)
}

func TestSpaceHeatCoolDemandSetpointOrder(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ec := testExternalConditions(t, st, 5.0, 24)
	z := testZone(t, ec, false)

	_, _, _, _, err := z.SpaceHeatCoolDemand(
		0, 1.0, ec.AirTemp(0),
		0.0, 0.0,
		0.4, 0.4,
		21.0, 18.0,
		ec.AirTemp(0),
		0.0, 0.0,
		nil, ptr(0.5), nil)
	assert.ErrorContains(t, err, "cooling setpoint")
}

func TestFastSolverMatchesFullSolve(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ec := testExternalConditions(t, st, 5.0, 24)
	full := testZone(t, ec, false)
	fast := testZone(t, ec, true)

	assertNear(t, fast.TempInternalAir(), full.TempInternalAir(), 1e-6)

	for idx := 0; idx < 3; idx++ {
		heatFull, _, _, _, err := full.SpaceHeatCoolDemand(
			idx, 1.0, ec.AirTemp(idx), 200.0, 0.0, 0.4, 0.4,
			21.0, 25.0, ec.AirTemp(idx), 0.0, 0.0, nil, ptr(0.5), nil)
		assert.NilError(t, err)
		heatFast, _, _, _, err := fast.SpaceHeatCoolDemand(
			idx, 1.0, ec.AirTemp(idx), 200.0, 0.0, 0.4, 0.4,
			21.0, 25.0, ec.AirTemp(idx), 0.0, 0.0, nil, ptr(0.5), nil)
		assert.NilError(t, err)
		assert.Assert(t, math.Abs(heatFull-heatFast) < 1e-6)

		gains := KWHToWatts(heatFull, 1.0)
		_, err = full.UpdateTemperatures(
			idx, SecondsPerHour, ec.AirTemp(idx), 200.0, 0.0, gains, 0.4, 0.5, ec.AirTemp(idx))
		assert.NilError(t, err)
		_, err = fast.UpdateTemperatures(
			idx, SecondsPerHour, ec.AirTemp(idx), 200.0, 0.0, gains, 0.4, 0.5, ec.AirTemp(idx))
		assert.NilError(t, err)
		assert.Assert(t, math.Abs(full.TempInternalAir()-fast.TempInternalAir()) < 1e-6)
	}
}

func TestIsolatedZoneHoldsTemperature(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ec := testExternalConditions(t, st, 20.0, 24)

	for _, fast := range []bool{false, true} {
		wall, err := NewAdjacentConditionedElement(
			"party wall", 60.0, 90.0, 1.7, 19000.0, MassDistIE, ec)
		assert.NilError(t, err)
		z, err := NewZone(
			40.0, 100.0, []BuildingElement{wall}, nil,
			20.0, 20.0, SetpointBasisOperative, nil, fast)
		assert.NilError(t, err)

		// No exchange paths, no air flow and no gains: the free-floating
		// temperature must not drift.
		for idx := 0; idx < 5; idx++ {
			hb, err := z.UpdateTemperatures(
				idx, SecondsPerHour, 20.0, 0.0, 0.0, 0.0, 0.4, 0.0, 20.0)
			assert.NilError(t, err)
			assertNear(t, z.TempInternalAir(), 20.0, 1e-9)
			assertNear(t, hb.EnergyToChangeTemp, 0.0, 1e-9)
		}
		assertNear(t, z.TempOperative(), 20.0, 1e-9)
	}
}

func TestUpdateTemperaturesHeatBalance(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ec := testExternalConditions(t, st, 5.0, 24)
	z := testZone(t, ec, false)

	hb, err := z.UpdateTemperatures(
		0, SecondsPerHour, 5.0, 100.0, 50.0, 500.0, 0.4, 0.5, 5.0)
	assert.NilError(t, err)

	// Gains at the air node split by the convective fractions.
	assert.Equal(t, hb.GainsInternal, fIntC*100.0)
	assert.Equal(t, hb.GainsSolar, fSolC*50.0)
	assert.Equal(t, hb.GainsHeatCool, 0.4*500.0)

	// The heat balance closes by construction.
	sum := hb.GainsSolar + hb.GainsInternal + hb.GainsHeatCool + hb.EnergyToChangeTemp -
		hb.LossThermalBridges - hb.LossInfiltrationVent - hb.LossFabric
	assertNear(t, sum, 0.0, 1e-9)
}

func TestVentHeatTransferCoeff(t *testing.T) {
	// 0.5 air changes per hour in 250 m3.
	got := VentHeatTransferCoeff(250.0, 0.5)
	want := AirDensity * AirSpecificHeat * 0.5 * 250.0 / SecondsPerHour
	assertNear(t, got, want, 1e-12)
}
