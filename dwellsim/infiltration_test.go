package dwellsim

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"
)

func TestVentTypeFromString(t *testing.T) {
	vt, err := VentTypeFromString("MVHR")
	assert.NilError(t, err)
	assert.Equal(t, vt, VentTypeMVHR)

	vt, err = VentTypeFromString("Intermittent MEV")
	assert.NilError(t, err)
	assert.Equal(t, vt, VentTypeIntermittentMEV)

	_, err = VentTypeFromString("natural")
	assert.ErrorContains(t, err, "not valid")
}

func testMechVent(t *testing.T, ventType VentType, mvhrEff float64) (*MechanicalVentilation, *EnergySupply) {
	t.Helper()
	st := testSimTime(t, 0.0, 2.0, 1.0)
	es := NewEnergySupply("mains elec", st.TotalSteps())
	conn, err := es.Connection("vent system")
	assert.NilError(t, err)
	mv, err := NewMechanicalVentilation(ventType, 1.5, 100.0, st, conn, 250.0, 0.0, nil, mvhrEff)
	assert.NilError(t, err)
	return mv, es
}

func TestMechVentRequiredFlowRates(t *testing.T) {
	mvhr, _ := testMechVent(t, VentTypeMVHR, 0.7)
	// The design flow carries the system factor of 1.1.
	assertNear(t, mvhr.qvODAReqDesign, 110.0, 1e-12)

	sup, eta := mvhr.reqFlowRatesAtATDs()
	assert.Equal(t, sup, -eta)

	mev, _ := testMechVent(t, VentTypeCentralisedContinuousMEV, 0.0)
	sup, eta = mev.reqFlowRatesAtATDs()
	assert.Equal(t, sup, 0.0)
	assert.Assert(t, eta < 0.0)

	piv, _ := testMechVent(t, VentTypePIV, 0.0)
	sup, eta = piv.reqFlowRatesAtATDs()
	assert.Assert(t, sup > 0.0)
	assert.Equal(t, eta, 0.0)
}

func TestMechVentIntermittentNeedsControl(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	es := NewEnergySupply("mains elec", st.TotalSteps())
	conn, err := es.Connection("vent system")
	assert.NilError(t, err)
	_, err = NewMechanicalVentilation(VentTypeIntermittentMEV, 1.5, 100.0, st, conn, 250.0, 0.0, nil, 0.0)
	assert.ErrorContains(t, err, "requires an operation control")
}

func TestMechVentAirFlowRatesBalance(t *testing.T) {
	mvhr, _ := testMechVent(t, VentTypeMVHR, 0.7)
	tZ := CelsiusToKelvin(20.0)
	tE := CelsiusToKelvin(20.0)
	qmSup, qmEta, saving, err := mvhr.AirFlowRates(0, tZ, tE)
	assert.NilError(t, err)

	// At equal temperatures a balanced system supplies and extracts the
	// same mass flow, and recovers its efficiency share of it.
	assertNear(t, qmSup, -qmEta, 1e-9)
	assertNear(t, saving, 0.7*qmSup, 1e-9)
}

func TestMechVentFanEnergyAndGains(t *testing.T) {
	mev, es := testMechVent(t, VentTypeCentralisedContinuousMEV, 0.0)

	// sfp 1.5 W/(l/s) at 110 m3/h.
	wantPowerW := 1.5 * (110.0 / SecondsPerHour) * 1000.0

	gains := mev.Fans(0, 250.0, 250.0)
	// Extract fans add no heat to the zone but their energy is metered.
	assert.Equal(t, gains, 0.0)
	assertNear(t, es.TotalDemand(0), wantPowerW/WPerKW, 1e-9)

	mvhr, es2 := testMechVent(t, VentTypeMVHR, 0.7)
	gains = mvhr.Fans(0, 250.0, 250.0)
	// Half the fan power is the supply fan, which heats the zone.
	assertNear(t, gains, wantPowerW/2.0, 1e-9)
	assertNear(t, es2.TotalDemand(0), wantPowerW/WPerKW, 1e-9)
}

func testInfiltrationVentilation(t *testing.T, totalVolume float64) *InfiltrationVentilation {
	t.Helper()
	st := testSimTime(t, 0.0, 2.0, 1.0)
	vents := []*Vent{
		NewVent(1.5, 100.0, 20.0, 0.0, 90.0, 0.0, 0.0),
		NewVent(1.5, 100.0, 20.0, 180.0, 90.0, 0.0, 0.0),
	}
	leak := LeakConfig{
		VentilationZoneHeight: 5.0,
		TestPressure:          50.0,
		TestResult:            1.2,
		AreaRoof:              25.0,
		AreaFacades:           85.0,
		EnvArea:               220.0,
	}
	return NewInfiltrationVentilation(
		st, false, ShieldNormal, TerrainOpenField, 45.0,
		nil, vents, leak, nil, 0.0, totalVolume, 0.0)
}

func TestInternalReferencePressureBalancesMassFlow(t *testing.T) {
	v := testInfiltrationVentilation(t, 250.0)

	pZRef, err := v.CalculateInternalReferencePressure(0, 0.0, 4.0, 0.0, 20.0, 10.0, 1.0, nil)
	assert.NilError(t, err)

	qmIn, qmOut, _, err := v.flowComponents(0, pZRef, 4.0, 0.0, 20.0, 10.0, 1.0, nil)
	assert.NilError(t, err)
	assert.Assert(t, qmIn > 0.0)
	assert.Assert(t, qmOut < 0.0)
	assertNear(t, qmIn+qmOut, 0.0, 1e-6)
}

func TestCalcAirChangesPerHour(t *testing.T) {
	v := testInfiltrationVentilation(t, 250.0)

	ach, err := v.CalcAirChangesPerHour(0, 4.0, 0.0, 20.0, 10.0, 1.0, nil, 0.0)
	assert.NilError(t, err)
	assert.Assert(t, ach > 0.0)

	// Closing the trickle vents reduces the air change rate.
	achShut, err := v.CalcAirChangesPerHour(0, 4.0, 0.0, 20.0, 10.0, 0.0, nil, 0.0)
	assert.NilError(t, err)
	assert.Assert(t, achShut < ach)
	assert.Assert(t, achShut > 0.0) // leaks still flow
}

func TestFindVentOpeningRatio(t *testing.T) {
	v := testInfiltrationVentilation(t, 250.0)

	// No limits: the initial ratio is kept.
	r, err := v.FindVentOpeningRatio(0, nil, nil, 0.5, 4.0, 0.0, 20.0, 10.0, nil, 0.0)
	assert.NilError(t, err)
	assert.Equal(t, r, 0.5)

	// An unreachably high minimum opens the vents fully.
	r, err = v.FindVentOpeningRatio(0, ptr(100.0), nil, 0.5, 4.0, 0.0, 20.0, 10.0, nil, 0.0)
	assert.NilError(t, err)
	assert.Equal(t, r, 1.0)

	// A maximum below the leak-only rate shuts them.
	r, err = v.FindVentOpeningRatio(0, nil, ptr(0.0), 0.5, 4.0, 0.0, 20.0, 10.0, nil, 0.0)
	assert.NilError(t, err)
	assert.Equal(t, r, 0.0)

	_, err = v.FindVentOpeningRatio(0, ptr(2.0), ptr(1.0), 0.5, 4.0, 0.0, 20.0, 10.0, nil, 0.0)
	assert.ErrorContains(t, err, "exceeds maximum")
}

func TestFindVentOpeningRatioHitsTarget(t *testing.T) {
	v := testInfiltrationVentilation(t, 250.0)

	achShut, err := v.CalcAirChangesPerHour(0, 4.0, 0.0, 20.0, 10.0, 0.0, nil, 0.0)
	assert.NilError(t, err)
	achOpen, err := v.CalcAirChangesPerHour(0, 4.0, 0.0, 20.0, 10.0, 1.0, nil, 0.0)
	assert.NilError(t, err)

	target := (achShut + achOpen) / 2.0
	r, err := v.FindVentOpeningRatio(0, ptr(target), nil, 0.0, 4.0, 0.0, 20.0, 10.0, nil, 0.0)
	assert.NilError(t, err)

	achAtRatio, err := v.CalcAirChangesPerHour(0, 4.0, 0.0, 20.0, 10.0, r, nil, 0.0)
	assert.NilError(t, err)
	assert.Assert(t, math.Abs(achAtRatio-target) < 1e-5)
}
