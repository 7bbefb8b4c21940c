package dwellsim

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestInstantElecHeaterLimitsOutput(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	es := NewEnergySupply("mains elec", st.TotalSteps())
	conn, err := es.Connection("heater")
	assert.NilError(t, err)

	heater := NewInstantElecHeater("heater", 3.0, 0.4, conn, st, nil)

	// Demand below the power rating is met in full.
	assert.Equal(t, heater.DemandEnergy(0, 2.0), 2.0)
	// Demand above the rating is capped at rated power times timestep.
	assert.Equal(t, heater.DemandEnergy(1, 5.0), 3.0)
	assert.Equal(t, es.TotalDemand(0), 2.0)
	assert.Equal(t, es.TotalDemand(1), 3.0)
}

func TestInstantElecHeaterRespectsControl(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	es := NewEnergySupply("mains elec", st.TotalSteps())
	conn, err := es.Connection("heater")
	assert.NilError(t, err)

	ctrl, err := NewSetpointTimeControl(
		[]*float64{ptr(21.0), nil}, st, 0.0, 1.0, nil, nil, nil, 0.0)
	assert.NilError(t, err)

	heater := NewInstantElecHeater("heater", 3.0, 0.4, conn, st, ctrl)

	assert.Equal(t, heater.DemandEnergy(0, 1.0), 1.0)
	assert.Equal(t, heater.DemandEnergy(1, 1.0), 0.0)
	assert.Equal(t, *heater.TempSetpnt(0), 21.0)
	assert.Assert(t, heater.TempSetpnt(1) == nil)

	inReq, err := heater.InRequiredPeriod(0)
	assert.NilError(t, err)
	assert.Assert(t, inReq)
}

func TestSystemIdentity(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	es := NewEnergySupply("mains elec", st.TotalSteps())
	connA, err := es.Connection("heater a")
	assert.NilError(t, err)
	connB, err := es.Connection("heater b")
	assert.NilError(t, err)

	a := NewInstantElecHeater("heater a", 3.0, 0.4, connA, st, nil)
	b := NewInstantElecHeater("heater b", 3.0, 0.4, connB, st, nil)
	assert.Assert(t, a.ID() != b.ID())
}

func TestAirConditioningLimitsAndMeters(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	es := NewEnergySupply("mains elec", st.TotalSteps())
	conn, err := es.Connection("aircon")
	assert.NilError(t, err)

	ac := NewAirConditioning("aircon", 2.0, 4.0, 0.9, conn, st, nil)

	// Cooling demand is negative; capacity bounds it from below.
	assert.Equal(t, ac.DemandEnergy(0, -1.0), -1.0)
	assert.Equal(t, ac.DemandEnergy(1, -5.0), -2.0)

	// Electricity use is cooling delivered over the efficiency.
	assert.Equal(t, es.TotalDemand(0), 0.25)
	assert.Equal(t, es.TotalDemand(1), 0.5)
}
