package dwellsim

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestEnergySupplyAccumulates(t *testing.T) {
	es := NewEnergySupply("mains elec", 4)
	heater, err := es.Connection("main heater")
	assert.NilError(t, err)
	lights, err := es.Connection("lighting")
	assert.NilError(t, err)

	heater.DemandEnergy(0, 1.5)
	heater.DemandEnergy(0, 0.5)
	lights.DemandEnergy(0, 0.25)
	lights.DemandEnergy(2, 0.1)

	assert.Equal(t, es.TotalDemand(0), 2.25)
	assert.Equal(t, es.TotalDemand(1), 0.0)
	assert.Equal(t, es.TotalDemand(2), 0.1)

	results := es.ResultsByEndUser()
	assert.Equal(t, results["main heater"][0], 2.0)
	assert.Equal(t, results["lighting"][0], 0.25)
}

func TestEnergySupplyDuplicateEndUser(t *testing.T) {
	es := NewEnergySupply("mains elec", 1)
	_, err := es.Connection("heater")
	assert.NilError(t, err)
	_, err = es.Connection("heater")
	assert.ErrorContains(t, err, "duplicate end user")
}
