package dwellsim

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestBuildControls(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	ec := testExternalConditions(t, st, 10.0, 2)

	controls, err := buildControls(map[string]ControlJson{
		"heating schedule": {
			Type:           "SetpointTimeControl",
			TimeSeriesStep: 1.0,
			Schedule:       map[string][]any{"main": {21.0, nil}},
		},
		"window opening": {
			Type:           "OnOffTimeControl",
			TimeSeriesStep: 1.0,
			Schedule:       map[string][]any{"main": {true, false}},
		},
		"gated heating": {
			Type: "CombinationTimeControl",
			Combination: map[string]CombinationEntryJson{
				"main": {Operation: "AND", Controls: []string{"window opening", "heating schedule"}},
			},
		},
	}, st, ec)
	assert.NilError(t, err)
	assert.Equal(t, len(controls), 3)

	setpnt, err := setpointControl(controls, "heating schedule", "test")
	assert.NilError(t, err)
	assert.Equal(t, *setpnt.Setpnt(0), 21.0)
	assert.Assert(t, setpnt.Setpnt(1) == nil)

	onOff, err := anyControl(controls, "window opening", "test")
	assert.NilError(t, err)
	assert.Assert(t, onOff.IsOn(0))
	assert.Assert(t, !onOff.IsOn(1))

	// The combination resolves against the leaf controls regardless of
	// construction order.
	comb, ok := controls["gated heating"].(*CombinationTimeControl)
	assert.Assert(t, ok)
	assert.Assert(t, comb.IsOn(0))
	assert.Assert(t, !comb.IsOn(1))
}

func TestBuildOnOffControlAllowNull(t *testing.T) {
	st := testSimTime(t, 0.0, 3.0, 1.0)
	ec := testExternalConditions(t, st, 10.0, 3)

	data := ControlJson{
		Type:           "OnOffTimeControl",
		TimeSeriesStep: 1.0,
		AllowNull:      true,
		Schedule:       map[string][]any{"main": {true, nil, false}},
	}
	ctrl, err := buildControl("heating enable", data, st, ec)
	assert.NilError(t, err)
	assert.Assert(t, ctrl.IsOn(0))
	assert.Assert(t, !ctrl.IsOn(1)) // null counts as off
	assert.Assert(t, !ctrl.IsOn(2))

	// Without allow_null a null entry is a configuration error.
	data.AllowNull = false
	_, err = buildControl("heating enable", data, st, ec)
	assert.ErrorContains(t, err, "null entry")
}

func TestBuildControlUnknownType(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	ec := testExternalConditions(t, st, 10.0, 2)

	_, err := buildControl("bad", ControlJson{Type: "ThermostatControl"}, st, ec)
	assert.ErrorContains(t, err, "unknown control type")
}

func TestSetpointControlWrongType(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	ec := testExternalConditions(t, st, 10.0, 2)

	controls, err := buildControls(map[string]ControlJson{
		"on off": {
			Type:           "OnOffTimeControl",
			TimeSeriesStep: 1.0,
			Schedule:       map[string][]any{"main": {true, false}},
		},
	}, st, ec)
	assert.NilError(t, err)

	_, err = setpointControl(controls, "on off", "test")
	assert.ErrorContains(t, err, "must be a SetpointTimeControl")

	_, err = setpointControl(controls, "missing", "test")
	assert.ErrorContains(t, err, "unknown control")

	// An empty name means no control is configured.
	ctrl, err := setpointControl(controls, "", "test")
	assert.NilError(t, err)
	assert.Assert(t, ctrl == nil)
}

func TestBuildThermalBridges(t *testing.T) {
	bridges, err := buildThermalBridges([]ThermalBridgeJson{
		{Type: "ThermalBridgeLinear", LinearThermalTransmittance: 0.28, Length: 5.0},
		{Type: "ThermalBridgePoint", HeatTransferCoefficient: 1.4},
	})
	assert.NilError(t, err)
	assertNear(t, AggregateThermalBridges(bridges), 0.28*5.0+1.4, 1e-12)

	_, err = buildThermalBridges([]ThermalBridgeJson{{Type: "ThermalBridgeCurved"}})
	assert.ErrorContains(t, err, "unknown thermal bridge type")
}

func TestBuildBuildingElement(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	ec := testExternalConditions(t, st, 10.0, 2)

	el, err := buildBuildingElement("wall", BuildingElementJson{
		Type:                  "Opaque",
		Area:                  20.0,
		Pitch:                 90.0,
		Orientation:           180.0,
		ThermalResistance:     1.7,
		ArealHeatCapacity:     19000.0,
		MassDistributionClass: "I",
		SolarAbsorptionCoeff:  0.6,
	}, 40.0, nil, ec, st)
	assert.NilError(t, err)
	assert.Equal(t, el.Area(), 20.0)

	_, err = buildBuildingElement("pond", BuildingElementJson{Type: "Water"}, 40.0, nil, ec, st)
	assert.ErrorContains(t, err, "unknown element type")

	_, err = buildBuildingElement("wall", BuildingElementJson{
		Type:                  "Opaque",
		MassDistributionClass: "Z",
	}, 40.0, nil, ec, st)
	assert.ErrorContains(t, err, "mass_distribution_class")
}

func TestBuildBuildingElementUValue(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	ec := testExternalConditions(t, st, 10.0, 2)

	base := BuildingElementJson{
		Type:                  "Opaque",
		Area:                  20.0,
		Pitch:                 90.0,
		Orientation:           180.0,
		ArealHeatCapacity:     19000.0,
		MassDistributionClass: "I",
		SolarAbsorptionCoeff:  0.6,
	}

	withU := base
	withU.UValue = 1.5
	el, err := buildBuildingElement("wall", withU, 40.0, nil, ec, st)
	assert.NilError(t, err)
	// The derived construction resistance reproduces the given U-value.
	assertNear(t, el.FabricHeatLoss(), 20.0*1.5, 1e-12)

	both := withU
	both.ThermalResistance = 1.7
	_, err = buildBuildingElement("wall", both, 40.0, nil, ec, st)
	assert.ErrorContains(t, err, "exactly one")

	_, err = buildBuildingElement("wall", base, 40.0, nil, ec, st)
	assert.ErrorContains(t, err, "u_value is required")
}
