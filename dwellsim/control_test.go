package dwellsim

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestOnOffTimeControl(t *testing.T) {
	st := testSimTime(t, 0.0, 4.0, 1.0)
	on, off := true, false
	ctrl := NewOnOffTimeControl([]*bool{&on, &off, nil, &on}, st, 0.0, 1.0)

	assert.Assert(t, ctrl.IsOn(0))
	assert.Assert(t, !ctrl.IsOn(1))
	assert.Assert(t, !ctrl.IsOn(2)) // null counts as off
	assert.Assert(t, ctrl.IsOn(3))
}

func TestStateAtResolvesControlKinds(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)

	setpnt, err := NewSetpointTimeControl(
		[]*float64{ptr(21.0), nil}, st, 0.0, 1.0, nil, nil, nil, 0.0)
	assert.NilError(t, err)

	state, err := StateAt(setpnt, 0)
	assert.NilError(t, err)
	assert.Assert(t, state.On)
	assert.Equal(t, *state.Setpoint, 21.0)

	state, err = StateAt(setpnt, 1)
	assert.NilError(t, err)
	assert.Assert(t, !state.On)
	assert.Assert(t, state.Setpoint == nil)

	// Controls without a setpoint notion resolve to a nil setpoint.
	on := true
	state, err = StateAt(NewOnOffTimeControl([]*bool{&on, nil}, st, 0.0, 1.0), 0)
	assert.NilError(t, err)
	assert.Assert(t, state.On)
	assert.Assert(t, state.Setpoint == nil)
}

func TestOnOffCostMinimisingTimeControl(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	costs := constantSeries(5.0, 24)
	costs[10] = 0.5
	costs[2] = 1.0
	costs[3] = 1.0

	ctrl := NewOnOffCostMinimisingTimeControl(costs, st, 0.0, 1.0, 3.0)

	for idx := 0; idx < 24; idx++ {
		want := idx == 2 || idx == 3 || idx == 10
		assert.Equal(t, ctrl.IsOn(idx), want, "hour %d", idx)
	}
}

func TestOnOffCostMinimisingTieBreaksEarliest(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	// All costs equal: the earliest timesteps of the day are allocated.
	ctrl := NewOnOffCostMinimisingTimeControl(constantSeries(1.0, 24), st, 0.0, 1.0, 2.0)

	assert.Assert(t, ctrl.IsOn(0))
	assert.Assert(t, ctrl.IsOn(1))
	assert.Assert(t, !ctrl.IsOn(2))
}

func TestSetpointTimeControlBasics(t *testing.T) {
	st := testSimTime(t, 0.0, 4.0, 1.0)
	ctrl, err := NewSetpointTimeControl(
		[]*float64{ptr(21.0), nil, ptr(18.0), nil}, st, 0.0, 1.0,
		nil, nil, nil, 0.0)
	assert.NilError(t, err)

	assert.Assert(t, ctrl.IsOn(0))
	assert.Assert(t, !ctrl.IsOn(1))
	assert.Equal(t, *ctrl.Setpnt(0), 21.0)
	assert.Assert(t, ctrl.Setpnt(1) == nil)
	assert.Assert(t, ctrl.InRequiredPeriod(2))
	assert.Assert(t, !ctrl.InRequiredPeriod(3))
}

func TestSetpointTimeControlAdvancedStart(t *testing.T) {
	st := testSimTime(t, 0.0, 4.0, 1.0)
	ctrl, err := NewSetpointTimeControl(
		[]*float64{nil, nil, ptr(21.0), ptr(21.0)}, st, 0.0, 1.0,
		nil, nil, nil, 1.0)
	assert.NilError(t, err)

	// One timestep before the heating period the control switches on and
	// targets the upcoming setpoint, but is not in the required period.
	assert.Assert(t, !ctrl.IsOn(0))
	assert.Assert(t, ctrl.IsOn(1))
	assert.Equal(t, *ctrl.Setpnt(1), 21.0)
	assert.Assert(t, !ctrl.InRequiredPeriod(1))
}

func TestSetpointTimeControlLimits(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	ctrl, err := NewSetpointTimeControl(
		[]*float64{ptr(21.0), nil}, st, 0.0, 1.0,
		ptr(15.0), ptr(19.0), ptr(false), 0.0)
	assert.NilError(t, err)

	// Scheduled setpoint clamps to the max limit.
	assert.Equal(t, *ctrl.Setpnt(0), 19.0)
	// Outside the schedule the min limit applies (default_to_max false)
	// and keeps the control on.
	assert.Equal(t, *ctrl.Setpnt(1), 15.0)
	assert.Assert(t, ctrl.IsOn(1))
}

func TestSetpointTimeControlLimitsNeedDefault(t *testing.T) {
	st := testSimTime(t, 0.0, 2.0, 1.0)
	_, err := NewSetpointTimeControl(
		[]*float64{ptr(21.0), nil}, st, 0.0, 1.0,
		ptr(15.0), ptr(19.0), nil, 0.0)
	assert.ErrorContains(t, err, "default_to_max")
}

func TestChargeControlManual(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ctrl, err := NewChargeControl(
		ChargeLogicManual,
		[]bool{true, true, false, true, true, true, true, true,
			false, false, false, false, false, false, false, false,
			true, true, true, true, false, false, false, false},
		st, 0.0, 1.0,
		[]float64{0.8}, nil, nil, nil, nil)
	assert.NilError(t, err)

	assert.Equal(t, ctrl.TargetCharge(0, nil), 0.8)
	assert.Equal(t, ctrl.TargetCharge(2, nil), 0.0)
}

func TestChargeControlYearEndLookahead(t *testing.T) {
	st := testSimTime(t, 0.0, 8760.0, 1.0)
	sched := make([]bool, 8760)
	for i := range sched {
		sched[i] = true
	}
	chargeLevel := constantSeries(0.6, 365)
	chargeLevel[0] = 0.9

	ctrl, err := NewChargeControl(
		ChargeLogicManual, sched, st, 0.0, 1.0,
		chargeLevel, nil, nil, nil, nil)
	assert.NilError(t, err)

	// Afternoon of the last day reads the last entry.
	assert.Equal(t, ctrl.TargetCharge(8750, nil), 0.6)
	// From 21:00 on the last day the lookahead points one day past the
	// series and wraps to the first entry.
	assert.Equal(t, ctrl.TargetCharge(8757, nil), 0.9)
}

func TestChargeControlAutomaticTempCut(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ec := testExternalConditions(t, st, 5.0, 24)
	ctrl, err := NewChargeControl(
		ChargeLogicAutomatic,
		[]bool{true, true, true, true, true, true, true, true,
			true, true, true, true, true, true, true, true,
			true, true, true, true, true, true, true, true},
		st, 0.0, 1.0,
		[]float64{1.0}, ptr(15.5), nil, ec, nil)
	assert.NilError(t, err)

	assert.Equal(t, ctrl.TargetCharge(0, ptr(10.0)), 1.0)
	// Room at or above the cut-off temperature stops charging.
	assert.Equal(t, ctrl.TargetCharge(0, ptr(16.0)), 0.0)
}

func TestChargeControlExternalSensor(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	ec := testExternalConditions(t, st, 5.0, 24)
	ctrl, err := NewChargeControl(
		ChargeLogicAutomatic,
		[]bool{true, true, true, true, true, true, true, true,
			true, true, true, true, true, true, true, true,
			true, true, true, true, true, true, true, true},
		st, 0.0, 1.0,
		[]float64{0.8}, ptr(15.5), nil, ec,
		[]ExternalSensorPoint{{Temperature: 0.0, MaxCharge: 1.0}, {Temperature: 10.0, MaxCharge: 0.5}})
	assert.NilError(t, err)

	// Outdoor 5 degC interpolates to a limit factor of 0.75.
	assertNear(t, ctrl.TargetCharge(0, nil), 0.8*0.75, 1e-12)
}

func TestChargeControlValidation(t *testing.T) {
	st := testSimTime(t, 0.0, 24.0, 1.0)
	_, err := NewChargeControl(
		ChargeLogicAutomatic, []bool{true}, st, 0.0, 1.0,
		[]float64{1.0}, nil, nil, nil, nil)
	assert.ErrorContains(t, err, "temp_charge_cut")

	_, err = NewChargeControl(
		ChargeLogicManual, []bool{true}, st, 0.0, 1.0,
		[]float64{1.0}, nil, nil, nil,
		[]ExternalSensorPoint{{Temperature: 10.0}, {Temperature: 0.0}})
	assert.ErrorContains(t, err, "non-decreasing")
}
