package dwellsim

import (
	"testing"

	"gotest.tools/v3/assert"
)

func testCombinationControls(t *testing.T) map[string]Control {
	t.Helper()
	st := testSimTime(t, 0.0, 2.0, 1.0)

	on, off := true, false
	setpntA, err := NewSetpointTimeControl(
		[]*float64{ptr(10.0), nil}, st, 0.0, 1.0, nil, nil, nil, 0.0)
	assert.NilError(t, err)
	setpntB, err := NewSetpointTimeControl(
		[]*float64{ptr(20.0), ptr(20.0)}, st, 0.0, 1.0, nil, nil, nil, 0.0)
	assert.NilError(t, err)

	return map[string]Control{
		"always_on":  NewOnOffTimeControl([]*bool{&on, &on}, st, 0.0, 1.0),
		"always_off": NewOnOffTimeControl([]*bool{&off, &off}, st, 0.0, 1.0),
		"setpnt_a":   setpntA,
		"setpnt_b":   setpntB,
	}
}

func TestCombinationAndGatesSetpoint(t *testing.T) {
	controls := testCombinationControls(t)

	ctrl, err := NewCombinationTimeControl(map[string]CombinationEntry{
		"main": {Operation: OpAND, Controls: []string{"always_on", "setpnt_b"}},
	}, controls)
	assert.NilError(t, err)

	assert.Assert(t, ctrl.IsOn(0))
	setpnt, err := ctrl.Setpnt(0)
	assert.NilError(t, err)
	assert.Equal(t, *setpnt, 20.0)

	gated, err := NewCombinationTimeControl(map[string]CombinationEntry{
		"main": {Operation: OpAND, Controls: []string{"always_off", "setpnt_b"}},
	}, controls)
	assert.NilError(t, err)

	assert.Assert(t, !gated.IsOn(0))
	setpnt, err = gated.Setpnt(0)
	assert.NilError(t, err)
	assert.Assert(t, setpnt == nil)
}

func TestCombinationMeanOfSetpoints(t *testing.T) {
	controls := testCombinationControls(t)

	ctrl, err := NewCombinationTimeControl(map[string]CombinationEntry{
		"main": {Operation: OpMEAN, Controls: []string{"setpnt_a", "setpnt_b"}},
	}, controls)
	assert.NilError(t, err)

	setpnt, err := ctrl.Setpnt(0)
	assert.NilError(t, err)
	assert.Equal(t, *setpnt, 15.0)

	// Where one schedule has no setpoint the other one stands alone.
	setpnt, err = ctrl.Setpnt(1)
	assert.NilError(t, err)
	assert.Equal(t, *setpnt, 20.0)
}

func TestCombinationMaxMin(t *testing.T) {
	controls := testCombinationControls(t)

	maxCtrl, err := NewCombinationTimeControl(map[string]CombinationEntry{
		"main": {Operation: OpMAX, Controls: []string{"setpnt_a", "setpnt_b"}},
	}, controls)
	assert.NilError(t, err)
	setpnt, err := maxCtrl.Setpnt(0)
	assert.NilError(t, err)
	assert.Equal(t, *setpnt, 20.0)

	minCtrl, err := NewCombinationTimeControl(map[string]CombinationEntry{
		"main": {Operation: OpMIN, Controls: []string{"setpnt_a", "setpnt_b"}},
	}, controls)
	assert.NilError(t, err)
	setpnt, err = minCtrl.Setpnt(0)
	assert.NilError(t, err)
	assert.Equal(t, *setpnt, 10.0)
}

func TestCombinationBooleanOps(t *testing.T) {
	controls := testCombinationControls(t)

	xor, err := NewCombinationTimeControl(map[string]CombinationEntry{
		"main": {Operation: OpXOR, Controls: []string{"always_on", "always_off"}},
	}, controls)
	assert.NilError(t, err)
	assert.Assert(t, xor.IsOn(0))

	not, err := NewCombinationTimeControl(map[string]CombinationEntry{
		"main": {Operation: OpNOT, Controls: []string{"always_off"}},
	}, controls)
	assert.NilError(t, err)
	assert.Assert(t, not.IsOn(0))

	nested, err := NewCombinationTimeControl(map[string]CombinationEntry{
		"main":  {Operation: OpOR, Controls: []string{"inner", "always_off"}},
		"inner": {Operation: OpAND, Controls: []string{"always_on", "always_on"}},
	}, controls)
	assert.NilError(t, err)
	assert.Assert(t, nested.IsOn(0))
}

func TestCombinationValidation(t *testing.T) {
	controls := testCombinationControls(t)

	_, err := NewCombinationTimeControl(map[string]CombinationEntry{
		"root": {Operation: OpAND, Controls: []string{"always_on"}},
	}, controls)
	assert.ErrorContains(t, err, "no combination named")

	_, err = NewCombinationTimeControl(map[string]CombinationEntry{
		"main": {Operation: OpNOT, Controls: []string{"always_on", "always_off"}},
	}, controls)
	assert.ErrorContains(t, err, "exactly one operand")

	_, err = NewCombinationTimeControl(map[string]CombinationEntry{
		"main": {Operation: OpAND, Controls: []string{"nonexistent"}},
	}, controls)
	assert.ErrorContains(t, err, "unknown control")

	_, err = NewCombinationTimeControl(map[string]CombinationEntry{
		"main":  {Operation: OpAND, Controls: []string{"inner"}},
		"inner": {Operation: OpAND, Controls: []string{"main"}},
	}, controls)
	assert.ErrorContains(t, err, "cycle")
}
