package dwellsim

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestExpandNumericScheduleReferences(t *testing.T) {
	sched, err := ExpandNumericSchedule(map[string][]any{
		"main":    {"weekday", "weekday", "weekend"},
		"weekday": {21.0, 18.0},
		"weekend": {21.0},
	}, "main", false)
	assert.NilError(t, err)
	assert.Equal(t, len(sched), 5)
	assert.Equal(t, *sched[0], 21.0)
	assert.Equal(t, *sched[1], 18.0)
	assert.Equal(t, *sched[4], 21.0)
}

func TestExpandNumericScheduleRepeat(t *testing.T) {
	sched, err := ExpandNumericSchedule(map[string][]any{
		"main": {map[string]any{"value": "day", "repeat": 2}, 15.0},
		"day":  {20.0, 10.0},
	}, "main", false)
	assert.NilError(t, err)
	assert.Equal(t, len(sched), 5)
	assert.Equal(t, *sched[0], 20.0)
	assert.Equal(t, *sched[1], 10.0)
	assert.Equal(t, *sched[2], 20.0)
	assert.Equal(t, *sched[3], 10.0)
	assert.Equal(t, *sched[4], 15.0)
}

func TestExpandNumericScheduleNullable(t *testing.T) {
	sched, err := ExpandNumericSchedule(map[string][]any{
		"main": {21.0, nil, 18.0},
	}, "main", true)
	assert.NilError(t, err)
	assert.Equal(t, len(sched), 3)
	assert.Assert(t, sched[1] == nil)

	_, err = ExpandNumericSchedule(map[string][]any{
		"main": {21.0, nil},
	}, "main", false)
	assert.ErrorContains(t, err, "null entry")
}

func TestExpandScheduleErrors(t *testing.T) {
	_, err := ExpandNumericSchedule(map[string][]any{
		"main": {"missing"},
	}, "main", false)
	assert.ErrorContains(t, err, "unknown schedule")

	_, err = ExpandNumericSchedule(map[string][]any{}, "main", false)
	assert.ErrorContains(t, err, "no schedule named")

	_, err = ExpandNumericSchedule(map[string][]any{
		"main": {map[string]any{"value": 1.0}},
	}, "main", false)
	assert.ErrorContains(t, err, "repeat")

	_, err = ExpandNumericSchedule(map[string][]any{
		"main": {true},
	}, "main", false)
	assert.ErrorContains(t, err, "expected number")
}

func TestExpandBooleanSchedule(t *testing.T) {
	sched, err := ExpandBooleanSchedule(map[string][]any{
		"main": {map[string]any{"value": true, "repeat": 3}, false},
	}, "main")
	assert.NilError(t, err)
	assert.DeepEqual(t, sched, []bool{true, true, true, false})

	_, err = ExpandBooleanSchedule(map[string][]any{
		"main": {1.0},
	}, "main")
	assert.ErrorContains(t, err, "expected bool")
}
