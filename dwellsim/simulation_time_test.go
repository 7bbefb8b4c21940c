package dwellsim

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestSimulationTimeSteps(t *testing.T) {
	st, err := NewSimulationTime(0.0, 8760.0, 0.5)
	assert.NilError(t, err)
	assert.Equal(t, st.TotalSteps(), 17520)
	assert.Equal(t, st.Timestep(), 0.5)
	assert.Equal(t, st.Time(3), 1.5)
	assert.Equal(t, st.CurrentHour(3), 1)
	assert.Equal(t, st.HourOfDay(49), 0)
	assert.Equal(t, st.CurrentDay(48), 1)
}

func TestSimulationTimeOffsetStart(t *testing.T) {
	st, err := NewSimulationTime(120.0, 144.0, 1.0)
	assert.NilError(t, err)
	assert.Equal(t, st.TotalSteps(), 24)
	assert.Equal(t, st.CurrentDay(0), 5)
	assert.Equal(t, st.HourOfDay(6), 6)
}

func TestSimulationTimeValidation(t *testing.T) {
	_, err := NewSimulationTime(0.0, 24.0, 0.0)
	assert.ErrorContains(t, err, "must be positive")

	_, err = NewSimulationTime(24.0, 24.0, 1.0)
	assert.ErrorContains(t, err, "must be after start")
}

func TestCurrentMonth(t *testing.T) {
	st, err := NewSimulationTime(0.0, 8760.0, 1.0)
	assert.NilError(t, err)
	assert.Equal(t, st.CurrentMonth(0), 0)
	// Hour 744 is midnight on the 1st of February.
	assert.Equal(t, st.CurrentMonth(743), 0)
	assert.Equal(t, st.CurrentMonth(744), 1)
	assert.Equal(t, st.CurrentMonth(8759), 11)

	start, end := st.MonthStartEndHour(0)
	assert.Equal(t, start, 0)
	assert.Equal(t, end, 744)
}

func TestTimeSeriesIdx(t *testing.T) {
	st, err := NewSimulationTime(0.0, 48.0, 0.5)
	assert.NilError(t, err)
	// Hourly series starting on day 0: two timesteps per entry.
	assert.Equal(t, st.TimeSeriesIdx(0, 0.0, 1.0), 0)
	assert.Equal(t, st.TimeSeriesIdx(1, 0.0, 1.0), 0)
	assert.Equal(t, st.TimeSeriesIdx(2, 0.0, 1.0), 1)

	// A series starting a day later shifts the index back.
	st2, err := NewSimulationTime(24.0, 48.0, 1.0)
	assert.NilError(t, err)
	assert.Equal(t, st2.TimeSeriesIdx(0, 1.0, 1.0), 0)
	assert.Equal(t, st2.TimeSeriesIdx(5, 1.0, 1.0), 5)
}

func TestTimeSeriesIdxDaysEveningRollover(t *testing.T) {
	st, err := NewSimulationTime(0.0, 48.0, 1.0)
	assert.NilError(t, err)
	// Before 21:00 the index is the current day.
	assert.Equal(t, st.TimeSeriesIdxDays(12, 0.0), 0)
	assert.Equal(t, st.TimeSeriesIdxDays(20, 0.0), 0)
	// From 21:00 the index refers to the next day.
	assert.Equal(t, st.TimeSeriesIdxDays(21, 0.0), 1)
	assert.Equal(t, st.TimeSeriesIdxDays(23, 0.0), 1)
	assert.Equal(t, st.TimeSeriesIdxDays(24, 0.0), 1)
}
