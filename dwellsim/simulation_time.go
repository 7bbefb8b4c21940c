package dwellsim

import "math"

// SimulationTime describes the simulated period: start and end in hours
// relative to midnight on the 1st of January, and the timestep length in
// hours. It is immutable; components receive the timestep index explicitly
// rather than reading an ambient clock, so a step can be recomputed from the
// same inputs at any time.
type SimulationTime struct {
	start float64
	end   float64
	step  float64
	total int
}

// NewSimulationTime validates and builds a SimulationTime.
func NewSimulationTime(start, end, step float64) (*SimulationTime, error) {
	if step <= 0.0 {
		return nil, configErrorf("SimulationTime.step", "must be positive, got %g", step)
	}
	if end <= start {
		return nil, configErrorf("SimulationTime", "end (%g) must be after start (%g)", end, start)
	}
	return &SimulationTime{
		start: start,
		end:   end,
		step:  step,
		total: int(math.Ceil((end - start) / step)),
	}, nil
}

// TotalSteps returns the number of timesteps in the simulated period.
func (s *SimulationTime) TotalSteps() int { return s.total }

// Timestep returns the timestep length in hours.
func (s *SimulationTime) Timestep() float64 { return s.step }

// Time returns the hour (relative to the start of the year) at the
// beginning of timestep idx.
func (s *SimulationTime) Time(idx int) float64 {
	return s.start + float64(idx)*s.step
}

// CurrentHour returns the whole hour at timestep idx.
func (s *SimulationTime) CurrentHour(idx int) int {
	return int(math.Floor(s.Time(idx)))
}

// HourOfDay returns the whole hour of the day (0..23) at timestep idx.
func (s *SimulationTime) HourOfDay(idx int) int {
	return int(math.Floor(math.Mod(s.Time(idx), HoursPerDay)))
}

// CurrentDay returns the day of the year (0-based) at timestep idx.
func (s *SimulationTime) CurrentDay(idx int) int {
	return int(math.Floor(s.Time(idx) / HoursPerDay))
}

// CurrentMonth returns the month (0 for January) at timestep idx,
// assuming a non-leap year.
func (s *SimulationTime) CurrentMonth(idx int) int {
	day := s.CurrentDay(idx)
	for m, n := range daysInMonth {
		if day < n {
			return m
		}
		day -= n
	}
	return 11
}

// MonthStartEndHour returns the hours at which the month containing
// timestep idx starts and ends.
func (s *SimulationTime) MonthStartEndHour(idx int) (startHour, endHour int) {
	month := s.CurrentMonth(idx)
	for m := 0; m < month; m++ {
		startHour += daysInMonth[m] * HoursPerDay
	}
	endHour = startHour + daysInMonth[month]*HoursPerDay
	return startHour, endHour
}

// TimeSeriesIdx returns the lookup index into a time-series array that
// begins on startDay (relative to the start of the year) with entries
// seriesStep hours apart.
func (s *SimulationTime) TimeSeriesIdx(idx int, startDay, seriesStep float64) int {
	return int(math.Floor((s.Time(idx) - startDay*HoursPerDay) / seriesStep))
}

// TimeSeriesIdxDays returns the lookup index into a daily time-series
// array beginning on startDay. From 21:00 the index refers to the next
// day, so charge targets are set ahead of the overnight period.
func (s *SimulationTime) TimeSeriesIdxDays(idx int, startDay float64) int {
	if s.HourOfDay(idx) >= 21 {
		return int(math.Floor(float64(s.CurrentDay(idx)+1) - startDay))
	}
	return int(math.Floor(float64(s.CurrentDay(idx)) - startDay))
}
