package dwellsim

import (
	"math"
	"sort"
)

// Control gates whether a system is allowed to run at a given timestep.
// Controls are stateless between steps; every query takes the timestep
// index so a step can be re-evaluated from the same inputs.
type Control interface {
	IsOn(idx int) bool
}

// ControlState is the resolved state of a control at one timestep.
type ControlState struct {
	On       bool
	Setpoint *float64
}

// StateAt resolves a control to its {on, setpoint} state for timestep idx.
// Controls without a setpoint notion report a nil setpoint.
func StateAt(c Control, idx int) (ControlState, error) {
	switch ctrl := c.(type) {
	case *SetpointTimeControl:
		return ControlState{On: ctrl.IsOn(idx), Setpoint: ctrl.Setpnt(idx)}, nil
	case *CombinationTimeControl:
		setpnt, err := ctrl.Setpnt(idx)
		if err != nil {
			return ControlState{}, err
		}
		return ControlState{On: ctrl.IsOn(idx), Setpoint: setpnt}, nil
	default:
		return ControlState{On: c.IsOn(idx)}, nil
	}
}

// OnOffTimeControl models a time-only control with on/off (not modulating)
// operation. Null schedule entries, where permitted, count as off.
type OnOffTimeControl struct {
	schedule   []*bool
	simTime    *SimulationTime
	startDay   float64
	seriesStep float64
}

func NewOnOffTimeControl(schedule []*bool, simTime *SimulationTime, startDay, seriesStep float64) *OnOffTimeControl {
	return &OnOffTimeControl{schedule: schedule, simTime: simTime, startDay: startDay, seriesStep: seriesStep}
}

func (c *OnOffTimeControl) IsOn(idx int) bool {
	v := c.schedule[c.simTime.TimeSeriesIdx(idx, c.startDay, c.seriesStep)]
	return v != nil && *v
}

// OnOffCostMinimisingTimeControl switches on for the cheapest hours of each
// day of a cost schedule. The on/off schedule is precomputed at
// construction: for each day the required number of timesteps is allocated
// to the lowest-cost entries, equal costs resolving to the earliest
// timestep of the day.
type OnOffCostMinimisingTimeControl struct {
	schedule   []bool
	simTime    *SimulationTime
	startDay   float64
	seriesStep float64
}

func NewOnOffCostMinimisingTimeControl(
	costSchedule []float64,
	simTime *SimulationTime,
	startDay, seriesStep, timeOnDaily float64,
) *OnOffCostMinimisingTimeControl {
	timestepsPerDay := int(HoursPerDay / seriesStep)
	timestepsOnDaily := int(timeOnDaily / seriesStep)
	seriesLenDays := int(math.Ceil(float64(len(costSchedule)) * seriesStep / HoursPerDay))

	schedule := make([]bool, 0, seriesLenDays*timestepsPerDay)
	for day := 0; day < seriesLenDays; day++ {
		dayStart := day * timestepsPerDay
		dayEnd := dayStart + timestepsPerDay
		if dayEnd > len(costSchedule) {
			dayEnd = len(costSchedule)
		}
		scheduleDay := costSchedule[dayStart:dayEnd]

		costsAscending := make([]float64, len(scheduleDay))
		copy(costsAscending, scheduleDay)
		sort.Float64s(costsAscending)

		onOffDay := make([]bool, len(scheduleDay))
		toBeAllocated := timestepsOnDaily
		for i := 0; i < len(costsAscending) && toBeAllocated > 0; i++ {
			if i > 0 && costsAscending[i] == costsAscending[i-1] {
				continue
			}
			cost := costsAscending[i]
			for idx, entry := range scheduleDay {
				if toBeAllocated < 1 {
					break
				}
				if entry == cost && !onOffDay[idx] {
					onOffDay[idx] = true
					toBeAllocated--
				}
			}
		}
		schedule = append(schedule, onOffDay...)
	}

	return &OnOffCostMinimisingTimeControl{
		schedule:   schedule,
		simTime:    simTime,
		startDay:   startDay,
		seriesStep: seriesStep,
	}
}

func (c *OnOffCostMinimisingTimeControl) IsOn(idx int) bool {
	return c.schedule[c.simTime.TimeSeriesIdx(idx, c.startDay, c.seriesStep)]
}

// SetpointTimeControl models a control with a setpoint which varies per
// timestep. Null schedule entries mean no heating/cooling demand at that
// time, subject to the optional min/max limits and advanced start.
type SetpointTimeControl struct {
	schedule          []*float64
	simTime           *SimulationTime
	startDay          float64
	seriesStep        float64
	setpointMin       *float64
	setpointMax       *float64
	defaultToMax      *bool
	timestepsAdvstart int
}

func NewSetpointTimeControl(
	schedule []*float64,
	simTime *SimulationTime,
	startDay, seriesStep float64,
	setpointMin, setpointMax *float64,
	defaultToMax *bool,
	durationAdvancedStart float64,
) (*SetpointTimeControl, error) {
	if setpointMin != nil && setpointMax != nil && defaultToMax == nil {
		return nil, configErrorf("SetpointTimeControl",
			"setpoint_min and setpoint_max both set, but default_to_max not specified")
	}
	return &SetpointTimeControl{
		schedule:          schedule,
		simTime:           simTime,
		startDay:          startDay,
		seriesStep:        seriesStep,
		setpointMin:       setpointMin,
		setpointMax:       setpointMax,
		defaultToMax:      defaultToMax,
		timestepsAdvstart: int(math.Round(durationAdvancedStart / simTime.Timestep())),
	}, nil
}

// InRequiredPeriod returns true if the current time is inside the
// scheduled heating/cooling period, not counting timesteps where the
// system is only on due to a min/max setpoint or advanced start.
func (c *SetpointTimeControl) InRequiredPeriod(idx int) bool {
	return c.schedule[c.simTime.TimeSeriesIdx(idx, c.startDay, c.seriesStep)] != nil
}

func (c *SetpointTimeControl) IsOn(idx int) bool {
	schedIdx := c.simTime.TimeSeriesIdx(idx, c.startDay, c.seriesStep)
	setpnt := c.schedule[schedIdx]

	if setpnt == nil {
		// Look ahead for the duration of the warmup period: the system is
		// on if a heating period starts within it.
		for ahead := 1; ahead <= c.timestepsAdvstart; ahead++ {
			if schedIdx+ahead >= len(c.schedule) {
				break
			}
			if c.schedule[schedIdx+ahead] != nil {
				return true
			}
		}
	}

	// A min or max limit keeps this control type permanently on.
	return setpnt != nil || c.setpointMin != nil || c.setpointMax != nil
}

// Setpnt returns the setpoint for timestep idx, or nil when none applies.
func (c *SetpointTimeControl) Setpnt(idx int) *float64 {
	schedIdx := c.simTime.TimeSeriesIdx(idx, c.startDay, c.seriesStep)
	setpnt := c.schedule[schedIdx]

	if setpnt == nil {
		// Use the setpoint from the start of an upcoming heating period if
		// it begins within the warmup duration.
		for ahead := 1; ahead <= c.timestepsAdvstart; ahead++ {
			if schedIdx+ahead >= len(c.schedule) {
				break
			}
			if s := c.schedule[schedIdx+ahead]; s != nil {
				setpnt = s
				break
			}
		}
	}

	if setpnt == nil {
		switch {
		case c.setpointMax == nil && c.setpointMin == nil:
			return nil
		case c.setpointMax != nil && c.setpointMin == nil:
			return ptr(*c.setpointMax)
		case c.setpointMin != nil && c.setpointMax == nil:
			return ptr(*c.setpointMin)
		default:
			if *c.defaultToMax {
				return ptr(*c.setpointMax)
			}
			return ptr(*c.setpointMin)
		}
	}

	v := *setpnt
	if c.setpointMax != nil {
		v = math.Min(*c.setpointMax, v)
	}
	if c.setpointMin != nil {
		v = math.Max(*c.setpointMin, v)
	}
	return &v
}

func ptr[T any](v T) *T { return &v }

// ChargeLogicType selects the charging logic of a ChargeControl.
type ChargeLogicType int

const (
	ChargeLogicManual ChargeLogicType = iota
	ChargeLogicAutomatic
	ChargeLogicCelect
)

func ChargeLogicTypeFromString(s string) (ChargeLogicType, error) {
	switch s {
	case "manual", "Manual":
		return ChargeLogicManual, nil
	case "automatic", "Automatic":
		return ChargeLogicAutomatic, nil
	case "celect", "Celect", "CELECT":
		return ChargeLogicCelect, nil
	default:
		return 0, configErrorf("ChargeControl.logic_type", "unknown logic type %q", s)
	}
}

// ExternalSensorPoint is one point of the external-sensor correlation that
// limits charging as outdoor temperature rises.
type ExternalSensorPoint struct {
	Temperature float64 `json:"temperature"`
	MaxCharge   float64 `json:"max_charge"`
}

// ChargeControl governs electrical charging of a heat storage device that
// can respond to external signals, e.g. when carbon intensity is low.
type ChargeControl struct {
	logicType          ChargeLogicType
	schedule           []bool
	simTime            *SimulationTime
	startDay           float64
	seriesStep         float64
	chargeLevel        []float64
	tempChargeCut      *float64
	tempChargeCutDelta []float64
	extCond            *ExternalConditions
	externalSensor     []ExternalSensorPoint
}

func NewChargeControl(
	logicType ChargeLogicType,
	schedule []bool,
	simTime *SimulationTime,
	startDay, seriesStep float64,
	chargeLevel []float64,
	tempChargeCut *float64,
	tempChargeCutDelta []float64,
	extCond *ExternalConditions,
	externalSensor []ExternalSensorPoint,
) (*ChargeControl, error) {
	if len(chargeLevel) == 0 {
		return nil, configErrorf("ChargeControl", "charge_level schedule is required")
	}
	if logicType != ChargeLogicManual && tempChargeCut == nil {
		return nil, configErrorf("ChargeControl", "temp_charge_cut required for automatic logic types")
	}
	for i := 1; i < len(externalSensor); i++ {
		if externalSensor[i].Temperature < externalSensor[i-1].Temperature {
			return nil, configErrorf("ChargeControl.external_sensor",
				"correlation temperatures must be non-decreasing")
		}
	}
	return &ChargeControl{
		logicType:          logicType,
		schedule:           schedule,
		simTime:            simTime,
		startDay:           startDay,
		seriesStep:         seriesStep,
		chargeLevel:        chargeLevel,
		tempChargeCut:      tempChargeCut,
		tempChargeCutDelta: tempChargeCutDelta,
		extCond:            extCond,
		externalSensor:     externalSensor,
	}, nil
}

func (c *ChargeControl) IsOn(idx int) bool {
	return c.schedule[c.simTime.TimeSeriesIdx(idx, c.startDay, c.seriesStep)]
}

// TempChargeCutCorr corrects the nominal charge cut-off temperature with
// the per-step delta series, where one is given.
func (c *ChargeControl) TempChargeCutCorr(idx int) float64 {
	delta := 0.0
	if c.tempChargeCutDelta != nil {
		delta = c.tempChargeCutDelta[c.simTime.TimeSeriesIdx(idx, c.startDay, c.seriesStep)]
	}
	return *c.tempChargeCut + delta
}

// TargetCharge returns the proportion of full charge targeted for the
// current day. tempAir, where known, enables the charge cut: sensing a
// room at or above the cut-off temperature during a charging hour stops
// charging.
func (c *ChargeControl) TargetCharge(idx int, tempAir *float64) float64 {
	targetNominal := 0.0
	if c.IsOn(idx) {
		// On the last evening of the series the 21:00 lookahead points one
		// day past the end; wrap it back to the first day.
		dayIdx := c.simTime.TimeSeriesIdxDays(idx, c.startDay) % len(c.chargeLevel)
		targetNominal = c.chargeLevel[dayIdx]
	}

	if c.logicType == ChargeLogicManual {
		return targetNominal
	}

	if tempAir != nil && *tempAir >= c.TempChargeCutCorr(idx) {
		targetNominal = 0.0
	}

	// Automatic and CELECT logic may be supplemented by an external weather
	// sensor acting as a limiting device against overcharging.
	if len(c.externalSensor) > 0 {
		return targetNominal * c.limitFactor(c.extCond.AirTemp(idx))
	}
	return targetNominal
}

// limitFactor interpolates the external-sensor correlation at the given
// outdoor temperature, clamping beyond the first and last points.
func (c *ChargeControl) limitFactor(externalTemp float64) float64 {
	corr := c.externalSensor
	if externalTemp <= corr[0].Temperature {
		return corr[0].MaxCharge
	}
	if externalTemp >= corr[len(corr)-1].Temperature {
		return corr[len(corr)-1].MaxCharge
	}
	for i := 1; i < len(corr); i++ {
		t1, m1 := corr[i-1].Temperature, corr[i-1].MaxCharge
		t2, m2 := corr[i].Temperature, corr[i].MaxCharge
		if t1 <= externalTemp && externalTemp <= t2 && t1 != t2 {
			slope := (m2 - m1) / (t2 - t1)
			return m1 + slope*(externalTemp-t1)
		}
	}
	return corr[len(corr)-1].MaxCharge
}
