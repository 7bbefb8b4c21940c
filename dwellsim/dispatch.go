package dwellsim

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// Setpoints used when a zone has no heating or cooling system, or the
// system has no setpoint for the current timestep: absolute zero never
// triggers heating and an unreachably high temperature never triggers
// cooling.
var (
	tempSetpntHeatNone = -KelvinOffset
	tempSetpntCoolNone = 1.4e32 - KelvinOffset
)

// DwellingZone couples a thermal zone with the systems and gain sources
// serving it. Heating and cooling system names refer to entries in the
// Dwelling's system maps; an empty list means the zone is unserved.
type DwellingZone struct {
	Name        string
	Zone        *Zone
	HeatSystems []string
	CoolSystems []string
	Gains       []Gains
}

// ZoneStepResult is the outcome of one timestep for one zone.
type ZoneStepResult struct {
	GainsInternal   float64 // W
	GainsSolar      float64 // W
	OperativeTemp   float64 // degC
	InternalAirTemp float64 // degC
	SpaceHeatDemand float64 // kWh
	SpaceCoolDemand float64 // kWh
	HeatBalance     ZoneHeatBalance
	UnmetDemand     float64 // kWh
}

// StepResult is the outcome of one timestep for the whole dwelling.
type StepResult struct {
	Zones        map[string]*ZoneStepResult
	HeatProvided map[string]float64 // kWh per heating system
	CoolProvided map[string]float64 // kWh per cooling system
	Converged    bool
}

// Dwelling drives the per-timestep calculation: ventilation balance,
// zone demand, priority-ordered system dispatch and the final
// temperature update.
type Dwelling struct {
	simTime *SimulationTime
	extCond *ExternalConditions

	zones       []*DwellingZone
	heatSystems map[string]HeatCoolSystem
	coolSystems map[string]HeatCoolSystem

	ventilation *InfiltrationVentilation

	totalFloorArea float64
	totalVolume    float64

	ctrlVentAdjustMin *SetpointTimeControl
	ctrlVentAdjustMax *SetpointTimeControl

	reqVentSchedule   []float64
	reqVentStartDay   float64
	reqVentSeriesStep float64

	unmetDemandConn map[string]*EnergySupplyConnection

	// Vent opening ratio and internal reference pressures carried over
	// from the previous timestep as solver starting points.
	rVArg               float64
	internalPressureMin float64
	internalPressureMax float64
	initialLoop         bool
}

func NewDwelling(
	simTime *SimulationTime,
	extCond *ExternalConditions,
	zones []*DwellingZone,
	heatSystems, coolSystems map[string]HeatCoolSystem,
	ventilation *InfiltrationVentilation,
	ctrlVentAdjustMin, ctrlVentAdjustMax *SetpointTimeControl,
	reqVentSchedule []float64,
	reqVentStartDay, reqVentSeriesStep float64,
	unmetDemandConn map[string]*EnergySupplyConnection,
) (*Dwelling, error) {
	d := &Dwelling{
		simTime:           simTime,
		extCond:           extCond,
		zones:             zones,
		heatSystems:       heatSystems,
		coolSystems:       coolSystems,
		ventilation:       ventilation,
		ctrlVentAdjustMin: ctrlVentAdjustMin,
		ctrlVentAdjustMax: ctrlVentAdjustMax,
		reqVentSchedule:   reqVentSchedule,
		reqVentStartDay:   reqVentStartDay,
		reqVentSeriesStep: reqVentSeriesStep,
		unmetDemandConn:   unmetDemandConn,
		rVArg:             1.0,
		initialLoop:       true,
	}
	for _, dz := range zones {
		d.totalFloorArea += dz.Zone.Area()
		d.totalVolume += dz.Zone.Volume()
		for _, h := range dz.HeatSystems {
			if _, ok := heatSystems[h]; !ok {
				return nil, configErrorf("Dwelling", "zone %q names unknown heating system %q", dz.Name, h)
			}
			if _, ok := coolSystems[h]; ok {
				return nil, configErrorf("Dwelling", "heating and cooling systems must have unique names, got %q twice", h)
			}
		}
		for _, c := range dz.CoolSystems {
			if _, ok := coolSystems[c]; !ok {
				return nil, configErrorf("Dwelling", "zone %q names unknown cooling system %q", dz.Name, c)
			}
		}
	}
	return d, nil
}

func (d *Dwelling) TotalFloorArea() float64 { return d.totalFloorArea }
func (d *Dwelling) TotalVolume() float64    { return d.totalVolume }

// SystemIDs returns the identity of every heating and cooling system,
// keyed by system name.
func (d *Dwelling) SystemIDs() map[string]uuid.UUID {
	ids := make(map[string]uuid.UUID)
	for name, sys := range d.heatSystems {
		ids[name] = sys.ID()
	}
	for name, sys := range d.coolSystems {
		ids[name] = sys.ID()
	}
	return ids
}

// tempInternalAirPrev returns the volume-weighted average zone air
// temperature from the previous timestep.
func (d *Dwelling) tempInternalAirPrev() float64 {
	var sum float64
	for _, dz := range d.zones {
		sum += dz.Zone.TempInternalAir() * dz.Zone.Volume()
	}
	return sum / d.totalVolume
}

// internalGainsForZone sums the gains of all sources attached to the
// zone, plus the gains from mechanical ventilation fans, in W.
func (d *Dwelling) internalGainsForZone(idx int, dz *DwellingZone) float64 {
	var gains float64
	for _, g := range dz.Gains {
		gains += g.TotalInternalGain(idx, dz.Zone.Area())
	}
	if d.ventilation != nil {
		for _, mv := range d.ventilation.MechVents() {
			gains += mv.Fans(idx, dz.Zone.Volume(), d.totalVolume)
		}
	}
	return gains
}

// systemSetpoints looks up setpoints and convective fractions for the
// named systems, substituting defaults for unserved zones or systems
// with no setpoint this timestep.
func systemSetpoints(
	idx int,
	names []string,
	systems map[string]HeatCoolSystem,
	setpntNone float64,
) (setpnts map[string]float64, fracConv map[string]float64) {
	setpnts = make(map[string]float64)
	fracConv = make(map[string]float64)
	for _, name := range names {
		if sys, ok := systems[name]; ok {
			fracConv[name] = sys.FracConvective()
			if setpnt := sys.TempSetpnt(idx); setpnt != nil {
				setpnts[name] = *setpnt
				continue
			}
		} else {
			fracConv[name] = 1.0
		}
		setpnts[name] = setpntNone
	}
	return setpnts, fracConv
}

// sortSystemsByPriority orders heating systems by descending setpoint
// and cooling systems by ascending setpoint. Systems with equal
// setpoints keep their configured order.
func sortSystemsByPriority(names []string, setpnts map[string]float64, descending bool) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return setpnts[sorted[i]] > setpnts[sorted[j]]
		}
		return setpnts[sorted[i]] < setpnts[sorted[j]]
	})
	return sorted
}

func (d *Dwelling) achLimit(idx int, ctrl *SetpointTimeControl) *float64 {
	if ctrl == nil {
		return nil
	}
	return ctrl.Setpnt(idx)
}

// airChangesPerHour solves the ventilation mass balance, carrying the
// internal reference pressure forward between timesteps as the starting
// guess for the solver.
func (d *Dwelling) airChangesPerHour(
	idx int,
	windSpeed, windDirection, tempIntAir, tempExtAir, rVArg float64,
	rWArg *float64,
	pressureState *float64,
) (float64, error) {
	guess := 0.0
	if !d.initialLoop {
		guess = *pressureState
	}
	pZRef, err := d.ventilation.CalculateInternalReferencePressure(
		idx, guess, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg, rWArg)
	if err != nil {
		return 0.0, err
	}
	*pressureState = pZRef
	incoming, err := d.ventilation.IncomingAirFlow(
		idx, pZRef, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg, rWArg, true)
	if err != nil {
		return 0.0, err
	}
	return incoming / d.totalVolume, nil
}

type zoneDemandContext struct {
	gainsInternal float64
	gainsSolar    float64
	hNamesSorted  []string
	cNamesSorted  []string
	setpntHeat    map[string]float64
	setpntCool    map[string]float64
	fracConvHeat  map[string]float64
	fracConvCool  map[string]float64
}

// CalcSpaceHeatCool runs the full space conditioning calculation for
// one timestep: ventilation state, per-zone demand, priority-ordered
// dispatch to the heating and cooling systems, unmet demand accounting,
// and the committed temperature update.
func (d *Dwelling) CalcSpaceHeatCool(idx int) (*StepResult, error) {
	deltaTh := d.simTime.Timestep()
	deltaT := deltaTh * SecondsPerHour

	windSpeed := d.extCond.WindSpeed(idx)
	windDirection := d.extCond.WindDirection(idx)
	tempIntAir := d.tempInternalAirPrev()
	tempExtAir := d.extCond.AirTemp(idx)
	avgAirSupplyTemp := tempExtAir

	achMin := d.achLimit(idx, d.ctrlVentAdjustMin)
	achMax := d.achLimit(idx, d.ctrlVentAdjustMax)

	// Adjust trickle vent position if required to meet the ach limits.
	rVArg, err := d.ventilation.FindVentOpeningRatio(
		idx, achMin, achMax, d.rVArg,
		windSpeed, windDirection, tempIntAir, tempExtAir, ptr(0.0), 0.0)
	if err != nil {
		return nil, err
	}
	d.rVArg = rVArg

	achWindowsShut, err := d.airChangesPerHour(
		idx, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg, ptr(0.0), &d.internalPressureMin)
	if err != nil {
		return nil, err
	}
	achWindowsOpen, err := d.airChangesPerHour(
		idx, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg, ptr(1.0), &d.internalPressureMax)
	if err != nil {
		return nil, err
	}
	d.initialLoop = false

	achTarget := achWindowsShut
	if d.reqVentSchedule != nil {
		seriesIdx := d.simTime.TimeSeriesIdx(idx, d.reqVentStartDay, d.reqVentSeriesStep)
		achTarget = math.Max(achWindowsShut, math.Min(d.reqVentSchedule[seriesIdx], achWindowsOpen))
	}

	result := &StepResult{
		Zones:        make(map[string]*ZoneStepResult),
		HeatProvided: make(map[string]float64),
		CoolProvided: make(map[string]float64),
		Converged:    true,
	}
	ctxByZone := make(map[string]*zoneDemandContext)
	achCoolingZone := make(map[string]float64)
	achToTriggerHeatingZone := make(map[string]*float64)

	// First pass: demand per zone, assuming only the highest-priority
	// systems run.
	for _, dz := range d.zones {
		ctx := &zoneDemandContext{
			gainsInternal: d.internalGainsForZone(idx, dz),
			gainsSolar:    dz.Zone.GainsSolar(idx),
		}
		hNames := dz.HeatSystems
		if len(hNames) == 0 {
			hNames = []string{""}
		}
		cNames := dz.CoolSystems
		if len(cNames) == 0 {
			cNames = []string{""}
		}
		ctx.setpntHeat, ctx.fracConvHeat = systemSetpoints(idx, hNames, d.heatSystems, tempSetpntHeatNone)
		ctx.setpntCool, ctx.fracConvCool = systemSetpoints(idx, cNames, d.coolSystems, tempSetpntCoolNone)
		ctx.hNamesSorted = sortSystemsByPriority(hNames, ctx.setpntHeat, true)
		ctx.cNamesSorted = sortSystemsByPriority(cNames, ctx.setpntCool, false)
		ctxByZone[dz.Name] = ctx

		zr := &ZoneStepResult{
			GainsInternal: ctx.gainsInternal,
			GainsSolar:    ctx.gainsSolar,
		}
		heatDemand, coolDemand, achCooling, achToTriggerHeating, err := dz.Zone.SpaceHeatCoolDemand(
			idx, deltaTh, tempExtAir,
			ctx.gainsInternal, ctx.gainsSolar,
			ctx.fracConvHeat[ctx.hNamesSorted[0]], ctx.fracConvCool[ctx.cNamesSorted[0]],
			ctx.setpntHeat[ctx.hNamesSorted[0]], ctx.setpntCool[ctx.cNamesSorted[0]],
			avgAirSupplyTemp,
			0.0, 0.0,
			&achWindowsOpen, &achTarget, nil,
		)
		if err != nil {
			return nil, err
		}
		zr.SpaceHeatDemand = heatDemand
		zr.SpaceCoolDemand = coolDemand
		achCoolingZone[dz.Name] = achCooling
		achToTriggerHeatingZone[dz.Name] = achToTriggerHeating
		result.Zones[dz.Name] = zr
	}

	// Settle the dwelling-wide air change rate for cooling. Windows are
	// not opened beyond the ventilation requirement while any zone has
	// heating or cooling demand.
	isHeating, isCooling := false, false
	for _, zr := range result.Zones {
		if zr.SpaceHeatDemand > 0.0 {
			isHeating = true
		}
		if zr.SpaceCoolDemand < 0.0 {
			isCooling = true
		}
	}
	var achCooling float64
	switch {
	case isHeating:
		achCooling = achTarget
	case isCooling:
		achCooling = achTarget
		// Recalculate cooling demand with no window opening in any zone.
		for _, dz := range d.zones {
			ctx := ctxByZone[dz.Name]
			zr := result.Zones[dz.Name]
			zr.SpaceHeatDemand, zr.SpaceCoolDemand, _, _, err = dz.Zone.SpaceHeatCoolDemand(
				idx, deltaTh, tempExtAir,
				ctx.gainsInternal, ctx.gainsSolar,
				ctx.fracConvHeat[ctx.hNamesSorted[0]], ctx.fracConvCool[ctx.cNamesSorted[0]],
				ctx.setpntHeat[ctx.hNamesSorted[0]], ctx.setpntCool[ctx.cNamesSorted[0]],
				avgAirSupplyTemp,
				0.0, 0.0,
				nil, nil, &achCooling,
			)
			if err != nil {
				return nil, err
			}
		}
	default:
		// Free-floating: take the widest window opening wanted by any
		// zone, without cooling any zone below its heating trigger, and
		// never below the ventilation requirement.
		achCooling = math.Inf(-1)
		for _, ach := range achCoolingZone {
			achCooling = math.Max(achCooling, ach)
		}
		for _, ach := range achToTriggerHeatingZone {
			if ach != nil {
				achCooling = math.Min(*ach, achCooling)
			}
		}
		achCooling = math.Max(achCooling, achTarget)
	}

	// Second pass: dispatch systems in priority order and commit the
	// resulting temperatures.
	for _, dz := range d.zones {
		if err := d.dispatchZone(idx, dz, ctxByZone[dz.Name], result,
			deltaTh, deltaT, tempExtAir, avgAirSupplyTemp,
			achCooling, achWindowsOpen, achTarget); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// dispatchZone hands the zone's demand to its systems in priority
// order, recalculating residual demand after each system responds, then
// updates the zone temperatures with the heat actually delivered.
func (d *Dwelling) dispatchZone(
	idx int,
	dz *DwellingZone,
	ctx *zoneDemandContext,
	result *StepResult,
	deltaTh, deltaT, tempExtAir, avgAirSupplyTemp float64,
	achCooling, achWindowsOpen, achTarget float64,
) error {
	zr := result.Zones[dz.Name]

	// Start every system at its minimum output: some systems deliver a
	// floor of energy whenever they run.
	hcOutputMin := map[string]float64{"": 0.0}
	hcOutputConvective := make(map[string]float64)
	hcOutputRadiative := make(map[string]float64)
	for _, hName := range ctx.hNamesSorted {
		if sys, ok := d.heatSystems[hName]; ok {
			hcOutputMin[hName] = sys.EnergyOutputMin()
		}
		hcOutputConvective[hName] = hcOutputMin[hName] * ctx.fracConvHeat[hName]
		hcOutputRadiative[hName] = hcOutputMin[hName] - hcOutputConvective[hName]
	}
	for _, cName := range ctx.cNamesSorted {
		if sys, ok := d.coolSystems[cName]; ok {
			hcOutputMin[cName] = sys.EnergyOutputMin()
		}
		hcOutputConvective[cName] = hcOutputMin[cName] * ctx.fracConvCool[cName]
		hcOutputRadiative[cName] = hcOutputMin[cName] - hcOutputConvective[cName]
	}

	heatDemandSystem := make(map[string]float64)
	coolDemandSystem := make(map[string]float64)
	heatProvidedSystem := make(map[string]float64)
	coolProvidedSystem := make(map[string]float64)

	sumOutputs := func(m map[string]float64) float64 {
		var total float64
		for _, v := range m {
			total += v
		}
		return total
	}

	hIdx, cIdx := 0, 0
	for hIdx < len(ctx.hNamesSorted) && cIdx < len(ctx.cNamesSorted) {
		hName := ctx.hNamesSorted[hIdx]
		cName := ctx.cNamesSorted[cIdx]

		// Demand accounting for output already committed by higher
		// priority systems and the minimum output of the others.
		gainsConvective := KWHToWatts(sumOutputs(hcOutputConvective), deltaTh)
		gainsRadiative := KWHToWatts(sumOutputs(hcOutputRadiative), deltaTh)
		if gainsConvective == 0.0 && gainsRadiative == 0.0 {
			heatDemandSystem[hName] = zr.SpaceHeatDemand
			coolDemandSystem[cName] = zr.SpaceCoolDemand
		} else {
			heatDemand, coolDemand, _, _, err := dz.Zone.SpaceHeatCoolDemand(
				idx, deltaTh, tempExtAir,
				ctx.gainsInternal, ctx.gainsSolar,
				ctx.fracConvHeat[hName], ctx.fracConvCool[cName],
				ctx.setpntHeat[hName], ctx.setpntCool[cName],
				avgAirSupplyTemp,
				gainsConvective, gainsRadiative,
				nil, nil, &achCooling,
			)
			if err != nil {
				return err
			}
			heatDemandSystem[hName] = heatDemand
			coolDemandSystem[cName] = coolDemand
			// The demand above already assumes minimum output from all
			// systems, so add the current system's own minimum back: a
			// zero-demand call to the system still yields its minimum.
			if heatDemandSystem[hName] > 0.0 {
				heatDemandSystem[hName] += hcOutputMin[hName]
			} else if coolDemandSystem[cName] < 0.0 {
				coolDemandSystem[cName] += hcOutputMin[cName]
			}
		}

		if heatDemandSystem[hName] > 0.0 {
			if sys, ok := d.heatSystems[hName]; ok {
				heatProvidedSystem[hName] = sys.DemandEnergy(idx, heatDemandSystem[hName])
			}
			hcOutputConvective[hName] = heatProvidedSystem[hName] * ctx.fracConvHeat[hName]
			hcOutputRadiative[hName] = heatProvidedSystem[hName] * (1.0 - ctx.fracConvHeat[hName])
			hIdx++
		}
		if coolDemandSystem[cName] < 0.0 {
			if sys, ok := d.coolSystems[cName]; ok {
				coolProvidedSystem[cName] = sys.DemandEnergy(idx, coolDemandSystem[cName])
			}
			hcOutputConvective[cName] = coolProvidedSystem[cName] * ctx.fracConvCool[cName]
			hcOutputRadiative[cName] = coolProvidedSystem[cName] * (1.0 - ctx.fracConvCool[cName])
			cIdx++
		}

		if heatDemandSystem[hName] <= 0.0 && coolDemandSystem[cName] >= 0.0 {
			break
		}
	}

	// Any systems not reached by the loop still run at their minimum
	// (i.e. zero demand) output.
	for _, hName := range ctx.hNamesSorted[hIdx:] {
		if sys, ok := d.heatSystems[hName]; ok {
			heatProvidedSystem[hName] = sys.DemandEnergy(idx, 0.0)
		}
		hcOutputConvective[hName] = heatProvidedSystem[hName] * ctx.fracConvHeat[hName]
		hcOutputRadiative[hName] = heatProvidedSystem[hName] * (1.0 - ctx.fracConvHeat[hName])
	}
	for _, cName := range ctx.cNamesSorted[cIdx:] {
		if sys, ok := d.coolSystems[cName]; ok {
			coolProvidedSystem[cName] = sys.DemandEnergy(idx, 0.0)
		}
		hcOutputConvective[cName] = coolProvidedSystem[cName] * ctx.fracConvCool[cName]
		hcOutputRadiative[cName] = coolProvidedSystem[cName] * (1.0 - ctx.fracConvCool[cName])
	}

	if err := d.unmetDemand(idx, dz, ctx, zr,
		deltaTh, tempExtAir, avgAirSupplyTemp,
		hcOutputConvective, hcOutputRadiative,
		achWindowsOpen, achTarget, result); err != nil {
		return err
	}

	// Sum heating gains (positive) and cooling gains (negative) and
	// commit the temperatures achieved.
	convTotal := sumOutputs(hcOutputConvective)
	radTotal := sumOutputs(hcOutputRadiative)
	gainsHeatCool := KWHToWatts(convTotal+radTotal, deltaTh)
	fracConvective := 1.0
	if gainsHeatCool != 0.0 {
		fracConvective = convTotal / (convTotal + radTotal)
	}

	hb, err := dz.Zone.UpdateTemperatures(
		idx, deltaT, tempExtAir,
		ctx.gainsInternal, ctx.gainsSolar,
		gainsHeatCool, fracConvective, achCooling, avgAirSupplyTemp,
	)
	if err != nil {
		return err
	}
	zr.HeatBalance = hb
	zr.InternalAirTemp = dz.Zone.TempInternalAir()
	zr.OperativeTemp = dz.Zone.TempOperative()

	for hName, provided := range heatProvidedSystem {
		result.HeatProvided[hName] += provided
	}
	for cName, provided := range coolProvidedSystem {
		result.CoolProvided[cName] += provided
	}
	return nil
}

// highestPriorityRequiredSystem returns the first system in priority
// order that is within its required operating period, or "" if none is.
func highestPriorityRequiredSystem(idx int, namesSorted []string, systems map[string]HeatCoolSystem) (string, error) {
	for _, name := range namesSorted {
		sys, ok := systems[name]
		if !ok {
			continue
		}
		required, err := sys.InRequiredPeriod(idx)
		if err != nil {
			return "", err
		}
		if required {
			return name, nil
		}
	}
	return "", nil
}

// unmetDemand works out how much space conditioning demand was not met
// by the systems. Demand is only counted as unmet within a system's
// required operating period: shortfall during setback or advanced-start
// periods is deliberate. When only a lower-priority system is in its
// required period, the demand is recalculated against that system's
// setpoint before comparing.
func (d *Dwelling) unmetDemand(
	idx int,
	dz *DwellingZone,
	ctx *zoneDemandContext,
	zr *ZoneStepResult,
	deltaTh, tempExtAir, avgAirSupplyTemp float64,
	hcOutputConvective, hcOutputRadiative map[string]float64,
	achWindowsOpen, achTarget float64,
	result *StepResult,
) error {
	hNameReq, err := highestPriorityRequiredSystem(idx, ctx.hNamesSorted, d.heatSystems)
	if err != nil {
		return err
	}
	cNameReq, err := highestPriorityRequiredSystem(idx, ctx.cNamesSorted, d.coolSystems)
	if err != nil {
		return err
	}

	var gainsHeat, gainsCool float64
	for _, hName := range ctx.hNamesSorted {
		gainsHeat += hcOutputConvective[hName] + hcOutputRadiative[hName]
	}
	for _, cName := range ctx.cNamesSorted {
		gainsCool += hcOutputConvective[cName] + hcOutputRadiative[cName]
	}
	shortfallHeat := math.Max(0.0, zr.SpaceHeatDemand-gainsHeat)
	shortfallCool := math.Max(0.0, -(zr.SpaceCoolDemand - gainsCool))

	heatUnmet := hNameReq != "" && zr.SpaceHeatDemand > 0.0 && shortfallHeat > 0.0
	coolUnmet := cNameReq != "" && zr.SpaceCoolDemand < 0.0 && shortfallCool > 0.0
	if !heatUnmet && !coolUnmet {
		return nil
	}

	unmetHeat, unmetCool := shortfallHeat, shortfallCool
	if (shortfallHeat > 0.0 && hNameReq != ctx.hNamesSorted[0]) ||
		(shortfallCool > 0.0 && cNameReq != ctx.cNamesSorted[0]) {
		// Base unmet demand on the highest-priority system that is in
		// its required period.
		fracConvHeat, setpntHeat := 1.0, tempSetpntHeatNone
		if hNameReq != "" {
			fracConvHeat = ctx.fracConvHeat[hNameReq]
			setpntHeat = ctx.setpntHeat[hNameReq]
		}
		fracConvCool, setpntCool := 1.0, tempSetpntCoolNone
		if cNameReq != "" {
			fracConvCool = ctx.fracConvCool[cNameReq]
			setpntCool = ctx.setpntCool[cNameReq]
		}
		heatDemandReq, coolDemandReq, _, _, err := dz.Zone.SpaceHeatCoolDemand(
			idx, deltaTh, tempExtAir,
			ctx.gainsInternal, ctx.gainsSolar,
			fracConvHeat, fracConvCool,
			setpntHeat, setpntCool,
			avgAirSupplyTemp,
			0.0, 0.0,
			&achWindowsOpen, &achTarget, nil,
		)
		if err != nil {
			return err
		}
		unmetHeat = math.Max(0.0, heatDemandReq-gainsHeat)
		unmetCool = math.Max(0.0, -(coolDemandReq - gainsCool))
	}

	zr.UnmetDemand = unmetHeat + unmetCool
	if zr.UnmetDemand > 0.0 {
		result.Converged = false
	}
	if conn, ok := d.unmetDemandConn[dz.Name]; ok {
		conn.DemandEnergy(idx, unmetHeat+unmetCool)
	}
	return nil
}
