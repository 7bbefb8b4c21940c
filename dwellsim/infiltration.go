package dwellsim

import (
	"math"
)

// VentType is the kind of mechanical ventilation system.
type VentType int

const (
	VentTypeMVHR VentType = iota
	VentTypeIntermittentMEV
	VentTypeCentralisedContinuousMEV
	VentTypeDecentralisedContinuousMEV
	VentTypePIV
)

func VentTypeFromString(s string) (VentType, error) {
	switch s {
	case "MVHR":
		return VentTypeMVHR, nil
	case "Intermittent MEV":
		return VentTypeIntermittentMEV, nil
	case "Centralised continuous MEV":
		return VentTypeCentralisedContinuousMEV, nil
	case "Decentralised continuous MEV":
		return VentTypeDecentralisedContinuousMEV, nil
	case "PIV":
		return VentTypePIV, nil
	default:
		return 0, configErrorf("vent type", "%q not valid", s)
	}
}

func volumeToMassFlowRate(qv, temperature, pAAlt float64) float64 {
	return qv * airDensityAtTemp(temperature, pAAlt)
}

func massToVolumeFlowRate(qm, temperature, pAAlt float64) float64 {
	return qm / airDensityAtTemp(temperature, pAAlt)
}

// Defaults for residential buildings from BS EN 16798-7 Tables B.4 and
// B.5 and section B.3.3.7 (perfect mixing).
const (
	ventFCtrl = 1.0
	ventFSys  = 1.1
	ventEV    = 1.0
)

// MechanicalVentilation is a whole-dwelling mechanical ventilation
// system (MVHR, MEV variants or PIV). It contributes fixed supply and
// extract air flows to the ventilation zone mass balance and reports
// fan energy to its energy supply connection.
type MechanicalVentilation struct {
	ventType         VentType
	sfp              float64 // specific fan power, W/(l/s)
	designODAFlow    float64 // design outdoor air flow rate, m3/h
	qvODAReqDesign   float64
	mvhrEff          float64
	ctrlIntermittent *SetpointTimeControl
	simTime          *SimulationTime
	energyConn       *EnergySupplyConnection
	totalVolume      float64
	pAAlt            float64
}

func NewMechanicalVentilation(
	ventType VentType,
	specificFanPower, designOutdoorAirFlowRate float64,
	simTime *SimulationTime,
	energyConn *EnergySupplyConnection,
	totalVolume, altitude float64,
	ctrlIntermittent *SetpointTimeControl,
	mvhrEff float64,
) (*MechanicalVentilation, error) {
	if ventType == VentTypeIntermittentMEV && ctrlIntermittent == nil {
		return nil, configErrorf("MechanicalVentilation", "intermittent MEV requires an operation control")
	}
	mv := &MechanicalVentilation{
		ventType:         ventType,
		sfp:              specificFanPower,
		designODAFlow:    designOutdoorAirFlowRate,
		mvhrEff:          mvhrEff,
		ctrlIntermittent: ctrlIntermittent,
		simTime:          simTime,
		energyConn:       energyConn,
		totalVolume:      totalVolume,
		pAAlt:            AirDensityAtAltitude(altitude),
	}
	// Required outdoor air flow rate, BS EN 16798-7 Eqn 9.
	mv.qvODAReqDesign = (ventFCtrl * ventFSys / ventEV) * designOutdoorAirFlowRate
	return mv, nil
}

func (mv *MechanicalVentilation) VentType() VentType { return mv.ventType }

// reqFlowRatesAtATDs returns the required supply and extract flow rates
// at the air terminal devices, BS EN 16798-7 Eqns 10-17, keyed on the
// ventilation system type.
func (mv *MechanicalVentilation) reqFlowRatesAtATDs() (qvSupReq, qvEtaReq float64) {
	switch mv.ventType {
	case VentTypeMVHR:
		// Supply and extract assumed perfectly balanced. The effective
		// external air flow calculation below relies on this.
		return mv.qvODAReqDesign, -mv.qvODAReqDesign
	case VentTypeIntermittentMEV, VentTypeCentralisedContinuousMEV, VentTypeDecentralisedContinuousMEV:
		return 0.0, -mv.qvODAReqDesign
	case VentTypePIV:
		return mv.qvODAReqDesign, 0.0
	default:
		return 0.0, 0.0
	}
}

// fOpV returns the fraction of the timestep the system is running.
func (mv *MechanicalVentilation) fOpV(idx int) (float64, error) {
	if mv.ventType != VentTypeIntermittentMEV {
		return 1.0, nil
	}
	setpnt := mv.ctrlIntermittent.Setpnt(idx)
	if setpnt == nil {
		return 0.0, configErrorf("MechanicalVentilation", "intermittent MEV control has no setpoint at timestep %d", idx)
	}
	if *setpnt < 0.0 || *setpnt > 1.0 {
		return 0.0, configErrorf("MechanicalVentilation", "operating fraction %g not between 0 and 1", *setpnt)
	}
	return *setpnt, nil
}

// AirFlowRates returns the supply and extract mass flow rates required
// from this system at timestep idx, plus the mass flow equivalent of
// the heat recovered by an MVHR unit. Temperatures in K.
func (mv *MechanicalVentilation) AirFlowRates(idx int, tZ, tE float64) (qmSup, qmEta, qmHeatRecoverySaving float64, err error) {
	qvSupReq, qvEtaReq := mv.reqFlowRatesAtATDs()
	fOpV, err := mv.fOpV(idx)
	if err != nil {
		return 0.0, 0.0, 0.0, err
	}
	// BS EN 16798-7 Eqns 18 and 19.
	qvSupDisReq := fOpV * qvSupReq
	qvEtaDisReq := fOpV * qvEtaReq

	// The MVHR system supplies air warmer than outside air. Rather than
	// adding the supply temperature to the heat balance, the heat
	// recovery is accounted for as an effective reduction of the
	// external air flow rate.
	qvHeatRecoverySaving := qvSupDisReq * mv.mvhrEff

	qmSup, qmEta = massFlowInOut(qvSupDisReq, qvEtaDisReq, tE, tZ, mv.pAAlt)
	qmHeatRecoverySaving = volumeToMassFlowRate(qvHeatRecoverySaving, tE, mv.pAAlt)
	return qmSup, qmEta, qmHeatRecoverySaving, nil
}

// Fans records the fan energy use for timestep idx against the energy
// supply and returns the associated internal gains to the zone, in W.
// Extract fans remove air (and their heat) from the dwelling, so only
// supply fan power contributes to gains.
func (mv *MechanicalVentilation) Fans(idx int, zoneVolume, totalVolume float64) float64 {
	const litresPerCubicMetre = 1000.0
	fanPowerW := mv.sfp * (mv.qvODAReqDesign / SecondsPerHour) * litresPerCubicMetre *
		(zoneVolume / totalVolume)
	fOpV, err := mv.fOpV(idx)
	if err != nil {
		fOpV = 0.0
	}
	fanEnergyKWH := fanPowerW / WPerKW * mv.simTime.Timestep() * fOpV

	var supplyFanKWH, extractFanKWH float64
	switch mv.ventType {
	case VentTypeIntermittentMEV, VentTypeCentralisedContinuousMEV, VentTypeDecentralisedContinuousMEV:
		extractFanKWH = fanEnergyKWH
	case VentTypeMVHR:
		supplyFanKWH = fanEnergyKWH / 2.0
		extractFanKWH = fanEnergyKWH / 2.0
	case VentTypePIV:
		supplyFanKWH = fanEnergyKWH
	}
	mv.energyConn.DemandEnergy(idx, supplyFanKWH)
	mv.energyConn.DemandEnergy(idx, extractFanKWH)

	return KWHToWatts(supplyFanKWH, mv.simTime.Timestep())
}

// LeakConfig describes the air tightness of the dwelling envelope as
// measured by a pressurisation test.
type LeakConfig struct {
	VentilationZoneHeight float64 `json:"ventilation_zone_height"`
	TestPressure          float64 `json:"test_pressure"`
	TestResult            float64 `json:"test_result"`
	AreaRoof              float64 `json:"area_roof"`
	AreaFacades           float64 `json:"area_facades"`
	EnvArea               float64 `json:"env_area"`
	Altitude              float64 `json:"altitude"`
}

// InfiltrationVentilation solves the air mass balance of the
// ventilation zone per BS EN 16798-7: windows, vents and envelope leaks
// exchange air driven by wind and stack pressure around an internal
// reference pressure, with mechanical ventilation flows superimposed.
type InfiltrationVentilation struct {
	simTime        *SimulationTime
	fCross         bool
	shield         VentShieldClass
	zoneBaseHeight float64
	zoneHeight     float64
	cRghSite       float64
	windows        []*VentWindow
	vents          []*Vent
	leaks          []*Leak
	mechVents      []*MechanicalVentilation
	pAAlt          float64
	totalVolume    float64
}

func NewInfiltrationVentilation(
	simTime *SimulationTime,
	fCross bool,
	shield VentShieldClass,
	terrain TerrainClass,
	averageRoofPitch float64,
	windows []*VentWindow,
	vents []*Vent,
	leak LeakConfig,
	mechVents []*MechanicalVentilation,
	altitude, totalVolume, ventilationZoneBaseHeight float64,
) *InfiltrationVentilation {
	v := &InfiltrationVentilation{
		simTime:        simTime,
		fCross:         fCross,
		shield:         shield,
		zoneBaseHeight: ventilationZoneBaseHeight,
		zoneHeight:     leak.VentilationZoneHeight,
		cRghSite: terrainRoughnessCoeff(
			terrain, ventilationZoneBaseHeight+leak.VentilationZoneHeight/2.0),
		windows:     windows,
		vents:       vents,
		mechVents:   mechVents,
		pAAlt:       AirDensityAtAltitude(altitude),
		totalVolume: totalVolume,
	}
	v.leaks = v.makeLeaks(leak, averageRoofPitch, ventilationZoneBaseHeight)
	return v
}

func (v *InfiltrationVentilation) MechVents() []*MechanicalVentilation { return v.mechVents }

// makeLeaks distributes the envelope leakage over five paths per
// BS EN 16798-7 Table B.12: two at a quarter of the zone height
// (windward and leeward), two at three quarters, and one in the roof.
func (v *InfiltrationVentilation) makeLeaks(leak LeakConfig, averageRoofPitch, zoneBaseHeight float64) []*Leak {
	h := leak.VentilationZoneHeight
	hPaths := [5]float64{0.25 * h, 0.25 * h, 0.75 * h, 0.75 * h, h}

	roofFacade := FacadeRoof
	if v.fCross {
		switch {
		case averageRoofPitch < 10.0:
			roofFacade = FacadeRoof10
		case averageRoofPitch <= 30.0:
			roofFacade = FacadeRoof1030
		default:
			roofFacade = FacadeRoof30
		}
	}
	facades := [5]FacadeDirection{
		FacadeWindward, FacadeLeeward, FacadeWindward, FacadeLeeward, roofFacade,
	}

	leaks := make([]*Leak, 0, 5)
	for i := 0; i < 5; i++ {
		leaks = append(leaks, NewLeak(
			hPaths[i],
			leak.TestPressure,
			leak.TestResult,
			facades[i],
			leak.AreaRoof,
			leak.AreaFacades,
			leak.EnvArea,
			leak.Altitude,
			zoneBaseHeight,
		))
	}
	return leaks
}

// flowComponents evaluates the mass balance components at internal
// reference pressure pZRef, BS EN 16798-7 Eqn 67. Returns the total
// mass flow in (positive) and out (negative) of the ventilation zone,
// in kg/h, and the heat recovery saving flow.
func (v *InfiltrationVentilation) flowComponents(
	idx int,
	pZRef, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg float64,
	rWArg *float64,
) (qmIn, qmOut, qmHeatRecoverySaving float64, err error) {
	uSite := windSpeedAtZoneLevel(v.cRghSite, windSpeed)
	tE := CelsiusToKelvin(tempExtAir)
	tZ := CelsiusToKelvin(tempIntAir)

	for _, w := range v.windows {
		rW := 0.0
		if rWArg != nil {
			rW = *rWArg
		}
		in, out := w.flowFromInternalP(idx, windDirection, uSite, tE, tZ, pZRef, v.fCross, v.shield, rW)
		qmIn += in
		qmOut += out
	}
	for _, vent := range v.vents {
		in, out := vent.flowFromInternalP(windDirection, uSite, tE, tZ, pZRef, v.fCross, v.shield, rVArg)
		qmIn += in
		qmOut += out
	}
	for _, l := range v.leaks {
		in, out := l.flowFromInternalP(uSite, tE, tZ, pZRef, v.fCross, v.shield)
		qmIn += in
		qmOut += out
	}
	for _, mv := range v.mechVents {
		qmSup, qmEta, saving, mvErr := mv.AirFlowRates(idx, tZ, tE)
		if mvErr != nil {
			return 0.0, 0.0, 0.0, mvErr
		}
		qmIn += qmSup
		qmOut += qmEta
		qmHeatRecoverySaving += saving
	}
	return qmIn, qmOut, qmHeatRecoverySaving, nil
}

// CalculateInternalReferencePressure finds the internal reference
// pressure p_z_ref at which air mass flow into the zone balances flow
// out. The root is bracketed with progressively wider intervals around
// the initial guess before bisecting, since the pressure can move a
// long way between timesteps in windy weather.
func (v *InfiltrationVentilation) CalculateInternalReferencePressure(
	idx int,
	initialGuess, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg float64,
	rWArg *float64,
) (float64, error) {
	balance := func(pZRef float64) (float64, error) {
		qmIn, qmOut, _, err := v.flowComponents(idx, pZRef, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg, rWArg)
		if err != nil {
			return 0.0, err
		}
		return qmIn + qmOut, nil
	}

	intervalExpansions := []float64{1, 5, 10, 15, 20, 40, 50, 100, 200}
	for _, expansion := range intervalExpansions {
		a := initialGuess - expansion
		b := initialGuess + expansion
		fa, err := balance(a)
		if err != nil {
			return 0.0, err
		}
		fb, err := balance(b)
		if err != nil {
			return 0.0, err
		}
		if fa == 0.0 {
			return a, nil
		}
		if fb == 0.0 {
			return b, nil
		}
		if fa*fb > 0.0 {
			continue
		}
		for i := 0; i < 100; i++ {
			mid := (a + b) / 2.0
			fm, err := balance(mid)
			if err != nil {
				return 0.0, err
			}
			if fm == 0.0 || (b-a)/2.0 < 1e-9 {
				return mid, nil
			}
			if fa*fm < 0.0 {
				b = mid
			} else {
				a = mid
				fa = fm
			}
		}
		return (a + b) / 2.0, nil
	}
	return 0.0, configErrorf("InfiltrationVentilation", "mass balance solver failed to bracket a root around %g Pa", initialGuess)
}

// IncomingAirFlow returns the air flow entering the zone at the given
// internal reference pressure, in m3/h. With reportEffectiveFlowRate
// set, the flow equivalent of MVHR heat recovery is subtracted to give
// the effective external air flow seen by the heat balance.
func (v *InfiltrationVentilation) IncomingAirFlow(
	idx int,
	pZRef, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg float64,
	rWArg *float64,
	reportEffectiveFlowRate bool,
) (float64, error) {
	qmIn, _, qmHeatRecoverySaving, err := v.flowComponents(idx, pZRef, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg, rWArg)
	if err != nil {
		return 0.0, err
	}
	if reportEffectiveFlowRate {
		qmIn -= qmHeatRecoverySaving
	}
	return massToVolumeFlowRate(qmIn, CelsiusToKelvin(tempExtAir), v.pAAlt), nil
}

// CalcAirChangesPerHour solves the mass balance and returns the
// effective air change rate of the whole dwelling, in 1/h.
func (v *InfiltrationVentilation) CalcAirChangesPerHour(
	idx int,
	windSpeed, windDirection, tempIntAir, tempExtAir, rVArg float64,
	rWArg *float64,
	initialPZRefGuess float64,
) (float64, error) {
	pZRef, err := v.CalculateInternalReferencePressure(
		idx, initialPZRefGuess, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg, rWArg)
	if err != nil {
		return 0.0, err
	}
	incoming, err := v.IncomingAirFlow(
		idx, pZRef, windSpeed, windDirection, tempIntAir, tempExtAir, rVArg, rWArg, true)
	if err != nil {
		return 0.0, err
	}
	return incoming / v.totalVolume, nil
}

// FindVentOpeningRatio returns the trickle vent opening ratio that
// keeps the air change rate within [achMin, achMax] where achievable.
// The air change rate increases monotonically with the opening ratio,
// so the target is found by bisection on the ratio.
func (v *InfiltrationVentilation) FindVentOpeningRatio(
	idx int,
	achMin, achMax *float64,
	initialRVArg, windSpeed, windDirection, tempIntAir, tempExtAir float64,
	rWArg *float64,
	initialPZRefGuess float64,
) (float64, error) {
	if achMin != nil && achMax != nil && *achMin > *achMax {
		return 0.0, configErrorf("InfiltrationVentilation", "minimum air change rate %g exceeds maximum %g", *achMin, *achMax)
	}
	ach := func(rV float64) (float64, error) {
		return v.CalcAirChangesPerHour(
			idx, windSpeed, windDirection, tempIntAir, tempExtAir, rV, rWArg, initialPZRefGuess)
	}

	initialACH, err := ach(initialRVArg)
	if err != nil {
		return 0.0, err
	}
	if (achMin == nil || initialACH >= *achMin) && (achMax == nil || initialACH <= *achMax) {
		return initialRVArg, nil
	}

	var achTarget float64
	var lo, hi float64
	switch {
	case achMin != nil && initialACH < *achMin:
		achOpen, err := ach(1.0)
		if err != nil {
			return 0.0, err
		}
		if achOpen < *achMin {
			return 1.0, nil
		}
		achTarget = *achMin
		lo, hi = initialRVArg, 1.0
	case achMax != nil && initialACH > *achMax:
		achClosed, err := ach(0.0)
		if err != nil {
			return 0.0, err
		}
		if achClosed > *achMax {
			return 0.0, nil
		}
		achTarget = *achMax
		lo, hi = 0.0, initialRVArg
	default:
		return initialRVArg, nil
	}

	for i := 0; i < 40; i++ {
		mid := (lo + hi) / 2.0
		achMid, err := ach(mid)
		if err != nil {
			return 0.0, err
		}
		if math.Abs(achMid-achTarget) < 1e-6 {
			return mid, nil
		}
		if achMid < achTarget {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2.0, nil
}
