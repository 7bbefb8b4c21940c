package dwellsim

import (
	"math"
)

// Infiltration and ventilation per Method 1 of BS EN 16798-7: air flows
// through windows, vents and envelope leaks are driven by wind pressure
// and stack effect, balanced by an internal reference pressure found so
// that mass flow in equals mass flow out.

// TerrainClass classifies the terrain around the dwelling for the wind
// speed correction.
type TerrainClass int

const (
	TerrainOpenWater TerrainClass = iota // rough open sea, lake shore
	TerrainOpenField                     // farm land, small structures
	TerrainSuburban                      // suburban or industrial areas
	TerrainUrban                         // urban areas with tall buildings
)

func TerrainClassFromString(s string) (TerrainClass, error) {
	switch s {
	case "OpenWater":
		return TerrainOpenWater, nil
	case "OpenField":
		return TerrainOpenField, nil
	case "Suburban":
		return TerrainSuburban, nil
	case "Urban":
		return TerrainUrban, nil
	default:
		return 0, configErrorf("terrain_class", "%q not valid", s)
	}
}

// VentShieldClass indicates the exposure to wind of air flow paths on a
// facade.
type VentShieldClass int

const (
	ShieldOpen VentShieldClass = iota
	ShieldNormal
	ShieldShielded
)

func VentShieldClassFromString(s string) (VentShieldClass, error) {
	switch s {
	case "Open":
		return ShieldOpen, nil
	case "Normal":
		return ShieldNormal, nil
	case "Shielded":
		return ShieldShielded, nil
	default:
		return 0, configErrorf("shield_class", "%q not valid", s)
	}
}

// FacadeDirection is the relation of a facade (or roof band) to the wind.
type FacadeDirection int

const (
	FacadeWindward FacadeDirection = iota
	FacadeLeeward
	FacadeNeither
	FacadeRoof     // any roof when cross ventilation is not possible
	FacadeRoof10   // roof pitch < 10 degrees
	FacadeRoof1030 // roof pitch 10 to 30 degrees
	FacadeRoof30   // roof pitch 30 to 60 degrees
)

// terrainRoughnessCoeff calculates the roughness coefficient C_R for an
// air flow path at height z in the given terrain.
func terrainRoughnessCoeff(terrain TerrainClass, z float64) float64 {
	var kr, z0, zmin float64
	switch terrain {
	case TerrainOpenWater:
		kr, z0, zmin = 0.17, 0.01, 2.0
	case TerrainOpenField:
		kr, z0, zmin = 0.19, 0.05, 4.0
	case TerrainSuburban:
		kr, z0, zmin = 0.22, 0.3, 8.0
	default:
		kr, z0, zmin = 0.24, 1.0, 16.0
	}
	if z < zmin {
		z = zmin
	}
	return kr * math.Log(z/z0)
}

// windSpeedAtZoneLevel corrects the meteorological wind speed at 10 m to
// the reference wind speed at zone level.
func windSpeedAtZoneLevel(cRghSite, u10 float64) float64 {
	// Topography coefficients and meteorological-station corrections are
	// taken as 1.
	return cRghSite * u10
}

// orientationDifference returns the difference between two bearings,
// taking the shortest route around the circle.
func orientationDifference(orientation1, orientation2 float64) float64 {
	diff := math.Abs(orientation1 - orientation2)
	if diff > 180.0 {
		diff = 360.0 - diff
	}
	return diff
}

// facadeDirection determines the direction of a facade relative to the
// wind from its pitch and orientation.
func facadeDirection(fCross bool, orientation, pitch, windDirection float64) FacadeDirection {
	if fCross {
		switch {
		case pitch < 10.0:
			return FacadeRoof10
		case pitch <= 30.0:
			return FacadeRoof1030
		case pitch < 60.0:
			return FacadeRoof30
		}
	} else if pitch < 60.0 {
		return FacadeRoof
	}
	diff := orientationDifference(orientation, windDirection)
	switch {
	case diff <= 60.0:
		return FacadeWindward
	case diff < 120.0:
		return FacadeNeither
	default:
		return FacadeLeeward
	}
}

// windPressureCoeff returns the dimensionless wind pressure coefficient
// for an air flow path, interpreted from BS EN 16798-7 Table B.7.
func windPressureCoeff(fCross bool, shield VentShieldClass, z float64, facade FacadeDirection) float64 {
	if !fCross {
		switch facade {
		case FacadeWindward:
			return 0.05
		case FacadeLeeward:
			return -0.05
		default:
			return 0.0
		}
	}

	// Roof bands and the leeward side do not vary with height band.
	switch facade {
	case FacadeNeither:
		return 0.0
	case FacadeRoof30:
		return -0.20
	}

	// Above 50 m the table only defines the open shield class.
	if z >= 50.0 {
		shield = ShieldOpen
	}

	switch shield {
	case ShieldOpen:
		switch facade {
		case FacadeWindward:
			switch {
			case z >= 50.0:
				return 0.80
			case z >= 15.0:
				return 0.65
			default:
				return 0.50
			}
		case FacadeLeeward:
			return -0.70
		case FacadeRoof10:
			return -0.70
		default: // FacadeRoof1030
			return -0.60
		}
	case ShieldNormal:
		switch facade {
		case FacadeWindward:
			if z >= 15.0 {
				return 0.45
			}
			return 0.25
		case FacadeLeeward:
			return -0.50
		case FacadeRoof10:
			return -0.60
		default:
			return -0.50
		}
	default: // ShieldShielded
		switch facade {
		case FacadeWindward:
			if z >= 15.0 {
				return 0.25
			}
			return 0.05
		case FacadeLeeward:
			return -0.30
		case FacadeRoof10:
			return -0.50
		default:
			return -0.40
		}
	}
}

// pressureDifferenceAtPath calculates the pressure difference between the
// exterior and interior of the dwelling for a flow path at its elevation
// above the ventilation zone floor (BS EN 16798-7 Eqns 4 to 6).
func pressureDifferenceAtPath(hPath, cpPath, uSite, tE, tZ, pZRef float64) float64 {
	pePath := AirDensity * TRef / tE * (0.5*cpPath*uSite*uSite - hPath*GravityAccel)
	pzPath := pZRef - AirDensity*hPath*GravityAccel*TRef/tZ
	return pePath - pzPath
}

// splitFlow adds a signed volume flow to the in/out accumulators.
func splitFlow(airFlow float64, qvIn, qvOut *float64) {
	if airFlow >= 0.0 {
		*qvIn += airFlow
	} else {
		*qvOut += airFlow
	}
}

// massFlowInOut converts entering and leaving volume flows (m3/h) to mass
// flows (kg/h) at the respective air temperatures (BS EN 16798-7 Eqns 65
// and 66).
func massFlowInOut(qvIn, qvOut, tE, tZ, pAAlt float64) (qmIn, qmOut float64) {
	return qvIn * airDensityAtTemp(tE, pAAlt), qvOut * airDensityAtTemp(tZ, pAAlt)
}

// Vent is an opening in the external envelope with an equivalent area,
// per section 6.4.3.6 of BS EN 16798-7.
type Vent struct {
	hPath         float64 // mid height of flow path relative to ventilation zone floor, m
	aVent         float64 // equivalent area, cm2
	deltaPVentRef float64 // reference pressure difference, Pa
	orientation   float64
	pitch         float64
	pAAlt         float64
	z             float64 // height relative to ground, m
}

// Flow exponent and discharge coefficient for vents, from sections
// B.3.2.1 and B.3.2.2 of BS EN 16798-7.
const (
	nVent  = 0.5
	cDVent = 0.6
)

func NewVent(hPath, aVent, deltaPVentRef, orientation, pitch, altitude, zoneBaseHeight float64) *Vent {
	return &Vent{
		hPath:         hPath,
		aVent:         aVent,
		deltaPVentRef: deltaPVentRef,
		orientation:   orientation,
		pitch:         pitch,
		pAAlt:         AirDensityAtAltitude(altitude),
		z:             hPath + zoneBaseHeight,
	}
}

// flowCoeff returns the airflow coefficient of the vent calculated from
// its equivalent area (BS EN 16798-7 Eqn 59) at opening ratio rVArg.
func (v *Vent) flowCoeff(rVArg float64) float64 {
	aVent := rVArg * v.aVent
	return (3600.0 / 10000.0) * cDVent * aVent *
		math.Sqrt(2.0/AirDensity) * math.Pow(1.0/v.deltaPVentRef, nVent-0.5)
}

// flowFromInternalP returns mass flow in/out through the vent (kg/h) for
// the given internal reference pressure.
func (v *Vent) flowFromInternalP(windDirection, uSite, tE, tZ, pZRef float64, fCross bool, shield VentShieldClass, rVArg float64) (qmIn, qmOut float64) {
	cpPath := windPressureCoeff(fCross, shield, v.z,
		facadeDirection(fCross, v.orientation, v.pitch, windDirection))
	deltaP := pressureDifferenceAtPath(v.hPath, cpPath, uSite, tE, tZ, pZRef)

	// BS EN 16798-7 Eqn 58.
	qv := v.flowCoeff(rVArg) * sign(deltaP) * math.Pow(math.Abs(deltaP), nVent)

	var qvIn, qvOut float64
	splitFlow(qv, &qvIn, &qvOut)
	return massFlowInOut(qvIn, qvOut, tE, tZ, v.pAAlt)
}

// Leak is envelope leakage on one facade or the roof, per section
// 6.4.3.6 of BS EN 16798-7.
type Leak struct {
	hPath     float64
	facade    FacadeDirection
	cLeakPath float64
	pAAlt     float64
	z         float64
}

// Flow exponent through leaks, from B.3.3.14 of BS EN 16798-7.
const nLeak = 0.667

// NewLeak builds one leak path. The zone leakage coefficient derived
// from the pressure test result is split between facades and roof in
// proportion to their areas (Table B.12).
func NewLeak(
	hPath, testPressure, testResult float64,
	facade FacadeDirection,
	areaRoof, areaFacades, envArea, altitude, zoneBaseHeight float64,
) *Leak {
	cLeak := testResult * envArea / math.Pow(testPressure, nLeak)
	var cLeakPath float64
	if facade != FacadeWindward && facade != FacadeLeeward {
		cLeakPath = cLeak * areaRoof / (areaFacades + areaRoof)
	} else {
		cLeakPath = 0.25 * cLeak * areaFacades / (areaFacades + areaRoof)
	}
	return &Leak{
		hPath:     hPath,
		facade:    facade,
		cLeakPath: cLeakPath,
		pAAlt:     AirDensityAtAltitude(altitude),
		z:         hPath + zoneBaseHeight,
	}
}

func (l *Leak) flowFromInternalP(uSite, tE, tZ, pZRef float64, fCross bool, shield VentShieldClass) (qmIn, qmOut float64) {
	cpPath := windPressureCoeff(fCross, shield, l.z, l.facade)
	deltaP := pressureDifferenceAtPath(l.hPath, cpPath, uSite, tE, tZ, pZRef)

	// BS EN 16798-7 Eqn 62.
	qv := l.cLeakPath * sign(deltaP) * math.Pow(math.Abs(deltaP), nLeak)

	var qvIn, qvOut float64
	splitFlow(qv, &qvIn, &qvOut)
	return massFlowInOut(qvIn, qvOut, tE, tZ, l.pAAlt)
}

// Flow exponent and discharge coefficient for windows, from sections
// B.3.2.1 and B.3.2.2 of BS EN 16798-7.
const (
	nWindow  = 0.5
	cDWindow = 0.67
)

// VentWindow is an openable window, per section 6.4.3.5 of BS EN
// 16798-7. Air flows through each window part at its own height.
type VentWindow struct {
	hFreeArea   float64 // free area height of the window, m
	hPath       float64 // mid height of the window, m
	aMax        float64 // maximum opening area, m2
	orientation float64
	pitch       float64
	nDiv        int
	ctrl        Control
	pAAlt       float64
	z           float64
	partHeights []float64
}

func NewVentWindow(
	hFreeArea, hPath, aMax float64,
	partMidHeights []float64,
	orientation, pitch, altitude float64,
	ctrl Control,
	zoneBaseHeight float64,
) *VentWindow {
	w := &VentWindow{
		hFreeArea:   hFreeArea,
		hPath:       hPath,
		aMax:        aMax,
		orientation: orientation,
		pitch:       pitch,
		nDiv:        max(len(partMidHeights)-1, 0),
		ctrl:        ctrl,
		pAAlt:       AirDensityAtAltitude(altitude),
		z:           hPath + zoneBaseHeight,
	}
	// Height to consider for the pressure difference of each window part,
	// BS EN 16798-7 Eqn 55.
	for j := 1; j <= len(partMidHeights); j++ {
		h := partMidHeights[j-1] - w.hFreeArea/2.0 +
			w.hFreeArea/(2.0*float64(w.nDiv+1)) +
			w.hFreeArea/float64(w.nDiv+1)*float64(j-1)
		w.partHeights = append(w.partHeights, h)
	}
	return w
}

// openingRatio gates the requested opening ratio on the window control:
// windows are shut when there is no control or the control is off.
func (w *VentWindow) openingRatio(idx int, rWArg float64) float64 {
	if w.ctrl == nil || !w.ctrl.IsOn(idx) {
		return 0.0
	}
	return rWArg
}

func (w *VentWindow) flowFromInternalP(idx int, windDirection, uSite, tE, tZ, pZRef float64, fCross bool, shield VentShieldClass, rWArg float64) (qmIn, qmOut float64) {
	rW := w.openingRatio(idx, rWArg)
	cpPath := windPressureCoeff(fCross, shield, w.z,
		facadeDirection(fCross, w.orientation, w.pitch, windDirection))

	// Flow coefficient of the whole window, BS EN 16798-7 Eqn 54.
	aW := rW * w.aMax
	cWPath := 3600.0 * cDWindow * aW * math.Pow(2.0/AirDensity, nWindow)

	var qvIn, qvOut float64
	for _, hDiv := range w.partHeights {
		deltaP := pressureDifferenceAtPath(hDiv, cpPath, uSite, tE, tZ, pZRef)
		// BS EN 16798-7 Eqn 53.
		qv := cWPath / float64(w.nDiv+1) * sign(deltaP) * math.Pow(math.Abs(deltaP), nWindow)
		splitFlow(qv, &qvIn, &qvOut)
	}
	return massFlowInOut(qvIn, qvOut, tE, tZ, w.pAAlt)
}

func sign(v float64) float64 {
	switch {
	case v > 0.0:
		return 1.0
	case v < 0.0:
		return -1.0
	default:
		return 0.0
	}
}
