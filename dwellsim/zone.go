package dwellsim

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// Convective fractions for internal and solar gains, default values
// from BS EN ISO 52016-1:2017 Table B.11.
const (
	fIntC = 0.4
	fSolC = 0.1
)

// Areal thermal capacity of air and furniture, default value from
// BS EN ISO 52016-1:2017 Table B.17, in J/(m2.K).
const kMInt = 10000.0

// VentHeatTransferCoeff returns the ventilation heat transfer
// coefficient, in W/K, for a zone of the given volume at the given air
// change rate.
func VentHeatTransferCoeff(volume, airChangesPerHour float64) float64 {
	qVe := airChangesPerHour * volume / SecondsPerHour
	return AirDensity * AirSpecificHeat * qVe
}

// SetpointBasis selects the temperature the heating and cooling
// setpoints are compared against.
type SetpointBasis int

const (
	SetpointBasisOperative SetpointBasis = iota
	SetpointBasisAir
)

func SetpointBasisFromString(s string) (SetpointBasis, error) {
	switch s {
	case "operative":
		return SetpointBasisOperative, nil
	case "air":
		return SetpointBasisAir, nil
	default:
		return 0, configErrorf("temperature setpoint basis", "%q not valid", s)
	}
}

// ZoneHeatBalance is the air node heat balance breakdown for one
// timestep, in W. Gains are positive, losses negative.
type ZoneHeatBalance struct {
	GainsSolar           float64
	GainsInternal        float64
	GainsHeatCool        float64
	EnergyToChangeTemp   float64
	LossThermalBridges   float64
	LossInfiltrationVent float64
	LossFabric           float64
}

// Zone is one thermal zone of the dwelling. The temperatures of the
// zone air and of every node in its building elements are found each
// timestep by solving the linear heat balance system of BS EN ISO
// 52016-1:2017 section 6.5.6.
type Zone struct {
	usefulArea       float64
	volume           float64
	elements         []BuildingElement
	tbHeatTransCoeff float64
	areaElTotal      float64
	cInt             float64

	// Row/column span of each element's nodes in the system: the first
	// index is the external surface node, the second the internal
	// surface node. The zone air temperature occupies the final row.
	elementPositions [][2]int
	zoneIdx          int
	noOfTemps        int

	tempPrev []float64

	useFastSolver bool
	basis         SetpointBasis
	ventCoolCtrl  *SetpointTimeControl
	setpntInit    float64
}

func NewZone(
	area, volume float64,
	elements []BuildingElement,
	thermalBridges []ThermalBridge,
	tempExtAirInit, tempSetpntInit float64,
	basis SetpointBasis,
	ventCoolCtrl *SetpointTimeControl,
	useFastSolver bool,
) (*Zone, error) {
	z := &Zone{
		usefulArea:       area,
		volume:           volume,
		elements:         elements,
		tbHeatTransCoeff: AggregateThermalBridges(thermalBridges),
		cInt:             kMInt * area,
		useFastSolver:    useFastSolver,
		basis:            basis,
		ventCoolCtrl:     ventCoolCtrl,
		setpntInit:       tempSetpntInit,
	}
	n := 0
	for _, el := range elements {
		z.areaElTotal += el.Area()
		z.elementPositions = append(z.elementPositions, [2]int{n, n + el.NumNodes() - 1})
		n += el.NumNodes()
	}
	z.zoneIdx = n
	z.noOfTemps = n + 1
	if err := z.initNodeTemps(tempExtAirInit, tempSetpntInit); err != nil {
		return nil, err
	}
	return z, nil
}

func (z *Zone) Area() float64       { return z.usefulArea }
func (z *Zone) Volume() float64     { return z.volume }
func (z *Zone) SetpntInit() float64 { return z.setpntInit }

// GainsSolar sums the solar gains of all elements in the zone, in W.
// Only transparent elements contribute.
func (z *Zone) GainsSolar(idx int) float64 {
	var gains float64
	for _, el := range z.elements {
		gains += el.SolarGains(idx)
	}
	return gains
}

// initNodeTemps stabilises the fabric node temperatures before the
// main simulation starts, by meeting all heating and cooling demand
// under steady conditions at a yearly timestep until the solution
// stops changing. The yearly timestep converges much faster than an
// hourly one and gives the same answer to around 5 significant
// figures.
func (z *Zone) initNodeTemps(tempExtAirInit, tempSetpntInit float64) error {
	const deltaTh = 8760.0
	deltaT := deltaTh * SecondsPerHour
	const fracConvective = 0.4

	// Start all nodes at the average of the external air and setpoint
	// temperatures: fabric temperatures are expected to span that range
	// from the outer to the inner surface.
	tempStart := (tempExtAirInit + tempSetpntInit) / 2.0
	z.tempPrev = make([]float64, z.noOfTemps)
	for i := range z.tempPrev {
		z.tempPrev[i] = tempStart
	}

	for iter := 0; iter < 10000; iter++ {
		heatDemand, coolDemand, _, _, err := z.SpaceHeatCoolDemand(
			0, deltaTh, tempExtAirInit,
			0.0, 0.0,
			fracConvective, fracConvective,
			tempSetpntInit, tempSetpntInit,
			tempExtAirInit,
			0.0, 0.0,
			nil, nil, ptr(0.0),
		)
		if err != nil {
			return err
		}
		// Only one of the demands is non-zero, and cooling is negative.
		gainsHeatCool := (heatDemand + coolDemand) * WPerKW / deltaTh

		tempsUpdated, _, err := z.calcTemperatures(
			0, deltaT, z.tempPrev, tempExtAirInit,
			0.0, 0.0, gainsHeatCool, fracConvective,
			0.0, tempExtAirInit,
		)
		if err != nil {
			return err
		}

		converged := true
		for i := range tempsUpdated {
			if !scalar.EqualWithinAbsOrRel(tempsUpdated[i], z.tempPrev[i], 1e-8, 1e-8) {
				converged = false
				break
			}
		}
		z.tempPrev = tempsUpdated
		if converged {
			return nil
		}
	}
	return configErrorf("Zone", "node temperatures did not stabilise during warm-up")
}

// calcTemperatures solves for the node and zone air temperatures per
// the procedure in BS EN ISO 52016-1:2017 section 6.5.6.
//
// A matrix equation A.X = B is assembled, where X holds one unknown
// temperature per node in each building element plus the zone air
// temperature, A holds the coefficients of the node and zone heat
// balance equations, and B holds their non-temperature terms.
func (z *Zone) calcTemperatures(
	idx int,
	deltaT float64,
	tempPrev []float64,
	tempExtAir, gainsInternal, gainsSolar, gainsHeatCool, fHcC, ach, avgSupplyTemp float64,
) ([]float64, ZoneHeatBalance, error) {
	hVe := VentHeatTransferCoeff(z.volume, ach)

	a := mat.NewDense(z.noOfTemps, z.noOfTemps, nil)
	b := mat.NewVecDense(z.noOfTemps, nil)

	// One term in eqn 39 sums A_elk/A_tot over all elements, which is 1
	// by definition of A_tot.
	const sumAreaFrac = 1.0

	for elIdx, el := range z.elements {
		// External surface node (eqn 41).
		row := z.elementPositions[elIdx][0]
		i := 0
		a.Set(row, row, el.KPli(i)/deltaT+el.HCe()+el.HRe()+el.HPli(i))
		a.Set(row, row+1, -el.HPli(i))
		iSolDir, iSolDif := el.ISolDirDif(idx)
		b.SetVec(row,
			el.KPli(i)/deltaT*tempPrev[row]+
				(el.HCe()+el.HRe())*el.TempExt(idx)+
				el.SolarAbsorptionCoeff()*(iSolDif+iSolDir)-
				el.ThermRadToSky())

		// Inside nodes (eqn 40).
		for i = 1; i <= el.NumInsideNodes(); i++ {
			row++
			a.Set(row, row-1, -el.HPli(i-1))
			a.Set(row, row, el.KPli(i)/deltaT+el.HPli(i)+el.HPli(i-1))
			a.Set(row, row+1, -el.HPli(i))
			b.SetVec(row, el.KPli(i)/deltaT*tempPrev[row])
		}

		// Internal surface node (eqn 39). The convective coefficient
		// depends on the direction of heat flow, judged from the
		// previous timestep's zone air and surface temperatures.
		row++
		hCi := el.HCi(tempPrev[z.zoneIdx], tempPrev[row])
		a.Set(row, row-1, -el.HPli(i-1))
		a.Set(row, row, el.KPli(i)/deltaT+hCi+el.HRi()*sumAreaFrac+el.HPli(i-1))
		// Radiative exchange with the internal surfaces of all elements
		// in the zone, adjusting rather than overwriting so the own
		// surface term set above is preserved.
		for elkIdx, elk := range z.elements {
			col := z.elementPositions[elkIdx][1]
			a.Set(row, col, a.At(row, col)-elk.Area()/z.areaElTotal*el.HRi())
		}
		a.Set(row, z.zoneIdx, -hCi)
		b.SetVec(row,
			el.KPli(i)/deltaT*tempPrev[row]+
				((1.0-fIntC)*gainsInternal+
					(1.0-fSolC)*gainsSolar+
					(1.0-fHcC)*gainsHeatCool)/z.areaElTotal)
	}

	// Zone air heat balance (eqn 38).
	zoneDiag := z.cInt/deltaT + hVe + z.tbHeatTransCoeff
	for elIdx, el := range z.elements {
		hCi := el.HCi(tempPrev[z.zoneIdx], tempPrev[z.elementPositions[elIdx][1]])
		zoneDiag += el.Area() * hCi
		a.Set(z.zoneIdx, z.elementPositions[elIdx][1], -el.Area()*hCi)
	}
	a.Set(z.zoneIdx, z.zoneIdx, zoneDiag)
	b.SetVec(z.zoneIdx,
		z.cInt/deltaT*tempPrev[z.zoneIdx]+
			hVe*avgSupplyTemp+
			z.tbHeatTransCoeff*tempExtAir+
			fIntC*gainsInternal+
			fSolC*gainsSolar+
			fHcC*gainsHeatCool)

	var temps []float64
	var err error
	if z.useFastSolver {
		temps, err = z.fastSolver(a, b)
	} else {
		var x mat.VecDense
		if solveErr := x.SolveVec(a, b); solveErr != nil {
			err = solveErr
		} else {
			temps = make([]float64, z.noOfTemps)
			copy(temps, x.RawVector().Data)
		}
	}
	if err != nil {
		return nil, ZoneHeatBalance{}, configErrorf("Zone", "heat balance solve failed: %v", err)
	}

	tempInternal := temps[z.zoneIdx]
	hb := ZoneHeatBalance{
		GainsSolar:           fSolC * gainsSolar,
		GainsInternal:        fIntC * gainsInternal,
		GainsHeatCool:        fHcC * gainsHeatCool,
		EnergyToChangeTemp:   -(z.cInt / deltaT) * (tempInternal - tempPrev[z.zoneIdx]),
		LossThermalBridges:   z.tbHeatTransCoeff * (tempInternal - tempExtAir),
		LossInfiltrationVent: hVe * (tempInternal - avgSupplyTemp),
	}
	hb.LossFabric = (hb.GainsSolar + hb.GainsInternal + hb.GainsHeatCool + hb.EnergyToChangeTemp) -
		(hb.LossThermalBridges + hb.LossInfiltrationVent)

	return temps, hb, nil
}

// fastSolver eliminates the non-interacting nodes of each building
// element by forward substitution before solving, reducing the dense
// system from one row per node to one row per internal surface plus
// the air node. The full solve is O(N^3) in the total node count, so
// this cuts runtime substantially for dwellings with many elements.
// Results may differ from the full solve in the last few digits due to
// reordering of floating-point operations.
//
// Within one element the node heat balances form a tridiagonal chain
// from the external surface inwards, so each equation can be folded
// into the next:
//
//	coeffAdj[i][i] = coeff[i][i] - coeff[i-1][i]*coeff[i][i-1]/coeffAdj[i-1][i-1]
//	rhsAdj[i] = rhs[i] - rhsAdj[i-1]*coeff[i][i-1]/coeffAdj[i-1][i-1]
//
// Only the internal surfaces interact across elements (by radiant
// exchange) and with the air node (by convection), so those rows keep
// the general matrix treatment. Once they are solved, the eliminated
// node temperatures are recovered in reverse order:
//
//	temp[i] = (rhsAdj[i] - coeff[i][i+1]*temp[i+1]) / coeffAdj[i][i]
func (z *Zone) fastSolver(coeffs *mat.Dense, rhs *mat.VecDense) ([]float64, error) {
	coeffsAdj := make([]float64, z.noOfTemps)
	rhsAdj := make([]float64, z.noOfTemps)

	numReduced := len(z.elements) + 1
	zoneIdxReduced := numReduced - 1
	a := mat.NewDense(numReduced, numReduced, nil)
	b := mat.NewVecDense(numReduced, nil)

	for elIdx := range z.elements {
		extIdx := z.elementPositions[elIdx][0]
		intIdx := z.elementPositions[elIdx][1]

		coeffsAdj[extIdx] = coeffs.At(extIdx, extIdx)
		rhsAdj[extIdx] = rhs.AtVec(extIdx)

		for i := extIdx + 1; i <= intIdx; i++ {
			coeffsAdj[i] = coeffs.At(i, i) -
				coeffs.At(i-1, i)*coeffs.At(i, i-1)/coeffsAdj[i-1]
			rhsAdj[i] = rhs.AtVec(i) -
				rhsAdj[i-1]*coeffs.At(i, i-1)/coeffsAdj[i-1]
		}

		a.Set(elIdx, elIdx, coeffsAdj[intIdx])
		b.SetVec(elIdx, rhsAdj[intIdx])

		for elkIdx := range z.elements {
			if elkIdx == elIdx {
				continue
			}
			a.Set(elIdx, elkIdx, coeffs.At(intIdx, z.elementPositions[elkIdx][1]))
		}
		a.Set(elIdx, zoneIdxReduced, coeffs.At(intIdx, z.zoneIdx))
		a.Set(zoneIdxReduced, elIdx, coeffs.At(z.zoneIdx, intIdx))
	}
	a.Set(zoneIdxReduced, zoneIdxReduced, coeffs.At(z.zoneIdx, z.zoneIdx))
	b.SetVec(zoneIdxReduced, rhs.AtVec(z.zoneIdx))

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, err
	}

	temps := make([]float64, z.noOfTemps)
	temps[z.zoneIdx] = x.AtVec(zoneIdxReduced)
	for elIdx := range z.elements {
		extIdx := z.elementPositions[elIdx][0]
		intIdx := z.elementPositions[elIdx][1]
		temps[intIdx] = x.AtVec(elIdx)
		for i := intIdx - 1; i >= extIdx; i-- {
			temps[i] = (rhsAdj[i] - coeffs.At(i, i+1)*temps[i+1]) / coeffsAdj[i]
		}
	}
	return temps, nil
}

// tempOperative returns the operative temperature per BS EN ISO
// 52016-1:2017 section 6.5.5.3: the average of the air temperature and
// the area-weighted mean of the internal surface temperatures.
func (z *Zone) tempOperative(temps []float64) float64 {
	var meanRadiant float64
	for elIdx, el := range z.elements {
		meanRadiant += el.Area() * temps[z.elementPositions[elIdx][1]]
	}
	meanRadiant /= z.areaElTotal
	return (temps[z.zoneIdx] + meanRadiant) / 2.0
}

// TempOperative returns the operative temperature, in degC.
func (z *Zone) TempOperative() float64 {
	return z.tempOperative(z.tempPrev)
}

// TempInternalAir returns the zone air temperature, in degC.
func (z *Zone) TempInternalAir() float64 {
	return z.tempPrev[z.zoneIdx]
}

// achReqToReachTemperature interpolates the air change rate needed to
// bring the zone to a target temperature, between the conditions at
// minimum and maximum ventilation. The cooling effect per unit of air
// flow shrinks as the zone cools towards the supply temperature, which
// the final correction term accounts for.
func (z *Zone) achReqToReachTemperature(
	tempTarget, achMin, achMax,
	tempAchMin, tempAchMax, tempIntAirMin, tempIntAirMax, tempSupply float64,
) float64 {
	if tempAchMax >= tempAchMin || tempIntAirMax >= tempIntAirMin || tempIntAirMin <= tempSupply {
		return achMin
	}

	fracInterp := (tempTarget - tempAchMin) / (tempAchMax - tempAchMin)
	tempIntAirReq := tempIntAirMin + fracInterp*(tempIntAirMax-tempIntAirMin)

	if tempIntAirReq <= tempSupply {
		return achMax
	}

	achReq := (achMax*fracInterp*
		((tempIntAirMax-tempSupply)/(tempIntAirMin-tempSupply)) +
		achMin*(1.0-fracInterp)) /
		((tempIntAirReq - tempSupply) / (tempIntAirMin - tempSupply))
	return math.Min(math.Max(achReq, achMin), achMax)
}

// calcCoolingPotentialFromVentilation works out how far opening the
// windows can cool the zone before any active cooling is needed, and
// the corresponding air change rate.
func (z *Zone) calcCoolingPotentialFromVentilation(
	idx int,
	deltaT, tempExtAir, gainsInternal, gainsSolar, gainsHeatCool, fracConvGainsHeatCool float64,
	tempSetpntHeat, tempSetpntCool, tempSetpntCoolVent float64,
	tempOperativeFree, tempIntAirFree float64,
	achCooling *float64,
	achWindowsOpen, achTarget *float64,
	avgSupplyTemp float64,
) (float64, float64, *float64, error) {
	var achToTriggerHeating *float64

	if achCooling == nil && achWindowsOpen != nil && achTarget != nil && *achWindowsOpen != *achTarget {
		tempsVentMax, _, err := z.calcTemperatures(
			idx, deltaT, z.tempPrev, tempExtAir,
			gainsInternal, gainsSolar, gainsHeatCool, fracConvGainsHeatCool,
			*achWindowsOpen, avgSupplyTemp,
		)
		if err != nil {
			return 0.0, 0.0, nil, err
		}
		tempOperativeVentMax := z.tempOperative(tempsVentMax)
		tempIntAirVentMax := tempsVentMax[z.zoneIdx]

		achToTriggerHeating = ptr(z.achReqToReachTemperature(
			tempSetpntHeat, *achTarget, *achWindowsOpen,
			tempOperativeFree, tempOperativeVentMax,
			tempIntAirFree, tempIntAirVentMax, avgSupplyTemp,
		))

		if tempOperativeVentMax < tempOperativeFree &&
			tempOperativeFree > tempSetpntCoolVent &&
			tempIntAirFree > avgSupplyTemp {
			achCool := z.achReqToReachTemperature(
				tempSetpntCoolVent, *achTarget, *achWindowsOpen,
				tempOperativeFree, tempOperativeVentMax,
				tempIntAirFree, tempIntAirVentMax, avgSupplyTemp,
			)
			achCooling = &achCool

			tempsVentExtra, _, err := z.calcTemperatures(
				idx, deltaT, z.tempPrev, tempExtAir,
				gainsInternal, gainsSolar, gainsHeatCool, fracConvGainsHeatCool,
				achCool, avgSupplyTemp,
			)
			if err != nil {
				return 0.0, 0.0, nil, err
			}
			tempOperativeFreeVentExtra := z.tempOperative(tempsVentExtra)

			// If extra ventilation cannot get below the active cooling
			// setpoint, assume the cooling system is used instead.
			if tempOperativeFreeVentExtra > tempSetpntCool {
				achCooling = achTarget
			} else {
				tempOperativeFree = tempOperativeFreeVentExtra
			}
		}
	}

	if achCooling == nil {
		if achTarget != nil {
			achCooling = achTarget
		} else {
			achCooling = ptr(0.0)
		}
	}
	return tempOperativeFree, *achCooling, achToTriggerHeating, nil
}

// interpHeatCoolDemand interpolates the load needed to reach the
// setpoint from the free-floating and maximum-output conditions,
// comparing on the configured temperature basis.
func (z *Zone) interpHeatCoolDemand(
	deltaTh, tempSetpnt, heatCoolLoadUpper,
	tempOperativeFree, tempOperativeUpper, tempIntAirFree, tempIntAirUpper float64,
) (float64, error) {
	var loadUnrestricted float64
	switch z.basis {
	case SetpointBasisOperative:
		if tempOperativeUpper-tempOperativeFree == 0.0 {
			return 0.0, configErrorf("Zone", "zero temperature response in demand calculation; check element heat capacities")
		}
		loadUnrestricted = heatCoolLoadUpper *
			(tempSetpnt - tempOperativeFree) / (tempOperativeUpper - tempOperativeFree)
	case SetpointBasisAir:
		if tempIntAirUpper-tempIntAirFree == 0.0 {
			return 0.0, configErrorf("Zone", "zero temperature response in demand calculation; check element heat capacities")
		}
		loadUnrestricted = heatCoolLoadUpper *
			(tempSetpnt - tempIntAirFree) / (tempIntAirUpper - tempIntAirFree)
	default:
		return 0.0, configErrorf("Zone", "invalid temperature setpoint basis")
	}
	return loadUnrestricted / WPerKW * deltaTh, nil
}

// SpaceHeatCoolDemand calculates the heating and cooling demand of the
// zone for the current timestep per BS EN ISO 52016-1:2017 section
// 6.5.5.2 steps 1 to 4: solve free-floating, solve again with an upper
// trial load of +/-10 W/m2, and interpolate the load that reaches the
// active setpoint.
//
// Returns the space heating demand (positive, kWh), space cooling
// demand (negative, kWh), the air change rate assumed for cooling, and
// the air change rate beyond which heating would be triggered (nil
// when window-opening ventilation was not evaluated).
func (z *Zone) SpaceHeatCoolDemand(
	idx int,
	deltaTh, tempExtAir, gainsInternal, gainsSolar float64,
	fracConvectiveHeat, fracConvectiveCool float64,
	tempSetpntHeat, tempSetpntCool, avgAirSupplyTemp float64,
	gainsHeatCoolConvective, gainsHeatCoolRadiative float64,
	achWindowsOpen, achTarget, achCooling *float64,
) (float64, float64, float64, *float64, error) {
	if tempSetpntCool < tempSetpntHeat {
		return 0, 0, 0, nil, configErrorf("Zone", "cooling setpoint %g below heating setpoint %g", tempSetpntCool, tempSetpntHeat)
	}

	// With no control for ventilation response to high temperature, the
	// threshold is set unreachably high so it never triggers.
	tempSetpntCoolVent := math.Inf(1)
	if z.ventCoolCtrl != nil {
		if setpnt := z.ventCoolCtrl.Setpnt(idx); setpnt != nil {
			tempSetpntCoolVent = *setpnt
		}
		if tempSetpntCoolVent < tempSetpntHeat {
			return 0, 0, 0, nil, configErrorf("Zone", "ventilation setpoint %g below heating setpoint %g", tempSetpntCoolVent, tempSetpntHeat)
		}
	}

	deltaT := deltaTh * SecondsPerHour

	gainsHeatCool := gainsHeatCoolConvective + gainsHeatCoolRadiative
	fracConvGainsHeatCool := 0.0
	if gainsHeatCool != 0.0 {
		fracConvGainsHeatCool = gainsHeatCoolConvective / gainsHeatCool
	}

	achFree := achTarget
	if achCooling != nil {
		achFree = achCooling
	}
	achFreeVal := 0.0
	if achFree != nil {
		achFreeVal = *achFree
	}

	tempsNoHeatCool, _, err := z.calcTemperatures(
		idx, deltaT, z.tempPrev, tempExtAir,
		gainsInternal, gainsSolar, gainsHeatCool, fracConvGainsHeatCool,
		achFreeVal, avgAirSupplyTemp,
	)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	tempOperativeFree := z.tempOperative(tempsNoHeatCool)
	tempIntAirFree := tempsNoHeatCool[z.zoneIdx]

	tempOperativeFree, achCoolingVal, achToTriggerHeating, err := z.calcCoolingPotentialFromVentilation(
		idx, deltaT, tempExtAir, gainsInternal, gainsSolar, gainsHeatCool, fracConvGainsHeatCool,
		tempSetpntHeat, tempSetpntCool, tempSetpntCoolVent,
		tempOperativeFree, tempIntAirFree,
		achCooling, achWindowsOpen, achTarget, avgAirSupplyTemp,
	)
	if err != nil {
		return 0, 0, 0, nil, err
	}

	var tempSetpnt, heatCoolLoadUpper, fracConvective float64
	switch {
	case tempOperativeFree > tempSetpntCool:
		tempSetpnt = tempSetpntCool
		heatCoolLoadUpper = -10.0 * z.usefulArea
		fracConvective = fracConvectiveCool
	case tempOperativeFree < tempSetpntHeat:
		tempSetpnt = tempSetpntHeat
		heatCoolLoadUpper = 10.0 * z.usefulArea
		fracConvective = fracConvectiveHeat
	default:
		return 0.0, 0.0, achCoolingVal, achToTriggerHeating, nil
	}

	gainsHeatCoolUpper := gainsHeatCool + heatCoolLoadUpper
	fracConvectiveUpper := (gainsHeatCool*fracConvGainsHeatCool +
		heatCoolLoadUpper*fracConvective) / gainsHeatCoolUpper
	tempsUpper, _, err := z.calcTemperatures(
		idx, deltaT, z.tempPrev, tempExtAir,
		gainsInternal, gainsSolar, gainsHeatCoolUpper, fracConvectiveUpper,
		achCoolingVal, avgAirSupplyTemp,
	)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	tempOperativeUpper := z.tempOperative(tempsUpper)

	heatCoolDemand, err := z.interpHeatCoolDemand(
		deltaTh, tempSetpnt, heatCoolLoadUpper,
		tempOperativeFree, tempOperativeUpper,
		tempIntAirFree, tempsUpper[z.zoneIdx],
	)
	if err != nil {
		return 0, 0, 0, nil, err
	}

	var spaceHeatDemand, spaceCoolDemand float64
	if heatCoolDemand < 0.0 {
		spaceCoolDemand = heatCoolDemand
	} else {
		spaceHeatDemand = heatCoolDemand
	}
	return spaceHeatDemand, spaceCoolDemand, achCoolingVal, achToTriggerHeating, nil
}

// UpdateTemperatures commits the node and zone air temperatures for the
// current timestep with the heating or cooling actually delivered, so
// they become the starting point of the next timestep.
func (z *Zone) UpdateTemperatures(
	idx int,
	deltaT, tempExtAir, gainsInternal, gainsSolar, gainsHeatCool, fracConvective, ach, avgSupplyTemp float64,
) (ZoneHeatBalance, error) {
	temps, hb, err := z.calcTemperatures(
		idx, deltaT, z.tempPrev, tempExtAir,
		gainsInternal, gainsSolar, gainsHeatCool, fracConvective,
		ach, avgSupplyTemp,
	)
	if err != nil {
		return ZoneHeatBalance{}, err
	}
	z.tempPrev = temps
	return hb, nil
}

// TotalFabricHeatLoss returns the total fabric heat loss of all
// building elements in the zone, in W/K.
func (z *Zone) TotalFabricHeatLoss() float64 {
	var total float64
	for _, el := range z.elements {
		total += el.FabricHeatLoss()
	}
	return total
}

// TotalHeatLossArea returns the total heat loss area, in m2. Elements
// adjoining other conditioned zones do not lose heat and are excluded.
func (z *Zone) TotalHeatLossArea() float64 {
	var total float64
	for _, el := range z.elements {
		if _, ok := el.(*AdjacentConditionedElement); ok {
			continue
		}
		total += el.Area()
	}
	return total
}

// TotalHeatCapacity returns the total heat capacity of the building
// elements in the zone, in kJ/K.
func (z *Zone) TotalHeatCapacity() float64 {
	var total float64
	for _, el := range z.elements {
		total += el.HeatCapacity()
	}
	return total
}

// TotalThermalBridges returns the overall thermal bridge heat transfer
// coefficient of the zone, in W/K.
func (z *Zone) TotalThermalBridges() float64 {
	return z.tbHeatTransCoeff
}
