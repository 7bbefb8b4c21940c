package dwellsim

import "math"

// GroundFloorType selects the ground heat transfer sub-model, per
// BS EN ISO 13370:2017 Annex H.
type GroundFloorType int

const (
	SlabNoEdgeInsulation GroundFloorType = iota
	SlabEdgeInsulation
	SuspendedFloor
	HeatedBasement
	UnheatedBasement
)

func GroundFloorTypeFromString(s string) (GroundFloorType, error) {
	switch s {
	case "Slab_no_edge_insulation":
		return SlabNoEdgeInsulation, nil
	case "Slab_edge_insulation":
		return SlabEdgeInsulation, nil
	case "Suspended_floor":
		return SuspendedFloor, nil
	case "Heated_basement":
		return HeatedBasement, nil
	case "Unheated_basement":
		return UnheatedBasement, nil
	default:
		return 0, configErrorf("floor_type", "%q not valid", s)
	}
}

// EdgeInsulation describes one horizontal or vertical edge insulation
// layer of a slab-on-ground floor.
type EdgeInsulation struct {
	Type                  string  `json:"type"` // "horizontal" or "vertical"
	Width                 float64 `json:"width"`
	Depth                 float64 `json:"depth"`
	EdgeThermalResistance float64 `json:"edge_thermal_resistance"`
}

// WindShieldLocation classifies the exposure of a suspended floor's
// underfloor space (BS EN ISO 13370:2017 Table 8).
type WindShieldLocation int

const (
	WindShieldSheltered WindShieldLocation = iota
	WindShieldAverage
	WindShieldExposed
)

func WindShieldLocationFromString(s string) (WindShieldLocation, error) {
	switch s {
	case "Sheltered":
		return WindShieldSheltered, nil
	case "Average":
		return WindShieldAverage, nil
	case "Exposed":
		return WindShieldExposed, nil
	default:
		return 0, configErrorf("shield_fact_location", "%q not valid", s)
	}
}

func (w WindShieldLocation) factor() float64 {
	switch w {
	case WindShieldSheltered:
		return 0.02
	case WindShieldExposed:
		return 0.10
	default:
		return 0.05
	}
}

// Thermal properties of the ground from BS EN ISO 13370:2017 Tables 7 and
// H.1, using the values for clay or silt.
const (
	groundThermalConductivity = 1.5       // W/(m.K)
	groundHeatCapacityPerVol  = 3000000.0 // J/(m3.K)
	periodicPenetrationDepth  = 2.2       // m
	groundLayerThickness      = 0.5       // m, BS EN ISO 52016-1:2017 section 6.5.8.2
	groundFloorRSi            = 0.17      // m2.K/W, ISO 6946 internal surface resistance
)

// Mean monthly internal temperatures assumed for the virtual ground
// temperature calculation. Based on notional building runs for five
// archetypes used for inter-model comparison; the average of the monthly
// mean internal temperatures from each run was taken.
var groundTempIntMonthly = [12]float64{
	19.46399546, 19.66940204, 19.90785898, 20.19719837, 20.37461865, 20.45679018,
	20.46767703, 20.46860812, 20.43505593, 20.22266322, 19.82726777, 19.45430847,
}

func averageMonthlyToAnnual(monthly [12]float64) float64 {
	var sum float64
	var days int
	for m, v := range monthly {
		sum += v * float64(daysInMonth[m])
		days += daysInMonth[m]
	}
	return sum / float64(days)
}

// GroundElementConfig collects the inputs of a ground floor element.
// Area, UValue and Perimeter describe the entire ground floor of the
// dwelling even when it is divided among several zones; ZoneArea is the
// part within this zone.
type GroundElementConfig struct {
	Name                 string
	TotalArea            float64
	ZoneArea             float64
	Pitch                float64
	UValue               float64
	RFloorConstruction   float64 // resistance of the floor construction layers only, m2.K/W
	ArealHeatCapacity    float64
	MassClass            MassDistributionClass
	FloorType            GroundFloorType
	EdgeInsulation       []EdgeInsulation
	HeightUpperSurface   float64 // h_upper, m
	UFloorAboveBasement  float64 // u_f_s, W/(m2.K)
	UWallsAboveGround    float64 // u_w, W/(m2.K)
	VentAreaPerPerimeter float64 // m2/m
	WindShield           WindShieldLocation
	WallThickness        float64 // d_we, m
	RFloorInsulation     float64 // r_f_ins, m2.K/W
	BasementDepth        float64 // z_b, m
	RBasementWalls       float64 // r_w_b, m2.K/W
	BasementWallHeight   float64 // h_w, m
	Perimeter            float64
	PsiWallFloorJunc     float64 // W/(m.K)
}

// GroundElement represents a floor in contact with the ground. The ground
// is modelled as a fixed layer below the floor construction plus a
// virtual layer whose temperature varies with the season, per
// BS EN ISO 13370:2017.
type GroundElement struct {
	elementBase
	simTime          *SimulationTime
	uValue           float64
	totalArea        float64
	perimeter        float64
	psiWallFloorJunc float64
	tempIntAnnual    float64
	hPi              float64
	hPe              float64
	hCe              float64
}

func NewGroundElement(cfg GroundElementConfig, extCond *ExternalConditions, simTime *SimulationTime) (*GroundElement, error) {
	if err := validatePitch("GroundElement."+cfg.Name, cfg.Pitch); err != nil {
		return nil, err
	}
	if cfg.UValue <= 0.0 {
		return nil, configErrorf("GroundElement."+cfg.Name, "u_value must be positive, got %g", cfg.UValue)
	}

	rGr := groundLayerThickness / groundThermalConductivity
	kGr := groundLayerThickness * groundHeatCapacityPerVol

	// Thermal resistance of the virtual layer, BS EN ISO 13370:2017 Eqn F.1.
	// Table 2 validity interval requires r_vi > 0.
	rVi := 1.0/cfg.UValue - groundFloorRSi - cfg.RFloorConstruction - rGr
	if rVi <= 0.0 {
		return nil, configErrorf("GroundElement."+cfg.Name,
			"virtual layer resistance must be positive; check u_value and floor construction resistance")
	}

	e := &GroundElement{
		elementBase: elementBase{
			name:          cfg.Name,
			extCond:       extCond,
			area:          cfg.ZoneArea,
			pitch:         cfg.Pitch,
			externalPitch: cfg.Pitch,
		},
		simTime:          simTime,
		uValue:           cfg.UValue,
		totalArea:        cfg.TotalArea,
		perimeter:        cfg.Perimeter,
		psiWallFloorJunc: cfg.PsiWallFloorJunc,
		tempIntAnnual:    averageMonthlyToAnnual(groundTempIntMonthly),
		hCe:              1.0 / rVi,
	}
	e.initThreePlusTwoNodes(cfg.RFloorConstruction, rGr, cfg.MassClass, kGr, cfg.ArealHeatCapacity)

	dEq := cfg.WallThickness + groundThermalConductivity*(groundFloorRSi+cfg.RFloorConstruction+RSe)
	hPi, hPe, err := periodicHeatTransfer(cfg, extCond, dEq)
	if err != nil {
		return nil, err
	}
	e.hPi, e.hPe = hPi, hPe
	return e, nil
}

// initThreePlusTwoNodes sets node conductances and capacities for the
// ground floor element: three nodes for the floor construction plus two
// for the fixed ground layer. The resistance of the floor construction
// only is used, as r_si, r_gr and r_vi are accounted for separately.
func (e *GroundElement) initThreePlusTwoNodes(rF, rGr float64, massClass MassDistributionClass, kGr, arealHeatCapacity float64) {
	e.hPli = []float64{
		2.0 / rGr,
		1.0 / (rF/4.0 + rGr/2.0),
		2.0 / rF,
		4.0 / rF,
	}
	switch massClass {
	case MassDistI:
		e.kPli = []float64{0.0, kGr, 0.0, 0.0, arealHeatCapacity}
	case MassDistE:
		e.kPli = []float64{0.0, kGr, arealHeatCapacity, 0.0, 0.0}
	case MassDistIE:
		kIE := arealHeatCapacity / 2.0
		e.kPli = []float64{0.0, kGr, kIE, 0.0, kIE}
	case MassDistD:
		kInner := arealHeatCapacity / 2.0
		kOuter := arealHeatCapacity / 4.0
		e.kPli = []float64{0.0, kGr, kOuter, kInner, kOuter}
	case MassDistM:
		e.kPli = []float64{0.0, kGr, 0.0, arealHeatCapacity, 0.0}
	}
}

// periodicHeatTransfer returns the internal (h_pi) and external (h_pe)
// periodic heat transfer coefficients per BS EN ISO 13370:2017 Annex H.
func periodicHeatTransfer(cfg GroundElementConfig, extCond *ExternalConditions, dEq float64) (hPi, hPe float64, err error) {
	delta := periodicPenetrationDepth
	lambda := groundThermalConductivity
	area := cfg.TotalArea
	perim := cfg.Perimeter

	// H.4.1, H.5.1: internal temperature variation.
	internalTempVariation := func() float64 {
		return area * (lambda / dEq) * math.Sqrt(2.0/(math.Pow(1.0+delta/dEq, 2.0)+1.0))
	}

	// Additional equivalent thickness of an edge insulation layer.
	addEqThickness := func(dn, rn float64) float64 {
		return (rn - dn/lambda) * lambda
	}

	// The 0.37 factor below is a constant in the standard, not labelled.
	hPeHorizontal := func(dh, rn float64) float64 {
		dAdd := addEqThickness(dh, rn)
		return 0.37 * perim * lambda *
			((1.0-math.Exp(-dh/delta))*math.Log(delta/(dEq+dAdd)+1.0) +
				math.Exp(-dh/delta)*math.Log(delta/dEq+1.0))
	}
	hPeVertical := func(dv, rn float64) float64 {
		dAdd := addEqThickness(dv, rn)
		return 0.37 * perim * lambda *
			((1.0-math.Exp(-2.0*dv/delta))*math.Log(delta/(dEq+dAdd)+1.0) +
				math.Exp(-2.0*dv/delta)*math.Log(delta/dEq+1.0))
	}

	switch cfg.FloorType {
	case SlabNoEdgeInsulation:
		hPi = internalTempVariation()
		hPe = 0.37 * perim * lambda * math.Log(delta/dEq+1.0)
		return hPi, hPe, nil

	case SlabEdgeInsulation:
		hPi = internalTempVariation()
		if len(cfg.EdgeInsulation) == 0 {
			return 0, 0, configErrorf("GroundElement."+cfg.Name, "edge insulation required for Slab_edge_insulation")
		}
		hPe = math.Inf(1)
		for _, edge := range cfg.EdgeInsulation {
			var h float64
			switch edge.Type {
			case "horizontal":
				h = hPeHorizontal(edge.Width, edge.EdgeThermalResistance)
			case "vertical":
				h = hPeVertical(edge.Depth, edge.EdgeThermalResistance)
			default:
				return 0, 0, configErrorf("GroundElement."+cfg.Name, "edge insulation type %q not valid", edge.Type)
			}
			hPe = math.Min(hPe, h)
		}
		return hPi, hPe, nil

	case SuspendedFloor:
		// H.6: thermal transmittance of the suspended part of the floor,
		// the equivalent transmittance of the underfloor space, and the
		// equivalent thickness of the ground.
		uF := 1.0 / (cfg.RFloorConstruction + 2.0*groundFloorRSi)
		charDimen := area / (0.5 * perim)
		// 1450 is a constant in the standard, not labelled.
		uX := 2.0*(cfg.HeightUpperSurface*cfg.UWallsAboveGround/charDimen) +
			1450.0*cfg.VentAreaPerPerimeter*extCond.WindSpeedAnnual()*cfg.WindShield.factor()/charDimen
		dG := cfg.WallThickness + lambda*(groundFloorRSi+cfg.RFloorInsulation+RSe)

		hPi = area * (1.0/uF + 1.0/(lambda/delta+uX))
		hPe = uF * (0.37*perim*lambda*math.Log(delta/dG+1.0) + uX*area) /
			(lambda/delta + uX + uF)
		return hPi, hPe, nil

	case HeatedBasement:
		dWb := lambda * (groundFloorRSi + cfg.RBasementWalls + RSe)
		hPi = area*(lambda/dEq)*math.Sqrt(2.0/(math.Pow(1.0+delta/dEq, 2.0)+1.0)) +
			cfg.BasementDepth*perim*(lambda/dWb)*math.Sqrt(2.0/(math.Pow(1.0+delta/dWb, 2.0)+1.0))
		hPe = 0.37 * perim * lambda *
			(math.Exp(-cfg.BasementDepth/delta)*math.Log(delta/dEq+1.0) +
				2.0*(1.0-math.Exp(-cfg.BasementDepth/delta))*math.Log(delta/dWb+1.0))
		return hPi, hPe, nil

	case UnheatedBasement:
		const thermalCapacityAir = 0.33 // Wh/(m3.K)
		const ventRateBase = 0.3        // ach, BS EN ISO 13370:2017 section 7.4
		airVolBase := area * (cfg.BasementWallHeight + cfg.BasementDepth)

		hPi = 1.0 / (1.0/(area*cfg.UFloorAboveBasement) +
			1.0/((area+cfg.BasementDepth*perim)*lambda/delta+
				cfg.BasementWallHeight*perim*cfg.UWallsAboveGround+
				thermalCapacityAir*ventRateBase*airVolBase))
		hPe = area * cfg.UFloorAboveBasement *
			(0.37*perim*lambda*(2.0-math.Exp(-cfg.BasementDepth/delta))*math.Log(delta/dEq+1.0) +
				cfg.BasementWallHeight*perim*cfg.UWallsAboveGround +
				thermalCapacityAir*ventRateBase*airVolBase) /
			((area+cfg.BasementDepth*perim)*lambda/delta +
				cfg.BasementWallHeight*perim*cfg.UWallsAboveGround +
				thermalCapacityAir*ventRateBase*airVolBase +
				area*cfg.UFloorAboveBasement)
		return hPi, hPe, nil

	default:
		return 0, 0, configErrorf("GroundElement."+cfg.Name, "floor type not valid")
	}
}

// HCe returns the conductance of the virtual ground layer, set per
// BS EN ISO 52016-1:2017 eqn 49.
func (e *GroundElement) HCe() float64 { return e.hCe }
func (e *GroundElement) HRe() float64 { return 0.0 }

// TempExt returns the virtual ground temperature for the month containing
// timestep idx, per BS EN ISO 13370:2017 Eqns C.4 and F.2.
func (e *GroundElement) TempExt(idx int) float64 {
	tempExtAnnual := e.extCond.AirTempAnnual()
	tempExtMonth := e.extCond.AirTempMonthly(idx)
	tempIntMonth := groundTempIntMonthly[e.simTime.CurrentMonth(idx)]

	heatFlowMonth := e.uValue*e.totalArea*(e.tempIntAnnual-tempExtAnnual) +
		e.perimeter*e.psiWallFloorJunc*(tempIntMonth-tempExtMonth) -
		e.hPi*(e.tempIntAnnual-tempIntMonth) +
		e.hPe*(tempExtAnnual-tempExtMonth)

	return tempIntMonth -
		(heatFlowMonth-e.perimeter*e.psiWallFloorJunc*(e.tempIntAnnual-tempExtAnnual))/
			(e.totalArea*e.uValue)
}

func (e *GroundElement) FabricHeatLoss() float64 {
	return e.area * e.uValue
}
