package dwellsim

import "math"

// Fabric heat transfer per BS EN ISO 52016-1:2017 section 6.5.7: each
// building element is a chain of nodes with conductances h_pli between
// them and areal heat capacities k_pli on them. Node 0 faces the external
// environment (or the ground), the last node is the internal surface.

// Heat transfer coefficients from BS EN ISO 52016-1:2017 Table 25.
const (
	HCiUpwards    = 5.0  // W/(m2.K)
	HCiHorizontal = 2.5  // W/(m2.K)
	HCiDownwards  = 0.7  // W/(m2.K)
	HCe           = 20.0 // W/(m2.K)
	HRi           = 5.13 // W/(m2.K)
	HRe           = 4.14 // W/(m2.K)
)

// Surface resistances implied by the fixed heat transfer coefficients.
const (
	RSiHorizontal = 1.0 / (HRi + HCiHorizontal)
	RSiUpwards    = 1.0 / (HRi + HCiUpwards)
	RSiDownwards  = 1.0 / (HRi + HCiDownwards)
	RSe           = 1.0 / (HCe + HRe)
)

// Pitch angles between which an element is treated as roughly horizontal.
const (
	PitchLimitHorizCeiling = 60.0
	PitchLimitHorizFloor   = 120.0
)

// TempDiffSky is the difference between air temperature and sky
// temperature, in K (BS EN ISO 52016-1:2017 section 6.5.13.3).
const TempDiffSky = 11.0

// HeatFlowDirection is the direction of heat flow through an element
// surface, which determines the internal convection coefficient.
type HeatFlowDirection int

const (
	HeatFlowHorizontal HeatFlowDirection = iota
	HeatFlowUpwards
	HeatFlowDownwards
)

// MassDistributionClass places the areal heat capacity of an element on
// its nodes (BS EN ISO 52016-1:2017 Table B.13).
type MassDistributionClass int

const (
	MassDistI  MassDistributionClass = iota // mass concentrated on internal side
	MassDistE                               // mass concentrated on external side
	MassDistIE                              // mass divided between internal and external side
	MassDistD                               // mass equally distributed
	MassDistM                               // mass concentrated inside
)

func MassDistributionClassFromString(s string) (MassDistributionClass, error) {
	switch s {
	case "I":
		return MassDistI, nil
	case "E":
		return MassDistE, nil
	case "IE":
		return MassDistIE, nil
	case "D":
		return MassDistD, nil
	case "M":
		return MassDistM, nil
	default:
		return 0, configErrorf("mass_distribution_class", "%q not valid", s)
	}
}

// skyViewFactor returns the view factor to the sky of an unshaded surface
// with the given pitch, per BS EN ISO 52016-1:2017 section 6.5.13.3.
func skyViewFactor(pitch float64) float64 {
	return 0.5 * (1.0 + math.Cos(pitch*math.Pi/180.0))
}

// projectedHeight returns the height of a tilted surface projected onto
// the vertical plane.
func projectedHeight(tilt, height float64) float64 {
	return height * math.Sin(tilt*math.Pi/180.0)
}

// pitchClass classifies a surface pitch by its heat flow regime.
func pitchClass(pitch float64) HeatFlowDirection {
	switch {
	case pitch >= PitchLimitHorizCeiling && pitch <= PitchLimitHorizFloor:
		return HeatFlowHorizontal
	case pitch < PitchLimitHorizCeiling:
		return HeatFlowUpwards
	default:
		return HeatFlowDownwards
	}
}

func rSiForPitch(pitch float64) float64 {
	switch pitchClass(pitch) {
	case HeatFlowHorizontal:
		return RSiHorizontal
	case HeatFlowUpwards:
		return RSiUpwards
	default:
		return RSiDownwards
	}
}

// ConvertUValueToResistance converts a U-value of an element with the
// given pitch to the thermal resistance of the construction only.
func ConvertUValueToResistance(uValue, pitch float64) float64 {
	return 1.0/uValue - rSiForPitch(pitch) - RSe
}

// validatePitch normalises and checks a surface pitch.
func validatePitch(field string, pitch float64) error {
	if pitch < 0.0 || pitch > 180.0 {
		return configErrorf(field, "pitch must be between 0 and 180 degrees, got %g", pitch)
	}
	return nil
}

// BuildingElement is one fabric element of a zone: an opaque or
// transparent part of the envelope, a ground floor, or a partition to an
// adjacent space.
type BuildingElement interface {
	Name() string
	Area() float64
	Pitch() float64
	NumNodes() int
	NumInsideNodes() int

	// HPli returns the conductance between nodes i and i+1, in W/(m2.K).
	HPli(i int) float64
	// KPli returns the areal heat capacity on node i, in J/(m2.K).
	KPli(i int) float64

	HCe() float64
	HRe() float64
	HCi(tempIntAir, tempIntSurface float64) float64
	HRi() float64
	RSi() float64

	// TempExt returns the temperature on the other side of the element at
	// timestep idx, in degC.
	TempExt(idx int) float64
	// ThermRadToSky returns thermal radiation to the sky, in W/m2.
	ThermRadToSky() float64
	// SolarAbsorptionCoeff is the absorption coefficient of the external
	// surface (zero for unexposed elements).
	SolarAbsorptionCoeff() float64
	// ISolDirDif returns direct and diffuse solar irradiance on the
	// element at timestep idx, in W/m2.
	ISolDirDif(idx int) (dir, dif float64)
	// SolarGains returns solar gains transmitted through the element into
	// the zone at timestep idx, in W (zero for opaque elements).
	SolarGains(idx int) float64

	// FabricHeatLoss returns the heat transfer coefficient A*U, in W/K.
	FabricHeatLoss() float64
	// HeatCapacity returns the heat capacity of the element, in kJ/K.
	HeatCapacity() float64
}

// elementBase carries state and behaviour common to all element types.
type elementBase struct {
	name          string
	extCond       *ExternalConditions
	area          float64
	pitch         float64 // pitch used for internal surface coefficients
	externalPitch float64 // pitch of the exposed face
	rc            float64
	km            float64
	hPli          []float64
	kPli          []float64
	fSky          float64
	thermRadToSky float64
}

func (e *elementBase) Name() string        { return e.name }
func (e *elementBase) Area() float64       { return e.area }
func (e *elementBase) Pitch() float64      { return e.pitch }
func (e *elementBase) NumNodes() int       { return len(e.kPli) }
func (e *elementBase) NumInsideNodes() int { return len(e.kPli) - 2 }

func (e *elementBase) HPli(i int) float64 { return e.hPli[i] }
func (e *elementBase) KPli(i int) float64 { return e.kPli[i] }

func (e *elementBase) HCe() float64 { return HCe }
func (e *elementBase) HRe() float64 { return HRe }
func (e *elementBase) HRi() float64 { return HRi }

func (e *elementBase) HCi(tempIntAir, tempIntSurface float64) float64 {
	switch e.heatFlowDirection(tempIntAir, tempIntSurface) {
	case HeatFlowHorizontal:
		return HCiHorizontal
	case HeatFlowUpwards:
		return HCiUpwards
	default:
		return HCiDownwards
	}
}

// heatFlowDirection determines the direction of heat flow at the internal
// surface for the current temperatures.
func (e *elementBase) heatFlowDirection(tempIntAir, tempIntSurface float64) HeatFlowDirection {
	if e.pitch >= PitchLimitHorizCeiling && e.pitch <= PitchLimitHorizFloor {
		return HeatFlowHorizontal
	}
	// Elements not horizontal: direction depends on whether the zone is
	// warmer than the surface.
	isFloor := e.pitch > PitchLimitHorizFloor
	heatingZone := tempIntAir < tempIntSurface
	if isFloor == heatingZone {
		return HeatFlowUpwards
	}
	return HeatFlowDownwards
}

func (e *elementBase) RSi() float64 { return rSiForPitch(e.pitch) }

func (e *elementBase) TempExt(idx int) float64 {
	return e.extCond.AirTemp(idx)
}

func (e *elementBase) ThermRadToSky() float64 { return e.thermRadToSky }

func (e *elementBase) SolarAbsorptionCoeff() float64 { return 0.0 }

func (e *elementBase) ISolDirDif(idx int) (float64, float64) { return 0.0, 0.0 }

func (e *elementBase) SolarGains(idx int) float64 { return 0.0 }

func (e *elementBase) FabricHeatLoss() float64 {
	uValue := 1.0 / (e.rc + RSe + e.RSi())
	return e.area * uValue
}

func (e *elementBase) HeatCapacity() float64 {
	return e.area * e.km / 1000.0
}

// initFiveNodes sets node conductances and capacities for the standard
// five-node element (BS EN ISO 52016-1:2017 section 6.5.7.2).
func (e *elementBase) initFiveNodes(rc float64, massClass MassDistributionClass, arealHeatCapacity float64) {
	hOuter := 6.0 / rc
	hInner := 3.0 / rc
	e.hPli = []float64{hOuter, hInner, hInner, hOuter}

	switch massClass {
	case MassDistI:
		e.kPli = []float64{0.0, 0.0, 0.0, 0.0, arealHeatCapacity}
	case MassDistE:
		e.kPli = []float64{arealHeatCapacity, 0.0, 0.0, 0.0, 0.0}
	case MassDistIE:
		kIE := arealHeatCapacity / 2.0
		e.kPli = []float64{kIE, 0.0, 0.0, 0.0, kIE}
	case MassDistD:
		kInner := arealHeatCapacity / 4.0
		kOuter := arealHeatCapacity / 8.0
		e.kPli = []float64{kOuter, kInner, kInner, kInner, kOuter}
	case MassDistM:
		e.kPli = []float64{0.0, 0.0, arealHeatCapacity, 0.0, 0.0}
	}
}

// initOtherSideSky sets the sky radiation term for elements facing the
// outdoor environment.
func (e *elementBase) initOtherSideSky(externalPitch float64) {
	e.fSky = skyViewFactor(externalPitch)
	e.thermRadToSky = e.fSky * HRe * TempDiffSky
}

// OpaqueElement represents walls, roofs and other opaque envelope parts.
type OpaqueElement struct {
	elementBase
	solarAbsorptionCoeff float64
	orientation          float64
}

// NewOpaqueElement builds an opaque element. The external surface absorbs
// solar radiation. An unheated pitched roof above the zone is treated as
// horizontal for internal surface coefficients while keeping the true
// pitch for the exposed face.
func NewOpaqueElement(
	name string,
	area float64,
	isUnheatedPitchedRoof bool,
	pitch float64,
	solarAbsorptionCoeff float64,
	rc float64,
	arealHeatCapacity float64,
	massClass MassDistributionClass,
	orientation float64,
	extCond *ExternalConditions,
) (*OpaqueElement, error) {
	if err := validatePitch("OpaqueElement."+name, pitch); err != nil {
		return nil, err
	}
	if rc <= 0.0 {
		return nil, configErrorf("OpaqueElement."+name, "thermal resistance must be positive, got %g", rc)
	}
	internalPitch := pitch
	if isUnheatedPitchedRoof {
		internalPitch = 0.0
	}
	e := &OpaqueElement{
		elementBase: elementBase{
			name:          name,
			extCond:       extCond,
			area:          area,
			pitch:         internalPitch,
			externalPitch: pitch,
			rc:            rc,
			km:            arealHeatCapacity,
		},
		solarAbsorptionCoeff: solarAbsorptionCoeff,
		orientation:          orientation,
	}
	e.initFiveNodes(rc, massClass, arealHeatCapacity)
	e.initOtherSideSky(pitch)
	return e, nil
}

func (e *OpaqueElement) SolarAbsorptionCoeff() float64 { return e.solarAbsorptionCoeff }

func (e *OpaqueElement) ISolDirDif(idx int) (float64, float64) {
	return e.extCond.SurfaceIrradiance(idx, e.externalPitch)
}

// AdjacentConditionedElement represents an element adjacent to another
// thermally conditioned zone. External heat transfer coefficients are
// zero per BS EN ISO 52016-1:2017 section 6.5.6.3.6.
type AdjacentConditionedElement struct {
	elementBase
}

func NewAdjacentConditionedElement(
	name string,
	area, pitch, rc, arealHeatCapacity float64,
	massClass MassDistributionClass,
	extCond *ExternalConditions,
) (*AdjacentConditionedElement, error) {
	if err := validatePitch("AdjacentConditionedElement."+name, pitch); err != nil {
		return nil, err
	}
	e := &AdjacentConditionedElement{
		elementBase: elementBase{
			name:          name,
			extCond:       extCond,
			area:          area,
			pitch:         pitch,
			externalPitch: pitch,
			rc:            rc,
			km:            arealHeatCapacity,
		},
	}
	e.initFiveNodes(rc, massClass, arealHeatCapacity)
	return e, nil
}

func (e *AdjacentConditionedElement) HCe() float64 { return 0.0 }
func (e *AdjacentConditionedElement) HRe() float64 { return 0.0 }

// FabricHeatLoss is zero: no heat loss to thermally conditioned zones.
func (e *AdjacentConditionedElement) FabricHeatLoss() float64 { return 0.0 }

// AdjacentUnconditionedElement represents an element adjacent to a
// thermally unconditioned space (e.g. a garage or loft). The unheated
// space is modelled as an additional thermal resistance folded into the
// external surface coefficient.
type AdjacentUnconditionedElement struct {
	elementBase
	rUnconditioned float64
}

func NewAdjacentUnconditionedElement(
	name string,
	area, pitch, rc, rUnconditioned, arealHeatCapacity float64,
	massClass MassDistributionClass,
	extCond *ExternalConditions,
) (*AdjacentUnconditionedElement, error) {
	if err := validatePitch("AdjacentUnconditionedElement."+name, pitch); err != nil {
		return nil, err
	}
	e := &AdjacentUnconditionedElement{
		elementBase: elementBase{
			name:          name,
			extCond:       extCond,
			area:          area,
			pitch:         pitch,
			externalPitch: pitch,
			rc:            rc,
			km:            arealHeatCapacity,
		},
		rUnconditioned: rUnconditioned,
	}
	e.initFiveNodes(rc, massClass, arealHeatCapacity)
	return e, nil
}

// HCe folds the resistance of the unconditioned space into an effective
// external surface coefficient. The split between convective and
// radiative parts does not affect results, so the radiative part is zero.
func (e *AdjacentUnconditionedElement) HCe() float64 {
	rSeEffective := RSe + e.rUnconditioned
	return 1.0 / rSeEffective
}

func (e *AdjacentUnconditionedElement) HRe() float64 { return 0.0 }
