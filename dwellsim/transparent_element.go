package dwellsim

// WindowTreatmentType distinguishes curtains from blinds.
type WindowTreatmentType int

const (
	TreatmentCurtains WindowTreatmentType = iota
	TreatmentBlinds
)

func WindowTreatmentTypeFromString(s string) (WindowTreatmentType, error) {
	switch s {
	case "curtains":
		return TreatmentCurtains, nil
	case "blinds":
		return TreatmentBlinds, nil
	default:
		return 0, configErrorf("window treatment type", "%q not valid", s)
	}
}

// WindowTreatmentCtrl is how a window treatment is operated.
type WindowTreatmentCtrl int

const (
	TreatmentCtrlManual WindowTreatmentCtrl = iota
	TreatmentCtrlManualMotorised
	TreatmentCtrlAutoMotorised
	TreatmentCtrlCombinedLightBlindHVAC
)

func WindowTreatmentCtrlFromString(s string) (WindowTreatmentCtrl, error) {
	switch s {
	case "manual":
		return TreatmentCtrlManual, nil
	case "manual_motorised":
		return TreatmentCtrlManualMotorised, nil
	case "auto_motorised":
		return TreatmentCtrlAutoMotorised, nil
	case "combined_light_blind_HVAC":
		return TreatmentCtrlCombinedLightBlindHVAC, nil
	default:
		return 0, configErrorf("window treatment control", "%q not valid", s)
	}
}

func (c WindowTreatmentCtrl) isManual() bool {
	return c == TreatmentCtrlManual || c == TreatmentCtrlManualMotorised
}

// WindowTreatment models curtains or blinds on a window. When closed it
// reduces transmitted solar gains by TransRed and adds DeltaR to the
// thermal resistance of the window (BS EN 13125:2001).
type WindowTreatment struct {
	Type            WindowTreatmentType
	Ctrl            WindowTreatmentCtrl
	DeltaR          float64
	TransRed        float64
	OpeningDelayHrs float64

	ControlOpen         Control
	ControlClosingIrrad *SetpointTimeControl
	ControlOpeningIrrad *SetpointTimeControl

	isOpen           bool
	timeLastAdjusted float64
}

func (t *WindowTreatment) open(timeCurrent float64) {
	if !t.isOpen {
		t.isOpen = true
		t.timeLastAdjusted = timeCurrent
	}
}

func (t *WindowTreatment) close(timeCurrent float64) {
	if t.isOpen {
		t.isOpen = false
		t.timeLastAdjusted = timeCurrent
	}
}

// TransparentElement represents windows and other glazed elements.
type TransparentElement struct {
	elementBase
	simTime           *SimulationTime
	gValue            float64
	frameAreaFraction float64
	orientation       float64
	baseHeight        float64
	midHeight         float64
	projHeight        float64
	width             float64
	treatments        []*WindowTreatment
}

func NewTransparentElement(
	name string,
	pitch, rc, orientation, gValue, frameAreaFraction float64,
	baseHeight, height, width float64,
	treatments []*WindowTreatment,
	extCond *ExternalConditions,
	simTime *SimulationTime,
) (*TransparentElement, error) {
	if err := validatePitch("TransparentElement."+name, pitch); err != nil {
		return nil, err
	}
	if rc <= 0.0 {
		return nil, configErrorf("TransparentElement."+name, "thermal resistance must be positive, got %g", rc)
	}
	if gValue < 0.0 || gValue > 1.0 {
		return nil, configErrorf("TransparentElement."+name, "g_value must be between 0 and 1, got %g", gValue)
	}
	e := &TransparentElement{
		elementBase: elementBase{
			name:          name,
			extCond:       extCond,
			area:          height * width,
			pitch:         pitch,
			externalPitch: pitch,
			rc:            rc,
			// Node conductances and capacities per BS EN ISO 52016-1:2017
			// section 6.5.7.4: a massless two-node element.
			hPli: []float64{1.0 / rc},
			kPli: []float64{0.0, 0.0},
		},
		simTime:           simTime,
		gValue:            gValue,
		frameAreaFraction: frameAreaFraction,
		orientation:       orientation,
		baseHeight:        baseHeight,
		midHeight:         baseHeight + height/2.0,
		projHeight:        projectedHeight(pitch, height),
		width:             width,
		treatments:        treatments,
	}
	for _, t := range treatments {
		t.isOpen = true
		t.timeLastAdjusted = simTime.Time(0)
	}
	e.initOtherSideSky(pitch)
	return e, nil
}

// convertGValue corrects the nominal g-value for the angle of solar
// radiation using the default factor from ISO 52016 Table B.22.
func (e *TransparentElement) convertGValue() float64 {
	const fW = 0.90
	return fW * e.gValue
}

func (e *TransparentElement) surfaceIrradiance(idx int) float64 {
	dir, dif := e.extCond.SurfaceIrradiance(idx, e.externalPitch)
	return dir + dif
}

// adjustTreatments applies the operation and control logic for window
// treatments per Annex G and Tables B.23/B.24 in BS EN ISO 52016-1:2017.
// An explicit open/close control wins; otherwise irradiance thresholds
// close the treatment in strong sun and re-open it when the sun fades,
// with a delay for automatic controls.
func (e *TransparentElement) adjustTreatments(idx int) {
	if len(e.treatments) == 0 {
		return
	}
	surfIrrad := e.surfaceIrradiance(idx)
	timeCurrent := e.simTime.Time(idx)
	for _, t := range e.treatments {
		if t.ControlOpen != nil {
			if t.ControlOpen.IsOn(idx) {
				t.open(timeCurrent)
			} else {
				t.close(timeCurrent)
			}
			continue
		}
		var closingThreshold, openingThreshold *float64
		if t.ControlClosingIrrad != nil {
			closingThreshold = t.ControlClosingIrrad.Setpnt(idx)
		}
		if t.ControlOpeningIrrad != nil {
			openingThreshold = t.ControlOpeningIrrad.Setpnt(idx)
		}
		switch {
		case closingThreshold != nil && surfIrrad > *closingThreshold:
			t.close(timeCurrent)
		case openingThreshold != nil && surfIrrad < *openingThreshold &&
			(t.Ctrl.isManual() || timeCurrent-t.timeLastAdjusted >= t.OpeningDelayHrs):
			t.open(timeCurrent)
		}
	}
}

func (e *TransparentElement) ISolDirDif(idx int) (float64, float64) {
	return e.extCond.SurfaceIrradiance(idx, e.externalPitch)
}

// SolarGains returns the solar gains transmitted through the glazing at
// timestep idx, reduced by any closed treatments.
func (e *TransparentElement) SolarGains(idx int) float64 {
	gains := e.convertGValue() * e.surfaceIrradiance(idx) * e.area * (1.0 - e.frameAreaFraction)
	e.adjustTreatments(idx)
	for _, t := range e.treatments {
		if !t.isOpen {
			gains -= gains * t.TransRed
		}
	}
	return gains
}

// HPli accounts for the resistance of closed window treatments.
func (e *TransparentElement) HPli(i int) float64 {
	r := 1.0 / e.hPli[i]
	for _, t := range e.treatments {
		if !t.isOpen {
			r += t.DeltaR
		}
	}
	return 1.0 / r
}

// FabricHeatLoss returns the effective A*U of the window, which includes
// assumed use of curtains or blinds.
func (e *TransparentElement) FabricHeatLoss() float64 {
	const rCurtainsBlinds = 0.04
	uValue := 1.0 / (e.rc + RSe + e.RSi() + rCurtainsBlinds)
	return e.area * uValue
}

func (e *TransparentElement) ProjectedHeight() float64 { return e.projHeight }
func (e *TransparentElement) MidHeight() float64       { return e.midHeight }
func (e *TransparentElement) Orientation() float64     { return e.orientation }
