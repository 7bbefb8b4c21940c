package dwellsim

import (
	"sort"
)

// Input structures for the dwelling description JSON file, and the
// builders that turn them into simulation objects.

type InputJson struct {
	SimulationTime          SimulationTimeJson             `json:"simulation_time"`
	ExternalConditions      ExternalConditionsJson         `json:"external_conditions"`
	EnergySupply            map[string]EnergySupplyJson    `json:"energy_supply"`
	Control                 map[string]ControlJson         `json:"control"`
	InfiltrationVentilation InfiltrationVentilationJson    `json:"infiltration_ventilation"`
	Zone                    map[string]ZoneJson            `json:"zone"`
	SpaceHeatSystem         map[string]SpaceHeatSystemJson `json:"space_heat_system"`
	SpaceCoolSystem         map[string]SpaceCoolSystemJson `json:"space_cool_system"`
	InternalGains           map[string]InternalGainsJson   `json:"internal_gains"`
	ApplianceGains          map[string]ApplianceGainsJson  `json:"appliance_gains"`
}

type SimulationTimeJson struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Step  float64 `json:"step"`
}

type ExternalConditionsJson struct {
	GroundReflectivity float64 `json:"ground_reflectivity"`
	StartDay           float64 `json:"start_day"`
	TimeSeriesStep     float64 `json:"time_series_step"`
}

type EnergySupplyJson struct {
	Fuel string `json:"fuel"`
}

type ControlJson struct {
	Type           string           `json:"type"`
	StartDay       float64          `json:"start_day"`
	TimeSeriesStep float64          `json:"time_series_step"`
	Schedule       map[string][]any `json:"schedule"`

	// OnOffTimeControl
	AllowNull bool `json:"allow_null"`

	// SetpointTimeControl
	SetpointMin   *float64 `json:"setpoint_min"`
	SetpointMax   *float64 `json:"setpoint_max"`
	DefaultToMax  *bool    `json:"default_to_max"`
	AdvancedStart float64  `json:"advanced_start"`

	// OnOffCostMinimisingTimeControl
	TimeOnDaily float64 `json:"time_on_daily"`

	// ChargeControl
	LogicType          string                `json:"logic_type"`
	ChargeLevel        []float64             `json:"charge_level"`
	TempChargeCut      *float64              `json:"temp_charge_cut"`
	TempChargeCutDelta []float64             `json:"temp_charge_cut_delta"`
	ExternalSensor     []ExternalSensorPoint `json:"external_sensor"`

	// CombinationTimeControl
	Combination map[string]CombinationEntryJson `json:"combination"`
}

type CombinationEntryJson struct {
	Operation string   `json:"operation"`
	Controls  []string `json:"controls"`
}

type InfiltrationVentilationJson struct {
	CrossVentFactor           bool                     `json:"cross_vent_factor"`
	ShieldClass               string                   `json:"shield_class"`
	TerrainClass              string                   `json:"terrain_class"`
	AverageRoofPitch          float64                  `json:"average_roof_pitch"`
	Altitude                  float64                  `json:"altitude"`
	VentilationZoneBaseHeight float64                  `json:"ventilation_zone_base_height"`
	Leaks                     LeakConfig               `json:"leaks"`
	Vents                     map[string]VentJson      `json:"vents"`
	MechanicalVentilation     map[string]MechVentJson  `json:"mechanical_ventilation"`
	ControlVentAdjustMin      string                   `json:"vent_opening_ratio_min_ach_control"`
	ControlVentAdjustMax      string                   `json:"vent_opening_ratio_max_ach_control"`
	RequiredAchSchedule       *RequiredVentilationJson `json:"required_ach"`
}

type RequiredVentilationJson struct {
	StartDay       float64          `json:"start_day"`
	TimeSeriesStep float64          `json:"time_series_step"`
	Schedule       map[string][]any `json:"schedule"`
}

type VentJson struct {
	MidHeightAir          float64 `json:"mid_height_air"`
	AreaCm2               float64 `json:"area_cm2"`
	PressureDifferenceRef float64 `json:"pressure_difference_ref"`
	Orientation           float64 `json:"orientation360"`
	Pitch                 float64 `json:"pitch"`
}

type MechVentJson struct {
	VentType                 string  `json:"vent_type"`
	SpecificFanPower         float64 `json:"sfp"`
	DesignOutdoorAirFlowRate float64 `json:"design_outdoor_air_flow_rate"`
	EnergySupply             string  `json:"energy_supply"`
	MVHREfficiency           float64 `json:"mvhr_eff"`
	Control                  string  `json:"control"`
}

type ZoneJson struct {
	Area            float64                        `json:"area"`
	Volume          float64                        `json:"volume"`
	TempSetpntBasis string                         `json:"temp_setpnt_basis"`
	TempSetpntInit  float64                        `json:"temp_setpnt_init"`
	SpaceHeatSystem []string                       `json:"space_heat_system"`
	SpaceCoolSystem []string                       `json:"space_cool_system"`
	VentCoolControl string                         `json:"control_window_opening"`
	BuildingElement map[string]BuildingElementJson `json:"building_element"`
	ThermalBridging []ThermalBridgeJson            `json:"thermal_bridging"`
}

type ThermalBridgeJson struct {
	Type                       string  `json:"type"`
	LinearThermalTransmittance float64 `json:"linear_thermal_transmittance"`
	Length                     float64 `json:"length"`
	HeatTransferCoefficient    float64 `json:"heat_transfer_coeff"`
}

type BuildingElementJson struct {
	Type string `json:"type"`

	Area        float64 `json:"area"`
	Pitch       float64 `json:"pitch"`
	Orientation float64 `json:"orientation360"`
	// Exactly one of ThermalResistance and UValue is given; the other is
	// derived from it.
	ThermalResistance     float64 `json:"thermal_resistance_construction"`
	UValue                float64 `json:"u_value"`
	ArealHeatCapacity     float64 `json:"areal_heat_capacity"`
	MassDistributionClass string  `json:"mass_distribution_class"`

	// Opaque
	SolarAbsorptionCoeff  float64 `json:"solar_absorption_coeff"`
	IsUnheatedPitchedRoof bool    `json:"is_unheated_pitched_roof"`

	// AdjacentUnconditionedSpace
	ThermalResistanceUnconditionedSpace float64 `json:"thermal_resistance_unconditioned_space"`

	// Transparent
	GValue            float64               `json:"g_value"`
	FrameAreaFraction float64               `json:"frame_area_fraction"`
	BaseHeight        float64               `json:"base_height"`
	Height            float64               `json:"height"`
	Width             float64               `json:"width"`
	WindowTreatment   []WindowTreatmentJson `json:"treatment"`
	WindowOpenable    *WindowOpenableJson   `json:"window_openable"`

	// Ground
	TotalArea            float64          `json:"total_area"`
	FloorType            string           `json:"floor_type"`
	Perimeter            float64          `json:"perimeter"`
	PsiWallFloorJunc     float64          `json:"psi_wall_floor_junc"`
	EdgeInsulation       []EdgeInsulation `json:"edge_insulation"`
	HeightUpperSurface   float64          `json:"height_upper_surface"`
	UFloorAboveBasement  float64          `json:"u_f_s"`
	UWallsAboveGround    float64          `json:"u_w"`
	VentAreaPerPerimeter float64          `json:"area_per_perimeter_vent"`
	WindShield           string           `json:"shield_fact_location"`
	WallThickness        float64          `json:"thickness_walls"`
	RFloorInsulation     float64          `json:"r_f_ins"`
	BasementDepth        float64          `json:"depth_basement_floor"`
	RBasementWalls       float64          `json:"thermal_resist_walls_base"`
	BasementWallHeight   float64          `json:"height_basement_walls"`
}

type WindowTreatmentJson struct {
	Type                string  `json:"type"`
	Controls            string  `json:"controls"`
	DeltaR              float64 `json:"delta_r"`
	TransRed            float64 `json:"trans_red"`
	OpeningDelayHrs     float64 `json:"opening_delay_hrs"`
	ControlOpen         string  `json:"control_open"`
	ControlClosingIrrad string  `json:"control_closing_irrad"`
	ControlOpeningIrrad string  `json:"control_opening_irrad"`
}

type WindowOpenableJson struct {
	FreeAreaHeight    float64   `json:"free_area_height"`
	MidHeight         float64   `json:"mid_height"`
	MaxWindowOpenArea float64   `json:"max_window_open_area"`
	WindowPartHeights []float64 `json:"window_part_mid_heights"`
	Control           string    `json:"control"`
}

type SpaceHeatSystemJson struct {
	Type           string  `json:"type"`
	RatedPower     float64 `json:"rated_power"`
	FracConvective float64 `json:"frac_convective"`
	EnergySupply   string  `json:"energy_supply"`
	Control        string  `json:"control"`
}

type SpaceCoolSystemJson struct {
	Type            string  `json:"type"`
	CoolingCapacity float64 `json:"cooling_capacity"`
	Efficiency      float64 `json:"efficiency"`
	FracConvective  float64 `json:"frac_convective"`
	EnergySupply    string  `json:"energy_supply"`
	Control         string  `json:"control"`
}

type InternalGainsJson struct {
	StartDay       float64          `json:"start_day"`
	TimeSeriesStep float64          `json:"time_series_step"`
	Schedule       map[string][]any `json:"schedule"`
}

type ApplianceGainsJson struct {
	StartDay       float64          `json:"start_day"`
	TimeSeriesStep float64          `json:"time_series_step"`
	GainsFraction  float64          `json:"gains_fraction"`
	EnergySupply   string           `json:"energy_supply"`
	Schedule       map[string][]any `json:"schedule"`
}

// buildControl constructs a non-combination control from its input
// entry.
func buildControl(name string, data ControlJson, simTime *SimulationTime, extCond *ExternalConditions) (Control, error) {
	switch data.Type {
	case "OnOffTimeControl":
		if data.AllowNull {
			sched, err := ExpandNullableBooleanSchedule(data.Schedule, "main")
			if err != nil {
				return nil, configErrorf("Control."+name, "schedule: %v", err)
			}
			return NewOnOffTimeControl(sched, simTime, data.StartDay, data.TimeSeriesStep), nil
		}
		sched, err := ExpandBooleanSchedule(data.Schedule, "main")
		if err != nil {
			return nil, configErrorf("Control."+name, "schedule: %v", err)
		}
		nullable := make([]*bool, len(sched))
		for i := range sched {
			nullable[i] = &sched[i]
		}
		return NewOnOffTimeControl(nullable, simTime, data.StartDay, data.TimeSeriesStep), nil
	case "OnOffCostMinimisingTimeControl":
		sched, err := ExpandNumericSchedule(data.Schedule, "main", false)
		if err != nil {
			return nil, configErrorf("Control."+name, "schedule: %v", err)
		}
		return NewOnOffCostMinimisingTimeControl(
			derefSchedule(sched), simTime, data.StartDay, data.TimeSeriesStep, data.TimeOnDaily), nil
	case "SetpointTimeControl":
		sched, err := ExpandNumericSchedule(data.Schedule, "main", true)
		if err != nil {
			return nil, configErrorf("Control."+name, "schedule: %v", err)
		}
		return NewSetpointTimeControl(
			sched, simTime, data.StartDay, data.TimeSeriesStep,
			data.SetpointMin, data.SetpointMax, data.DefaultToMax, data.AdvancedStart)
	case "ChargeControl":
		sched, err := ExpandBooleanSchedule(data.Schedule, "main")
		if err != nil {
			return nil, configErrorf("Control."+name, "schedule: %v", err)
		}
		logicType, err := ChargeLogicTypeFromString(data.LogicType)
		if err != nil {
			return nil, err
		}
		return NewChargeControl(
			logicType, sched, simTime, data.StartDay, data.TimeSeriesStep,
			data.ChargeLevel, data.TempChargeCut, data.TempChargeCutDelta,
			extCond, data.ExternalSensor)
	default:
		return nil, configErrorf("Control."+name, "unknown control type %q", data.Type)
	}
}

// buildControls constructs all controls. Combination controls are built
// after the rest so their references resolve.
func buildControls(
	controlData map[string]ControlJson,
	simTime *SimulationTime,
	extCond *ExternalConditions,
) (map[string]Control, error) {
	controls := make(map[string]Control)
	for name, data := range controlData {
		if data.Type == "CombinationTimeControl" {
			continue
		}
		ctrl, err := buildControl(name, data, simTime, extCond)
		if err != nil {
			return nil, err
		}
		controls[name] = ctrl
	}
	for name, data := range controlData {
		if data.Type != "CombinationTimeControl" {
			continue
		}
		combination := make(map[string]CombinationEntry)
		for combName, entry := range data.Combination {
			op, err := CombinationOpFromString(entry.Operation)
			if err != nil {
				return nil, configErrorf("Control."+name, "combination %q: %v", combName, err)
			}
			combination[combName] = CombinationEntry{Operation: op, Controls: entry.Controls}
		}
		ctrl, err := NewCombinationTimeControl(combination, controls)
		if err != nil {
			return nil, configErrorf("Control."+name, "%v", err)
		}
		controls[name] = ctrl
	}
	return controls, nil
}

func setpointControl(controls map[string]Control, name, context string) (*SetpointTimeControl, error) {
	if name == "" {
		return nil, nil
	}
	ctrl, ok := controls[name]
	if !ok {
		return nil, configErrorf(context, "reference to unknown control %q", name)
	}
	setpntCtrl, ok := ctrl.(*SetpointTimeControl)
	if !ok {
		return nil, configErrorf(context, "control %q must be a SetpointTimeControl", name)
	}
	return setpntCtrl, nil
}

func anyControl(controls map[string]Control, name, context string) (Control, error) {
	if name == "" {
		return nil, nil
	}
	ctrl, ok := controls[name]
	if !ok {
		return nil, configErrorf(context, "reference to unknown control %q", name)
	}
	return ctrl, nil
}

// resolveResistance returns the construction thermal resistance of an
// element, given either directly or as a U-value to convert. Exactly one
// of the two must be present.
func resolveResistance(context string, resistance, uValue, pitch float64) (float64, error) {
	switch {
	case resistance > 0.0 && uValue > 0.0:
		return 0.0, configErrorf(context,
			"both thermal_resistance_construction and u_value given; provide exactly one")
	case resistance > 0.0:
		return resistance, nil
	case uValue > 0.0:
		return ConvertUValueToResistance(uValue, pitch), nil
	default:
		return 0.0, configErrorf(context,
			"one of thermal_resistance_construction or u_value is required")
	}
}

// buildBuildingElement constructs one building element from its input
// entry.
func buildBuildingElement(
	name string,
	data BuildingElementJson,
	zoneArea float64,
	controls map[string]Control,
	extCond *ExternalConditions,
	simTime *SimulationTime,
) (BuildingElement, error) {
	massClass, err := MassDistributionClassFromString(data.MassDistributionClass)
	if err != nil && (data.Type == "Opaque" || data.Type == "AdjacentConditionedSpace" ||
		data.Type == "AdjacentUnconditionedSpace" || data.Type == "Ground") {
		return nil, configErrorf("BuildingElement."+name, "%v", err)
	}

	switch data.Type {
	case "Opaque":
		rc, err := resolveResistance("BuildingElement."+name, data.ThermalResistance, data.UValue, data.Pitch)
		if err != nil {
			return nil, err
		}
		return NewOpaqueElement(
			name, data.Area, data.IsUnheatedPitchedRoof, data.Pitch,
			data.SolarAbsorptionCoeff, rc,
			data.ArealHeatCapacity, massClass, data.Orientation, extCond)
	case "AdjacentConditionedSpace":
		rc, err := resolveResistance("BuildingElement."+name, data.ThermalResistance, data.UValue, data.Pitch)
		if err != nil {
			return nil, err
		}
		return NewAdjacentConditionedElement(
			name, data.Area, data.Pitch, rc,
			data.ArealHeatCapacity, massClass, extCond)
	case "AdjacentUnconditionedSpace":
		rc, err := resolveResistance("BuildingElement."+name, data.ThermalResistance, data.UValue, data.Pitch)
		if err != nil {
			return nil, err
		}
		return NewAdjacentUnconditionedElement(
			name, data.Area, data.Pitch, rc,
			data.ThermalResistanceUnconditionedSpace,
			data.ArealHeatCapacity, massClass, extCond)
	case "Ground":
		floorType, err := GroundFloorTypeFromString(data.FloorType)
		if err != nil {
			return nil, configErrorf("BuildingElement."+name, "%v", err)
		}
		windShield, err := WindShieldLocationFromString(data.WindShield)
		if err != nil && floorType == SuspendedFloor {
			return nil, configErrorf("BuildingElement."+name, "%v", err)
		}
		return NewGroundElement(GroundElementConfig{
			Name:                 name,
			TotalArea:            data.TotalArea,
			ZoneArea:             data.Area,
			Pitch:                data.Pitch,
			UValue:               data.UValue,
			RFloorConstruction:   data.ThermalResistance,
			ArealHeatCapacity:    data.ArealHeatCapacity,
			MassClass:            massClass,
			FloorType:            floorType,
			EdgeInsulation:       data.EdgeInsulation,
			HeightUpperSurface:   data.HeightUpperSurface,
			UFloorAboveBasement:  data.UFloorAboveBasement,
			UWallsAboveGround:    data.UWallsAboveGround,
			VentAreaPerPerimeter: data.VentAreaPerPerimeter,
			WindShield:           windShield,
			WallThickness:        data.WallThickness,
			RFloorInsulation:     data.RFloorInsulation,
			BasementDepth:        data.BasementDepth,
			RBasementWalls:       data.RBasementWalls,
			BasementWallHeight:   data.BasementWallHeight,
			Perimeter:            data.Perimeter,
			PsiWallFloorJunc:     data.PsiWallFloorJunc,
		}, extCond, simTime)
	case "Transparent":
		rc, err := resolveResistance("BuildingElement."+name, data.ThermalResistance, data.UValue, data.Pitch)
		if err != nil {
			return nil, err
		}
		treatments, err := buildWindowTreatments(name, data.WindowTreatment, controls)
		if err != nil {
			return nil, err
		}
		return NewTransparentElement(
			name, data.Pitch, rc, data.Orientation,
			data.GValue, data.FrameAreaFraction,
			data.BaseHeight, data.Height, data.Width,
			treatments, extCond, simTime)
	default:
		return nil, configErrorf("BuildingElement."+name, "unknown element type %q", data.Type)
	}
}

func buildWindowTreatments(
	elementName string,
	data []WindowTreatmentJson,
	controls map[string]Control,
) ([]*WindowTreatment, error) {
	var treatments []*WindowTreatment
	for _, td := range data {
		context := "BuildingElement." + elementName + ".treatment"
		treatmentType, err := WindowTreatmentTypeFromString(td.Type)
		if err != nil {
			return nil, configErrorf(context, "%v", err)
		}
		ctrlType, err := WindowTreatmentCtrlFromString(td.Controls)
		if err != nil {
			return nil, configErrorf(context, "%v", err)
		}
		ctrlOpen, err := anyControl(controls, td.ControlOpen, context)
		if err != nil {
			return nil, err
		}
		ctrlClosing, err := setpointControl(controls, td.ControlClosingIrrad, context)
		if err != nil {
			return nil, err
		}
		ctrlOpening, err := setpointControl(controls, td.ControlOpeningIrrad, context)
		if err != nil {
			return nil, err
		}
		treatments = append(treatments, &WindowTreatment{
			Type:                treatmentType,
			Ctrl:                ctrlType,
			DeltaR:              td.DeltaR,
			TransRed:            td.TransRed,
			OpeningDelayHrs:     td.OpeningDelayHrs,
			ControlOpen:         ctrlOpen,
			ControlClosingIrrad: ctrlClosing,
			ControlOpeningIrrad: ctrlOpening,
		})
	}
	return treatments, nil
}

func buildThermalBridges(data []ThermalBridgeJson) ([]ThermalBridge, error) {
	var bridges []ThermalBridge
	for _, tb := range data {
		switch tb.Type {
		case "ThermalBridgeLinear":
			bridges = append(bridges, ThermalBridgeLinear{
				LinearThermTrans: tb.LinearThermalTransmittance,
				Length:           tb.Length,
			})
		case "ThermalBridgePoint":
			bridges = append(bridges, ThermalBridgePoint{Coeff: tb.HeatTransferCoefficient})
		default:
			return nil, configErrorf("thermal_bridging", "unknown thermal bridge type %q", tb.Type)
		}
	}
	return bridges, nil
}

// buildVentilation constructs the infiltration and ventilation model,
// including window opening paths gathered from the zones' transparent
// elements.
func buildVentilation(
	data InfiltrationVentilationJson,
	zones map[string]ZoneJson,
	controls map[string]Control,
	energySupplies map[string]*EnergySupply,
	simTime *SimulationTime,
	totalVolume float64,
) (*InfiltrationVentilation, error) {
	shield, err := VentShieldClassFromString(data.ShieldClass)
	if err != nil {
		return nil, err
	}
	terrain, err := TerrainClassFromString(data.TerrainClass)
	if err != nil {
		return nil, err
	}

	var vents []*Vent
	for _, vd := range data.Vents {
		vents = append(vents, NewVent(
			vd.MidHeightAir, vd.AreaCm2, vd.PressureDifferenceRef,
			vd.Orientation, vd.Pitch, data.Altitude, data.VentilationZoneBaseHeight))
	}

	// Openable windows are declared on the zones' transparent elements but
	// participate in the dwelling-level air flow balance.
	var windows []*VentWindow
	for _, zName := range sortedKeys(zones) {
		zd := zones[zName]
		for _, elName := range sortedKeys(zd.BuildingElement) {
			el := zd.BuildingElement[elName]
			if el.Type != "Transparent" || el.WindowOpenable == nil {
				continue
			}
			wo := el.WindowOpenable
			ctrl, err := anyControl(controls, wo.Control, "Zone."+zName+".BuildingElement."+elName)
			if err != nil {
				return nil, err
			}
			windows = append(windows, NewVentWindow(
				wo.FreeAreaHeight, wo.MidHeight, wo.MaxWindowOpenArea,
				wo.WindowPartHeights, el.Orientation, el.Pitch,
				data.Altitude, ctrl, data.VentilationZoneBaseHeight))
		}
	}

	var mechVents []*MechanicalVentilation
	for mvName, mvd := range data.MechanicalVentilation {
		ventType, err := VentTypeFromString(mvd.VentType)
		if err != nil {
			return nil, configErrorf("MechanicalVentilation."+mvName, "%v", err)
		}
		supply, ok := energySupplies[mvd.EnergySupply]
		if !ok {
			return nil, configErrorf("MechanicalVentilation."+mvName, "unknown energy supply %q", mvd.EnergySupply)
		}
		conn, err := supply.Connection(mvName)
		if err != nil {
			return nil, err
		}
		ctrl, err := setpointControl(controls, mvd.Control, "MechanicalVentilation."+mvName)
		if err != nil {
			return nil, err
		}
		mv, err := NewMechanicalVentilation(
			ventType, mvd.SpecificFanPower, mvd.DesignOutdoorAirFlowRate,
			simTime, conn, totalVolume, data.Altitude, ctrl, mvd.MVHREfficiency)
		if err != nil {
			return nil, err
		}
		mechVents = append(mechVents, mv)
	}

	return NewInfiltrationVentilation(
		simTime, data.CrossVentFactor, shield, terrain, data.AverageRoofPitch,
		windows, vents, data.Leaks, mechVents,
		data.Altitude, totalVolume, data.VentilationZoneBaseHeight), nil
}

// derefSchedule flattens a non-nullable expanded schedule.
func derefSchedule(sched []*float64) []float64 {
	out := make([]float64, len(sched))
	for i, v := range sched {
		out[i] = *v
	}
	return out
}

// sortedKeys returns the keys of a string-keyed map in sorted order, so
// that iteration over input maps is deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
