package dwellsim

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LoadInput reads the dwelling description from a local file or an HTTP
// URL.
func LoadInput(path string) (*InputJson, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		var resp *http.Response
		resp, err = http.Get(path)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: %s", path, resp.Status)
		}
		data, err = io.ReadAll(resp.Body)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var input InputJson
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &input, nil
}

// Simulation holds a fully assembled dwelling model ready to run.
type Simulation struct {
	simTime        *SimulationTime
	dwelling       *Dwelling
	energySupplies map[string]*EnergySupply
}

func (s *Simulation) SimTime() *SimulationTime { return s.simTime }

func (s *Simulation) Dwelling() *Dwelling { return s.dwelling }

func (s *Simulation) EnergySupplies() map[string]*EnergySupply { return s.energySupplies }

// The energy supply unmet space heating and cooling demand is notionally
// drawn from.
const UnmetDemandSupplyName = "_unmet_demand"

// NewSimulation assembles the simulation objects from the dwelling
// description and the weather series.
func NewSimulation(
	input *InputJson,
	airTemps, windSpeeds, windDirections, diffuseRadiation, directBeamRadiation []float64,
	useFastSolver bool,
) (*Simulation, error) {
	simTime, err := NewSimulationTime(
		input.SimulationTime.Start, input.SimulationTime.End, input.SimulationTime.Step)
	if err != nil {
		return nil, err
	}

	extCond, err := NewExternalConditions(
		simTime, airTemps, windSpeeds, windDirections, diffuseRadiation, directBeamRadiation,
		input.ExternalConditions.GroundReflectivity,
		input.ExternalConditions.StartDay, input.ExternalConditions.TimeSeriesStep)
	if err != nil {
		return nil, err
	}

	energySupplies := make(map[string]*EnergySupply)
	for name := range input.EnergySupply {
		energySupplies[name] = NewEnergySupply(name, simTime.TotalSteps())
	}
	unmetDemandSupply := NewEnergySupply(UnmetDemandSupplyName, simTime.TotalSteps())
	energySupplies[UnmetDemandSupplyName] = unmetDemandSupply

	controls, err := buildControls(input.Control, simTime, extCond)
	if err != nil {
		return nil, err
	}

	var totalVolume float64
	for _, zd := range input.Zone {
		totalVolume += zd.Volume
	}

	ventilation, err := buildVentilation(
		input.InfiltrationVentilation, input.Zone, controls, energySupplies, simTime, totalVolume)
	if err != nil {
		return nil, err
	}

	heatSystems, coolSystems, err := buildSystems(input, controls, energySupplies, simTime)
	if err != nil {
		return nil, err
	}

	gains, err := buildGains(input, energySupplies, simTime)
	if err != nil {
		return nil, err
	}

	zones, unmetDemandConn, err := buildZones(
		input, controls, extCond, simTime, unmetDemandSupply, gains, useFastSolver)
	if err != nil {
		return nil, err
	}

	iv := input.InfiltrationVentilation
	ctrlVentAdjustMin, err := setpointControl(controls, iv.ControlVentAdjustMin, "InfiltrationVentilation")
	if err != nil {
		return nil, err
	}
	ctrlVentAdjustMax, err := setpointControl(controls, iv.ControlVentAdjustMax, "InfiltrationVentilation")
	if err != nil {
		return nil, err
	}

	var (
		reqVentSchedule   []float64
		reqVentStartDay   float64
		reqVentSeriesStep = 1.0
	)
	if iv.RequiredAchSchedule != nil {
		sched, err := ExpandNumericSchedule(iv.RequiredAchSchedule.Schedule, "main", false)
		if err != nil {
			return nil, configErrorf("InfiltrationVentilation.required_ach", "schedule: %v", err)
		}
		reqVentSchedule = derefSchedule(sched)
		reqVentStartDay = iv.RequiredAchSchedule.StartDay
		reqVentSeriesStep = iv.RequiredAchSchedule.TimeSeriesStep
	}

	dwelling, err := NewDwelling(
		simTime, extCond, zones, heatSystems, coolSystems, ventilation,
		ctrlVentAdjustMin, ctrlVentAdjustMax,
		reqVentSchedule, reqVentStartDay, reqVentSeriesStep,
		unmetDemandConn)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		simTime:        simTime,
		dwelling:       dwelling,
		energySupplies: energySupplies,
	}, nil
}

func buildSystems(
	input *InputJson,
	controls map[string]Control,
	energySupplies map[string]*EnergySupply,
	simTime *SimulationTime,
) (heatSystems, coolSystems map[string]HeatCoolSystem, err error) {
	heatSystems = make(map[string]HeatCoolSystem)
	for _, name := range sortedKeys(input.SpaceHeatSystem) {
		data := input.SpaceHeatSystem[name]
		conn, ctrl, err := systemConnections(
			"SpaceHeatSystem."+name, name, data.EnergySupply, data.Control, controls, energySupplies)
		if err != nil {
			return nil, nil, err
		}
		switch data.Type {
		case "InstantElecHeater":
			heatSystems[name] = NewInstantElecHeater(
				name, data.RatedPower, data.FracConvective, conn, simTime, ctrl)
		default:
			return nil, nil, configErrorf("SpaceHeatSystem."+name, "unknown system type %q", data.Type)
		}
	}

	coolSystems = make(map[string]HeatCoolSystem)
	for _, name := range sortedKeys(input.SpaceCoolSystem) {
		data := input.SpaceCoolSystem[name]
		conn, ctrl, err := systemConnections(
			"SpaceCoolSystem."+name, name, data.EnergySupply, data.Control, controls, energySupplies)
		if err != nil {
			return nil, nil, err
		}
		switch data.Type {
		case "AirConditioning":
			coolSystems[name] = NewAirConditioning(
				name, data.CoolingCapacity, data.Efficiency, data.FracConvective, conn, simTime, ctrl)
		default:
			return nil, nil, configErrorf("SpaceCoolSystem."+name, "unknown system type %q", data.Type)
		}
	}
	return heatSystems, coolSystems, nil
}

func systemConnections(
	context, endUser, supplyName, ctrlName string,
	controls map[string]Control,
	energySupplies map[string]*EnergySupply,
) (*EnergySupplyConnection, *SetpointTimeControl, error) {
	supply, ok := energySupplies[supplyName]
	if !ok {
		return nil, nil, configErrorf(context, "unknown energy supply %q", supplyName)
	}
	conn, err := supply.Connection(endUser)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := setpointControl(controls, ctrlName, context)
	if err != nil {
		return nil, nil, err
	}
	return conn, ctrl, nil
}

func buildGains(
	input *InputJson,
	energySupplies map[string]*EnergySupply,
	simTime *SimulationTime,
) ([]Gains, error) {
	var gains []Gains
	for _, name := range sortedKeys(input.InternalGains) {
		data := input.InternalGains[name]
		sched, err := ExpandNumericSchedule(data.Schedule, "main", false)
		if err != nil {
			return nil, configErrorf("InternalGains."+name, "schedule: %v", err)
		}
		gains = append(gains, NewInternalGains(
			derefSchedule(sched), simTime, data.StartDay, data.TimeSeriesStep))
	}
	for _, name := range sortedKeys(input.ApplianceGains) {
		data := input.ApplianceGains[name]
		sched, err := ExpandNumericSchedule(data.Schedule, "main", false)
		if err != nil {
			return nil, configErrorf("ApplianceGains."+name, "schedule: %v", err)
		}
		supply, ok := energySupplies[data.EnergySupply]
		if !ok {
			return nil, configErrorf("ApplianceGains."+name, "unknown energy supply %q", data.EnergySupply)
		}
		conn, err := supply.Connection(name)
		if err != nil {
			return nil, err
		}
		gains = append(gains, NewApplianceGains(
			derefSchedule(sched), conn, data.GainsFraction, simTime,
			data.StartDay, data.TimeSeriesStep))
	}
	return gains, nil
}

func buildZones(
	input *InputJson,
	controls map[string]Control,
	extCond *ExternalConditions,
	simTime *SimulationTime,
	unmetDemandSupply *EnergySupply,
	gains []Gains,
	useFastSolver bool,
) ([]*DwellingZone, map[string]*EnergySupplyConnection, error) {
	var zones []*DwellingZone
	unmetDemandConn := make(map[string]*EnergySupplyConnection)

	for _, zName := range sortedKeys(input.Zone) {
		zd := input.Zone[zName]

		var elements []BuildingElement
		for _, elName := range sortedKeys(zd.BuildingElement) {
			el, err := buildBuildingElement(
				elName, zd.BuildingElement[elName], zd.Area, controls, extCond, simTime)
			if err != nil {
				return nil, nil, err
			}
			elements = append(elements, el)
		}

		bridges, err := buildThermalBridges(zd.ThermalBridging)
		if err != nil {
			return nil, nil, err
		}

		basis := SetpointBasisOperative
		if zd.TempSetpntBasis != "" {
			basis, err = SetpointBasisFromString(zd.TempSetpntBasis)
			if err != nil {
				return nil, nil, configErrorf("Zone."+zName, "%v", err)
			}
		}

		ventCoolCtrl, err := setpointControl(controls, zd.VentCoolControl, "Zone."+zName)
		if err != nil {
			return nil, nil, err
		}

		zone, err := NewZone(
			zd.Area, zd.Volume, elements, bridges,
			extCond.AirTemp(0), zd.TempSetpntInit,
			basis, ventCoolCtrl, useFastSolver)
		if err != nil {
			return nil, nil, err
		}

		conn, err := unmetDemandSupply.Connection(zName)
		if err != nil {
			return nil, nil, err
		}
		unmetDemandConn[zName] = conn

		zones = append(zones, &DwellingZone{
			Name:        zName,
			Zone:        zone,
			HeatSystems: zd.SpaceHeatSystem,
			CoolSystems: zd.SpaceCoolSystem,
			Gains:       gains,
		})
	}
	return zones, unmetDemandConn, nil
}

// Run steps the dwelling through the whole simulated period.
func (s *Simulation) Run() (*Recorder, error) {
	rec := NewRecorder(s.simTime)
	total := s.simTime.TotalSteps()
	progressStep := total / 12

	for idx := 0; idx < total; idx++ {
		res, err := s.dwelling.CalcSpaceHeatCool(idx)
		if err != nil {
			return nil, fmt.Errorf("timestep %d: %w", idx, err)
		}
		rec.Capture(idx, res)

		if progressStep > 0 && (idx+1)%progressStep == 0 {
			log.Printf("%d/12 calculated", (idx+1)/progressStep)
		}
	}
	return rec, nil
}

// Run loads the dwelling description and weather data, runs the
// simulation and writes the result CSV files to outputDataDir.
func Run(inputDataPath, weatherDataPath, outputDataDir string, useFastSolver bool) error {
	log.SetFlags(log.Lmicroseconds)

	log.Printf("dwelling data: %s", inputDataPath)
	log.Printf("weather data: %s", weatherDataPath)
	log.Printf("output directory: %s", outputDataDir)

	input, err := LoadInput(inputDataPath)
	if err != nil {
		return err
	}

	airTemps, windSpeeds, windDirections, diffuse, direct, err := LoadWeatherCSV(weatherDataPath)
	if err != nil {
		return err
	}

	sim, err := NewSimulation(input, airTemps, windSpeeds, windDirections, diffuse, direct, useFastSolver)
	if err != nil {
		return err
	}

	ids := sim.dwelling.SystemIDs()
	for _, name := range sortedKeys(ids) {
		log.Printf("system %q: %s", name, ids[name])
	}

	rec, err := sim.Run()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDataDir, 0o755); err != nil {
		return err
	}
	if err := rec.ExportZoneResults(filepath.Join(outputDataDir, "zone_results.csv")); err != nil {
		return err
	}
	if err := rec.ExportSystemResults(filepath.Join(outputDataDir, "system_results.csv")); err != nil {
		return err
	}
	return ExportEnergySupplyResults(
		filepath.Join(outputDataDir, "energy_supply_results.csv"), sim.simTime, sim.energySupplies)
}
