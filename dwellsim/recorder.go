package dwellsim

import (
	"os"

	"github.com/gocarina/gocsv"
)

// ZoneResultRow is one zone's outcome for one timestep in the results
// CSV.
type ZoneResultRow struct {
	Timestep        int     `csv:"timestep"`
	Hour            float64 `csv:"hour"`
	Zone            string  `csv:"zone"`
	InternalAirTemp float64 `csv:"internal_air_temp"`
	OperativeTemp   float64 `csv:"operative_temp"`
	GainsInternal   float64 `csv:"internal_gains"`
	GainsSolar      float64 `csv:"solar_gains"`
	SpaceHeatDemand float64 `csv:"space_heat_demand"`
	SpaceCoolDemand float64 `csv:"space_cool_demand"`
	UnmetDemand     float64 `csv:"energy_shortfall"`

	// Heat balance terms at the air node, in W.
	HBGainsSolar     float64 `csv:"hb_solar_gains"`
	HBGainsInternal  float64 `csv:"hb_internal_gains"`
	HBGainsHeatCool  float64 `csv:"hb_heating_or_cooling"`
	HBEnergyToChange float64 `csv:"hb_energy_to_change_temp"`
	HBLossThermalBr  float64 `csv:"hb_thermal_bridges"`
	HBLossInfilVent  float64 `csv:"hb_infiltration_ventilation"`
	HBLossFabric     float64 `csv:"hb_fabric"`
}

// SystemResultRow is one heating or cooling system's delivery for one
// timestep.
type SystemResultRow struct {
	Timestep       int     `csv:"timestep"`
	Hour           float64 `csv:"hour"`
	System         string  `csv:"system"`
	Service        string  `csv:"service"`
	EnergyProvided float64 `csv:"energy_provided"`
}

// EnergySupplyRow is the demand of one end user on one energy supply for
// one timestep.
type EnergySupplyRow struct {
	Timestep int     `csv:"timestep"`
	Supply   string  `csv:"supply"`
	EndUser  string  `csv:"end_user"`
	Demand   float64 `csv:"energy_demand"`
}

// Recorder accumulates per-timestep results and writes them out as CSV
// files at the end of a run.
type Recorder struct {
	simTime    *SimulationTime
	zoneRows   []*ZoneResultRow
	systemRows []*SystemResultRow
}

func NewRecorder(simTime *SimulationTime) *Recorder {
	return &Recorder{simTime: simTime}
}

// Capture appends the results of one timestep.
func (r *Recorder) Capture(idx int, res *StepResult) {
	hour := r.simTime.Time(idx)

	for _, zName := range sortedKeys(res.Zones) {
		zr := res.Zones[zName]
		r.zoneRows = append(r.zoneRows, &ZoneResultRow{
			Timestep:        idx,
			Hour:            hour,
			Zone:            zName,
			InternalAirTemp: zr.InternalAirTemp,
			OperativeTemp:   zr.OperativeTemp,
			GainsInternal:   zr.GainsInternal,
			GainsSolar:      zr.GainsSolar,
			SpaceHeatDemand: zr.SpaceHeatDemand,
			SpaceCoolDemand: zr.SpaceCoolDemand,
			UnmetDemand:     zr.UnmetDemand,

			HBGainsSolar:     zr.HeatBalance.GainsSolar,
			HBGainsInternal:  zr.HeatBalance.GainsInternal,
			HBGainsHeatCool:  zr.HeatBalance.GainsHeatCool,
			HBEnergyToChange: zr.HeatBalance.EnergyToChangeTemp,
			HBLossThermalBr:  zr.HeatBalance.LossThermalBridges,
			HBLossInfilVent:  zr.HeatBalance.LossInfiltrationVent,
			HBLossFabric:     zr.HeatBalance.LossFabric,
		})
	}

	for _, sysName := range sortedKeys(res.HeatProvided) {
		if sysName == "" {
			continue
		}
		r.systemRows = append(r.systemRows, &SystemResultRow{
			Timestep:       idx,
			Hour:           hour,
			System:         sysName,
			Service:        "heating",
			EnergyProvided: res.HeatProvided[sysName],
		})
	}
	for _, sysName := range sortedKeys(res.CoolProvided) {
		if sysName == "" {
			continue
		}
		r.systemRows = append(r.systemRows, &SystemResultRow{
			Timestep:       idx,
			Hour:           hour,
			System:         sysName,
			Service:        "cooling",
			EnergyProvided: res.CoolProvided[sysName],
		})
	}
}

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}

// ExportZoneResults writes the per-zone timestep results.
func (r *Recorder) ExportZoneResults(path string) error {
	return writeCSV(path, &r.zoneRows)
}

// ExportSystemResults writes the per-system delivered energy.
func (r *Recorder) ExportSystemResults(path string) error {
	return writeCSV(path, &r.systemRows)
}

// ExportEnergySupplyResults writes the demand met by each energy supply,
// broken down by end user.
func ExportEnergySupplyResults(path string, simTime *SimulationTime, supplies map[string]*EnergySupply) error {
	var rows []*EnergySupplyRow
	for _, supplyName := range sortedKeys(supplies) {
		results := supplies[supplyName].ResultsByEndUser()
		for _, endUser := range sortedKeys(results) {
			series := results[endUser]
			for idx := 0; idx < simTime.TotalSteps(); idx++ {
				rows = append(rows, &EnergySupplyRow{
					Timestep: idx,
					Supply:   supplyName,
					EndUser:  endUser,
					Demand:   series[idx],
				})
			}
		}
	}
	return writeCSV(path, &rows)
}
