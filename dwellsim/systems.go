package dwellsim

import (
	"github.com/google/uuid"
)

// HeatCoolSystem is the contract between the dispatch loop and a space
// heating or cooling system serving a zone. Heating systems deliver
// positive energy, cooling systems negative energy.
type HeatCoolSystem interface {
	// ID returns the unique identity of the system instance.
	ID() uuid.UUID
	// Name returns the configured system name.
	Name() string
	// TempSetpnt returns the setpoint of the system's control at
	// timestep idx, or nil when the control has none.
	TempSetpnt(idx int) *float64
	// InRequiredPeriod reports whether the system is within its
	// required operating period at timestep idx.
	InRequiredPeriod(idx int) (bool, error)
	// FracConvective returns the convective fraction of the system's
	// heat output.
	FracConvective() float64
	// EnergyOutputMin returns the minimum output the system delivers
	// whenever it runs, in kWh.
	EnergyOutputMin() float64
	// DemandEnergy requests energyDemand kWh from the system and
	// returns the energy actually delivered, limited by the system's
	// capacity and control state.
	DemandEnergy(idx int, energyDemand float64) float64
}

// resolveControlState resolves a system's optional control for one
// timestep. A system without a control is always on with no setpoint.
func resolveControlState(c *SetpointTimeControl, idx int) ControlState {
	if c == nil {
		return ControlState{On: true}
	}
	state, err := StateAt(c, idx)
	if err != nil {
		return ControlState{}
	}
	return state
}

// InstantElecHeater is an instantaneous electric room heater: output
// follows demand up to the rated power, with direct electricity use.
type InstantElecHeater struct {
	id             uuid.UUID
	name           string
	ratedPower     float64 // kW
	fracConvective float64
	energyConn     *EnergySupplyConnection
	simTime        *SimulationTime
	control        *SetpointTimeControl
}

func NewInstantElecHeater(
	name string,
	ratedPower, fracConvective float64,
	energyConn *EnergySupplyConnection,
	simTime *SimulationTime,
	control *SetpointTimeControl,
) *InstantElecHeater {
	return &InstantElecHeater{
		id:             uuid.New(),
		name:           name,
		ratedPower:     ratedPower,
		fracConvective: fracConvective,
		energyConn:     energyConn,
		simTime:        simTime,
		control:        control,
	}
}

func (h *InstantElecHeater) ID() uuid.UUID { return h.id }
func (h *InstantElecHeater) Name() string  { return h.name }

func (h *InstantElecHeater) TempSetpnt(idx int) *float64 {
	return resolveControlState(h.control, idx).Setpoint
}

func (h *InstantElecHeater) InRequiredPeriod(idx int) (bool, error) {
	if h.control == nil {
		return false, nil
	}
	return h.control.InRequiredPeriod(idx), nil
}

func (h *InstantElecHeater) FracConvective() float64 { return h.fracConvective }

func (h *InstantElecHeater) EnergyOutputMin() float64 { return 0.0 }

// DemandEnergy requests energy (in kWh) from the heater. With no
// control present the system is always active; basic thermostatic
// control is implicit in the demand calculation.
func (h *InstantElecHeater) DemandEnergy(idx int, energyDemand float64) float64 {
	var energySupplied float64
	if resolveControlState(h.control, idx).On {
		// Output is limited by the power rating.
		energySupplied = min(energyDemand, h.ratedPower*h.simTime.Timestep())
	}
	h.energyConn.DemandEnergy(idx, energySupplied)
	return energySupplied
}

// AirConditioning is a space cooling system with a fixed capacity and
// seasonal efficiency.
type AirConditioning struct {
	id              uuid.UUID
	name            string
	coolingCapacity float64 // kW
	efficiency      float64 // SEER
	fracConvective  float64
	energyConn      *EnergySupplyConnection
	simTime         *SimulationTime
	control         *SetpointTimeControl
}

func NewAirConditioning(
	name string,
	coolingCapacity, efficiency, fracConvective float64,
	energyConn *EnergySupplyConnection,
	simTime *SimulationTime,
	control *SetpointTimeControl,
) *AirConditioning {
	return &AirConditioning{
		id:              uuid.New(),
		name:            name,
		coolingCapacity: coolingCapacity,
		efficiency:      efficiency,
		fracConvective:  fracConvective,
		energyConn:      energyConn,
		simTime:         simTime,
		control:         control,
	}
}

func (ac *AirConditioning) ID() uuid.UUID { return ac.id }
func (ac *AirConditioning) Name() string  { return ac.name }

func (ac *AirConditioning) TempSetpnt(idx int) *float64 {
	return resolveControlState(ac.control, idx).Setpoint
}

func (ac *AirConditioning) InRequiredPeriod(idx int) (bool, error) {
	if ac.control == nil {
		return false, nil
	}
	return ac.control.InRequiredPeriod(idx), nil
}

func (ac *AirConditioning) FracConvective() float64 { return ac.fracConvective }

func (ac *AirConditioning) EnergyOutputMin() float64 { return 0.0 }

// DemandEnergy requests cooling (negative, in kWh) from the system.
func (ac *AirConditioning) DemandEnergy(idx int, coolingDemand float64) float64 {
	var coolingSupplied float64
	if resolveControlState(ac.control, idx).On {
		// Cooling demand is negative by convention, so the capacity
		// bounds it from below.
		coolingSupplied = max(coolingDemand, -ac.coolingCapacity*ac.simTime.Timestep())
	}
	// Demand on the energy supply must be positive.
	ac.energyConn.DemandEnergy(idx, -coolingSupplied/ac.efficiency)
	return coolingSupplied
}
