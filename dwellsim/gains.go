package dwellsim

// Gains is a source of internal heat gains to a zone.
type Gains interface {
	// TotalInternalGain returns the internal gain at timestep idx for a
	// zone of the given floor area, in W.
	TotalInternalGain(idx int, zoneArea float64) float64
}

// InternalGains represents gains from occupants, lighting, cooking and
// similar, given as a time series of W/m2.
type InternalGains struct {
	totalInternalGains []float64
	simTime            *SimulationTime
	startDay           float64
	timeSeriesStep     float64
}

func NewInternalGains(totalInternalGains []float64, simTime *SimulationTime, startDay, timeSeriesStep float64) *InternalGains {
	return &InternalGains{
		totalInternalGains: totalInternalGains,
		simTime:            simTime,
		startDay:           startDay,
		timeSeriesStep:     timeSeriesStep,
	}
}

func (g *InternalGains) TotalInternalGain(idx int, zoneArea float64) float64 {
	seriesIdx := g.simTime.TimeSeriesIdx(idx, g.startDay, g.timeSeriesStep)
	return g.totalInternalGains[seriesIdx] * zoneArea
}

// ApplianceGains represents gains from appliances. The full electricity
// demand of the appliance is metered against its energy supply; only
// gainsFraction of it ends up as heat in the zone.
type ApplianceGains struct {
	totalEnergySupply []float64 // W/m2 time series
	energyConn        *EnergySupplyConnection
	gainsFraction     float64
	simTime           *SimulationTime
	startDay          float64
	timeSeriesStep    float64
}

func NewApplianceGains(
	totalEnergySupply []float64,
	energyConn *EnergySupplyConnection,
	gainsFraction float64,
	simTime *SimulationTime,
	startDay, timeSeriesStep float64,
) *ApplianceGains {
	return &ApplianceGains{
		totalEnergySupply: totalEnergySupply,
		energyConn:        energyConn,
		gainsFraction:     gainsFraction,
		simTime:           simTime,
		startDay:          startDay,
		timeSeriesStep:    timeSeriesStep,
	}
}

func (g *ApplianceGains) TotalInternalGain(idx int, zoneArea float64) float64 {
	seriesIdx := g.simTime.TimeSeriesIdx(idx, g.startDay, g.timeSeriesStep)
	totalEnergySuppliedW := g.totalEnergySupply[seriesIdx] * zoneArea

	g.energyConn.DemandEnergy(idx, WattsToKWH(totalEnergySuppliedW, g.simTime.Timestep()))

	return totalEnergySuppliedW * g.gainsFraction
}
