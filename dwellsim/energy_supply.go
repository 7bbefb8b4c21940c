package dwellsim

// EnergySupply accumulates the energy demanded from one fuel supply
// (e.g. mains electricity), broken down by end user. Heat/cool systems
// and fans report their consumption through named connections.
type EnergySupply struct {
	name    string
	results map[string][]float64
	total   int
}

func NewEnergySupply(name string, totalSteps int) *EnergySupply {
	return &EnergySupply{
		name:    name,
		results: make(map[string][]float64),
		total:   totalSteps,
	}
}

func (es *EnergySupply) Name() string { return es.name }

// Connection registers an end user and returns its reporting handle.
func (es *EnergySupply) Connection(endUser string) (*EnergySupplyConnection, error) {
	if _, exists := es.results[endUser]; exists {
		return nil, configErrorf("EnergySupply."+es.name, "duplicate end user %q", endUser)
	}
	es.results[endUser] = make([]float64, es.total)
	return &EnergySupplyConnection{supply: es, endUser: endUser}, nil
}

// ResultsByEndUser returns the accumulated demand per end user, in kWh
// per timestep.
func (es *EnergySupply) ResultsByEndUser() map[string][]float64 {
	return es.results
}

// TotalDemand returns the demand summed over end users at timestep idx.
func (es *EnergySupply) TotalDemand(idx int) float64 {
	var total float64
	for _, series := range es.results {
		total += series[idx]
	}
	return total
}

// EnergySupplyConnection reports the energy demanded by one end user.
type EnergySupplyConnection struct {
	supply  *EnergySupply
	endUser string
}

// DemandEnergy records an amount of energy demanded, in kWh.
func (c *EnergySupplyConnection) DemandEnergy(idx int, energy float64) {
	c.supply.results[c.endUser][idx] += energy
}
