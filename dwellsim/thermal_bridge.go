package dwellsim

// ThermalBridge is a linear or point thermal bridge in the envelope.
type ThermalBridge interface {
	// HeatTransCoeff returns the heat transfer coefficient, in W/K.
	HeatTransCoeff() float64
}

// ThermalBridgeLinear is a junction with a linear thermal transmittance
// psi (W/(m.K)) applying over a length (m).
type ThermalBridgeLinear struct {
	LinearThermTrans float64
	Length           float64
}

func (tb ThermalBridgeLinear) HeatTransCoeff() float64 {
	return tb.LinearThermTrans * tb.Length
}

// ThermalBridgePoint is a point penetration with a fixed heat transfer
// coefficient, in W/K.
type ThermalBridgePoint struct {
	Coeff float64
}

func (tb ThermalBridgePoint) HeatTransCoeff() float64 {
	return tb.Coeff
}

// AggregateThermalBridges sums the heat transfer coefficients of all
// bridges of a zone, in W/K.
func AggregateThermalBridges(bridges []ThermalBridge) float64 {
	var total float64
	for _, tb := range bridges {
		total += tb.HeatTransCoeff()
	}
	return total
}
