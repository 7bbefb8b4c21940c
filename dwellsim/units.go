package dwellsim

import "math"

// Physical constants and unit conversions shared across the package.

const (
	// WPerKW converts kilowatts to watts.
	WPerKW = 1000.0

	// SecondsPerHour is the number of seconds in one hour.
	SecondsPerHour = 3600.0

	// HoursPerDay is the number of hours in one day.
	HoursPerDay = 24

	// JPerKWH converts kilowatt-hours to joules.
	JPerKWH = 3600000.0

	// KelvinOffset converts degrees Celsius to kelvin.
	KelvinOffset = 273.15
)

// Dry air around 20 degC.
const (
	AirDensity      = 1.204   // kg/m3
	AirSpecificHeat = 1006.0  // J/(kg.K)
	PAtm            = 101325. // Pa at sea level
	GravityAccel    = 9.81    // m/s2
)

// daysInMonth holds the day count of each month for a non-leap year.
var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// CelsiusToKelvin converts a temperature in degrees Celsius to kelvin.
func CelsiusToKelvin(t float64) float64 {
	return t + KelvinOffset
}

// WattsToKWH converts an average power in W over a period of timestepHours
// to an energy in kWh.
func WattsToKWH(power, timestepHours float64) float64 {
	return power * timestepHours / WPerKW
}

// KWHToWatts converts an energy in kWh delivered over timestepHours to an
// average power in W.
func KWHToWatts(energy, timestepHours float64) float64 {
	return energy / timestepHours * WPerKW
}

// AirDensityAtAltitude adjusts the sea-level air density for dwelling
// altitude above sea level, in m.
func AirDensityAtAltitude(altitude float64) float64 {
	return AirDensity * math.Pow(1.0-(0.00651*altitude)/293.0, 4.255)
}

// airDensityAtTemp recalculates an altitude-adjusted air density for the
// given absolute temperature, in K.
func airDensityAtTemp(temperature, densityAtAlt float64) float64 {
	return TRef / temperature * densityAtAlt
}

// TRef is the reference room temperature in K used in the pressure and
// density relations of BS EN 16798-7.
const TRef = 293.15
