package dwellsim

import (
	"os"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
)

// ExternalConditions provides the outdoor boundary conditions for every
// timestep: air temperature, wind, solar radiation on the plane of each
// surface, and ground reflectivity. Weather-data preparation and solar
// geometry happen upstream; this type only indexes and aggregates the
// supplied series.
type ExternalConditions struct {
	airTemps            []float64
	windSpeeds          []float64
	windDirections      []float64 // degrees clockwise from North
	diffuseRadiation    []float64 // W/m2, horizontal plane
	directBeamRadiation []float64 // W/m2, plane of surface
	groundReflectivity  float64
	simTime             *SimulationTime
	startDay            float64
	seriesStep          float64

	airTempAnnual   float64
	airTempMonthly  [12]float64
	windSpeedAnnual float64
}

func NewExternalConditions(
	simTime *SimulationTime,
	airTemps, windSpeeds, windDirections, diffuseRadiation, directBeamRadiation []float64,
	groundReflectivity float64,
	startDay, seriesStep float64,
) (*ExternalConditions, error) {
	n := len(airTemps)
	if n == 0 {
		return nil, configErrorf("ExternalConditions", "empty air temperature series")
	}
	for name, s := range map[string][]float64{
		"wind_speeds":           windSpeeds,
		"wind_directions":       windDirections,
		"diffuse_radiation":     diffuseRadiation,
		"direct_beam_radiation": directBeamRadiation,
	} {
		if len(s) != n {
			return nil, configErrorf("ExternalConditions."+name,
				"length %d does not match air temperature series length %d", len(s), n)
		}
	}

	ec := &ExternalConditions{
		airTemps:            airTemps,
		windSpeeds:          windSpeeds,
		windDirections:      windDirections,
		diffuseRadiation:    diffuseRadiation,
		directBeamRadiation: directBeamRadiation,
		groundReflectivity:  groundReflectivity,
		simTime:             simTime,
		startDay:            startDay,
		seriesStep:          seriesStep,
	}
	ec.airTempAnnual = floats.Sum(airTemps) / float64(n)
	ec.windSpeedAnnual = floats.Sum(windSpeeds) / float64(n)

	// Monthly means assume the series covers a full non-leap year.
	stepsPerHour := 1.0 / seriesStep
	idx := 0
	for m, days := range daysInMonth {
		steps := int(float64(days*HoursPerDay) * stepsPerHour)
		end := idx + steps
		if end > n {
			end = n
		}
		if idx < end {
			ec.airTempMonthly[m] = floats.Sum(airTemps[idx:end]) / float64(end-idx)
		} else {
			ec.airTempMonthly[m] = ec.airTempAnnual
		}
		idx = end
	}
	return ec, nil
}

func (ec *ExternalConditions) seriesIdx(idx int) int {
	return ec.simTime.TimeSeriesIdx(idx, ec.startDay, ec.seriesStep)
}

// AirTemp returns the outdoor air temperature at timestep idx, in degC.
func (ec *ExternalConditions) AirTemp(idx int) float64 {
	return ec.airTemps[ec.seriesIdx(idx)]
}

// AirTempAnnual returns the annual mean outdoor air temperature.
func (ec *ExternalConditions) AirTempAnnual() float64 { return ec.airTempAnnual }

// AirTempMonthly returns the mean outdoor air temperature of the month
// containing timestep idx.
func (ec *ExternalConditions) AirTempMonthly(idx int) float64 {
	return ec.airTempMonthly[ec.simTime.CurrentMonth(idx)]
}

// AirTempMonthlyByMonth returns the mean outdoor air temperature of the
// given month (0 for January).
func (ec *ExternalConditions) AirTempMonthlyByMonth(month int) float64 {
	return ec.airTempMonthly[month]
}

// WindSpeed returns the wind speed at timestep idx, in m/s at 10 m.
func (ec *ExternalConditions) WindSpeed(idx int) float64 {
	return ec.windSpeeds[ec.seriesIdx(idx)]
}

// WindSpeedAnnual returns the annual mean wind speed.
func (ec *ExternalConditions) WindSpeedAnnual() float64 { return ec.windSpeedAnnual }

// WindDirection returns the direction the wind blows from at timestep
// idx, in degrees clockwise from North.
func (ec *ExternalConditions) WindDirection(idx int) float64 {
	return ec.windDirections[ec.seriesIdx(idx)]
}

// DiffuseHorizontalRadiation returns diffuse solar radiation on the
// horizontal plane at timestep idx, in W/m2.
func (ec *ExternalConditions) DiffuseHorizontalRadiation(idx int) float64 {
	return ec.diffuseRadiation[ec.seriesIdx(idx)]
}

// DirectBeamRadiation returns direct solar radiation on the plane of the
// receiving surface at timestep idx, in W/m2.
func (ec *ExternalConditions) DirectBeamRadiation(idx int) float64 {
	return ec.directBeamRadiation[ec.seriesIdx(idx)]
}

// GroundReflectivity returns the solar reflectivity of the ground.
func (ec *ExternalConditions) GroundReflectivity() float64 { return ec.groundReflectivity }

// SurfaceIrradiance splits solar radiation onto a surface of the given
// pitch into direct and diffuse parts. The diffuse part combines sky
// diffuse radiation weighted by the sky view factor with radiation
// reflected from the ground onto the surface.
func (ec *ExternalConditions) SurfaceIrradiance(idx int, pitch float64) (dir, dif float64) {
	fSky := skyViewFactor(pitch)
	dir = ec.DirectBeamRadiation(idx)
	global := dir + ec.DiffuseHorizontalRadiation(idx)
	dif = ec.DiffuseHorizontalRadiation(idx)*fSky + global*ec.groundReflectivity*(1.0-fSky)
	return dir, dif
}

// WeatherRecord is one row of a weather CSV file.
type WeatherRecord struct {
	AirTemp          float64 `csv:"air_temp"`
	WindSpeed        float64 `csv:"wind_speed"`
	WindDirection    float64 `csv:"wind_direction"`
	DiffuseRadiation float64 `csv:"diffuse_radiation"`
	DirectRadiation  float64 `csv:"direct_radiation"`
}

// LoadWeatherCSV reads a weather file into per-series slices.
func LoadWeatherCSV(path string) (airTemps, windSpeeds, windDirections, diffuse, direct []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	defer f.Close()

	var records []*WeatherRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	for _, r := range records {
		airTemps = append(airTemps, r.AirTemp)
		windSpeeds = append(windSpeeds, r.WindSpeed)
		windDirections = append(windDirections, r.WindDirection)
		diffuse = append(diffuse, r.DiffuseRadiation)
		direct = append(direct, r.DirectRadiation)
	}
	return airTemps, windSpeeds, windDirections, diffuse, direct, nil
}
