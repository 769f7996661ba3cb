package models

import (
	"math"
	"time"
)

// StandardPressure is the sea-level reference used for the pressure trend, in hPa
const StandardPressure = 1013

// compassPoints lists the 16 wind directions clockwise from north
var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WeatherData represents normalized weather conditions for one point in time
type WeatherData struct {
	Location    string    `json:"location"`    // display name
	Temperature float64   `json:"temperature"` // in Celsius
	FeelsLike   float64   `json:"feelsLike"`   // in Celsius
	Humidity    int       `json:"humidity"`    // percentage
	WindSpeed   float64   `json:"windSpeed"`   // in m/s
	WindDeg     int       `json:"windDeg"`     // wind direction in degrees
	Pressure    int       `json:"pressure"`    // in hPa
	Description string    `json:"description"` // short text description
	Icon        string    `json:"icon"`        // provider icon code
	Timestamp   time.Time `json:"timestamp"`   // time the conditions refer to
}

// TemperatureFahrenheit converts the temperature to Fahrenheit
func (w WeatherData) TemperatureFahrenheit() float64 {
	return w.Temperature*9/5 + 32
}

// WindDirection returns the 16-point compass label for WindDeg
func (w WeatherData) WindDirection() string {
	return CompassDirection(float64(w.WindDeg))
}

// PressureTrend compares the pressure against StandardPressure
func (w WeatherData) PressureTrend() PressureTrend {
	switch {
	case w.Pressure > StandardPressure:
		return PressureRising
	case w.Pressure < StandardPressure:
		return PressureFalling
	}
	return PressureSteady
}

// WithLocation returns a copy of the data with a different display name
func (w WeatherData) WithLocation(name string) WeatherData {
	w.Location = name
	return w
}

// CompassDirection maps degrees onto the 16 compass points.
// Each sector is 22.5 degrees wide and centered on its label; ties round up.
func CompassDirection(deg float64) string {
	idx := int(math.Floor(deg/22.5+0.5)) % len(compassPoints)
	if idx < 0 {
		idx += len(compassPoints)
	}
	return compassPoints[idx]
}

// PressureTrend is the direction of pressure relative to StandardPressure
type PressureTrend string

const (
	PressureRising  PressureTrend = "rising"
	PressureFalling PressureTrend = "falling"
	PressureSteady  PressureTrend = "steady"
)

func (p PressureTrend) String() string {
	return string(p)
}

// Symbol returns the arrow shown next to the pressure value
func (p PressureTrend) Symbol() string {
	switch p {
	case PressureRising:
		return "↑"
	case PressureFalling:
		return "↓"
	}
	return "→"
}
