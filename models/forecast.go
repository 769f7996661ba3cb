package models

import (
	"time"
)

// MaxForecastDays is the number of daily entries kept from a provider forecast
const MaxForecastDays = 7

// ForecastData represents a daily forecast for a location
type ForecastData struct {
	Location string        `json:"location"` // display name
	Days     []WeatherData `json:"days"`     // one entry per day, in provider order
	Updated  time.Time     `json:"updated"`  // when this forecast was fetched
}
