package datasource

import (
	"context"

	"weather-dashboard/models"
)

// Geocoder is an interface for services that resolve a free-text city name to a location
type Geocoder interface {
	// ResolveCity returns the first match for name
	ResolveCity(ctx context.Context, name string) (models.Location, error)

	// Name returns the geocoder's name
	Name() string
}

// WeatherProvider is an interface for services that can fetch current weather data
type WeatherProvider interface {
	// FetchCurrent fetches current conditions at the given coordinates
	FetchCurrent(ctx context.Context, lat, lon float64) (models.WeatherData, error)

	// Name returns the provider's name
	Name() string
}

// ForecastSource is an interface for services that can fetch daily forecasts
type ForecastSource interface {
	// FetchForecast fetches up to models.MaxForecastDays daily entries at the given coordinates
	FetchForecast(ctx context.Context, lat, lon float64) (models.ForecastData, error)

	// Name returns the source's name
	Name() string
}

// Provider is a service offering geocoding, current conditions and forecasts under one credential
type Provider interface {
	Geocoder
	WeatherProvider
	ForecastSource
}
