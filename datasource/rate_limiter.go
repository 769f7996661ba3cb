package datasource

import (
	"context"
	"fmt"

	"weather-dashboard/models"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a Provider with rate limiting.
// Geocoding, current and forecast calls share one limiter because the provider quota is per API key.
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
	name     string
}

// NewRateLimitedProvider creates a new rate limited provider
// rps is the maximum requests per second allowed (can be fractional for less than 1 request per second)
// burst is the maximum burst size allowed
func NewRateLimitedProvider(provider Provider, rps float64, burst int) *RateLimitedProvider {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		name:     fmt.Sprintf("%s [Rate Limited]", provider.Name()),
	}
}

func (r *RateLimitedProvider) wait(ctx context.Context, op string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return NewError(KindTransport, op, fmt.Errorf("rate limit wait canceled: %w", err))
	}
	return nil
}

// ResolveCity implements Geocoder with rate limiting
func (r *RateLimitedProvider) ResolveCity(ctx context.Context, name string) (models.Location, error) {
	if err := r.wait(ctx, "resolve city"); err != nil {
		return models.Location{}, err
	}
	return r.provider.ResolveCity(ctx, name)
}

// FetchCurrent implements WeatherProvider with rate limiting
func (r *RateLimitedProvider) FetchCurrent(ctx context.Context, lat, lon float64) (models.WeatherData, error) {
	if err := r.wait(ctx, "fetch current"); err != nil {
		return models.WeatherData{}, err
	}
	return r.provider.FetchCurrent(ctx, lat, lon)
}

// FetchForecast implements ForecastSource with rate limiting
func (r *RateLimitedProvider) FetchForecast(ctx context.Context, lat, lon float64) (models.ForecastData, error) {
	if err := r.wait(ctx, "fetch forecast"); err != nil {
		return models.ForecastData{}, err
	}
	return r.provider.FetchForecast(ctx, lat, lon)
}

// Name returns the provider name
func (r *RateLimitedProvider) Name() string {
	return r.name
}

// Verify that the rate limited type implements the required interfaces
var _ Provider = (*RateLimitedProvider)(nil)
