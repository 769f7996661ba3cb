// Package dashboard combines geocoding, weather retrieval and threshold
// evaluation into the operations the presentation layers call.
package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"weather-dashboard/alerts"
	"weather-dashboard/cache"
	"weather-dashboard/config"
	"weather-dashboard/datasource"
	"weather-dashboard/models"
	"weather-dashboard/providers/openweathermap"
)

// Report is the result of one refresh of a city
type Report struct {
	City        string              `json:"city"`
	Location    models.Location     `json:"location"`
	Current     models.WeatherData  `json:"current"`
	Forecast    models.ForecastData `json:"forecast"`
	Alerts      []string            `json:"alerts"`
	Warnings    []alerts.Warning    `json:"warnings"`
	RefreshedAt time.Time           `json:"refreshedAt"`
}

// Service resolves cities and fetches their weather
type Service struct {
	geocoder  datasource.Geocoder
	weather   datasource.WeatherProvider
	forecast  datasource.ForecastSource
	evaluator *alerts.Evaluator
	log       logrus.FieldLogger

	// set when the geocoder is a CachedGeocoder
	geocodeCache *cache.CachedGeocoder
}

// Option customizes a Service
type Option func(*Service)

// WithLogger sets the logger used for diagnostics
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEvaluator replaces the default-threshold evaluator
func WithEvaluator(e *alerts.Evaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// WithGeocoder replaces the geocoder, e.g. with a cached one
func WithGeocoder(g datasource.Geocoder) Option {
	return func(s *Service) {
		if g != nil {
			s.geocoder = g
			s.geocodeCache, _ = g.(*cache.CachedGeocoder)
		}
	}
}

// NewService creates a service backed by a single provider
func NewService(provider datasource.Provider, opts ...Option) *Service {
	s := &Service{
		geocoder:  provider,
		weather:   provider,
		forecast:  provider,
		evaluator: alerts.NewEvaluator(alerts.DefaultThresholds()),
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig builds the production chain: retrying HTTP client,
// OpenWeatherMap provider, rate limiter and an optional geocode cache.
func NewFromConfig(cfg config.Config, log logrus.FieldLogger) *Service {
	owm := openweathermap.NewProvider(cfg.APIKey,
		openweathermap.WithBaseURL(cfg.BaseURL),
		openweathermap.WithHTTPClient(datasource.NewHTTPClient(cfg.RequestTimeout, cfg.HTTPRetryMax)),
	)
	limited := datasource.NewRateLimitedProvider(owm, cfg.RateLimitRPS, cfg.RateLimitBurst)

	opts := []Option{
		WithLogger(log),
		WithEvaluator(alerts.NewEvaluator(cfg.Thresholds)),
	}
	if cfg.GeocodeCacheTTL > 0 {
		opts = append(opts, WithGeocoder(cache.NewCachedGeocoder(limited, cfg.GeocodeCacheTTL, log)))
	}

	return NewService(limited, opts...)
}

// Name describes the provider chain
func (s *Service) Name() string {
	return s.geocoder.Name()
}

// Thresholds returns the limits the alert checks run against
func (s *Service) Thresholds() alerts.Thresholds {
	return s.evaluator.Thresholds()
}

// PurgeGeocodeCache drops expired geocode entries and returns how many were
// removed. It is a no-op without a cached geocoder.
func (s *Service) PurgeGeocodeCache() int {
	if s.geocodeCache == nil {
		return 0
	}
	return s.geocodeCache.Purge()
}

// Evaluate runs the alert and warning checks for data
func (s *Service) Evaluate(data models.WeatherData) ([]string, []alerts.Warning) {
	return s.evaluator.CheckAlerts(data), alerts.CheckWarnings(data)
}

// Current resolves city and returns its current conditions.
// The record's Location is the trimmed city text as entered.
func (s *Service) Current(ctx context.Context, city string) (models.WeatherData, error) {
	loc, err := s.geocoder.ResolveCity(ctx, city)
	if err != nil {
		return models.WeatherData{}, err
	}
	return s.current(ctx, city, loc)
}

func (s *Service) current(ctx context.Context, city string, loc models.Location) (models.WeatherData, error) {
	data, err := s.weather.FetchCurrent(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return models.WeatherData{}, err
	}
	return data.WithLocation(displayName(city)), nil
}

// Forecast resolves city and returns up to seven daily entries
func (s *Service) Forecast(ctx context.Context, city string) (models.ForecastData, error) {
	loc, err := s.geocoder.ResolveCity(ctx, city)
	if err != nil {
		return models.ForecastData{}, err
	}
	return s.forecastFor(ctx, city, loc)
}

func (s *Service) forecastFor(ctx context.Context, city string, loc models.Location) (models.ForecastData, error) {
	forecast, err := s.forecast.FetchForecast(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return models.ForecastData{}, err
	}
	name := displayName(city)
	forecast.Location = name
	for i := range forecast.Days {
		forecast.Days[i] = forecast.Days[i].WithLocation(name)
	}
	return forecast, nil
}

// GetCurrentWeather is Current with failures collapsed to nil.
// The error kind is still logged.
func (s *Service) GetCurrentWeather(ctx context.Context, city string) *models.WeatherData {
	data, err := s.Current(ctx, city)
	if err != nil {
		s.logFailure(city, "current", err)
		return nil
	}
	return &data
}

// GetForecast is Forecast with failures collapsed to nil.
func (s *Service) GetForecast(ctx context.Context, city string) *models.ForecastData {
	forecast, err := s.Forecast(ctx, city)
	if err != nil {
		s.logFailure(city, "forecast", err)
		return nil
	}
	return &forecast
}

// Refresh resolves city once, fetches current conditions and the forecast,
// and evaluates alerts and warnings.
func (s *Service) Refresh(ctx context.Context, city string) (Report, error) {
	loc, err := s.geocoder.ResolveCity(ctx, city)
	if err != nil {
		s.logFailure(city, "refresh", err)
		return Report{}, err
	}

	current, err := s.current(ctx, city, loc)
	if err != nil {
		s.logFailure(city, "refresh", err)
		return Report{}, err
	}

	forecast, err := s.forecastFor(ctx, city, loc)
	if err != nil {
		s.logFailure(city, "refresh", err)
		return Report{}, err
	}

	report := Report{
		City:        displayName(city),
		Location:    loc,
		Current:     current,
		Forecast:    forecast,
		RefreshedAt: time.Now(),
	}
	report.Alerts, report.Warnings = s.Evaluate(current)

	s.log.WithFields(logrus.Fields{
		"city":     report.City,
		"alerts":   len(report.Alerts),
		"warnings": len(report.Warnings),
	}).Debug("refreshed weather")

	return report, nil
}

func (s *Service) logFailure(city, op string, err error) {
	s.log.WithFields(logrus.Fields{
		"city":  displayName(city),
		"op":    op,
		"kind":  datasource.KindOf(err).String(),
		"error": err,
	}).Warn("Error fetching weather data")
}

func displayName(city string) string {
	return strings.TrimSpace(city)
}
