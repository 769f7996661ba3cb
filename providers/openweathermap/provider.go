package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

// DefaultBaseURL is the root of the OpenWeatherMap APIs
const DefaultBaseURL = "https://api.openweathermap.org"

const (
	geocodePath = "/geo/1.0/direct"
	oneCallPath = "/data/3.0/onecall"

	excludeForCurrent  = "minutely,hourly,daily,alerts"
	excludeForForecast = "current,minutely,hourly,alerts"
)

// Provider talks to the OpenWeatherMap geocoding and One Call APIs.
// It implements datasource.Provider.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Ensure Provider implements datasource.Provider
var _ datasource.Provider = (*Provider)(nil)

// Option customizes a Provider
type Option func(*Provider)

// WithBaseURL points the provider at another API root
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewProvider creates a new OpenWeatherMap provider
func NewProvider(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: datasource.NewHTTPClient(datasource.DefaultRequestTimeout, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "OpenWeatherMap"
}

// IconURL returns the image URL for an icon code
func IconURL(code string) string {
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@2x.png", url.PathEscape(code))
}

type conditionPayload struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type geocodeMatch struct {
	Name    string   `json:"name"`
	State   string   `json:"state"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// ResolveCity resolves a city name with the geocoding API, taking the first match
func (p *Provider) ResolveCity(ctx context.Context, name string) (models.Location, error) {
	const op = "resolve city"

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Location{}, datasource.Errorf(datasource.KindNotFound, op, "empty city name")
	}

	params := url.Values{}
	params.Add("q", name)
	params.Add("limit", "1")
	params.Add("appid", p.apiKey)

	var matches []geocodeMatch
	if err := p.get(ctx, op, geocodePath, params, &matches); err != nil {
		return models.Location{}, err
	}
	if len(matches) == 0 {
		return models.Location{}, datasource.Errorf(datasource.KindNotFound, op, "no match for %q", name)
	}

	m := matches[0]
	if m.Lat == nil || m.Lon == nil {
		return models.Location{}, datasource.Errorf(datasource.KindMalformed, op, "match for %q has no coordinates", name)
	}

	return models.Location{
		Name:    m.Name,
		State:   m.State,
		Country: m.Country,
		Lat:     *m.Lat,
		Lon:     *m.Lon,
	}, nil
}

type currentPayload struct {
	Dt        *int64             `json:"dt"`
	Temp      *float64           `json:"temp"`
	FeelsLike float64            `json:"feels_like"`
	Pressure  int                `json:"pressure"`
	Humidity  int                `json:"humidity"`
	WindSpeed float64            `json:"wind_speed"`
	WindDeg   int                `json:"wind_deg"`
	Weather   []conditionPayload `json:"weather"`
}

// FetchCurrent fetches current conditions from the One Call API
func (p *Provider) FetchCurrent(ctx context.Context, lat, lon float64) (models.WeatherData, error) {
	const op = "fetch current"

	var response struct {
		Current *currentPayload `json:"current"`
	}
	if err := p.get(ctx, op, oneCallPath, p.oneCallParams(lat, lon, excludeForCurrent), &response); err != nil {
		return models.WeatherData{}, err
	}

	c := response.Current
	switch {
	case c == nil:
		return models.WeatherData{}, datasource.Errorf(datasource.KindMalformed, op, "response has no current section")
	case c.Temp == nil || c.Dt == nil:
		return models.WeatherData{}, datasource.Errorf(datasource.KindMalformed, op, "current section lacks temp or dt")
	case len(c.Weather) == 0:
		return models.WeatherData{}, datasource.Errorf(datasource.KindMalformed, op, "current section has no weather condition")
	}

	return models.WeatherData{
		Temperature: *c.Temp,
		FeelsLike:   c.FeelsLike,
		Humidity:    c.Humidity,
		WindSpeed:   c.WindSpeed,
		WindDeg:     c.WindDeg,
		Pressure:    c.Pressure,
		Description: c.Weather[0].Description,
		Icon:        c.Weather[0].Icon,
		Timestamp:   time.Unix(*c.Dt, 0),
	}, nil
}

func (p *Provider) oneCallParams(lat, lon float64, exclude string) url.Values {
	params := url.Values{}
	params.Add("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Add("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Add("appid", p.apiKey)
	params.Add("units", "metric")
	params.Add("exclude", exclude)
	return params
}

// get performs a GET against path and decodes the JSON body into out.
// Failures are classified into datasource error kinds.
func (p *Provider) get(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return datasource.NewError(datasource.KindTransport, op, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// the url.Error would leak the appid
		return datasource.NewError(datasource.KindTransport, op, fmt.Errorf("failed to execute request: %w", unwrapURLError(err)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return datasource.NewError(datasource.KindTransport, op, fmt.Errorf("failed to read response body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return datasource.NewError(datasource.KindAuth, op, fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiMessage(body)))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return datasource.NewError(datasource.KindTransport, op, fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiMessage(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return datasource.NewError(datasource.KindMalformed, op, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

func unwrapURLError(err error) error {
	for {
		ue, ok := err.(*url.Error)
		if !ok {
			return err
		}
		err = ue.Err
	}
}

// apiMessage extracts the "message" field of an error body, falling back to the raw text
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max]
	}
	return s
}
