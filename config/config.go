package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"weather-dashboard/alerts"
)

// Config holds the settings shared by the server and the CLI.
type Config struct {
	APIKey  string
	BaseURL string
	Port    int

	Cities          []string
	RefreshInterval time.Duration

	RequestTimeout  time.Duration
	HTTPRetryMax    int
	RateLimitRPS    float64
	RateLimitBurst  int
	GeocodeCacheTTL time.Duration

	Thresholds alerts.Thresholds

	LogLevel  string
	LogFormat string
}

// fileConfig is the optional JSON config file
type fileConfig struct {
	OpenWeatherMap struct {
		APIKey  string `json:"apiKey"`
		BaseURL string `json:"baseUrl"`
	} `json:"openWeatherMap"`

	// List of cities to refresh on schedule
	Locations []string `json:"locations"`

	Thresholds *struct {
		MaxTemp    *float64 `json:"maxTemp"`
		MinTemp    *float64 `json:"minTemp"`
		SevereWind *float64 `json:"severeWind"`
	} `json:"thresholds"`
}

// Default returns the built-in configuration. The API key is left empty.
func Default() Config {
	return Config{
		BaseURL:         "https://api.openweathermap.org",
		Port:            8080,
		RefreshInterval: 5 * time.Minute,
		RequestTimeout:  5 * time.Second,
		HTTPRetryMax:    0,
		RateLimitRPS:    1,
		RateLimitBurst:  5,
		Thresholds:      alerts.DefaultThresholds(),
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load builds the configuration from defaults, a .env file, an optional JSON
// file at path and the environment, in that order. An empty path skips the file.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Default(), fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var fc fileConfig
	if err := json.NewDecoder(file).Decode(&fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.OpenWeatherMap.APIKey != "" {
		c.APIKey = fc.OpenWeatherMap.APIKey
	}
	if fc.OpenWeatherMap.BaseURL != "" {
		c.BaseURL = fc.OpenWeatherMap.BaseURL
	}
	if len(fc.Locations) > 0 {
		c.Cities = cleanCities(fc.Locations)
	}
	if t := fc.Thresholds; t != nil {
		if t.MaxTemp != nil {
			c.Thresholds.MaxTemp = *t.MaxTemp
		}
		if t.MinTemp != nil {
			c.Thresholds.MinTemp = *t.MinTemp
		}
		if t.SevereWind != nil {
			c.Thresholds.SevereWind = *t.SevereWind
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if key := os.Getenv("OPENWEATHER_API_KEY"); key != "" {
		c.APIKey = key
	}
	if u := os.Getenv("OPENWEATHER_BASE_URL"); u != "" {
		c.BaseURL = u
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			c.Port = port
		} else {
			return fmt.Errorf("invalid PORT: %s", portStr)
		}
	}

	if cities := os.Getenv("WEATHER_CITIES"); cities != "" {
		c.Cities = cleanCities(strings.Split(cities, ","))
	}

	if s := os.Getenv("REFRESH_INTERVAL"); s != "" {
		d, err := parseSeconds(s)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid REFRESH_INTERVAL: %s", s)
		}
		c.RefreshInterval = d
	}

	if s := os.Getenv("REQUEST_TIMEOUT"); s != "" {
		d, err := parseSeconds(s)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid REQUEST_TIMEOUT: %s", s)
		}
		c.RequestTimeout = d
	}

	if s := os.Getenv("HTTP_RETRY_MAX"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid HTTP_RETRY_MAX: %s", s)
		}
		c.HTTPRetryMax = n
	}

	if s := os.Getenv("RATE_LIMIT_RPS"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid RATE_LIMIT_RPS: %s", s)
		}
		c.RateLimitRPS = v
	}

	if s := os.Getenv("RATE_LIMIT_BURST"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid RATE_LIMIT_BURST: %s", s)
		}
		c.RateLimitBurst = n
	}

	if s := os.Getenv("GEOCODE_CACHE_TTL"); s != "" {
		d, err := parseSeconds(s)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid GEOCODE_CACHE_TTL: %s", s)
		}
		c.GeocodeCacheTTL = d
	}

	for _, f := range []struct {
		env string
		dst *float64
	}{
		{"MAX_TEMP_THRESHOLD", &c.Thresholds.MaxTemp},
		{"MIN_TEMP_THRESHOLD", &c.Thresholds.MinTemp},
		{"WIND_THRESHOLD", &c.Thresholds.SevereWind},
	} {
		if s := os.Getenv(f.env); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %s", f.env, s)
			}
			*f.dst = v
		}
	}

	if s := os.Getenv("LOG_LEVEL"); s != "" {
		c.LogLevel = s
	}
	if s := os.Getenv("LOG_FORMAT"); s != "" {
		c.LogFormat = s
	}

	return nil
}

// Validate checks the settings that cannot be defaulted
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("OPENWEATHER_API_KEY is required")
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("invalid alert thresholds: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s", c.LogFormat)
	}
	return nil
}

// refreshRequests is the number of upstream calls one city refresh makes
const refreshRequests = 3

// RefreshTimeout bounds one city refresh. Each request may use every attempt
// and wait once for the rate limiter. Retry backoff is not counted.
func (c Config) RefreshTimeout() time.Duration {
	perRequest := c.RequestTimeout * time.Duration(c.HTTPRetryMax+1)
	if c.RateLimitRPS > 0 {
		perRequest += time.Duration(float64(time.Second) / c.RateLimitRPS)
	}
	return refreshRequests * perRequest
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// NewLogger returns a logrus logger configured with the level and format.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// parseSeconds accepts a plain number of seconds or a Go duration string
func parseSeconds(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func cleanCities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
