package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"weather-dashboard/alerts"
	"weather-dashboard/cache"
	"weather-dashboard/config"
	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

type fakeProvider struct {
	resolveCalls int
	resolveErr   error
	currentErr   error
	forecastErr  error
	current      models.WeatherData
	days         int
}

func (f *fakeProvider) Name() string { return "Fake" }

func (f *fakeProvider) ResolveCity(ctx context.Context, name string) (models.Location, error) {
	f.resolveCalls++
	if f.resolveErr != nil {
		return models.Location{}, f.resolveErr
	}
	return models.Location{Name: "London", Country: "GB", Lat: 51.5, Lon: -0.12}, nil
}

func (f *fakeProvider) FetchCurrent(ctx context.Context, lat, lon float64) (models.WeatherData, error) {
	if f.currentErr != nil {
		return models.WeatherData{}, f.currentErr
	}
	return f.current, nil
}

func (f *fakeProvider) FetchForecast(ctx context.Context, lat, lon float64) (models.ForecastData, error) {
	if f.forecastErr != nil {
		return models.ForecastData{}, f.forecastErr
	}
	out := models.ForecastData{Updated: time.Now()}
	for i := 0; i < f.days; i++ {
		out.Days = append(out.Days, models.WeatherData{Temperature: float64(i)})
	}
	return out, nil
}

func newTestService(p *fakeProvider) (*Service, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewService(p, WithLogger(logger)), hook
}

func TestGetCurrentWeather(t *testing.T) {
	p := &fakeProvider{current: models.WeatherData{Temperature: 18, Description: "few clouds"}}
	s, _ := newTestService(p)

	data := s.GetCurrentWeather(context.Background(), "  london ")
	if data == nil {
		t.Fatal("expected data")
	}
	if data.Location != "london" {
		t.Errorf("location should be the trimmed input, got %q", data.Location)
	}
	if data.Temperature != 18 {
		t.Errorf("unexpected data %+v", data)
	}
}

func TestGetCurrentWeatherCityNotFound(t *testing.T) {
	p := &fakeProvider{resolveErr: datasource.Errorf(datasource.KindNotFound, "resolve city", "no match for %q", "Atlantis")}
	s, hook := newTestService(p)

	if data := s.GetCurrentWeather(context.Background(), "Atlantis"); data != nil {
		t.Fatalf("expected nil, got %+v", data)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a diagnostic to be logged")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("expected warn level, got %s", entry.Level)
	}
	if entry.Data["kind"] != "not_found" || entry.Data["city"] != "Atlantis" || entry.Data["op"] != "current" {
		t.Errorf("unexpected fields %v", entry.Data)
	}
}

func TestGetForecastFailureKinds(t *testing.T) {
	cases := map[string]error{
		"auth":      datasource.Errorf(datasource.KindAuth, "fetch forecast", "invalid key"),
		"transport": datasource.Errorf(datasource.KindTransport, "fetch forecast", "timeout"),
		"malformed": datasource.Errorf(datasource.KindMalformed, "fetch forecast", "no daily"),
	}
	for kind, err := range cases {
		t.Run(kind, func(t *testing.T) {
			p := &fakeProvider{forecastErr: err}
			s, hook := newTestService(p)

			if f := s.GetForecast(context.Background(), "London"); f != nil {
				t.Fatalf("expected nil, got %+v", f)
			}
			if got := hook.LastEntry().Data["kind"]; got != kind {
				t.Errorf("logged kind %v, want %s", got, kind)
			}
		})
	}
}

func TestGetForecastSetsLocation(t *testing.T) {
	p := &fakeProvider{days: 7}
	s, _ := newTestService(p)

	f := s.GetForecast(context.Background(), "London")
	if f == nil {
		t.Fatal("expected forecast")
	}
	if f.Location != "London" || len(f.Days) != 7 {
		t.Errorf("unexpected forecast %+v", f)
	}
	for i, d := range f.Days {
		if d.Location != "London" {
			t.Errorf("day %d has location %q", i, d.Location)
		}
	}
}

func TestRefreshResolvesOnce(t *testing.T) {
	p := &fakeProvider{
		current: models.WeatherData{Temperature: 20, WindSpeed: 25, Description: "thunderstorm with heavy rain"},
		days:    7,
	}
	s, hook := newTestService(p)

	report, err := s.Refresh(context.Background(), "London")
	if err != nil {
		t.Fatal(err)
	}
	if p.resolveCalls != 1 {
		t.Errorf("expected one geocode call, got %d", p.resolveCalls)
	}
	if report.City != "London" || report.Location.Country != "GB" {
		t.Errorf("unexpected report header %+v", report)
	}
	if len(report.Alerts) != 2 || len(report.Warnings) != 3 {
		t.Errorf("expected 2 alerts and 3 warnings, got %q / %+v", report.Alerts, report.Warnings)
	}
	if len(report.Forecast.Days) != 7 {
		t.Errorf("expected 7 forecast days, got %d", len(report.Forecast.Days))
	}
	if report.RefreshedAt.IsZero() {
		t.Error("expected RefreshedAt to be set")
	}
	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.DebugLevel {
		t.Error("expected a debug entry for the refresh")
	}
}

func TestRefreshReturnsTypedError(t *testing.T) {
	p := &fakeProvider{currentErr: datasource.Errorf(datasource.KindTransport, "fetch current", "connection refused")}
	s, hook := newTestService(p)

	_, err := s.Refresh(context.Background(), "London")
	if !errors.Is(err, datasource.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(hook.AllEntries()) != 1 {
		t.Errorf("expected one diagnostic, got %d", len(hook.AllEntries()))
	}
}

func TestEvaluateUsesConfiguredThresholds(t *testing.T) {
	s := NewService(&fakeProvider{}, WithEvaluator(alerts.NewEvaluator(alerts.Thresholds{MaxTemp: 25, MinTemp: 0, SevereWind: 20})))
	a, w := s.Evaluate(models.WeatherData{Temperature: 26})
	if len(a) != 1 {
		t.Errorf("expected the configured threshold to apply, got %q", a)
	}
	if len(w) != 0 {
		t.Errorf("warnings use fixed thresholds, got %+v", w)
	}
}

func TestThresholdsReportsEvaluatorLimits(t *testing.T) {
	if got := NewService(&fakeProvider{}).Thresholds(); got != alerts.DefaultThresholds() {
		t.Errorf("expected default thresholds, got %+v", got)
	}

	custom := alerts.Thresholds{MaxTemp: 28, MinTemp: -5, SevereWind: 12}
	s := NewService(&fakeProvider{}, WithEvaluator(alerts.NewEvaluator(custom)))
	if got := s.Thresholds(); got != custom {
		t.Errorf("got %+v, want %+v", got, custom)
	}
}

func TestPurgeGeocodeCache(t *testing.T) {
	p := &fakeProvider{}
	if n := NewService(p).PurgeGeocodeCache(); n != 0 {
		t.Errorf("uncached service should purge nothing, got %d", n)
	}

	logger, _ := test.NewNullLogger()
	s := NewService(p, WithGeocoder(cache.NewCachedGeocoder(p, time.Millisecond, logger)))
	if _, err := s.Current(context.Background(), "London"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if n := s.PurgeGeocodeCache(); n != 1 {
		t.Errorf("expected the expired entry to be purged, got %d", n)
	}
	if n := s.PurgeGeocodeCache(); n != 0 {
		t.Errorf("second purge should find nothing, got %d", n)
	}
}

func TestNewFromConfigEndToEnd(t *testing.T) {
	var geocodeHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/geo/"):
			atomic.AddInt32(&geocodeHits, 1)
			w.Write([]byte(`[{"name":"Lima","country":"PE","lat":-12.04,"lon":-77.03}]`))
		case r.URL.Query().Get("exclude") == "minutely,hourly,daily,alerts":
			w.Write([]byte(`{"current":{"dt":1718712000,"temp":36,"feels_like":37,"humidity":40,"pressure":1014,"wind_speed":5,"wind_deg":0,"weather":[{"description":"clear sky","icon":"01d"}]}}`))
		default:
			w.Write([]byte(`{"daily":[{"dt":1718712000,"temp":{"day":30},"feels_like":{"day":31},"weather":[{"description":"clear sky","icon":"01d"}]}]}`))
		}
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.APIKey = "key"
	cfg.BaseURL = srv.URL
	cfg.RateLimitRPS = 100
	cfg.GeocodeCacheTTL = time.Minute

	logger, _ := test.NewNullLogger()
	s := NewFromConfig(cfg, logger)
	if s.Name() != "OpenWeatherMap [Rate Limited] [Cached]" {
		t.Errorf("unexpected chain name %q", s.Name())
	}

	for i := 0; i < 2; i++ {
		report, err := s.Refresh(context.Background(), "Lima")
		if err != nil {
			t.Fatal(err)
		}
		if len(report.Alerts) != 1 || len(report.Warnings) != 1 {
			t.Errorf("unexpected evaluation %q %+v", report.Alerts, report.Warnings)
		}
		if report.Current.PressureTrend() != models.PressureRising {
			t.Errorf("expected rising pressure, got %s", report.Current.PressureTrend())
		}
	}
	if n := atomic.LoadInt32(&geocodeHits); n != 1 {
		t.Errorf("expected the geocode to be cached, got %d lookups", n)
	}
}
