package openweathermap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"weather-dashboard/datasource"
)

const testKey = "test-key"

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// fakeAPI serves fixtures for the geocoding and one-call endpoints and records the last query per path.
type fakeAPI struct {
	mu      sync.Mutex
	geocode []byte
	current []byte
	daily   []byte
	status  int
	queries map[string]string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{
		geocode: fixture(t, "geocode.json"),
		current: fixture(t, "onecall_current.json"),
		daily:   fixture(t, "onecall_daily.json"),
		queries: make(map[string]string),
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries[r.URL.Path] = r.URL.RawQuery
	f.mu.Unlock()
	if r.URL.Query().Get("appid") != testKey {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod":401,"message":"Invalid API key. Please see https://openweathermap.org/faq#error401 for more info."}`))
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		w.Write([]byte(`{"cod":500,"message":"Internal error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case geocodePath:
		w.Write(f.geocode)
	case oneCallPath:
		if strings.HasPrefix(r.URL.Query().Get("exclude"), "current") {
			w.Write(f.daily)
		} else {
			w.Write(f.current)
		}
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) query(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

func newTestProvider(t *testing.T, api *fakeAPI, key string) *Provider {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewProvider(key, WithBaseURL(srv.URL), WithHTTPClient(datasource.NewHTTPClient(2*time.Second, 0)))
}

func TestResolveCity(t *testing.T) {
	api := newFakeAPI(t)
	p := newTestProvider(t, api, testKey)

	loc, err := p.ResolveCity(context.Background(), "  London ")
	if err != nil {
		t.Fatal(err)
	}
	if loc.Name != "London" || loc.Country != "GB" || loc.State != "England" {
		t.Errorf("unexpected location: %+v", loc)
	}
	if loc.Lat != 51.5073219 || loc.Lon != -0.1276474 {
		t.Errorf("unexpected coordinates: %f, %f", loc.Lat, loc.Lon)
	}

	q := api.query(geocodePath)
	for _, want := range []string{"q=London", "limit=1", "appid=" + testKey} {
		if !strings.Contains(q, want) {
			t.Errorf("geocode query %q missing %q", q, want)
		}
	}
}

func TestResolveCityNotFound(t *testing.T) {
	api := newFakeAPI(t)
	api.geocode = []byte(`[]`)
	p := newTestProvider(t, api, testKey)

	_, err := p.ResolveCity(context.Background(), "Atlantis")
	if !errors.Is(err, datasource.ErrCityNotFound) {
		t.Fatalf("expected city not found, got %v", err)
	}
}

func TestResolveCityBlankName(t *testing.T) {
	api := newFakeAPI(t)
	p := newTestProvider(t, api, testKey)

	_, err := p.ResolveCity(context.Background(), "   ")
	if !errors.Is(err, datasource.ErrCityNotFound) {
		t.Fatalf("expected city not found, got %v", err)
	}
	if q := api.query(geocodePath); q != "" {
		t.Errorf("blank name should not reach the API, got %q", q)
	}
}

func TestInvalidKeyIsAuthError(t *testing.T) {
	api := newFakeAPI(t)
	p := newTestProvider(t, api, "wrong-key")

	_, err := p.ResolveCity(context.Background(), "London")
	if !errors.Is(err, datasource.ErrAuth) {
		t.Fatalf("expected auth error from geocoding, got %v", err)
	}
	if strings.Contains(err.Error(), "wrong-key") {
		t.Errorf("error leaks the API key: %v", err)
	}

	_, err = p.FetchCurrent(context.Background(), 1, 2)
	if !errors.Is(err, datasource.ErrAuth) {
		t.Fatalf("expected auth error from one-call, got %v", err)
	}
}

func TestServerErrorIsTransport(t *testing.T) {
	api := newFakeAPI(t)
	api.status = http.StatusInternalServerError
	p := newTestProvider(t, api, testKey)

	_, err := p.FetchForecast(context.Background(), 1, 2)
	if !errors.Is(err, datasource.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestUnreachableServerIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	p := NewProvider(testKey, WithBaseURL(base), WithHTTPClient(datasource.NewHTTPClient(time.Second, 0)))
	_, err := p.ResolveCity(context.Background(), "London")
	if !errors.Is(err, datasource.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if strings.Contains(err.Error(), testKey) {
		t.Errorf("error leaks the API key: %v", err)
	}
}

func TestFetchCurrent(t *testing.T) {
	api := newFakeAPI(t)
	p := newTestProvider(t, api, testKey)

	data, err := p.FetchCurrent(context.Background(), 51.5073, -0.1276)
	if err != nil {
		t.Fatal(err)
	}

	if data.Temperature != 36 || data.FeelsLike != 38.2 {
		t.Errorf("unexpected temperatures: %+v", data)
	}
	if data.Humidity != 40 || data.Pressure != 1009 || data.WindSpeed != 5 || data.WindDeg != 230 {
		t.Errorf("unexpected measurements: %+v", data)
	}
	if data.Description != "clear sky" || data.Icon != "01d" {
		t.Errorf("unexpected condition: %q %q", data.Description, data.Icon)
	}
	if !data.Timestamp.Equal(time.Unix(1718712000, 0)) {
		t.Errorf("unexpected timestamp %s", data.Timestamp)
	}

	q := api.query(oneCallPath)
	for _, want := range []string{"units=metric", "exclude=minutely%2Chourly%2Cdaily%2Calerts", "lat=51.5073", "lon=-0.1276"} {
		if !strings.Contains(q, want) {
			t.Errorf("one-call query %q missing %q", q, want)
		}
	}
}

func TestFetchCurrentMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `<html>oops</html>`,
		"no current":      `{"lat": 1, "lon": 2}`,
		"no weather":      `{"current": {"dt": 1, "temp": 3, "weather": []}}`,
		"no temperature":  `{"current": {"dt": 1, "weather": [{"description": "x", "icon": "y"}]}}`,
		"wrong temp type": `{"current": {"dt": 1, "temp": {"day": 3}, "weather": [{"description": "x"}]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			api := newFakeAPI(t)
			api.current = []byte(body)
			p := newTestProvider(t, api, testKey)

			_, err := p.FetchCurrent(context.Background(), 1, 2)
			if !errors.Is(err, datasource.ErrMalformed) {
				t.Fatalf("expected malformed error, got %v", err)
			}
		})
	}
}

func TestFetchForecastTruncatesToSevenDays(t *testing.T) {
	api := newFakeAPI(t)
	p := newTestProvider(t, api, testKey)

	forecast, err := p.FetchForecast(context.Background(), 51.5073, -0.1276)
	if err != nil {
		t.Fatal(err)
	}
	if len(forecast.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(forecast.Days))
	}
	for i, day := range forecast.Days {
		wantTemp := 20.5 + float64(i)
		if day.Temperature != wantTemp {
			t.Errorf("day %d: temperature %v, want %v (order not preserved?)", i, day.Temperature, wantTemp)
		}
		if day.FeelsLike != wantTemp-1 {
			t.Errorf("day %d: feels like %v, want %v", i, day.FeelsLike, wantTemp-1)
		}
		wantDt := time.Unix(1718708400+int64(i)*86400, 0)
		if !day.Timestamp.Equal(wantDt) {
			t.Errorf("day %d: timestamp %s, want %s", i, day.Timestamp, wantDt)
		}
	}
	if forecast.Days[3].Description != "day 3 rain" || forecast.Days[3].Icon != "10d" {
		t.Errorf("unexpected condition on day 3: %+v", forecast.Days[3])
	}
	if forecast.Updated.IsZero() {
		t.Error("expected Updated to be set")
	}

	q := api.query(oneCallPath)
	if !strings.Contains(q, "exclude=current%2Cminutely%2Chourly%2Calerts") {
		t.Errorf("forecast query %q has wrong exclude list", q)
	}
}

func TestFetchForecastShortList(t *testing.T) {
	api := newFakeAPI(t)
	api.daily = []byte(`{"daily": [
		{"dt": 100, "temp": {"day": 1}, "feels_like": {"day": 0}, "weather": [{"description": "snow", "icon": "13d"}]},
		{"dt": 200, "temp": {"day": 2}, "feels_like": {"day": 1}, "weather": [{"description": "snow", "icon": "13d"}]}
	]}`)
	p := newTestProvider(t, api, testKey)

	forecast, err := p.FetchForecast(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(forecast.Days) != 2 {
		t.Errorf("expected 2 days, got %d", len(forecast.Days))
	}
}

func TestFetchForecastMalformed(t *testing.T) {
	cases := map[string]string{
		"no daily":      `{"lat": 1}`,
		"entry no temp": `{"daily": [{"dt": 1, "weather": [{"description": "x"}]}]}`,
		"entry no cond": `{"daily": [{"dt": 1, "temp": {"day": 3}, "weather": []}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			api := newFakeAPI(t)
			api.daily = []byte(body)
			p := newTestProvider(t, api, testKey)

			_, err := p.FetchForecast(context.Background(), 1, 2)
			if !errors.Is(err, datasource.ErrMalformed) {
				t.Fatalf("expected malformed error, got %v", err)
			}
		})
	}
}

func TestIconURL(t *testing.T) {
	if got := IconURL("10d"); got != "https://openweathermap.org/img/wn/10d@2x.png" {
		t.Errorf("unexpected icon URL %q", got)
	}
}
