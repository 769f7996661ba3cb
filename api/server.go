package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"weather-dashboard/alerts"
	"weather-dashboard/dashboard"
	"weather-dashboard/datasource"
	"weather-dashboard/models"
	"weather-dashboard/providers/openweathermap"
)

// WeatherService is the subset of dashboard.Service the API calls
type WeatherService interface {
	Current(ctx context.Context, city string) (models.WeatherData, error)
	Forecast(ctx context.Context, city string) (models.ForecastData, error)
	Evaluate(data models.WeatherData) ([]string, []alerts.Warning)
}

// Trigger queues an immediate refresh of a city
type Trigger interface {
	Trigger(city string) bool
}

var _ WeatherService = (*dashboard.Service)(nil)

const (
	msgMissingCity = "Please enter a city name"
	msgFetchFailed = "Error fetching weather data"
	requestTimeout = 30 * time.Second
)

// Server bundles the gin router and its dependencies
type Server struct {
	addr    string
	service WeatherService
	store   *ReportStore
	trigger Trigger
	log     logrus.FieldLogger
	engine  *gin.Engine
}

// NewServer creates a new API server listening on addr
func NewServer(addr string, service WeatherService, store *ReportStore, trigger Trigger, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	engine.Use(corsMiddleware())

	s := &Server{
		addr:    addr,
		service: service,
		store:   store,
		trigger: trigger,
		log:     log,
		engine:  engine,
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.addr).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/weather", s.handleCurrent)
		v1.GET("/forecast", s.handleForecast)
		v1.GET("/reports", s.handleListReports)
		v1.GET("/reports/:city", s.handleGetReport)
		v1.POST("/reports/:city/refresh", s.handleRefresh)
	}
}

// handleCurrent fetches current conditions on demand
// GET /api/v1/weather?city=
func (s *Server) handleCurrent(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingCity})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	data, err := s.service.Current(ctx, city)
	if err != nil {
		s.fetchFailed(c, city, err)
		return
	}

	alertList, warnings := s.service.Evaluate(data)
	c.JSON(http.StatusOK, gin.H{
		"data":     newWeatherView(data),
		"alerts":   nonNil(alertList),
		"warnings": newWarningViews(warnings),
	})
}

// handleForecast fetches the daily forecast on demand
// GET /api/v1/forecast?city=
func (s *Server) handleForecast(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingCity})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	forecast, err := s.service.Forecast(ctx, city)
	if err != nil {
		s.fetchFailed(c, city, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": newForecastView(forecast),
		"meta": gin.H{"count": len(forecast.Days)},
	})
}

// handleListReports returns the latest scheduled report of every city
// GET /api/v1/reports
func (s *Server) handleListReports(c *gin.Context) {
	reports := s.store.All()
	views := make([]reportView, 0, len(reports))
	for _, r := range reports {
		views = append(views, newReportView(r))
	}
	c.JSON(http.StatusOK, gin.H{
		"data": views,
		"meta": gin.H{"count": len(views), "cities": s.store.Cities()},
	})
}

// handleGetReport returns the latest report for one city
// GET /api/v1/reports/:city
func (s *Server) handleGetReport(c *gin.Context) {
	city := c.Param("city")
	report, ok := s.store.Get(city)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report for " + strings.TrimSpace(city)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newReportView(report)})
}

// handleRefresh queues an immediate refresh
// POST /api/v1/reports/:city/refresh
func (s *Server) handleRefresh(c *gin.Context) {
	city := strings.TrimSpace(c.Param("city"))
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingCity})
		return
	}
	if s.trigger == nil || !s.trigger.Trigger(city) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh queue is full"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "city": city})
}

// fetchFailed reports a generic failure plus the error kind
func (s *Server) fetchFailed(c *gin.Context, city string, err error) {
	kind := datasource.KindOf(err)
	s.log.WithFields(logrus.Fields{
		"city":  city,
		"kind":  kind.String(),
		"error": err,
	}).Warn(msgFetchFailed)

	status := http.StatusBadGateway
	if kind == datasource.KindNotFound {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": msgFetchFailed, "kind": kind.String()})
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Info("request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type weatherView struct {
	models.WeatherData
	TemperatureF   float64 `json:"temperatureF"`
	WindDirection  string  `json:"windDirection"`
	PressureTrend  string  `json:"pressureTrend"`
	PressureSymbol string  `json:"pressureSymbol"`
	IconURL        string  `json:"iconUrl"`
}

func newWeatherView(w models.WeatherData) weatherView {
	trend := w.PressureTrend()
	return weatherView{
		WeatherData:    w,
		TemperatureF:   w.TemperatureFahrenheit(),
		WindDirection:  w.WindDirection(),
		PressureTrend:  trend.String(),
		PressureSymbol: trend.Symbol(),
		IconURL:        openweathermap.IconURL(w.Icon),
	}
}

type forecastView struct {
	Location string        `json:"location"`
	Days     []weatherView `json:"days"`
	Updated  time.Time     `json:"updated"`
}

func newForecastView(f models.ForecastData) forecastView {
	days := make([]weatherView, 0, len(f.Days))
	for _, d := range f.Days {
		days = append(days, newWeatherView(d))
	}
	return forecastView{Location: f.Location, Days: days, Updated: f.Updated}
}

type warningView struct {
	alerts.Warning
	Color string `json:"color"`
}

func newWarningViews(ws []alerts.Warning) []warningView {
	views := make([]warningView, 0, len(ws))
	for _, w := range ws {
		views = append(views, warningView{Warning: w, Color: w.Severity.Color()})
	}
	return views
}

type reportView struct {
	City            string          `json:"city"`
	Location        models.Location `json:"location"`
	Current         weatherView     `json:"current"`
	Forecast        forecastView    `json:"forecast"`
	Alerts          []string        `json:"alerts"`
	Warnings        []warningView   `json:"warnings"`
	HighestSeverity alerts.Severity `json:"highestSeverity,omitempty"`
	RefreshedAt     time.Time       `json:"refreshedAt"`
}

func newReportView(r dashboard.Report) reportView {
	return reportView{
		City:            r.City,
		Location:        r.Location,
		Current:         newWeatherView(r.Current),
		Forecast:        newForecastView(r.Forecast),
		Alerts:          nonNil(r.Alerts),
		Warnings:        newWarningViews(r.Warnings),
		HighestSeverity: alerts.HighestSeverity(r.Warnings),
		RefreshedAt:     r.RefreshedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
