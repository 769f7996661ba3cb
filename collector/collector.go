package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weather-dashboard/dashboard"
)

// DefaultInterval is how often every configured city is refreshed
const DefaultInterval = 5 * time.Minute

// Refresher is the interface the collector drives
type Refresher interface {
	Refresh(ctx context.Context, city string) (dashboard.Report, error)
}

// Collector refreshes a list of cities on a schedule and on demand.
// All refreshes run on one goroutine, so they never overlap.
type Collector struct {
	source       Refresher
	cities       []string
	interval     time.Duration
	fetchTimeout time.Duration
	outputChan   chan dashboard.Report
	errorChan    chan error
	triggerChan  chan string
}

// NewCollector creates a collector for the given cities
func NewCollector(source Refresher, cities []string, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Collector{
		source:       source,
		cities:       cities,
		interval:     interval,
		fetchTimeout: 30 * time.Second,
		outputChan:   make(chan dashboard.Report, 100),
		errorChan:    make(chan error, 100),
		triggerChan:  make(chan string, 16),
	}
}

// SetFetchTimeout changes the timeout for a single city refresh.
// Non-positive values keep the current timeout.
func (c *Collector) SetFetchTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.fetchTimeout = timeout
	}
}

// OutputChannel returns the channel that emits refreshed reports
func (c *Collector) OutputChannel() <-chan dashboard.Report {
	return c.outputChan
}

// ErrorChannel returns the channel that emits errors
func (c *Collector) ErrorChannel() <-chan error {
	return c.errorChan
}

// Trigger queues an immediate refresh of city.
// It returns false when the city is blank or the queue is full.
func (c *Collector) Trigger(city string) bool {
	city = strings.TrimSpace(city)
	if city == "" {
		return false
	}
	select {
	case c.triggerChan <- city:
		return true
	default:
		return false
	}
}

// Start refreshes all cities immediately, then on every tick.
// The returned function stops the collector and waits for it to exit;
// both channels are closed afterwards.
func (c *Collector) Start(ctx context.Context) func() {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(c.outputChan)
		defer close(c.errorChan)
		c.run(runCtx)
	}()

	return func() {
		cancel()
		<-done
	}
}

func (c *Collector) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.refreshAll(ctx)

	for {
		select {
		case <-ticker.C:
			c.refreshAll(ctx)
		case city := <-c.triggerChan:
			c.refreshOnce(ctx, city)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Collector) refreshAll(ctx context.Context) {
	for _, city := range c.cities {
		if ctx.Err() != nil {
			return
		}
		c.refreshOnce(ctx, city)
	}
}

// refreshOnce performs a single refresh of a city
func (c *Collector) refreshOnce(ctx context.Context, city string) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	report, err := c.source.Refresh(fetchCtx, city)
	if err != nil {
		select {
		case c.errorChan <- fmt.Errorf("error refreshing %s: %w", city, err):
		default:
			// dropped; the next tick retries
		}
		return
	}

	select {
	case c.outputChan <- report:
	case <-ctx.Done():
	}
}
