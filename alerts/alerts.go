// Package alerts turns a weather record into user-facing alerts and
// severity-tagged warnings.
package alerts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"weather-dashboard/models"
)

// Thresholds are the configurable limits of the alert path.
type Thresholds struct {
	MaxTemp    float64 `json:"max_temp"`
	MinTemp    float64 `json:"min_temp"`
	SevereWind float64 `json:"severe_wind"`
}

// DefaultThresholds returns 35°C, 0°C and 20 m/s.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxTemp:    35,
		MinTemp:    0,
		SevereWind: 20,
	}
}

// Validate reports whether the thresholds make sense together
func (t Thresholds) Validate() error {
	if t.MinTemp >= t.MaxTemp {
		return fmt.Errorf("min temperature threshold %v must be below max %v", t.MinTemp, t.MaxTemp)
	}
	if t.SevereWind < 0 {
		return errors.New("severe wind threshold must not be negative")
	}
	return nil
}

var severeConditions = []string{"thunderstorm", "tornado", "hurricane"}

// Evaluator checks weather records against a fixed set of thresholds.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	thresholds Thresholds
}

// NewEvaluator creates an evaluator for the given thresholds
func NewEvaluator(t Thresholds) *Evaluator {
	return &Evaluator{thresholds: t}
}

// Thresholds returns the limits the evaluator was built with
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// CheckAlerts returns the alert messages raised by data, in a stable order:
// temperature, wind, severe weather. High and low temperature exclude each other.
func (e *Evaluator) CheckAlerts(data models.WeatherData) []string {
	var alerts []string

	switch {
	case data.Temperature > e.thresholds.MaxTemp:
		alerts = append(alerts, fmt.Sprintf(
			"⚠️ High temperature alert: %s°C\nStay hydrated and avoid prolonged sun exposure",
			formatNumber(data.Temperature)))
	case data.Temperature < e.thresholds.MinTemp:
		alerts = append(alerts, fmt.Sprintf(
			"❄️ Low temperature alert: %s°C\nDress warmly and watch for icy conditions",
			formatNumber(data.Temperature)))
	}

	if data.WindSpeed > e.thresholds.SevereWind {
		alerts = append(alerts, fmt.Sprintf(
			"💨 High wind alert: %s m/s\nSecure loose objects and exercise caution outdoors",
			formatNumber(data.WindSpeed)))
	}

	if containsAny(data.Description, severeConditions...) {
		alerts = append(alerts, "⛈️ Severe weather warning!\nStay indoors and follow local authority guidelines")
	}

	return alerts
}

// containsAny reports whether s contains any of the substrings, ignoring case
func containsAny(s string, substrs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
