package alerts

import "weather-dashboard/models"

// Severity grades a warning
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Color returns the display color for the severity
func (s Severity) Color() string {
	switch s {
	case SeverityHigh:
		return "#D32F2F"
	case SeverityMedium:
		return "#FB8C00"
	case SeverityLow:
		return "#FDD835"
	default:
		return ""
	}
}

// Rank orders severities by urgency; unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Warning is a severity-tagged message about the current conditions
type Warning struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Icon     string   `json:"icon"`
}

// Warning thresholds are fixed and independent of Thresholds.
const (
	extremeHeatTemp   = 35.0
	highTemp          = 30.0
	freezingTemp      = 0.0
	lowTemp           = 5.0
	strongWindSpeed   = 20.0
	windAdvisorySpeed = 15.0
	highHumidity      = 85
)

// CheckWarnings evaluates the temperature, wind, storm, precipitation and
// humidity groups in that order. Each group yields at most one warning.
func CheckWarnings(data models.WeatherData) []Warning {
	var warnings []Warning

	if w, ok := temperatureWarning(data.Temperature); ok {
		warnings = append(warnings, w)
	}
	if w, ok := windWarning(data.WindSpeed); ok {
		warnings = append(warnings, w)
	}
	if w, ok := stormWarning(data.Description); ok {
		warnings = append(warnings, w)
	}
	if w, ok := precipitationWarning(data.Description); ok {
		warnings = append(warnings, w)
	}
	if data.Humidity > highHumidity {
		warnings = append(warnings, Warning{
			Severity: SeverityLow,
			Title:    "High Humidity Alert",
			Message:  "Very humid conditions. Stay hydrated.",
			Icon:     "💧",
		})
	}

	return warnings
}

func temperatureWarning(temp float64) (Warning, bool) {
	switch {
	case temp > extremeHeatTemp:
		return Warning{
			Severity: SeverityHigh,
			Title:    "Extreme Heat Warning",
			Message:  "Temperature is dangerously high. Stay hydrated and avoid prolonged sun exposure.",
			Icon:     "🌡️",
		}, true
	case temp > highTemp:
		return Warning{
			Severity: SeverityMedium,
			Title:    "High Temperature Alert",
			Message:  "High temperatures expected. Stay hydrated and seek shade when possible.",
			Icon:     "🌡️",
		}, true
	case temp < freezingTemp:
		return Warning{
			Severity: SeverityHigh,
			Title:    "Freezing Temperature Warning",
			Message:  "Temperature is below freezing. Risk of ice formation.",
			Icon:     "❄️",
		}, true
	case temp < lowTemp:
		return Warning{
			Severity: SeverityMedium,
			Title:    "Low Temperature Alert",
			Message:  "Cold temperatures expected. Dress warmly.",
			Icon:     "❄️",
		}, true
	}
	return Warning{}, false
}

func windWarning(speed float64) (Warning, bool) {
	switch {
	case speed > strongWindSpeed:
		return Warning{
			Severity: SeverityHigh,
			Title:    "Strong Wind Warning",
			Message:  "Dangerous wind conditions. Secure loose objects and avoid unnecessary travel.",
			Icon:     "💨",
		}, true
	case speed > windAdvisorySpeed:
		return Warning{
			Severity: SeverityMedium,
			Title:    "Wind Advisory",
			Message:  "Strong winds expected. Exercise caution outdoors.",
			Icon:     "💨",
		}, true
	}
	return Warning{}, false
}

func stormWarning(description string) (Warning, bool) {
	switch {
	case containsAny(description, "thunderstorm"):
		return Warning{
			Severity: SeverityHigh,
			Title:    "Thunderstorm Warning",
			Message:  "Severe thunderstorm conditions. Seek shelter immediately.",
			Icon:     "⛈️",
		}, true
	case containsAny(description, "storm"):
		return Warning{
			Severity: SeverityMedium,
			Title:    "Storm Alert",
			Message:  "Stormy conditions expected. Stay prepared.",
			Icon:     "⛈️",
		}, true
	}
	return Warning{}, false
}

func precipitationWarning(description string) (Warning, bool) {
	switch {
	case containsAny(description, "heavy rain"):
		return Warning{
			Severity: SeverityMedium,
			Title:    "Heavy Rain Alert",
			Message:  "Heavy rainfall expected. Be aware of flooding risks.",
			Icon:     "🌧️",
		}, true
	case containsAny(description, "snow"):
		return Warning{
			Severity: SeverityMedium,
			Title:    "Snow Alert",
			Message:  "Snowy conditions expected. Exercise caution while traveling.",
			Icon:     "🌨️",
		}, true
	}
	return Warning{}, false
}

// HighestSeverity returns the most urgent severity among ws, or "" when ws is empty.
func HighestSeverity(ws []Warning) Severity {
	var highest Severity
	for _, w := range ws {
		if w.Severity.Rank() > highest.Rank() {
			highest = w.Severity
		}
	}
	return highest
}
