package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"weather-dashboard/alerts"
	"weather-dashboard/config"
	"weather-dashboard/dashboard"
	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

func main() {
	city := flag.String("city", "", "City to look up")
	fahrenheit := flag.Bool("fahrenheit", false, "Show temperatures in Fahrenheit")
	asJSON := flag.Bool("json", false, "Print the report as JSON")
	configFile := flag.String("config", "", "Path to an optional JSON configuration file")
	verbose := flag.Bool("v", false, "Show the error kind on failure")
	flag.Parse()

	if strings.TrimSpace(*city) == "" {
		fmt.Fprintln(os.Stderr, "Please enter a city name")
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log := cfg.NewLogger()
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	service := dashboard.NewFromConfig(cfg, log)
	report, err := service.Refresh(ctx, *city)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error fetching weather data")
		if *verbose {
			fmt.Fprintf(os.Stderr, "kind: %s\n%v\n", datasource.KindOf(err), err)
		}
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
			os.Exit(1)
		}
		return
	}

	render(os.Stdout, report, *fahrenheit)
}

// render prints a terminal version of the dashboard
func render(w io.Writer, r dashboard.Report, fahrenheit bool) {
	temp := func(d models.WeatherData) string {
		if fahrenheit {
			return fmt.Sprintf("%.1f°F", d.TemperatureFahrenheit())
		}
		return fmt.Sprintf("%.1f°C", d.Temperature)
	}

	cur := r.Current
	title := r.City
	if name := r.Location.DisplayName(); name != "" && !strings.EqualFold(name, r.City) {
		title = fmt.Sprintf("%s (%s)", r.City, name)
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(title))))
	fmt.Fprintf(w, "%s, feels like %s\n", temp(cur), temp(models.WeatherData{Temperature: cur.FeelsLike}))
	fmt.Fprintf(w, "%s\n", cur.Description)
	fmt.Fprintf(w, "Humidity: %d%%\n", cur.Humidity)
	fmt.Fprintf(w, "Wind: %.1f m/s %s\n", cur.WindSpeed, cur.WindDirection())
	fmt.Fprintf(w, "Pressure: %d hPa %s\n", cur.Pressure, cur.PressureTrend().Symbol())
	fmt.Fprintf(w, "Updated: %s\n", cur.Timestamp.Local().Format("Mon 2 Jan 15:04"))

	if len(r.Forecast.Days) > 0 {
		fmt.Fprintln(w, "\nForecast")
		for _, d := range r.Forecast.Days {
			fmt.Fprintf(w, "  %s  %8s  %s\n", d.Timestamp.Local().Format("Mon 02"), temp(d), d.Description)
		}
	}

	if len(r.Alerts) > 0 {
		fmt.Fprintln(w, "\nAlerts")
		for _, a := range r.Alerts {
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(a, "\n", "\n  "))
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "\nWeather Warnings")
		for _, wn := range r.Warnings {
			fmt.Fprintf(w, "  %s [%s] %s: %s\n", wn.Icon, strings.ToUpper(string(wn.Severity)), wn.Title, wn.Message)
		}
		if top := alerts.HighestSeverity(r.Warnings); top == alerts.SeverityHigh {
			fmt.Fprintln(w, "  Take action: at least one high severity warning is active.")
		}
	}
}
