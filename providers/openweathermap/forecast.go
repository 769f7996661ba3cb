package openweathermap

import (
	"context"
	"time"

	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

type dailyPayload struct {
	Dt   *int64 `json:"dt"`
	Temp *struct {
		Day float64 `json:"day"`
	} `json:"temp"`
	FeelsLike struct {
		Day float64 `json:"day"`
	} `json:"feels_like"`
	Pressure  int                `json:"pressure"`
	Humidity  int                `json:"humidity"`
	WindSpeed float64            `json:"wind_speed"`
	WindDeg   int                `json:"wind_deg"`
	Weather   []conditionPayload `json:"weather"`
}

// FetchForecast fetches the daily forecast from the One Call API.
// Only the first models.MaxForecastDays entries are kept, in the order the API returns them.
func (p *Provider) FetchForecast(ctx context.Context, lat, lon float64) (models.ForecastData, error) {
	const op = "fetch forecast"

	var response struct {
		Daily *[]dailyPayload `json:"daily"`
	}
	if err := p.get(ctx, op, oneCallPath, p.oneCallParams(lat, lon, excludeForForecast), &response); err != nil {
		return models.ForecastData{}, err
	}
	if response.Daily == nil {
		return models.ForecastData{}, datasource.Errorf(datasource.KindMalformed, op, "response has no daily section")
	}

	daily := *response.Daily
	if len(daily) > models.MaxForecastDays {
		daily = daily[:models.MaxForecastDays]
	}

	forecast := models.ForecastData{
		Days:    make([]models.WeatherData, 0, len(daily)),
		Updated: time.Now(),
	}

	for i, item := range daily {
		if item.Temp == nil || item.Dt == nil {
			return models.ForecastData{}, datasource.Errorf(datasource.KindMalformed, op, "daily entry %d lacks temp or dt", i)
		}
		if len(item.Weather) == 0 {
			return models.ForecastData{}, datasource.Errorf(datasource.KindMalformed, op, "daily entry %d has no weather condition", i)
		}

		forecast.Days = append(forecast.Days, models.WeatherData{
			Temperature: item.Temp.Day,
			FeelsLike:   item.FeelsLike.Day,
			Humidity:    item.Humidity,
			WindSpeed:   item.WindSpeed,
			WindDeg:     item.WindDeg,
			Pressure:    item.Pressure,
			Description: item.Weather[0].Description,
			Icon:        item.Weather[0].Icon,
			Timestamp:   time.Unix(*item.Dt, 0),
		})
	}

	return forecast, nil
}
