package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"monitoring-service/internal/models"
)

// WeatherConfig configures the weather provider client.
type WeatherConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // per-request budget, default 30s
}

// WeatherClient fetches current conditions plus a multi-day forecast for a
// point. It satisfies the alert service's WeatherSource.
type WeatherClient struct {
	cfg   WeatherConfig
	http  *http.Client
	clock clockwork.Clock
}

func NewWeatherClient(cfg WeatherConfig, clock clockwork.Clock) *WeatherClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &WeatherClient{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		clock: clock,
	}
}

type weatherResponse struct {
	Current struct {
		TemperatureC float64 `json:"temperature"`
		RainfallMM   float64 `json:"rainfall"`
		HumidityPct  float64 `json:"humidity"`
		WindSpeedKmh float64 `json:"wind_speed"`
	} `json:"current"`
	Forecast []struct {
		Date         string  `json:"date"`
		TemperatureC float64 `json:"temperature"`
		RainfallMM   float64 `json:"rainfall"`
		HumidityPct  float64 `json:"humidity"`
		WindSpeedKmh float64 `json:"wind_speed"`
	} `json:"forecast"`
}

// Fetch returns the weather report for a coordinate. Provider failures map to
// ErrDataUnavailable so the sweep can skip the field until the next cycle.
func (c *WeatherClient) Fetch(ctx context.Context, lat, lon float64) (*models.WeatherReport, error) {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lon))
	query.Set("appid", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/conditions?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: weather request failed: %v", models.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read weather response: %v", models.ErrDataUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: weather provider returned status %d: %s",
			models.ErrDataUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded weatherResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to parse weather response: %v", models.ErrDataUnavailable, err)
	}

	report := &models.WeatherReport{
		Latitude:  lat,
		Longitude: lon,
		Current: models.WeatherObservation{
			TemperatureC: decoded.Current.TemperatureC,
			RainfallMM:   decoded.Current.RainfallMM,
			HumidityPct:  decoded.Current.HumidityPct,
			WindSpeedKmh: decoded.Current.WindSpeedKmh,
		},
		FetchedAt: c.clock.Now(),
	}

	for _, day := range decoded.Forecast {
		date, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: bad forecast date %q: %v", models.ErrDataUnavailable, day.Date, err)
		}
		report.Forecast = append(report.Forecast, models.ForecastDay{
			Date:         date,
			TemperatureC: day.TemperatureC,
			RainfallMM:   day.RainfallMM,
			HumidityPct:  day.HumidityPct,
			WindSpeedKmh: day.WindSpeedKmh,
		})
	}

	return report, nil
}
