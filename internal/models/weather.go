package models

import "time"

// WeatherObservation is a point-in-time reading for a field location.
// Rainfall is the trailing 24h accumulation in millimetres.
type WeatherObservation struct {
	TemperatureC float64 `json:"temperature_c"`
	RainfallMM   float64 `json:"rainfall_mm"`
	HumidityPct  float64 `json:"humidity_pct"`
	WindSpeedKmh float64 `json:"wind_speed_kmh"`
}

// ForecastDay is one day of the provider's multi-day forecast. Values carry
// daily totals (rainfall) and daily maxima (temperature, wind).
type ForecastDay struct {
	Date         time.Time `json:"date"`
	TemperatureC float64   `json:"temperature_c"`
	RainfallMM   float64   `json:"rainfall_mm"`
	HumidityPct  float64   `json:"humidity_pct"`
	WindSpeedKmh float64   `json:"wind_speed_kmh"`
}

// IsCritical reports whether the forecast day carries a critical-severity
// event. Thresholds: extreme rain ≥100mm, storm wind ≥90km/h, heat ≥42°C,
// frost ≤0°C.
func (d ForecastDay) IsCritical() bool {
	return d.RainfallMM >= 100 ||
		d.WindSpeedKmh >= 90 ||
		d.TemperatureC >= 42 ||
		d.TemperatureC <= 0
}

// WeatherReport bundles current conditions with the forecast window returned
// by the weather provider for a single location.
type WeatherReport struct {
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Current   WeatherObservation `json:"current"`
	Forecast  []ForecastDay      `json:"forecast"`
	FetchedAt time.Time          `json:"fetched_at"`
}
