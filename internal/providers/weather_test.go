package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitoring-service/internal/models"
)

func TestWeatherClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conditions", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("lat"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		fmt.Fprint(w, `{
			"current": {"temperature": 32, "rainfall": 120, "humidity": 85, "wind_speed": 45},
			"forecast": [
				{"date": "2026-03-02", "temperature": 28, "rainfall": 110, "humidity": 90, "wind_speed": 30},
				{"date": "2026-03-03", "temperature": 27, "rainfall": 10, "humidity": 70, "wind_speed": 15}
			]
		}`)
	}))
	t.Cleanup(server.Close)

	clock := clockwork.NewFakeClock()
	client := NewWeatherClient(WeatherConfig{BaseURL: server.URL, APIKey: "test-key"}, clock)

	report, err := client.Fetch(context.Background(), 17.405, 78.105)
	require.NoError(t, err)

	assert.Equal(t, 17.405, report.Latitude)
	assert.Equal(t, 32.0, report.Current.TemperatureC)
	assert.Equal(t, 120.0, report.Current.RainfallMM)
	assert.Equal(t, clock.Now(), report.FetchedAt)

	require.Len(t, report.Forecast, 2)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), report.Forecast[0].Date)
	assert.True(t, report.Forecast[0].IsCritical(), "110mm forecast day is a critical event")
	assert.False(t, report.Forecast[1].IsCritical())
}

func TestWeatherClient_ProviderErrorIsDataUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := NewWeatherClient(WeatherConfig{BaseURL: server.URL, APIKey: "k"}, clockwork.NewFakeClock())

	_, err := client.Fetch(context.Background(), 17.4, 78.1)
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
}

func TestWeatherClient_MalformedResponseRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"current": "not an object"}`)
	}))
	t.Cleanup(server.Close)

	client := NewWeatherClient(WeatherConfig{BaseURL: server.URL, APIKey: "k"}, clockwork.NewFakeClock())

	_, err := client.Fetch(context.Background(), 17.4, 78.1)
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
}
