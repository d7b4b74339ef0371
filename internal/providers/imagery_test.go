package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitoring-service/internal/models"
	"monitoring-service/internal/spectral"
)

// imageryTestServer serves a token endpoint and a /bands endpoint that
// rejects the first rejectFirst requests with 401.
func imageryTestServer(t *testing.T, rejectFirst int, bandsBody string) (*httptest.Server, *atomic.Int32, *atomic.Int32) {
	t.Helper()
	var tokenCalls, bandCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		n := tokenCalls.Add(1)
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":3600}`, n)
	})
	mux.HandleFunc("/bands", func(w http.ResponseWriter, r *http.Request) {
		if int(bandCalls.Add(1)) <= rejectFirst {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("bbox"))
		fmt.Fprint(w, bandsBody)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &tokenCalls, &bandCalls
}

func imageryRequest() ImageryRequest {
	return ImageryRequest{
		BoundingBox:      models.BoundingBox{MinLon: 78.10, MinLat: 17.40, MaxLon: 78.11, MaxLat: 17.41},
		FromDate:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		ToDate:           time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		MaxCloudCoverage: 20,
	}
}

func TestImageryClient_FetchBands(t *testing.T) {
	server, tokenCalls, _ := imageryTestServer(t, 0,
		`{"red":[0.1,0.2],"nir":[0.5,0.6],"scene_classification":[0,1]}`)

	client := NewImageryClient(ImageryConfig{
		BaseURL:  server.URL,
		TokenURL: server.URL + "/token",
	}, clockwork.NewRealClock())

	bands, err := client.FetchBands(context.Background(), imageryRequest())
	require.NoError(t, err)

	assert.Equal(t, []float64{0.1, 0.2}, bands.Red)
	assert.Equal(t, []float64{0.5, 0.6}, bands.NIR)
	assert.Equal(t, []spectral.SceneClass{spectral.ClassClear, spectral.ClassCloud}, bands.Mask)
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestImageryClient_ReusesTokenAcrossRequests(t *testing.T) {
	server, tokenCalls, _ := imageryTestServer(t, 0, `{"red":[0.1],"nir":[0.5]}`)
	client := NewImageryClient(ImageryConfig{
		BaseURL:  server.URL,
		TokenURL: server.URL + "/token",
	}, clockwork.NewRealClock())

	for range 3 {
		_, err := client.FetchBands(context.Background(), imageryRequest())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestImageryClient_RetriesOnceAfterTokenRejection(t *testing.T) {
	server, tokenCalls, bandCalls := imageryTestServer(t, 1, `{"red":[0.1],"nir":[0.5]}`)
	client := NewImageryClient(ImageryConfig{
		BaseURL:  server.URL,
		TokenURL: server.URL + "/token",
	}, clockwork.NewRealClock())

	bands, err := client.FetchBands(context.Background(), imageryRequest())
	require.NoError(t, err)

	assert.Len(t, bands.Red, 1)
	assert.Equal(t, int32(2), tokenCalls.Load(), "401 must force a token refresh")
	assert.Equal(t, int32(2), bandCalls.Load())
}

func TestImageryClient_ServerErrorIsDataUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"access_token":"t","expires_in":3600}`)
	})
	mux.HandleFunc("/bands", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no cloud-free scenes", http.StatusServiceUnavailable)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewImageryClient(ImageryConfig{
		BaseURL:  server.URL,
		TokenURL: server.URL + "/token",
	}, clockwork.NewRealClock())

	_, err := client.FetchBands(context.Background(), imageryRequest())
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
}

func TestImageryClient_MismatchedBandsRejected(t *testing.T) {
	server, _, _ := imageryTestServer(t, 0, `{"red":[0.1,0.2],"nir":[0.5]}`)
	client := NewImageryClient(ImageryConfig{
		BaseURL:  server.URL,
		TokenURL: server.URL + "/token",
	}, clockwork.NewRealClock())

	_, err := client.FetchBands(context.Background(), imageryRequest())
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
}
