package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"monitoring-service/internal/models"
	"monitoring-service/internal/spectral"
)

// ImageryConfig configures the spectral imagery provider client.
type ImageryConfig struct {
	BaseURL          string
	TokenURL         string
	ClientID         string
	ClientSecret     string
	Timeout          time.Duration // per-request budget, default 60s
	MaxCloudCoverage float64       // percent, passed through on every request
}

// ImageryRequest selects the scene to fetch raw bands for.
type ImageryRequest struct {
	BoundingBox      models.BoundingBox
	FromDate         time.Time
	ToDate           time.Time
	MaxCloudCoverage float64
}

// BandData is the provider's raw-band response, aligned per pixel.
type BandData struct {
	Red  []float64
	NIR  []float64
	Mask []spectral.SceneClass
}

// ImageryClient talks to the spectral imagery provider with bearer-token
// auth. The token session is shared across concurrent field evaluations.
type ImageryClient struct {
	cfg     ImageryConfig
	http    *http.Client
	session *tokenSession
}

func NewImageryClient(cfg ImageryConfig, clock clockwork.Clock) *ImageryClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	c := &ImageryClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	c.session = newTokenSession(c.fetchToken, clock)
	return c
}

type bandResponse struct {
	Red  []float64 `json:"red"`
	NIR  []float64 `json:"nir"`
	Mask []uint8   `json:"scene_classification,omitempty"`
}

// FetchBands requests raw red and near-infrared reflectance for a bounding
// box and date range. A 401 invalidates the cached token and retries once
// with a fresh one; any other failure maps to ErrDataUnavailable.
func (c *ImageryClient) FetchBands(ctx context.Context, req ImageryRequest) (*BandData, error) {
	maxCloud := req.MaxCloudCoverage
	if maxCloud <= 0 {
		maxCloud = c.cfg.MaxCloudCoverage
	}

	body, status, err := c.doAuthorized(ctx, req, maxCloud)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		slog.Warn("imagery provider rejected token, refreshing and retrying")
		c.session.Invalidate()
		body, status, err = c.doAuthorized(ctx, req, maxCloud)
		if err != nil {
			return nil, err
		}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: imagery provider returned status %d: %s",
			models.ErrDataUnavailable, status, strings.TrimSpace(string(body)))
	}

	var decoded bandResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to parse imagery response: %v", models.ErrDataUnavailable, err)
	}
	if len(decoded.Red) == 0 || len(decoded.Red) != len(decoded.NIR) {
		return nil, fmt.Errorf("%w: imagery provider returned mismatched bands (red=%d nir=%d)",
			models.ErrDataUnavailable, len(decoded.Red), len(decoded.NIR))
	}

	data := &BandData{Red: decoded.Red, NIR: decoded.NIR}
	if len(decoded.Mask) > 0 {
		data.Mask = make([]spectral.SceneClass, len(decoded.Mask))
		for i, class := range decoded.Mask {
			data.Mask[i] = spectral.SceneClass(class)
		}
	}
	return data, nil
}

func (c *ImageryClient) doAuthorized(ctx context.Context, req ImageryRequest, maxCloud float64) ([]byte, int, error) {
	token, err := c.session.Token(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: imagery token: %v", models.ErrDataUnavailable, err)
	}

	query := url.Values{}
	query.Set("bbox", fmt.Sprintf("%f,%f,%f,%f",
		req.BoundingBox.MinLon, req.BoundingBox.MinLat, req.BoundingBox.MaxLon, req.BoundingBox.MaxLat))
	query.Set("from", req.FromDate.Format("2006-01-02"))
	query.Set("to", req.ToDate.Format("2006-01-02"))
	query.Set("max_cloud_coverage", fmt.Sprintf("%.0f", maxCloud))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/bands?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build imagery request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: imagery request failed: %v", models.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to read imagery response: %v", models.ErrDataUnavailable, err)
	}
	return body, resp.StatusCode, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// fetchToken runs the client-credentials exchange against the provider's
// token endpoint.
func (c *ImageryClient) fetchToken(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token endpoint returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded tokenResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", 0, fmt.Errorf("failed to parse token response: %w", err)
	}
	if decoded.AccessToken == "" {
		return "", 0, fmt.Errorf("token endpoint returned empty access token")
	}

	slog.Debug("imagery token refreshed", "expires_in_seconds", decoded.ExpiresIn)
	return decoded.AccessToken, time.Duration(decoded.ExpiresIn) * time.Second, nil
}
