package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/httpclient"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability/metrics"
)

func prometheusRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func TestDetect_MissingAPIKeyMakesNoCall(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	m := newTestMetrics(t)
	client, transport := setupTestClient(t, cfg, WithMetrics(m))

	result, err := client.Detect(t.Context(), []byte("image"))

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsConfigurationError(err))
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "Roboflow API key not configured", err.Error())
	assert.Zero(t, transport.GetTotalCallCount())
	assert.False(t, client.Configured())
	assert.InDelta(t, 1, testutil.ToFloat64(m.Requests.WithLabelValues(metrics.OutcomeNotConfigured)), 0)
}

func TestDetect_MissingModelIsConfigurationError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no model", func(c *Config) { c.Model = "" }},
		{"no version", func(c *Config) { c.Version = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			client, transport := setupTestClient(t, cfg)

			_, err := client.Detect(t.Context(), []byte("image"))

			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			assert.ErrorIs(t, err, ErrModelNotConfigured)
			assert.Zero(t, transport.GetTotalCallCount())
		})
	}
}

func TestDetect_EmptyImage(t *testing.T) {
	client, transport := setupTestClient(t, testConfig())

	_, err := client.Detect(t.Context(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyImage)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Zero(t, transport.GetTotalCallCount())
}

func TestDetect_RequestShape(t *testing.T) {
	client, transport := setupTestClient(t, testConfig())
	image := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}

	transport.RegisterResponder(http.MethodPost, testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, testAPIKey, req.URL.Query().Get("api_key"))
			assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
			assert.NotEmpty(t, req.Header.Get("User-Agent"))

			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			assert.Equal(t, base64.StdEncoding.EncodeToString(image), string(body))

			return httpmock.NewStringResponse(http.StatusOK, sampleResponse), nil
		})

	_, err := client.Detect(t.Context(), image)
	require.NoError(t, err)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestDetect_ParsesResponse(t *testing.T) {
	m := newTestMetrics(t)
	client, transport := setupTestClient(t, testConfig(), WithMetrics(m))
	transport.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, sampleResponse))

	result, err := client.Detect(t.Context(), []byte("jpeg"))
	require.NoError(t, err)

	assert.Equal(t, "inf-42", result.InferenceID)
	assert.Equal(t, 1280, result.ImageWidth)
	assert.Equal(t, 960, result.ImageHeight)
	assert.InDelta(t, 0.153, result.ProcessingTime, 1e-9)
	require.Len(t, result.Regions, 2)

	assert.Equal(t, Region{
		CenterX: 100, CenterY: 100, Width: 40, Height: 30,
		Confidence: 0.91, Label: "dent", LabelID: 1, DetectionID: "d-1",
	}, result.Regions[0])
	assert.Equal(t, "scratch", result.Regions[1].Label)
	assert.InDelta(t, 400.5, result.Regions[1].CenterX, 1e-9)
	assert.Empty(t, result.Regions[1].DetectionID)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Requests.WithLabelValues(metrics.OutcomeSuccess)), 0)
}

func TestDetect_EmptyPredictions(t *testing.T) {
	client, transport := setupTestClient(t, testConfig())
	transport.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"time":0.1,"image":{"width":10,"height":10},"predictions":[]}`))

	result, err := client.Detect(t.Context(), []byte("jpeg"))
	require.NoError(t, err)
	assert.NotNil(t, result.Regions)
	assert.Empty(t, result.Regions)
}

func TestDetect_ServiceErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCat     errors.ErrorCategory
	}{
		{"remote message propagated", http.StatusUnauthorized, `{"message":"Unauthorized api_key"}`, "Unauthorized api_key", errors.CategoryService},
		{"model not found", http.StatusNotFound, `{"message":"Model not found"}`, "Model not found", errors.CategoryService},
		{"non-json body falls back", http.StatusInternalServerError, `upstream exploded`, "request failed with status 500 Internal Server Error", errors.CategoryService},
		{"json without message falls back", http.StatusBadGateway, `{"detail":"x"}`, "request failed with status 502 Bad Gateway", errors.CategoryService},
		{"rate limited", http.StatusTooManyRequests, `{"message":"slow down"}`, "slow down", errors.CategoryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport := setupTestClient(t, testConfig())
			transport.RegisterResponder(http.MethodPost, testEndpoint,
				httpmock.NewStringResponder(tt.status, tt.body))

			result, err := client.Detect(t.Context(), []byte("jpeg"))
			require.Error(t, err)
			assert.Nil(t, result)

			svcErr, ok := AsServiceError(err)
			require.True(t, ok, "expected ServiceError in chain")
			assert.Equal(t, tt.status, svcErr.StatusCode)
			assert.Equal(t, tt.wantMessage, svcErr.Message)
			assert.Equal(t, "Roboflow API error: "+tt.wantMessage, err.Error())
			assert.True(t, errors.IsCategory(err, tt.wantCat))
			assert.False(t, IsConfigurationError(err))
		})
	}
}

func TestDetect_MalformedSuccessBody(t *testing.T) {
	client, transport := setupTestClient(t, testConfig())
	transport.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `<html>not json</html>`))

	_, err := client.Detect(t.Context(), []byte("jpeg"))

	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, svcErr.StatusCode)
	assert.Contains(t, svcErr.Message, "invalid response body")
}

func TestDetect_TransportErrorHidesAPIKey(t *testing.T) {
	client, transport := setupTestClient(t, testConfig())
	transport.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewErrorResponder(errors.NewStd("connection refused")))

	_, err := client.Detect(t.Context(), []byte("jpeg"))

	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Zero(t, svcErr.StatusCode)
	assert.Contains(t, svcErr.Message, "connection refused")
	assert.NotContains(t, err.Error(), testAPIKey)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestDetect_CanceledContext(t *testing.T) {
	client, transport := setupTestClient(t, testConfig())
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	transport.RegisterResponder(http.MethodPost, testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			cancel()
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	_, err := client.Detect(ctx, []byte("jpeg"))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	_, ok := AsServiceError(err)
	assert.True(t, ok)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{APIKey: "k", Model: "m", Version: "1"},
		WithLogger(nil))
	t.Cleanup(client.Close)

	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultConfig().Timeout, client.config.Timeout)
	assert.True(t, client.Configured())

	endpoint, err := client.endpoint()
	require.NoError(t, err)
	assert.Equal(t, "https://serverless.roboflow.com/m/1?api_key=k", endpoint)
}

func TestNewClient_SharedHTTPClientKeepsObservers(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, sampleResponse))

	hc := httpclient.New(httpclient.Config{Transport: transport})
	t.Cleanup(hc.Close)

	var observed int
	hc.Observe(func(*http.Request, *http.Response, error, time.Duration) { observed++ })

	var firstLog, secondLog bytes.Buffer
	first := NewClient(testConfig(), WithHTTPClient(hc),
		WithLogger(logger.NewSlogLogger(&firstLog, logger.LogLevelDebug, time.UTC)))
	second := NewClient(testConfig(), WithHTTPClient(hc),
		WithLogger(logger.NewSlogLogger(&secondLog, logger.LogLevelDebug, time.UTC)))

	_, err := second.Detect(t.Context(), []byte("jpeg"))
	require.NoError(t, err)
	_, err = first.Detect(t.Context(), []byte("jpeg"))
	require.NoError(t, err)

	assert.Equal(t, 2, observed, "existing observer must survive both constructors")
	assert.NotContains(t, firstLog.String(), "Detection round trip")
	assert.NotContains(t, secondLog.String(), "Detection round trip")
}

func TestEndpoint_InvalidBaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = "not a url"
	client, transport := setupTestClient(t, cfg)

	_, err := client.Detect(t.Context(), []byte("jpeg"))

	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Zero(t, transport.GetTotalCallCount())
}

func TestRegionGeometry(t *testing.T) {
	r := Region{CenterX: 100, CenterY: 80, Width: 40, Height: 20, Confidence: 0.876}

	left, top, w, h := r.Bounds()
	assert.InDelta(t, 80, left, 1e-9)
	assert.InDelta(t, 70, top, 1e-9)
	assert.InDelta(t, 40, w, 1e-9)
	assert.InDelta(t, 20, h, 1e-9)
	assert.Equal(t, 88, r.ConfidencePercent())
}
