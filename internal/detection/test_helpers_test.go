package detection

import (
	"io"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/httpclient"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability/metrics"
)

const (
	testBaseURL  = "https://detect.test"
	testEndpoint = testBaseURL + "/car-damage/3"
	testAPIKey   = "test-key-123"
)

func testConfig() Config {
	return Config{
		APIKey:  testAPIKey,
		Model:   "car-damage",
		Version: "3",
		BaseURL: testBaseURL,
		Timeout: 5 * time.Second,
	}
}

// setupTestClient returns a client whose outbound calls go to a mock transport.
func setupTestClient(t *testing.T, cfg Config, opts ...Option) (*Client, *httpmock.MockTransport) {
	t.Helper()

	transport := httpmock.NewMockTransport()
	hc := httpclient.New(httpclient.Config{Transport: transport})
	t.Cleanup(hc.Close)

	opts = append([]Option{
		WithHTTPClient(hc),
		WithLogger(logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)),
	}, opts...)

	client := NewClient(cfg, opts...)
	t.Cleanup(client.Close)

	return client, transport
}

func newTestMetrics(t *testing.T) *metrics.DetectionMetrics {
	t.Helper()
	m, err := metrics.NewDetectionMetrics(prometheusRegistry())
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m
}

const sampleResponse = `{
  "inference_id": "inf-42",
  "time": 0.153,
  "image": {"width": 1280, "height": 960},
  "predictions": [
    {"x": 100, "y": 100, "width": 40, "height": 30, "confidence": 0.91, "class": "dent", "class_id": 1, "detection_id": "d-1"},
    {"x": 400.5, "y": 220, "width": 80, "height": 60, "confidence": 0.62, "class": "scratch", "class_id": 2,
     "points": [{"x": 1, "y": 2}]}
  ]
}`
