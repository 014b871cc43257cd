package detection

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/httpclient"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability/metrics"
)

const (
	requestContentType = "application/x-www-form-urlencoded"

	// maxResponseBytes bounds how much of a response body is read
	maxResponseBytes = 10 << 20
)

// Detector analyzes a single image for damage regions.
type Detector interface {
	Detect(ctx context.Context, image []byte) (*Result, error)
}

// Client calls the hosted detection model. It performs exactly one outbound
// request per Detect call and never retries.
type Client struct {
	config  Config
	http    *httpclient.Client
	ownHTTP bool
	log     logger.Logger
	metrics *metrics.DetectionMetrics
}

var _ Detector = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient makes the client use hc for outbound calls.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger; the client logs under the "detection" module.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.DetectionMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a detection client. Missing credentials are not an error
// here; Detect reports them before any network activity.
func NewClient(config Config, opts ...Option) *Client {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	c := &Client{config: config}
	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = logger.Global().Module(componentName)
	}
	if c.http == nil {
		c.http = httpclient.New(httpclient.Config{Timeout: config.Timeout})
		c.ownHTTP = true
	}

	// A shared client carries traffic of other users; only observe our own.
	if c.ownHTTP {
		c.http.Observe(c.logRoundTrip)
	}

	c.log.Debug("Detection client initialized",
		logger.String("base_url", config.BaseURL),
		logger.String("model", config.Model),
		logger.String("version", config.Version),
		logger.Bool("api_key_configured", config.APIKey != ""))

	return c
}

func (c *Client) logRoundTrip(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.log.Debug("Detection round trip",
		logger.String("url", logger.RedactURL(req.URL)),
		logger.Int64("body_bytes", req.ContentLength),
		logger.Int("status", status),
		logger.Bool("transport_error", err != nil),
		logger.Duration("elapsed", elapsed))
}

// Configured reports whether the client has credentials and model identifiers.
func (c *Client) Configured() bool {
	return c.validateConfig() == nil
}

// Close releases idle connections owned by the client.
func (c *Client) Close() {
	if c.ownHTTP {
		c.http.Close()
	}
}

// Detect submits one image and returns the regions found in it.
//
// A missing API key or model identifier yields a configuration error without
// any network call. Remote failures yield a *ServiceError carrying the
// service's own message when one was sent.
func (c *Client) Detect(ctx context.Context, image []byte) (*Result, error) {
	if err := c.validateConfig(); err != nil {
		c.metrics.RecordRequest(metrics.OutcomeNotConfigured)
		return nil, err
	}

	if len(image) == 0 {
		c.metrics.RecordRequest(metrics.OutcomeInvalidInput)
		return nil, errors.New(ErrEmptyImage).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}

	endpoint, err := c.endpoint()
	if err != nil {
		c.metrics.RecordRequest(metrics.OutcomeNotConfigured)
		return nil, err
	}

	body := []byte(base64.StdEncoding.EncodeToString(image))

	start := time.Now()
	resp, err := c.http.PostBody(ctx, endpoint, requestContentType, body)
	if err != nil {
		c.metrics.ObserveRemoteCall(0, time.Since(start).Seconds())
		return nil, c.serviceFailure(transportError(err), time.Since(start))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug("Failed to close response body", logger.Error(cerr))
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	c.metrics.ObserveRemoteCall(resp.StatusCode, elapsed.Seconds())
	if err != nil {
		return nil, c.serviceFailure(newServiceError(resp.StatusCode, "",
			fmt.Errorf("failed to read response body: %w", err)), elapsed)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr apiErrorResponse
		// Non-JSON error bodies fall through to the generic message
		_ = json.Unmarshal(data, &apiErr)
		return nil, c.serviceFailure(newServiceError(resp.StatusCode, apiErr.Message, nil), elapsed)
	}

	var parsed inferenceResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, c.serviceFailure(newServiceError(resp.StatusCode, "",
			fmt.Errorf("invalid response body: %w", err)), elapsed)
	}

	result := parsed.toResult()

	c.metrics.RecordRequest(metrics.OutcomeSuccess)
	c.metrics.ObserveRegions(len(result.Regions))
	c.log.Info("Detection completed",
		logger.Int("regions", len(result.Regions)),
		logger.Int("image_width", result.ImageWidth),
		logger.Int("image_height", result.ImageHeight),
		logger.Float64("inference_time", result.ProcessingTime),
		logger.Duration("elapsed", elapsed))

	return result, nil
}

// validateConfig checks credentials and model identifiers
func (c *Client) validateConfig() error {
	if c.config.APIKey == "" {
		return errors.New(ErrNotConfigured).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	if c.config.Model == "" || c.config.Version == "" {
		return errors.New(ErrModelNotConfigured).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Context("model_set", c.config.Model != "").
			Context("version_set", c.config.Version != "").
			Build()
	}
	return nil
}

// endpoint builds {BaseURL}/{Model}/{Version}?api_key=...
func (c *Client) endpoint() (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", errors.Newf("invalid detection base URL %q", c.config.BaseURL).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}

	u := base.JoinPath(c.config.Model, c.config.Version)
	q := u.Query()
	q.Set("api_key", c.config.APIKey)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// transportError converts a failed round trip into a ServiceError. The
// *url.Error wrapper is stripped because its text contains the API key.
func transportError(err error) *ServiceError {
	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		cause = urlErr.Err
	}
	return newServiceError(0, "", cause)
}

// serviceFailure logs and wraps a ServiceError with component context
func (c *Client) serviceFailure(svcErr *ServiceError, elapsed time.Duration) error {
	c.metrics.RecordRequest(metrics.OutcomeServiceError)

	c.log.Warn("Detection request failed",
		logger.Int("status_code", svcErr.StatusCode),
		logger.String("message", logger.RedactSensitiveData(svcErr.Message)),
		logger.Duration("elapsed", elapsed))

	return errors.New(svcErr).
		Component(componentName).
		Category(getErrorCategory(svcErr)).
		Context("status_code", svcErr.StatusCode).
		Timing("detect", elapsed).
		Build()
}

// getErrorCategory picks a telemetry category for a failed call
func getErrorCategory(svcErr *ServiceError) errors.ErrorCategory {
	switch {
	case errors.Is(svcErr, context.DeadlineExceeded):
		return errors.CategoryTimeout
	case errors.Is(svcErr, context.Canceled):
		return errors.CategoryCancellation
	case svcErr.StatusCode == http.StatusTooManyRequests:
		return errors.CategoryLimit
	case svcErr.StatusCode == 0:
		return errors.CategoryNetwork
	default:
		return errors.CategoryService
	}
}
