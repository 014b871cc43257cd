package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/inspection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/similarity"
)

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
	}{
		{"configured", true},
		{"not configured", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTestServer(t, &fakeDetector{configured: tt.configured})

			rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody))
			require.Equal(t, http.StatusOK, rec.Code)

			body := decodeJSON[map[string]any](t, rec)
			assert.Equal(t, "healthy", body["status"])
			assert.Equal(t, tt.configured, body["detection_configured"])
		})
	}
}

func TestDetectEndpoint(t *testing.T) {
	white := solidPNG(t, color.White)
	srv, _ := setupTestServer(t, pairDetector(white))

	rec := serve(srv, multipartRequest(t, http.MethodPost, "/api/v1/detect",
		formFile{field: "image", filename: "car.png", data: white}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decodeJSON[detection.Result](t, rec)
	assert.Equal(t, []detection.Region{dentFront}, result.Regions)
	assert.Equal(t, 64, result.ImageWidth)
}

func TestDetectEndpointErrors(t *testing.T) {
	white := solidPNG(t, color.White)

	serviceFailure := func(category errors.ErrorCategory, status int, msg string) *fakeDetector {
		return &fakeDetector{detect: func(context.Context, []byte) (*detection.Result, error) {
			return nil, errors.New(&detection.ServiceError{StatusCode: status, Message: msg}).
				Component("detection").
				Category(category).
				Build()
		}}
	}

	tests := []struct {
		name      string
		detector  detection.Detector
		files     []formFile
		wantCode  int
		wantError string
	}{
		{
			name:      "missing file",
			detector:  pairDetector(white),
			files:     []formFile{{field: "photo", filename: "car.png", data: white}},
			wantCode:  http.StatusBadRequest,
			wantError: `form field "image"`,
		},
		{
			name:      "not an image",
			detector:  pairDetector(white),
			files:     []formFile{{field: "image", filename: "notes.txt", data: []byte("hello there")}},
			wantCode:  http.StatusBadRequest,
			wantError: "must contain an image",
		},
		{
			name:      "detection not configured",
			detector:  detection.NewClient(detection.Config{}),
			files:     []formFile{{field: "image", filename: "car.png", data: white}},
			wantCode:  http.StatusServiceUnavailable,
			wantError: "Roboflow API key not configured",
		},
		{
			name:      "remote service error",
			detector:  serviceFailure(errors.CategoryService, 403, "Forbidden: quota exceeded"),
			files:     []formFile{{field: "image", filename: "car.png", data: white}},
			wantCode:  http.StatusBadGateway,
			wantError: "Roboflow API error: Forbidden: quota exceeded",
		},
		{
			name:      "remote timeout",
			detector:  serviceFailure(errors.CategoryTimeout, 0, "context deadline exceeded"),
			files:     []formFile{{field: "image", filename: "car.png", data: white}},
			wantCode:  http.StatusGatewayTimeout,
			wantError: "deadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTestServer(t, tt.detector)

			rec := serve(srv, multipartRequest(t, http.MethodPost, "/api/v1/detect", tt.files...))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			resp := decodeJSON[ErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Contains(t, resp.Error, tt.wantError)
			assert.NotEmpty(t, resp.Message)
			assert.NotEmpty(t, resp.CorrelationID)
			assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), resp.CorrelationID)
		})
	}
}

func TestCompareEndpoint(t *testing.T) {
	white := solidPNG(t, color.White)
	gray := solidPNG(t, color.Gray{Y: 128})
	srv, _ := setupTestServer(t, pairDetector(white))

	rec := serve(srv, multipartRequest(t, http.MethodPost, "/api/v1/compare",
		formFile{field: "pickup", filename: "pickup.png", data: white},
		formFile{field: "return", filename: "return.png", contentType: "image/png", data: gray}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	a := decodeJSON[inspection.Assessment](t, rec)
	assert.Equal(t, []detection.Region{scratchRear}, a.Comparison.NewRegions)
	assert.Len(t, a.Comparison.Return.Regions, 2)
	assert.True(t, a.SimilarityAvailable)
	assert.Zero(t, a.Similarity, "disjoint gray levels")
	assert.Equal(t, similarity.LevelLow, a.Level)
	assert.Equal(t, similarity.LevelLow.Message(), a.Message)
}

func TestCompareEndpointRequiresBothImages(t *testing.T) {
	white := solidPNG(t, color.White)
	srv, _ := setupTestServer(t, pairDetector(white))

	rec := serve(srv, multipartRequest(t, http.MethodPost, "/api/v1/compare",
		formFile{field: "pickup", filename: "pickup.png", data: white}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeJSON[ErrorResponse](t, rec).Error, `"return"`)
}

func TestSimilarityEndpoint(t *testing.T) {
	white := solidPNG(t, color.White)
	srv, _ := setupTestServer(t, &fakeDetector{detect: func(context.Context, []byte) (*detection.Result, error) {
		t.Fatal("similarity must not call the detector")
		return nil, nil
	}})

	rec := serve(srv, multipartRequest(t, http.MethodPost, "/api/v1/similarity",
		formFile{field: "pickup", filename: "a.png", data: white},
		formFile{field: "return", filename: "b.png", data: white}))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[SimilarityResponse](t, rec)
	assert.True(t, resp.Available)
	assert.InDelta(t, 1.0, float64(resp.Score), 1e-9)
	assert.Equal(t, similarity.LevelHigh, resp.Level)

	rec = serve(srv, multipartRequest(t, http.MethodPost, "/api/v1/similarity",
		formFile{field: "pickup", filename: "a.png", contentType: "image/png", data: []byte("corrupt")},
		formFile{field: "return", filename: "b.png", data: white}))
	require.Equal(t, http.StatusOK, rec.Code)

	resp = decodeJSON[SimilarityResponse](t, rec)
	assert.False(t, resp.Available)
	assert.Zero(t, resp.Score)
	assert.Equal(t, similarity.LevelLow, resp.Level)
}

func TestSessionLifecycle(t *testing.T) {
	white := solidPNG(t, color.White)
	gray := solidPNG(t, color.Gray{Y: 128})
	srv, _ := setupTestServer(t, pairDetector(white))

	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", http.NoBody))
	require.Equal(t, http.StatusCreated, rec.Code)
	sess := decodeJSON[inspection.Session](t, rec)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, inspection.StateIdle, sess.State)
	base := "/api/v1/sessions/" + sess.ID

	// Nothing to analyze yet
	rec = serve(srv, httptest.NewRequest(http.MethodPost, base+"/analyze", http.NoBody))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Overlay needs a result
	rec = serve(srv, httptest.NewRequest(http.MethodGet, base+"/overlay/return", http.NoBody))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(srv, multipartRequest(t, http.MethodPut, base+"/images/pickup",
		formFile{field: "image", filename: "p.png", data: white}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, inspection.StateIdle, decodeJSON[inspection.Session](t, rec).State)

	rec = serve(srv, multipartRequest(t, http.MethodPut, base+"/images/roof",
		formFile{field: "image", filename: "x.png", data: white}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(srv, multipartRequest(t, http.MethodPut, base+"/images/return",
		formFile{field: "image", filename: "r.png", data: gray}))
	require.Equal(t, http.StatusOK, rec.Code)
	sess = decodeJSON[inspection.Session](t, rec)
	assert.Equal(t, inspection.StateImagesSelected, sess.State)
	require.NotNil(t, sess.Return)
	assert.Equal(t, "r.png", sess.Return.Filename)
	assert.Equal(t, "image/png", sess.Return.ContentType)

	rec = serve(srv, httptest.NewRequest(http.MethodPost, base+"/analyze", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess = decodeJSON[inspection.Session](t, rec)
	assert.Equal(t, inspection.StateResultReady, sess.State)
	require.NotNil(t, sess.Assessment)
	assert.Equal(t, []detection.Region{scratchRear}, sess.Assessment.Comparison.NewRegions)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, base, http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, inspection.StateResultReady, decodeJSON[inspection.Session](t, rec).State)

	for _, side := range []string{"pickup", "return"} {
		rec = serve(srv, httptest.NewRequest(http.MethodGet, base+"/overlay/"+side, http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code, side)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		decoded, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 64, decoded.Bounds().Dx())
	}

	rec = serve(srv, httptest.NewRequest(http.MethodPost, base+"/reset", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	sess = decodeJSON[inspection.Session](t, rec)
	assert.Equal(t, inspection.StateIdle, sess.State)
	assert.Nil(t, sess.Pickup)
	assert.Nil(t, sess.Assessment)

	rec = serve(srv, httptest.NewRequest(http.MethodDelete, base, http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, base, http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionAnalyzeFailureCanBeRetried(t *testing.T) {
	white := solidPNG(t, color.White)
	fail := true
	det := &fakeDetector{configured: true, detect: func(context.Context, []byte) (*detection.Result, error) {
		if fail {
			return nil, errors.New(&detection.ServiceError{StatusCode: 500, Message: "model crashed"}).
				Category(errors.CategoryService).
				Build()
		}
		return &detection.Result{}, nil
	}}
	srv, _ := setupTestServer(t, det)

	id := srv.Store().Create().ID
	base := "/api/v1/sessions/" + id
	for _, side := range []string{"pickup", "return"} {
		rec := serve(srv, multipartRequest(t, http.MethodPut, base+"/images/"+side,
			formFile{field: "image", filename: side + ".png", data: white}))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(srv, httptest.NewRequest(http.MethodPost, base+"/analyze", http.NoBody))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decodeJSON[ErrorResponse](t, rec).Error, "model crashed")

	sess, err := srv.Store().Get(id)
	require.NoError(t, err)
	assert.Equal(t, inspection.StateFailed, sess.State)
	assert.Contains(t, sess.Error, "model crashed")

	fail = false
	rec = serve(srv, httptest.NewRequest(http.MethodPost, base+"/analyze", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, inspection.StateResultReady, decodeJSON[inspection.Session](t, rec).State)
}

func TestUnknownSession(t *testing.T) {
	srv, _ := setupTestServer(t, &fakeDetector{})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/v1/sessions/missing", http.NoBody),
		httptest.NewRequest(http.MethodPost, "/api/v1/sessions/missing/analyze", http.NoBody),
		httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/missing", http.NoBody),
	} {
		rec := serve(srv, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, req.Method+" "+req.URL.Path)
	}
}

func TestBodyLimit(t *testing.T) {
	srv, _ := setupTestServer(t, &fakeDetector{}, func(c *Config) { c.BodyLimit = "1K" })

	rec := serve(srv, multipartRequest(t, http.MethodPost, "/api/v1/detect",
		formFile{field: "image", filename: "big.png", contentType: "image/png", data: bytes.Repeat([]byte{1}, 4096)}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestResponseHeaders(t *testing.T) {
	srv, _ := setupTestServer(t, &fakeDetector{}, func(c *Config) {
		c.AllowedOrigins = []string{"https://inspect.example.com"}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	req.Header.Set(echo.HeaderOrigin, "https://inspect.example.com")
	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentSecurityPolicy), "default-src 'none'")
	assert.Equal(t, "https://inspect.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlExposeHeaders), echo.HeaderXRequestID)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRateLimit(t *testing.T) {
	srv, _ := setupTestServer(t, &fakeDetector{}, func(c *Config) { c.RateLimit = 1 })

	first := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody))
	second := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t, &fakeDetector{})

	serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody))

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `inspector_http_requests_total{method="GET",path="/api/v1/health",status_code="200"} 1`), body)
	assert.Contains(t, body, "inspector_active_sessions")
}

func TestStatusFor(t *testing.T) {
	build := func(cat errors.ErrorCategory) error {
		return errors.Newf("failure").Category(cat).Build()
	}

	tests := []struct {
		err  error
		want int
	}{
		{build(errors.CategoryConfiguration), http.StatusServiceUnavailable},
		{build(errors.CategoryService), http.StatusBadGateway},
		{build(errors.CategoryNetwork), http.StatusBadGateway},
		{build(errors.CategoryLimit), http.StatusBadGateway},
		{build(errors.CategoryTimeout), http.StatusGatewayTimeout},
		{build(errors.CategoryValidation), http.StatusBadRequest},
		{build(errors.CategoryImageDecode), http.StatusBadRequest},
		{build(errors.CategoryNotFound), http.StatusNotFound},
		{build(errors.CategoryState), http.StatusConflict},
		{build(errors.CategoryGeneric), http.StatusInternalServerError},
		{errors.NewStd("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
