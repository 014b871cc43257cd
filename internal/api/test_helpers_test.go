package api

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/inspection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability"
)

type fakeDetector struct {
	detect     func(ctx context.Context, image []byte) (*detection.Result, error)
	configured bool
}

func (f *fakeDetector) Detect(ctx context.Context, image []byte) (*detection.Result, error) {
	return f.detect(ctx, image)
}

func (f *fakeDetector) Configured() bool {
	return f.configured
}

var (
	dentFront   = detection.Region{CenterX: 20, CenterY: 20, Width: 10, Height: 8, Confidence: 0.9, Label: "dent"}
	scratchRear = detection.Region{CenterX: 45, CenterY: 40, Width: 12, Height: 6, Confidence: 0.75, Label: "scratch"}
)

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pairDetector reports dentFront on pickup and dentFront plus scratchRear on return
func pairDetector(pickup []byte) *fakeDetector {
	return &fakeDetector{
		configured: true,
		detect: func(_ context.Context, image []byte) (*detection.Result, error) {
			if bytes.Equal(image, pickup) {
				return &detection.Result{Regions: []detection.Region{dentFront}, ImageWidth: 64, ImageHeight: 64}, nil
			}
			return &detection.Result{Regions: []detection.Region{dentFront, scratchRear}, ImageWidth: 64, ImageHeight: 64}, nil
		},
	}
}

type formFile struct {
	field       string
	filename    string
	contentType string // empty uses application/octet-stream
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, files ...formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		ct := f.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func setupTestServer(t *testing.T, det detection.Detector, mutate ...func(*Config)) (*Server, *observability.Metrics) {
	t.Helper()

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	config := DefaultConfig()
	config.SessionTTL = time.Minute
	for _, fn := range mutate {
		fn(config)
	}

	service := inspection.NewService(det, inspection.WithMetrics(m.Inspection))
	srv, err := New(config, det, service, WithMetrics(m))
	require.NoError(t, err)
	return srv, m
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
