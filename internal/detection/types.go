// Package detection provides a client for the Roboflow hosted object-detection API
// and the region types shared by the damage comparison pipeline.
package detection

import (
	"math"
	"time"
)

// Region is one detected damage region in pixel space of the analyzed image.
// Coordinates refer to the center of the bounding box.
type Region struct {
	CenterX     float64 `json:"x"`
	CenterY     float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Confidence  float64 `json:"confidence"`
	Label       string  `json:"class"`
	LabelID     int     `json:"class_id"`
	DetectionID string  `json:"detection_id,omitempty"`
}

// Bounds returns the top-left corner and size of the region's box.
func (r Region) Bounds() (left, top, width, height float64) {
	return r.CenterX - r.Width/2, r.CenterY - r.Height/2, r.Width, r.Height
}

// ConfidencePercent returns the confidence as a rounded percentage.
func (r Region) ConfidencePercent() int {
	return int(math.Round(r.Confidence * 100))
}

// Result is the outcome of analyzing one image.
type Result struct {
	Regions        []Region `json:"predictions"`
	ImageWidth     int      `json:"image_width"`
	ImageHeight    int      `json:"image_height"`
	ProcessingTime float64  `json:"time"` // seconds, as reported by the service
	InferenceID    string   `json:"inference_id,omitempty"`
}

// Config holds configuration for the detection client.
type Config struct {
	APIKey  string        `json:"-"`
	Model   string        `json:"model"`
	Version string        `json:"version"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultBaseURL is the hosted serverless inference endpoint.
const DefaultBaseURL = "https://serverless.roboflow.com"

// DefaultConfig returns the default configuration. APIKey, Model and Version must be supplied.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 30 * time.Second,
	}
}

// inferenceResponse mirrors the service's JSON response
type inferenceResponse struct {
	InferenceID string  `json:"inference_id"`
	Time        float64 `json:"time"`
	Image       struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"image"`
	Predictions []prediction `json:"predictions"`
}

// prediction is one entry of the service's predictions array.
// Segmentation points are ignored.
type prediction struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Confidence  float64 `json:"confidence"`
	Class       string  `json:"class"`
	ClassID     int     `json:"class_id"`
	DetectionID string  `json:"detection_id"`
}

// apiErrorResponse is the error body the service returns on failure
type apiErrorResponse struct {
	Message string `json:"message"`
}

func (r *inferenceResponse) toResult() *Result {
	regions := make([]Region, 0, len(r.Predictions))
	for i := range r.Predictions {
		p := &r.Predictions[i]
		regions = append(regions, Region{
			CenterX:     p.X,
			CenterY:     p.Y,
			Width:       p.Width,
			Height:      p.Height,
			Confidence:  p.Confidence,
			Label:       p.Class,
			LabelID:     p.ClassID,
			DetectionID: p.DetectionID,
		})
	}

	return &Result{
		Regions:        regions,
		ImageWidth:     int(math.Round(r.Image.Width)),
		ImageHeight:    int(math.Round(r.Image.Height)),
		ProcessingTime: r.Time,
		InferenceID:    r.InferenceID,
	}
}
