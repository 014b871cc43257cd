// Package inspection compares pickup and return photos of a vehicle and
// tracks the progress of an inspection through an explicit state machine.
package inspection

import (
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/similarity"
)

const componentName = "inspection"

// Side identifies which photo of the pair an image belongs to.
type Side string

const (
	SidePickup Side = "pickup"
	SideReturn Side = "return"
)

// ParseSide validates a side name.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SidePickup, SideReturn:
		return Side(s), nil
	default:
		return "", errors.Newf("unknown image side %q, expected pickup or return", s).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}
}

// Image is an uploaded photo. Data is never serialized.
type Image struct {
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename,omitempty"`
	Size        int    `json:"size"`
}

// NewImage wraps raw bytes with their metadata.
func NewImage(data []byte, contentType, filename string) Image {
	return Image{Data: data, ContentType: contentType, Filename: filename, Size: len(data)}
}

// Comparison holds both detection results and the regions present only at
// return. NewRegions is an ordered subsequence of Return.Regions.
type Comparison struct {
	Pickup     detection.Result   `json:"pickup"`
	Return     detection.Result   `json:"return"`
	NewRegions []detection.Region `json:"new_regions"`
}

// HasNewDamage reports whether any new damage was found.
func (c *Comparison) HasNewDamage() bool {
	return len(c.NewRegions) > 0
}

// Assessment is a comparison together with the advisory similarity check.
//
// SimilarityAvailable is false when either image could not be decoded for
// the similarity check; Similarity is then 0 and Level is low.
type Assessment struct {
	Comparison          Comparison       `json:"comparison"`
	Similarity          similarity.Score `json:"similarity"`
	Level               similarity.Level `json:"similarity_level"`
	Message             string           `json:"similarity_message"`
	SimilarityAvailable bool             `json:"similarity_available"`
}
