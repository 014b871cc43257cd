package overlay

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
)

func whiteCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestRenderColorsAndGeometry(t *testing.T) {
	src := whiteCanvas(400, 300)
	regions := []detection.Region{
		{CenterX: 100, CenterY: 100, Width: 60, Height: 40, Confidence: 0.87, Label: "dent"},
		{CenterX: 300, CenterY: 200, Width: 40, Height: 40, Confidence: 0.5, Label: "scratch"},
	}

	out := Render(src, regions, []bool{true, false})

	// box 0 spans x 70..130, y 80..120
	assert.Equal(t, ColorNew, rgbaAt(out, 70, 100), "left stroke of new region")
	assert.Equal(t, ColorNew, rgbaAt(out, 130, 100), "right stroke of new region")
	assert.Equal(t, ColorNew, rgbaAt(out, 100, 120), "bottom stroke of new region")
	assert.Equal(t, ColorNew, rgbaAt(out, 71, 57), "label tag above new region")

	// box 1 spans x 280..320, y 180..220
	assert.Equal(t, ColorExisting, rgbaAt(out, 280, 200), "left stroke of existing region")
	assert.Equal(t, ColorExisting, rgbaAt(out, 281, 157), "label tag above existing region")

	inside := rgbaAt(out, 100, 100)
	assert.Greater(t, inside.R, uint8(240), "fill is translucent")
	assert.Less(t, inside.G, uint8(245), "fill tints toward red")

	assert.Equal(t, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, rgbaAt(out, 5, 295), "untouched pixel")
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, rgbaAt(src, 70, 100), "source is not modified")
}

func TestRenderMissingFlagsDefaultToExisting(t *testing.T) {
	out := Render(whiteCanvas(100, 100), []detection.Region{
		{CenterX: 50, CenterY: 60, Width: 20, Height: 20, Label: "dent"},
	}, nil)

	assert.Equal(t, ColorExisting, rgbaAt(out, 40, 60))
}

func TestRenderClipsRegionsOutsideImage(t *testing.T) {
	assert.NotPanics(t, func() {
		Render(whiteCanvas(50, 50), []detection.Region{
			{CenterX: 0, CenterY: 0, Width: 500, Height: 500, Label: "huge"},
			{CenterX: -100, CenterY: -100, Width: 10, Height: 10, Label: "offscreen"},
		}, []bool{true, true})
	})
}

func TestMarkNew(t *testing.T) {
	a := detection.Region{CenterX: 1, Label: "dent"}
	b := detection.Region{CenterX: 2, Label: "scratch"}
	c := detection.Region{CenterX: 3, Label: "dent"}

	assert.Equal(t, []bool{false, true, true}, MarkNew([]detection.Region{a, b, c}, []detection.Region{b, c}))
	assert.Equal(t, []bool{false, false, false}, MarkNew([]detection.Region{a, b, c}, nil))
	assert.Equal(t, []bool{true, true}, MarkNew([]detection.Region{a, a}, []detection.Region{a, a}))
	assert.Empty(t, MarkNew(nil, nil))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "scratch 87%", Label(detection.Region{Label: "scratch", Confidence: 0.87}))
	assert.Equal(t, "dent 100%", Label(detection.Region{Label: "dent", Confidence: 0.999}))
	assert.Equal(t, "glass 5%", Label(detection.Region{Label: "glass", Confidence: 0.05}))
}

func TestRenderPNG(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, whiteCanvas(120, 120)))

	var out bytes.Buffer
	err := RenderPNG(&out, src.Bytes(), []detection.Region{
		{CenterX: 60, CenterY: 60, Width: 30, Height: 30, Confidence: 0.9, Label: "dent"},
	}, []bool{true})
	require.NoError(t, err)

	decoded, err := png.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 120), decoded.Bounds())
	r, g, b, _ := decoded.At(45, 60).RGBA()
	assert.Equal(t, [3]uint32{0xEF, 0x44, 0x44}, [3]uint32{r >> 8, g >> 8, b >> 8})
}

func TestRenderPNGDecodeFailure(t *testing.T) {
	err := RenderPNG(&bytes.Buffer{}, []byte("nope"), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryImageDecode))
}
