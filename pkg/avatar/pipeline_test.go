package avatar

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/identity/pkg/errors"
)

// testJPEG renders a gradient so the crop analyzer has real detail to score
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestProcessNormalizesToCanonicalPNG(t *testing.T) {
	pipeline := NewPipeline()

	out, err := pipeline.Process(testJPEG(t, 400, 400), "portrait.jpg")
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err, "output must decode as PNG")

	bounds := decoded.Bounds()
	assert.Equal(t, Side, bounds.Dx())
	assert.Equal(t, Side, bounds.Dy())
}

func TestProcessNonSquareInput(t *testing.T) {
	pipeline := NewPipeline()

	out, err := pipeline.Process(testJPEG(t, 640, 300), "wide.jpeg")
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, Side, decoded.Bounds().Dx())
	assert.Equal(t, Side, decoded.Bounds().Dy())
}

func TestProcessRejectsExtensionBeforeDecode(t *testing.T) {
	pipeline := NewPipeline()

	// Valid image bytes, wrong declared name: rejected without decoding.
	_, err := pipeline.Process(testJPEG(t, 100, 100), "animation.gif")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}

func TestProcessRejectsOversizedUpload(t *testing.T) {
	pipeline := NewPipeline()

	big := make([]byte, MaxBytes+1)
	_, err := pipeline.Process(big, "huge.png")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeImageTooLarge))
}

func TestProcessRejectsNonImageBytes(t *testing.T) {
	pipeline := NewPipeline()

	_, err := pipeline.Process([]byte("definitely not an image"), "innocent.png")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedImage))
}
