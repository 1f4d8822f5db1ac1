// Package avatar normalizes uploaded profile images into the canonical
// stored form: a 250x250 PNG cropped around the most interesting region.
package avatar

import (
	"bytes"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"
	"github.com/muesli/smartcrop/nfnt"

	"github.com/taskhub/identity/pkg/errors"

	_ "image/jpeg"
	_ "image/png"
)

const (
	// Side is the canonical square dimension of a stored avatar
	Side = 250

	// MaxBytes is the upload size ceiling
	MaxBytes = 1_000_000
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Pipeline validates and normalizes avatar uploads
type Pipeline struct {
	side     int
	maxBytes int
}

// NewPipeline creates a pipeline producing canonical avatars
func NewPipeline() *Pipeline {
	return &Pipeline{
		side:     Side,
		maxBytes: MaxBytes,
	}
}

// Process turns an upload into canonical avatar bytes.
//
// The declared filename extension and the size ceiling are checked before
// any decode is attempted. The image is then cropped to the square window
// with the highest detail score (edges, saturation, skin tones) so the
// subject survives the crop, resized to exactly 250x250 and re-encoded
// as PNG.
func (p *Pipeline) Process(raw []byte, filename string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, errors.Newf(errors.ErrCodeValidationFailed,
			"please upload a valid image file (jpg, jpeg or png), got %q", filepath.Base(filename))
	}

	if len(raw) > p.maxBytes {
		return nil, errors.Newf(errors.ErrCodeImageTooLarge,
			"image exceeds the %d byte limit", p.maxBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnsupportedImage, "failed to decode image")
	}
	slog.Debug("Decoded avatar upload", "format", format, "bounds", img.Bounds())

	analyzer := smartcrop.NewAnalyzer(nfnt.NewDefaultResizer())
	window, err := analyzer.FindBestCrop(img, p.side, p.side)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnsupportedImage, "failed to find crop window")
	}

	cropped := imaging.Crop(img, window)
	normalized := imaging.Resize(cropped, p.side, p.side, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, normalized, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to encode avatar")
	}
	return buf.Bytes(), nil
}
