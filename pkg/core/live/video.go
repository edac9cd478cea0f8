package live

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// FrameSource captures video frames for sharing with the model.
// Grab returns the current frame; it is called once per VideoConfig.Interval.
// Grab returns io.EOF when the underlying track has ended; the capture
// loop stops on it. Any other error is treated as transient.
type FrameSource interface {
	Grab() (image.Image, error)
}

// EncodeFrame downscales a frame to cfg.MaxWidth (preserving aspect ratio)
// and encodes it as JPEG at cfg.JPEGQuality.
func EncodeFrame(img image.Image, cfg VideoConfig) ([]byte, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if cfg.MaxWidth > 0 && width > cfg.MaxWidth {
		newHeight := height * cfg.MaxWidth / width
		scaled := image.NewRGBA(image.Rect(0, 0, cfg.MaxWidth, newHeight))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	var buf bytes.Buffer
	quality := cfg.JPEGQuality
	if quality <= 0 {
		quality = 70
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
