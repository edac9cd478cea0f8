package live

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestEncodeFrameDownscales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	for y := 0; y < 1080; y += 8 {
		for x := 0; x < 1920; x += 8 {
			src.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	data, err := EncodeFrame(src, DefaultCameraConfig())
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid JPEG: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 1024 {
		t.Errorf("width = %d, want 1024", bounds.Dx())
	}
	if bounds.Dy() != 576 {
		t.Errorf("height = %d, want 576 (aspect preserved)", bounds.Dy())
	}
}

func TestEncodeFrameKeepsSmallFrames(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 640, 480))

	data, err := EncodeFrame(src, DefaultScreenConfig())
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 640 || decoded.Bounds().Dy() != 480 {
		t.Errorf("bounds = %v, want 640x480 unchanged", decoded.Bounds())
	}
}
