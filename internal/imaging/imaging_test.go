package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestNormalizeJPEG(t *testing.T) {
	photo, err := Normalize(bytes.NewReader(encodeJPEG(100, 60)))
	if err != nil {
		t.Fatalf("Normalize JPEG: %v", err)
	}
	if photo.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", photo.MIME)
	}
	if photo.Width != 100 || photo.Height != 60 {
		t.Errorf("expected 100x60, got %dx%d", photo.Width, photo.Height)
	}
}

func TestNormalizePNGBecomesJPEG(t *testing.T) {
	photo, err := Normalize(bytes.NewReader(encodePNG(solid(40, 40, color.RGBA{0, 0, 255, 255}))))
	if err != nil {
		t.Fatalf("Normalize PNG: %v", err)
	}
	if photo.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", photo.MIME)
	}
	if _, err := jpeg.Decode(bytes.NewReader(photo.Data)); err != nil {
		t.Errorf("output is not a JPEG: %v", err)
	}
}

func TestNormalizeFlattensTransparency(t *testing.T) {
	photo, err := Normalize(bytes.NewReader(encodePNG(solid(20, 20, color.RGBA{}))))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	r, g, b, _ := img.At(10, 10).RGBA()
	if r < 0xf000 || g < 0xf000 || b < 0xf000 {
		t.Errorf("expected transparent pixels to become white, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestNormalizeDownscale(t *testing.T) {
	photo, err := Normalize(bytes.NewReader(encodeJPEG(2560, 1280)))
	if err != nil {
		t.Fatalf("Normalize large image: %v", err)
	}
	if photo.Width != MaxDimension || photo.Height != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, photo.Width, photo.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if img.Bounds().Dx() != photo.Width {
		t.Errorf("reported width %d does not match encoded %d", photo.Width, img.Bounds().Dx())
	}
}

func TestNormalizeSmallImageNotUpscaled(t *testing.T) {
	photo, err := Normalize(bytes.NewReader(encodeJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Normalize small image: %v", err)
	}
	if photo.Width != 50 || photo.Height != 50 {
		t.Errorf("small image should not be resized: got %dx%d", photo.Width, photo.Height)
	}
}

func TestNormalizeRejectsOtherFormats(t *testing.T) {
	for name, data := range map[string][]byte{
		"text": []byte("not an image"),
		"gif":  []byte("GIF89a..."),
	} {
		if _, err := Normalize(bytes.NewReader(data)); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", name, err)
		}
	}
}

func TestNormalizeRejectsOversizedUpload(t *testing.T) {
	data := make([]byte, MaxUploadBytes+10)
	copy(data, "\xff\xd8\xff")
	if _, err := Normalize(bytes.NewReader(data)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}
