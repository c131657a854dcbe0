package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func testImageJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestThumbnailScalesDown(t *testing.T) {
	data := testImageJPEG(t, 640, 480)

	thumb, err := Thumbnail(data, 320)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}

	w, h := decodeSize(t, thumb)
	if w != 320 || h != 240 {
		t.Errorf("thumbnail size = %dx%d; want 320x240", w, h)
	}
}

func TestThumbnailKeepsSmallImages(t *testing.T) {
	data := testImageJPEG(t, 100, 80)

	thumb, err := Thumbnail(data, 320)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}

	w, h := decodeSize(t, thumb)
	if w != 100 || h != 80 {
		t.Errorf("thumbnail size = %dx%d; want 100x80", w, h)
	}
}

func TestThumbnailInvalidData(t *testing.T) {
	if _, err := Thumbnail([]byte("not an image"), 320); err == nil {
		t.Error("expected error for invalid image data")
	}
}

func TestDisplayImage(t *testing.T) {
	data := testImageJPEG(t, 800, 600)

	encoded, err := DisplayImage(data)
	if err != nil {
		t.Fatalf("DisplayImage failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("result is not valid base64: %v", err)
	}

	w, h := decodeSize(t, raw)
	if w != 320 || h != 240 {
		t.Errorf("display image size = %dx%d; want 320x240", w, h)
	}
}

func TestReencodeJPEG(t *testing.T) {
	data := testImageJPEG(t, 50, 50)

	out, err := ReencodeJPEG(data)
	if err != nil {
		t.Fatalf("ReencodeJPEG failed: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected non-empty output")
	}
}
