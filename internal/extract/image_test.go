package extract

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func TestNormalizeImage_BMPToPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}

	out, err := normalizeImage("scan.bmp", buf.Bytes())
	if err != nil {
		t.Fatalf("normalizeImage: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("output is not PNG: %v", err)
	}
}

func TestNormalizeImage_TIFFPassthrough(t *testing.T) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, testImage(), nil); err != nil {
		t.Fatal(err)
	}

	out, err := normalizeImage("scan.tiff", buf.Bytes())
	if err != nil {
		t.Fatalf("normalizeImage: %v", err)
	}
	if !bytes.Equal(out, buf.Bytes()) {
		t.Error("tiff bytes should pass through unchanged")
	}
}

func TestNormalizeImage_PNGPassthrough(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}

	out, err := normalizeImage("scan.png", buf.Bytes())
	if err != nil {
		t.Fatalf("normalizeImage: %v", err)
	}
	if !bytes.Equal(out, buf.Bytes()) {
		t.Error("png bytes should pass through unchanged")
	}
}

func TestNormalizeImage_CorruptBMP(t *testing.T) {
	if _, err := normalizeImage("bad.bmp", []byte("not a bitmap")); err == nil {
		t.Error("expected decode error")
	}
}
