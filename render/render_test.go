package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/hoshinonyaruko/snake-inside-out/memimg"
	"github.com/hoshinonyaruko/snake-inside-out/structs"
)

func testFrame() structs.Frame {
	return structs.Frame{
		TileCount: 5,
		Snake:     []structs.Position{{X: 1, Y: 1}, {X: 2, Y: 1}},
		Food:      structs.Position{X: 4, Y: 4},
	}
}

// centre of a cell, away from grid lines
func cellColor(img image.Image, x, y, block int) color.RGBA {
	r, g, b, a := img.At(x*block+block/2, y*block+block/2).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestFrameColors(t *testing.T) {
	img := Frame(testFrame(), 10, nil)
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Fatalf("bounds = %v, want 50x50", b)
	}
	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"head", 1, 1, color.RGBA{0x7f, 0xff, 0x7f, 0xff}},
		{"body", 2, 1, color.RGBA{0x00, 0xff, 0x00, 0xff}},
		{"food", 4, 4, color.RGBA{0xff, 0x00, 0x00, 0xff}},
		{"background", 0, 3, color.RGBA{0x22, 0x22, 0x22, 0xff}},
	}
	for _, tt := range tests {
		if got := cellColor(img, tt.x, tt.y, 10); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFrameUsesSkins(t *testing.T) {
	blue := color.NRGBA{0, 0, 255, 255}
	skins := func(name string) (image.Image, bool) {
		if name == memimg.SkinFood {
			return imaging.New(10, 10, blue), true
		}
		return nil, false
	}
	img := Frame(testFrame(), 10, skins)
	if got := cellColor(img, 4, 4, 10); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("food cell = %v, want skin blue", got)
	}
	if got := cellColor(img, 2, 1, 10); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("body cell = %v, want fallback green", got)
	}
}

func TestFrameRescalesSkinsToBlockSize(t *testing.T) {
	white := color.NRGBA{255, 255, 255, 255}
	skins := func(name string) (image.Image, bool) {
		switch name {
		case memimg.SkinFood:
			// cached at an older, smaller block size
			return imaging.New(10, 10, white), true
		case memimg.SkinHead:
			// cached at a larger block size
			return imaging.New(40, 40, white), true
		}
		return nil, false
	}
	img := Frame(testFrame(), 20, skins)

	// resampling may be off by one from pure white
	isWhite := func(x, y int) bool {
		r, g, b, _ := img.At(x, y).RGBA()
		return r>>8 >= 250 && g>>8 >= 250 && b>>8 >= 250
	}
	// food at (4,4) spans pixels 80..99
	for _, p := range []image.Point{{82, 82}, {90, 90}, {97, 97}} {
		if !isWhite(p.X, p.Y) {
			t.Errorf("food pixel %v = %v, want skin white", p, img.At(p.X, p.Y))
		}
	}
	// head at (1,1) spans pixels 20..39 and must stay inside its block
	if !isWhite(30, 30) {
		t.Errorf("head pixel = %v, want skin white", img.At(30, 30))
	}
	if got := cellColor(img, 1, 2, 20); got != (color.RGBA{0x22, 0x22, 0x22, 0xff}) {
		t.Errorf("cell below head = %v, want background", got)
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, testFrame(), 4, nil); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 {
		t.Errorf("width = %d, want 20", b.Dx())
	}
}
