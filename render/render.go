// Package render 把一帧游戏状态画成图片：每个格子对应 blockSize 像素的方块。
package render

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/hoshinonyaruko/snake-inside-out/memimg"
	"github.com/hoshinonyaruko/snake-inside-out/structs"
)

// SkinSource looks up a tile skin by name. memimg.GetSkin satisfies it.
type SkinSource func(name string) (image.Image, bool)

// 颜色与原版一致：深灰背景、绿色蛇身、红色食物
const (
	backgroundHex = "#222222"
	snakeHex      = "#00ff00"
	headHex       = "#7fff7f"
	foodHex       = "#ff0000"
	gridHex       = "#2e2e2e"
)

// Frame 渲染一帧。skins 为 nil 时只用纯色方块。
func Frame(frame structs.Frame, blockSize int, skins SkinSource) image.Image {
	return draw(frame, blockSize, skins).Image()
}

// WritePNG renders frame and encodes it as PNG to w.
func WritePNG(w io.Writer, frame structs.Frame, blockSize int, skins SkinSource) error {
	return draw(frame, blockSize, skins).EncodePNG(w)
}

func draw(frame structs.Frame, blockSize int, skins SkinSource) *gg.Context {
	size := frame.TileCount * blockSize
	dc := gg.NewContext(size, size)

	// 清空背景
	dc.SetHexColor(backgroundHex)
	dc.Clear()
	renderGrid(dc, size, blockSize)

	scaled := scaleSkins(skins, blockSize)
	for i, pos := range frame.Snake {
		name, hex := memimg.SkinSnake, snakeHex
		if i == 0 {
			name, hex = memimg.SkinHead, headHex
		}
		fillCell(dc, pos, blockSize, scaled[name], hex)
	}
	fillCell(dc, frame.Food, blockSize, scaled[memimg.SkinFood], foodHex)
	return dc
}

// scaleSkins 每帧取一次皮肤；尺寸和 blockSize 不一致时（blocksize 热更新后）重新缩放
func scaleSkins(skins SkinSource, blockSize int) map[string]image.Image {
	scaled := make(map[string]image.Image, 3)
	if skins == nil {
		return scaled
	}
	for _, name := range []string{memimg.SkinSnake, memimg.SkinHead, memimg.SkinFood} {
		img, found := skins(name)
		if !found || img == nil {
			continue
		}
		if b := img.Bounds(); b.Dx() != blockSize || b.Dy() != blockSize {
			img = imaging.Fill(img, blockSize, blockSize, imaging.Center, imaging.Lanczos)
		}
		scaled[name] = img
	}
	return scaled
}

// fillCell 优先使用皮肤，没有皮肤时填充纯色方块
func fillCell(dc *gg.Context, pos structs.Position, blockSize int, skin image.Image, hex string) {
	x, y := pos.X*blockSize, pos.Y*blockSize
	if skin != nil {
		dc.DrawImage(skin, x, y)
		return
	}
	dc.SetHexColor(hex)
	dc.DrawRectangle(float64(x), float64(y), float64(blockSize), float64(blockSize))
	dc.Fill()
}

func renderGrid(dc *gg.Context, size, blockSize int) {
	if blockSize < 4 {
		return
	}
	dc.SetHexColor(gridHex)
	dc.SetLineWidth(1)
	for v := 0; v <= size; v += blockSize {
		dc.DrawLine(float64(v), 0, float64(v), float64(size))
		dc.DrawLine(0, float64(v), float64(size), float64(v))
	}
	dc.Stroke()
}
