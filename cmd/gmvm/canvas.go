package main

import (
	"github.com/grove/gm"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"
)

// placeholderExtent is the fixed half-size used to render draw_sprite
// calls: sprite pixel payloads are never decoded (§1 Non-goals), so a
// sprite draws as a square twice this size with its top-left corner at
// the draw position instead.
const placeholderExtent = 16

// sdlCanvas implements gm.Canvas by rendering directly to an SDL
// renderer every frame, in between Clear and the window's Paint
// (grounded on cmd/vnes/draw.go's drawRect/drawMessage, minus the
// BMFont bitmap-font machinery since no sprite-font pixels exist to
// back it with).
type sdlCanvas struct {
	renderer *sdl.Renderer
	font     *ttf.Font // optional; nil disables text rendering
}

func newSDLCanvas(r *sdl.Renderer, font *ttf.Font) *sdlCanvas {
	return &sdlCanvas{renderer: r, font: font}
}

func bgrComponents(c int32) (r, g, b uint8) {
	return uint8(c & 0xFF), uint8((c >> 8) & 0xFF), uint8((c >> 16) & 0xFF)
}

func (c *sdlCanvas) Clear(color int32) {
	r, g, b := bgrComponents(color)
	c.renderer.SetDrawColor(r, g, b, 255)
	c.renderer.Clear()
}

func (c *sdlCanvas) Rectangle(x1, y1, x2, y2 float64, color int32, alpha float64, outline bool) {
	r, g, b := bgrComponents(color)
	c.renderer.SetDrawColor(r, g, b, uint8(alpha*255))
	rect := normalizedRect(x1, y1, x2, y2)
	if outline {
		c.renderer.DrawRect(&rect)
		return
	}
	c.renderer.FillRect(&rect)
}

func (c *sdlCanvas) Text(x, y float64, s string, color int32, alpha float64, font int32, halign, valign int32) {
	if c.font == nil || s == "" {
		return
	}

	r, g, b := bgrComponents(color)
	surf, err := c.font.RenderUTF8Blended(s, sdl.Color{R: r, G: g, B: b, A: uint8(alpha * 255)})
	if err != nil {
		return
	}
	defer surf.Free()

	tex, err := c.renderer.CreateTextureFromSurface(surf)
	if err != nil {
		return
	}
	defer tex.Destroy()

	dst := sdl.Rect{X: int32(x), Y: int32(y), W: surf.W, H: surf.H}
	switch halign {
	case 1: // center
		dst.X -= surf.W / 2
	case 2: // right
		dst.X -= surf.W
	}
	switch valign {
	case 1: // middle
		dst.Y -= surf.H / 2
	case 2: // bottom
		dst.Y -= surf.H
	}

	c.renderer.Copy(tex, nil, &dst)
}

func (c *sdlCanvas) Sprite(spriteIndex int32, imageIndex float64, x, y float64, alpha float64, blend int32) {
	c.drawPlaceholder(x, y, placeholderExtent*2, placeholderExtent*2, spriteIndex, alpha)
}

func (c *sdlCanvas) SpriteStretched(spriteIndex int32, imageIndex float64, x, y, w, h float64, alpha float64, blend int32) {
	c.drawPlaceholder(x, y, w, h, spriteIndex, alpha)
}

// drawPlaceholder stands in for sprite rendering: a filled rect tinted
// by a hash of the sprite index, so distinct sprites are at least
// visually distinguishable on screen (gm.Canvas passes sprite and
// background indices, never pixel data).
func (c *sdlCanvas) drawPlaceholder(x, y, w, h float64, spriteIndex int32, alpha float64) {
	seed := uint32(spriteIndex)*2654435761 + 1
	r := uint8(seed >> 24)
	g := uint8(seed >> 16)
	b := uint8(seed >> 8)
	c.renderer.SetDrawColor(r, g, b, uint8(alpha*255))
	rect := sdl.Rect{X: int32(x), Y: int32(y), W: int32(w), H: int32(h)}
	c.renderer.FillRect(&rect)
}

// Background is a no-op: layer pixels are never decoded (§1 Non-goals),
// and unlike sprites and tiles a background has no useful extent to
// stand a placeholder in for without covering the whole room.
func (c *sdlCanvas) Background(backgroundIndex int32, x, y float64, tileH, tileV bool) {}

func (c *sdlCanvas) Tile(backgroundIndex int32, x, y float64, srcX, srcY, w, h int32) {
	c.drawPlaceholder(x, y, float64(w), float64(h), backgroundIndex, 0.5)
}

func normalizedRect(x1, y1, x2, y2 float64) sdl.Rect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return sdl.Rect{
		X: int32(x1), Y: int32(y1),
		W: int32(x2-x1) + 1,
		H: int32(y2-y1) + 1,
	}
}

var _ gm.Canvas = (*sdlCanvas)(nil)
