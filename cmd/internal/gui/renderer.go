package gui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/grove/gm/cmd/internal/errors"
	"github.com/veandco/go-sdl2/sdl"
)

// Renderer wraps the SDL renderer with a texture cache for HUD font
// atlas pages, uploaded lazily on first use.
type Renderer struct {
	*sdl.Renderer

	pages map[pageKey]*sdl.Texture
}

type pageKey struct {
	face string
	page int
}

func newRenderer(window *sdl.Window) (*Renderer, error) {
	renderer, err := sdl.CreateRenderer(window, -1,
		sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return nil, fmt.Errorf("unable to create sdl renderer: %s", err)
	}
	return &Renderer{Renderer: renderer, pages: make(map[pageKey]*sdl.Texture)}, nil
}

func (r *Renderer) Destroy() error {
	errs := make([]error, 0, len(r.pages)+1)
	for _, tex := range r.pages {
		errs = append(errs, tex.Destroy())
	}
	errs = append(errs, r.Renderer.Destroy())
	return errors.Join(errs...)
}

func (r *Renderer) page(f *Font, n int) (*sdl.Texture, error) {
	key := pageKey{face: f.face, page: n}
	if tex, ok := r.pages[key]; ok {
		return tex, nil
	}

	img := f.pages[n]
	bounds := img.Bounds()
	w, h := int32(bounds.Dx()), int32(bounds.Dy())

	tex, err := r.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STATIC, w, h)
	if err != nil {
		return nil, fmt.Errorf("font %s: unable to create texture for page %d: %s", f.face, n, err)
	}
	if err := tex.SetBlendMode(sdl.BLENDMODE_BLEND); err != nil {
		return nil, fmt.Errorf("font %s: unable to set blend mode for page %d: %s", f.face, n, err)
	}
	if err := tex.Update(nil, img.Pix, int(w)*4); err != nil {
		return nil, fmt.Errorf("font %s: unable to upload page %d: %s", f.face, n, err)
	}

	r.pages[key] = tex
	return tex, nil
}

// DrawText renders s left-aligned at pos, scaling the atlas by the
// integer ratio of size to the font's native size. Returns the drawn
// width and height.
func (r *Renderer) DrawText(s string, f *Font, size int, fg color.RGBA, pos *sdl.Rect) (int32, int32, error) {
	if s == "" || f == nil {
		return 0, 0, nil
	}

	ratio := int32(size / f.size)
	if ratio < 1 {
		ratio = 1
	}
	lineHeight := f.lineHeight * ratio

	var width int32
	y := pos.Y
	for _, line := range strings.Split(s, "\n") {
		x := pos.X
		for _, c := range line {
			g, ok := f.glyphs[c]
			if !ok {
				return 0, 0, fmt.Errorf("font %s: no glyph for %q", f.face, c)
			}

			tex, err := r.page(f, g.page)
			if err != nil {
				return 0, 0, err
			}
			if err := tex.SetColorMod(fg.R, fg.G, fg.B); err != nil {
				return 0, 0, fmt.Errorf("font %s: unable to tint page %d: %s", f.face, g.page, err)
			}

			src := sdl.Rect{X: g.x, Y: g.y, W: g.w, H: g.h}
			dst := sdl.Rect{
				X: x + g.xOffset*ratio,
				Y: y + g.yOffset*ratio,
				W: g.w * ratio,
				H: g.h * ratio,
			}
			if err := r.Copy(tex, &src, &dst); err != nil {
				return 0, 0, fmt.Errorf("font %s: unable to blit glyph %q: %s", f.face, c, err)
			}

			x += g.advance * ratio
		}
		if lw := x - pos.X; lw > width {
			width = lw
		}
		y += lineHeight
	}

	return width, y - pos.Y, nil
}
