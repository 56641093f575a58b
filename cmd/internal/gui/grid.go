package gui

import (
	"fmt"
	"image/color"

	"github.com/veandco/go-sdl2/sdl"
)

// Grid overlays the room's snap grid, for eyeballing instance placement.
// Off by default; the driver toggles it.
type Grid struct {
	Disabled bool

	CellW, CellH int32
	Color        color.RGBA
	Bounds       sdl.Rect
}

func (g *Grid) Toggle() { g.Disabled = !g.Disabled }

func (g *Grid) Update(*View) {}

func (g *Grid) Draw(v *View) error {
	if g.Disabled || g.CellW <= 0 || g.CellH <= 0 {
		return nil
	}

	if err := v.renderer.SetDrawColor(g.Color.R, g.Color.G, g.Color.B, g.Color.A); err != nil {
		return fmt.Errorf("grid: unable to set draw color: %s", err)
	}

	right := g.Bounds.X + g.Bounds.W
	bottom := g.Bounds.Y + g.Bounds.H
	for x := g.Bounds.X; x <= right; x += g.CellW {
		if err := v.renderer.DrawLine(x, g.Bounds.Y, x, bottom); err != nil {
			return fmt.Errorf("grid: unable to draw column: %s", err)
		}
	}
	for y := g.Bounds.Y; y <= bottom; y += g.CellH {
		if err := v.renderer.DrawLine(g.Bounds.X, y, right, y); err != nil {
			return fmt.Errorf("grid: unable to draw row: %s", err)
		}
	}
	return nil
}
