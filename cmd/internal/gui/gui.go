// Package gui is the debug HUD drawn over the game canvas: a status
// line, an optional alignment grid matching the room's snap, and the
// window/renderer plumbing they share.
package gui

import (
	"image/color"

	"github.com/veandco/go-sdl2/sdl"
)

// A Component is one HUD element, updated then drawn once per frame.
type Component interface {
	Update(*View)
	Draw(*View) error
}

// Overlay draws its components in order, last on top.
type Overlay []Component

func (o Overlay) Update(v *View) {
	for _, c := range o {
		c.Update(v)
	}
}

func (o Overlay) Draw(v *View) error {
	for _, c := range o {
		if err := c.Draw(v); err != nil {
			return err
		}
	}
	return nil
}

type Padding struct {
	Top, Right, Bottom, Left int32
}

type Margin Padding

// Anchor names one of the nine window positions a Message sticks to,
// composed from an edge per axis (Top|Left, Bottom|Center, ...).
type Anchor byte

const (
	Left Anchor = 1 << iota
	Right
	Center
	Top
	Middle
	Bottom
)

// place positions rect against target per the anchor, keeping the margin
// clear on the anchored edges; unanchored axes center.
func place(rect *sdl.Rect, at Anchor, target *sdl.Rect, m Margin) {
	switch {
	case at&Left != 0:
		rect.X = target.X + m.Left
	case at&Right != 0:
		rect.X = target.X + target.W - rect.W - m.Right
	default:
		rect.X = target.X + (target.W-rect.W)/2
	}
	switch {
	case at&Top != 0:
		rect.Y = target.Y + m.Top
	case at&Bottom != 0:
		rect.Y = target.Y + target.H - rect.H - m.Bottom
	default:
		rect.Y = target.Y + (target.H-rect.H)/2
	}
}

func fillRect(r *Renderer, rect *sdl.Rect, c color.RGBA) error {
	if err := r.SetDrawColor(c.R, c.G, c.B, c.A); err != nil {
		return err
	}
	return r.FillRect(rect)
}
