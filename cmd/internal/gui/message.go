package gui

import (
	"fmt"
	"image/color"

	"github.com/veandco/go-sdl2/sdl"
)

// Message is a boxed line of HUD text stuck to one of the window's
// anchor points.
type Message struct {
	Disabled bool

	Text    string
	Font    *Font
	Size    int
	At      Anchor
	Padding Padding
	Margin  Margin
	Fg      color.RGBA
	Bg      color.RGBA

	viewRect sdl.Rect
}

func (m *Message) Update(v *View) {
	m.viewRect = v.Rect()
}

func (m *Message) Draw(v *View) error {
	if m.Disabled || m.Text == "" || m.Font == nil {
		return nil
	}

	textW, textH := m.Font.Bounds(m.Text, m.Size)

	box := sdl.Rect{
		W: textW + m.Padding.Left + m.Padding.Right,
		H: textH + m.Padding.Top + m.Padding.Bottom,
	}
	place(&box, m.At, &m.viewRect, m.Margin)
	if err := fillRect(v.renderer, &box, m.Bg); err != nil {
		return fmt.Errorf("message: unable to draw box: %s", err)
	}

	text := sdl.Rect{X: box.X + m.Padding.Left, Y: box.Y + m.Padding.Top, W: textW, H: textH}
	if _, _, err := v.renderer.DrawText(m.Text, m.Font, m.Size, m.Fg, &text); err != nil {
		return fmt.Errorf("message: unable to draw text: %s", err)
	}
	return nil
}
