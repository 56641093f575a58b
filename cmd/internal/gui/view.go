package gui

import (
	"fmt"

	"github.com/grove/gm/cmd/internal/errors"
	"github.com/veandco/go-sdl2/sdl"
)

// View owns the game window: an SDL window plus the renderer the game
// canvas and the HUD share. Drawing happens in room coordinates; the
// renderer's logical size letterboxes and scales to whatever the window
// becomes.
type View struct {
	title string

	baseW, baseH int32

	window   *sdl.Window
	renderer *Renderer
	rect     sdl.Rect

	visible    bool
	fullscreen bool

	fonts FontMap
}

func NewView(title string, w, h, scale int, fonts FontMap) (*View, error) {
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(w*scale), int32(h*scale),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, fmt.Errorf("view %q: unable to create window: %s", title, err)
	}

	renderer, err := newRenderer(window)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("view %q: %s", title, err)
	}
	if err := renderer.SetLogicalSize(int32(w), int32(h)); err != nil {
		renderer.Destroy()
		window.Destroy()
		return nil, fmt.Errorf("view %q: unable to set logical size: %s", title, err)
	}
	if err := renderer.SetDrawBlendMode(sdl.BLENDMODE_BLEND); err != nil {
		renderer.Destroy()
		window.Destroy()
		return nil, fmt.Errorf("view %q: unable to set blend mode: %s", title, err)
	}

	return &View{
		title:    title,
		baseW:    int32(w),
		baseH:    int32(h),
		window:   window,
		renderer: renderer,
		rect:     sdl.Rect{W: int32(w), H: int32(h)},
		visible:  true,
		fonts:    fonts,
	}, nil
}

func (v *View) Destroy() error {
	return errors.Join(v.renderer.Destroy(), v.window.Destroy())
}

func (v *View) Visible() bool { return v.visible }

// Rect is the drawable area in room coordinates; HUD components anchor
// against it.
func (v *View) Rect() sdl.Rect { return v.rect }

// SDLRenderer exposes the raw renderer for the game canvas, which draws
// outside the Component system.
func (v *View) SDLRenderer() *sdl.Renderer { return v.renderer.Renderer }

func (v *View) Paint() { v.renderer.Present() }

// Handle consumes window-level events: close hides the window (the
// driver treats an invisible view as quit), F11 toggles fullscreen.
// Everything else passes through for the driver's own bindings.
func (v *View) Handle(event sdl.Event) (bool, error) {
	switch evt := event.(type) {
	case *sdl.WindowEvent:
		if evt.Event == sdl.WINDOWEVENT_CLOSE {
			v.visible = false
			v.window.Hide()
			return true, nil
		}
	case *sdl.KeyboardEvent:
		if IsKeyPress(evt, sdl.K_F11) {
			return true, v.toggleFullscreen()
		}
	}
	return false, nil
}

func (v *View) toggleFullscreen() error {
	v.fullscreen = !v.fullscreen
	if v.fullscreen {
		if _, err := sdl.ShowCursor(0); err != nil {
			return err
		}
		return v.window.SetFullscreen(sdl.WINDOW_FULLSCREEN_DESKTOP)
	}
	if _, err := sdl.ShowCursor(1); err != nil {
		return err
	}
	return v.window.SetFullscreen(0)
}
