package main

import (
	"github.com/veandco/go-sdl2/sdl"
)

// sdlInput implements gm.Input against an SDL keyboard/mouse snapshot,
// refreshed once per poll (grounded on the teacher's per-frame event
// drain in cmd/vnes/engine.go's poll).
type sdlInput struct {
	state     []uint8
	prev      []uint8
	mouseX    float64
	mouseY    float64
	mouseBtns uint32
	prevBtns  uint32
}

func newSDLInput() *sdlInput {
	return &sdlInput{}
}

func (in *sdlInput) snapshot() {
	state := sdl.GetKeyboardState()
	if in.prev == nil || len(in.prev) != len(state) {
		in.prev = make([]uint8, len(state))
	}
	copy(in.prev, in.state)
	if in.state == nil || len(in.state) != len(state) {
		in.state = make([]uint8, len(state))
	}
	copy(in.state, state)

	x, y, btns := sdl.GetMouseState()
	in.mouseX = float64(x)
	in.mouseY = float64(y)
	in.prevBtns = in.mouseBtns
	in.mouseBtns = btns
}

func (in *sdlInput) down(sc sdl.Scancode) bool {
	if int(sc) >= len(in.state) {
		return false
	}
	return in.state[sc] != 0
}

func (in *sdlInput) wasDown(sc sdl.Scancode) bool {
	if int(sc) >= len(in.prev) {
		return false
	}
	return in.prev[sc] != 0
}

func (in *sdlInput) KeyDown(code int32) bool {
	sc := vkToScancode(code)
	if sc == sdl.SCANCODE_UNKNOWN {
		return false
	}
	return in.down(sc)
}

func (in *sdlInput) KeyPressed(code int32) bool {
	sc := vkToScancode(code)
	if sc == sdl.SCANCODE_UNKNOWN {
		return false
	}
	return in.down(sc) && !in.wasDown(sc)
}

func (in *sdlInput) KeyReleased(code int32) bool {
	sc := vkToScancode(code)
	if sc == sdl.SCANCODE_UNKNOWN {
		return false
	}
	return !in.down(sc) && in.wasDown(sc)
}

func (in *sdlInput) MouseX() float64 { return in.mouseX }
func (in *sdlInput) MouseY() float64 { return in.mouseY }

func mouseMask(code int32) uint32 {
	switch code {
	case 0: // left
		return sdl.ButtonLMask()
	case 1: // right
		return sdl.ButtonRMask()
	case 2: // middle
		return sdl.ButtonMMask()
	}
	return 0
}

func (in *sdlInput) MouseButtonDown(code int32) bool {
	return in.mouseBtns&mouseMask(code) != 0
}

func (in *sdlInput) MouseButtonPressed(code int32) bool {
	mask := mouseMask(code)
	return in.mouseBtns&mask != 0 && in.prevBtns&mask == 0
}

func (in *sdlInput) MouseButtonReleased(code int32) bool {
	mask := mouseMask(code)
	return in.mouseBtns&mask == 0 && in.prevBtns&mask != 0
}

// vkToScancode converts one of the engine's vk_* Microsoft Virtual-Key
// codes (bound by the gm package's bindKeyConstants in input.go) to the SDL
// scancode GetKeyboardState indexes by. Letters and digits share the
// same ordinal distance in both spaces, so they're derived instead of
// tabulated.
func vkToScancode(code int32) sdl.Scancode {
	switch {
	case code >= 'A' && code <= 'Z':
		return sdl.GetScancodeFromKey(sdl.Keycode(code - 'A' + 'a'))
	case code >= '0' && code <= '9':
		return sdl.GetScancodeFromKey(sdl.Keycode(code))
	case code >= 0x70 && code <= 0x7B: // vk_f1..vk_f12
		return sdl.SCANCODE_F1 + sdl.Scancode(code-0x70)
	case code >= 0x60 && code <= 0x69: // vk_numpad0..9
		return sdl.SCANCODE_KP_0 + sdl.Scancode(code-0x60)
	}

	switch code {
	case 0x25:
		return sdl.SCANCODE_LEFT
	case 0x27:
		return sdl.SCANCODE_RIGHT
	case 0x26:
		return sdl.SCANCODE_UP
	case 0x28:
		return sdl.SCANCODE_DOWN
	case 0x0D:
		return sdl.SCANCODE_RETURN
	case 0x1B:
		return sdl.SCANCODE_ESCAPE
	case 0x20:
		return sdl.SCANCODE_SPACE
	case 0x10:
		return sdl.SCANCODE_LSHIFT
	case 0x11:
		return sdl.SCANCODE_LCTRL
	case 0x12:
		return sdl.SCANCODE_LALT
	case 0x08:
		return sdl.SCANCODE_BACKSPACE
	case 0x09:
		return sdl.SCANCODE_TAB
	case 0x24:
		return sdl.SCANCODE_HOME
	case 0x23:
		return sdl.SCANCODE_END
	case 0x2E:
		return sdl.SCANCODE_DELETE
	case 0x2D:
		return sdl.SCANCODE_INSERT
	case 0x21:
		return sdl.SCANCODE_PAGEUP
	case 0x22:
		return sdl.SCANCODE_PAGEDOWN
	}

	return sdl.SCANCODE_UNKNOWN
}
