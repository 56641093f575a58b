package gui

import "github.com/veandco/go-sdl2/sdl"

// IsKeyPress reports an initial (non-repeat) unmodified press of sym.
func IsKeyPress(evt *sdl.KeyboardEvent, sym sdl.Keycode) bool {
	if evt.Type != sdl.KEYDOWN || evt.Repeat != 0 || evt.Keysym.Sym != sym {
		return false
	}
	mods := sdl.Keymod(evt.Keysym.Mod)
	return mods&(sdl.KMOD_SHIFT|sdl.KMOD_CTRL|sdl.KMOD_ALT|sdl.KMOD_GUI) == 0
}
