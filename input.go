package gm

// Input is the keyboard/mouse state collaborator host functions read from
// (§4.E): the rendering driver feeds it per-frame key/button state, and
// keyboard_check and friends query it in terms of the vk_* codes bound
// into Consts below.
type Input interface {
	KeyDown(code int32) bool
	KeyPressed(code int32) bool
	KeyReleased(code int32) bool
	MouseX() float64
	MouseY() float64
	MouseButtonDown(code int32) bool
	MouseButtonPressed(code int32) bool
	MouseButtonReleased(code int32) bool
}

// bindKeyConstants binds the vk_* virtual-key constants (§4.H), pinned to
// the Microsoft Virtual-Key codes the original engine reads keyboard state
// through.
func bindKeyConstants(ns *Namespace) {
	set := func(name string, code int32) { ns.vars[name] = Int(code) }

	set("vk_nokey", 0)
	set("vk_anykey", 1)
	set("vk_left", 0x25)
	set("vk_right", 0x27)
	set("vk_up", 0x26)
	set("vk_down", 0x28)
	set("vk_enter", 0x0D)
	set("vk_escape", 0x1B)
	set("vk_space", 0x20)
	set("vk_shift", 0x10)
	set("vk_control", 0x11)
	set("vk_alt", 0x12)
	set("vk_backspace", 0x08)
	set("vk_tab", 0x09)
	set("vk_home", 0x24)
	set("vk_end", 0x23)
	set("vk_delete", 0x2E)
	set("vk_insert", 0x2D)
	set("vk_pageup", 0x21)
	set("vk_pagedown", 0x22)

	for i := 0; i < 12; i++ {
		set(fKeyName(i+1), int32(0x70+i))
	}
	for d := byte('0'); d <= '9'; d++ {
		set(string([]byte{'v', 'k', '_', d}), int32(d))
	}
	for c := byte('a'); c <= 'z'; c++ {
		set(string([]byte{'v', 'k', '_', c}), int32(c-'a'+'A'))
	}

	set("vk_numpad0", 0x60)
	for i := 1; i <= 9; i++ {
		set(numpadName(i), int32(0x60+i))
	}
}

func fKeyName(n int) string {
	return "vk_f" + appendIntString(n)
}

func numpadName(n int) string {
	return "vk_numpad" + appendIntString(n)
}

func appendIntString(n int) string {
	return string(appendInt(nil, n))
}
