package gm

// bindColorConstants binds the c_* color constants (§4.H). Values are
// 24-bit BGR (the format every draw_set_color/make_color_* call and the
// archive's own stored color fields use), matching the fixed palette the
// original engine exposes.
func bindColorConstants(ns *Namespace) {
	set := func(name string, v int32) { ns.vars[name] = Int(v) }

	set("c_aqua", 0xFFFF00)
	set("c_black", 0x000000)
	set("c_blue", 0xFF0000)
	set("c_dkgray", 0x404040)
	set("c_fuchsia", 0xFF00FF)
	set("c_gray", 0x808080)
	set("c_green", 0x008000)
	set("c_lime", 0x00FF00)
	set("c_ltgray", 0xC0C0C0)
	set("c_maroon", 0x000080)
	set("c_navy", 0x800000)
	set("c_olive", 0x008080)
	set("c_orange", 0x40A0FF)
	set("c_purple", 0x800080)
	set("c_red", 0x0000FF)
	set("c_silver", 0xC0C0C0)
	set("c_teal", 0x808000)
	set("c_white", 0xFFFFFF)
	set("c_yellow", 0x00FFFF)
}

// MakeColorRGB packs 0-255 red/green/blue channels into the engine's
// 24-bit BGR color representation (§4.E's make_color_rgb).
func MakeColorRGB(r, g, b int32) int32 {
	clamp := func(n int32) int32 {
		if n < 0 {
			return 0
		}
		if n > 255 {
			return 255
		}
		return n
	}
	return clamp(b)<<16 | clamp(g)<<8 | clamp(r)
}
