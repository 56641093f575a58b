package gm

import (
	"math"
	"math/rand"
	"strings"
)

// FontDef is a sprite-backed font registered via font_add_sprite (§4.E):
// which sprite supplies the glyph strip, the first character it starts
// at, and the fixed glyph cell size.
type FontDef struct {
	SpriteIndex int32
	FirstChar   int32
	CellW       int32
	CellH       int32
	Proportional bool
}

// registerHostFunctions builds the built-in name -> implementation table
// (§4.E), mirroring the teacher's table-driven dispatch style even though
// the table here is keyed by name instead of opcode.
func registerHostFunctions(host map[string]HostFunc) {
	reg := func(name string, fn HostFunc) { host[name] = fn }

	reg("floor", hostFloor)
	reg("random", hostRandom)
	reg("ord", hostOrd)
	reg("chr", hostChr)
	reg("string", hostString)
	reg("string_length", hostStringLength)
	reg("string_char_at", hostStringCharAt)

	reg("keyboard_check", hostKeyboardCheck)
	reg("keyboard_check_pressed", hostKeyboardCheckPressed)
	reg("keyboard_check_released", hostKeyboardCheckReleased)

	reg("make_color_rgb", hostMakeColorRGB)
	reg("draw_set_color", hostDrawSetColor)
	reg("draw_set_alpha", hostDrawSetAlpha)
	reg("draw_set_font", hostDrawSetFont)
	reg("draw_set_blend_mode", hostDrawSetBlendMode)
	reg("draw_rectangle", hostDrawRectangle)
	reg("draw_text_ext", hostDrawTextExt)
	reg("draw_sprite", hostDrawSprite)
	reg("draw_sprite_stretched_ext", hostDrawSpriteStretchedExt)

	reg("font_add_sprite", hostFontAddSprite)

	reg("room_goto", hostRoomGoto)
	reg("room_goto_next", hostRoomGotoNext)

	reg("instance_create", hostInstanceCreate)
	reg("instance_destroy", hostInstanceDestroy)
	reg("instance_number", hostInstanceNumber)
	reg("place_meeting", hostPlaceMeeting)
	reg("place_free", hostPlaceFree)

	reg("game_end", hostGameEnd)

	// Recognized-but-inert builtins (§4.E's no-op stubs): sound playback,
	// persisted-file access, and display/window toggles a headless
	// reimplementation doesn't need. Calling one is a no-op returning
	// Undefined rather than an UndefinedFunctionError.
	for _, noop := range []string{
		"sound_play", "sound_loop", "sound_stop", "sound_stop_all",
		"sound_volume", "show_debug_message", "screen_redraw",
		"io_clear", "randomize", "file_exists", "file_delete",
		"ini_open", "ini_close", "ini_read_real", "ini_write_real",
		"ini_read_string", "ini_write_string",
		"display_set_size", "window_set_cursor", "window_set_caption",
		"set_synchronization", "texture_set_interpolation",
	} {
		reg(noop, hostNoop)
	}
}

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

func hostFloor(ctx *Context, args []Value) (Value, error) {
	return Int(int32(math.Floor(arg(args, 0).ToFloat()))), nil
}

// hostRandom returns a uniform float in [0, n) (§4.E), matching the
// original engine's random() semantics (a float upper bound yields a
// float result, not an integer one).
func hostRandom(ctx *Context, args []Value) (Value, error) {
	n := arg(args, 0).ToFloat()
	if n <= 0 {
		return Float(0), nil
	}
	return Float(rand.Float64() * n), nil
}

func hostOrd(ctx *Context, args []Value) (Value, error) {
	s := arg(args, 0).ToString()
	if len(s) == 0 {
		return Int(0), nil
	}
	return Int(int32(s[0])), nil
}

func hostChr(ctx *Context, args []Value) (Value, error) {
	n := arg(args, 0).ToInt()
	return String(string([]byte{byte(n)})), nil
}

func hostString(ctx *Context, args []Value) (Value, error) {
	return String(arg(args, 0).ToString()), nil
}

func hostStringLength(ctx *Context, args []Value) (Value, error) {
	return Int(int32(len(arg(args, 0).ToString()))), nil
}

// hostStringCharAt returns the codepoint at a 1-based position (§4.E), not
// a substring; out-of-range positions yield 0, matching hostOrd's
// empty-string convention.
func hostStringCharAt(ctx *Context, args []Value) (Value, error) {
	s := arg(args, 0).ToString()
	i := int(arg(args, 1).ToInt())
	if i < 1 || i > len(s) {
		return Int(0), nil
	}
	return Int(int32(s[i-1])), nil
}

func hostKeyboardCheck(ctx *Context, args []Value) (Value, error) {
	if ctx.Global.Input == nil {
		return Bool(false), nil
	}
	return Bool(ctx.Global.Input.KeyDown(arg(args, 0).ToInt())), nil
}

func hostKeyboardCheckPressed(ctx *Context, args []Value) (Value, error) {
	if ctx.Global.Input == nil {
		return Bool(false), nil
	}
	return Bool(ctx.Global.Input.KeyPressed(arg(args, 0).ToInt())), nil
}

func hostKeyboardCheckReleased(ctx *Context, args []Value) (Value, error) {
	if ctx.Global.Input == nil {
		return Bool(false), nil
	}
	return Bool(ctx.Global.Input.KeyReleased(arg(args, 0).ToInt())), nil
}

func hostMakeColorRGB(ctx *Context, args []Value) (Value, error) {
	return Int(MakeColorRGB(arg(args, 0).ToInt(), arg(args, 1).ToInt(), arg(args, 2).ToInt())), nil
}

func hostDrawSetColor(ctx *Context, args []Value) (Value, error) {
	ctx.Global.State.Color = arg(args, 0).ToInt()
	return Undefined, nil
}

func hostDrawSetAlpha(ctx *Context, args []Value) (Value, error) {
	ctx.Global.State.Alpha = arg(args, 0).ToFloat()
	return Undefined, nil
}

func hostDrawSetFont(ctx *Context, args []Value) (Value, error) {
	ctx.Global.State.Font = arg(args, 0).ToInt()
	return Undefined, nil
}

func hostDrawSetBlendMode(ctx *Context, args []Value) (Value, error) {
	ctx.Global.State.BlendMode = arg(args, 0).ToInt()
	return Undefined, nil
}

func hostDrawRectangle(ctx *Context, args []Value) (Value, error) {
	if ctx.Global.Canvas == nil {
		return Undefined, nil
	}
	outline := arg(args, 4).ToBool()
	ctx.Global.Canvas.Rectangle(
		arg(args, 0).ToFloat(), arg(args, 1).ToFloat(),
		arg(args, 2).ToFloat(), arg(args, 3).ToFloat(),
		ctx.Global.State.Color, ctx.Global.State.Alpha, outline,
	)
	return Undefined, nil
}

// hostDrawTextExt implements draw_text_ext's word-wrap (§4.E): lines are
// broken greedily at word boundaries once the accumulated line would
// exceed wrapWidth (a value <= 0 disables wrapping, matching the
// original's "no limit" convention), then each line is drawn through
// Canvas.Text, advancing y by the sep argument (16 when sep <= 0).
func hostDrawTextExt(ctx *Context, args []Value) (Value, error) {
	if ctx.Global.Canvas == nil {
		return Undefined, nil
	}
	x := arg(args, 0).ToFloat()
	y := arg(args, 1).ToFloat()
	text := arg(args, 2).ToString()
	lineSep := arg(args, 3).ToFloat()
	wrapWidth := arg(args, 4).ToFloat()
	if lineSep <= 0 {
		lineSep = 16
	}

	lines := wrapText(text, wrapWidth)
	for i, line := range lines {
		ctx.Global.Canvas.Text(x, y+float64(i)*lineSep, line,
			ctx.Global.State.Color, ctx.Global.State.Alpha, ctx.Global.State.Font,
			ctx.Global.State.HAlign, ctx.Global.State.VAlign)
	}
	return Undefined, nil
}

// wrapText breaks s into explicit newline-separated lines, then greedily
// wraps each at word boundaries so no rendered line is wider than
// maxWidth "character units" (a coarse proxy for pixel width, since no
// font metrics are modeled here). maxWidth <= 0 disables
// wrapping entirely.
func wrapText(s string, maxWidth float64) []string {
	var out []string
	for _, paragraph := range strings.Split(s, "\n") {
		if maxWidth <= 0 {
			out = append(out, paragraph)
			continue
		}
		limit := int(maxWidth)
		if limit <= 0 {
			out = append(out, paragraph)
			continue
		}
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) > limit {
				out = append(out, line)
				line = w
				continue
			}
			line += " " + w
		}
		out = append(out, line)
	}
	return out
}

// hostDrawSprite draws one sprite frame at (x, y), origin-adjusted the
// way the original engine places sprites; a negative frame falls back to
// the calling instance's image_index (§4.E).
func hostDrawSprite(ctx *Context, args []Value) (Value, error) {
	if ctx.Global.Canvas == nil {
		return Undefined, nil
	}
	spriteIndex := arg(args, 0).ToInt()
	frame := arg(args, 1).ToFloat()
	x := arg(args, 2).ToFloat()
	y := arg(args, 3).ToFloat()
	if frame < 0 {
		if inst, ok := ctx.Instance.(*Instance); ok {
			frame = inst.State.ImageIndex
		}
	}
	if s, ok := ctx.Global.Sprites[ObjectID(spriteIndex)]; ok {
		x -= float64(s.OriginX)
		y -= float64(s.OriginY)
	}
	ctx.Global.Canvas.Sprite(spriteIndex, frame, x, y,
		ctx.Global.State.Alpha, ctx.Global.State.BlendMode)
	return Undefined, nil
}

func hostDrawSpriteStretchedExt(ctx *Context, args []Value) (Value, error) {
	if ctx.Global.Canvas == nil {
		return Undefined, nil
	}
	ctx.Global.Canvas.SpriteStretched(
		arg(args, 0).ToInt(), arg(args, 1).ToFloat(),
		arg(args, 2).ToFloat(), arg(args, 3).ToFloat(),
		arg(args, 4).ToFloat(), arg(args, 5).ToFloat(),
		ctx.Global.State.Alpha, ctx.Global.State.BlendMode,
	)
	return Undefined, nil
}

func hostFontAddSprite(ctx *Context, args []Value) (Value, error) {
	id := ctx.Global.NextInstanceID()
	ctx.Global.Fonts[id] = FontDef{
		SpriteIndex:  arg(args, 0).ToInt(),
		FirstChar:    arg(args, 1).ToInt(),
		Proportional: arg(args, 2).ToBool(),
	}
	return Int(int32(id)), nil
}

func hostRoomGoto(ctx *Context, args []Value) (Value, error) {
	ctx.Global.PendingRoom = ObjectID(arg(args, 0).ToInt())
	return Undefined, nil
}

func hostRoomGotoNext(ctx *Context, args []Value) (Value, error) {
	ctx.Global.GotoNextRoom()
	return Undefined, nil
}

func hostInstanceCreate(ctx *Context, args []Value) (Value, error) {
	if ctx.Global.Room == nil {
		return Undefined, &InvalidObjectError{Value: Undefined}
	}
	x := arg(args, 0).ToFloat()
	y := arg(args, 1).ToFloat()
	defID := ObjectID(arg(args, 2).ToInt())
	inst, err := ctx.Global.Room.CreateInstance(ctx.Global, defID, x, y)
	if err != nil {
		return Undefined, err
	}
	return Int(int32(inst.ID)), nil
}

func hostInstanceDestroy(ctx *Context, args []Value) (Value, error) {
	if len(args) == 0 {
		if inst, ok := ctx.Instance.(*Instance); ok && ctx.Global.Room != nil {
			ctx.Global.Room.DestroyInstance(inst)
		}
		return Undefined, nil
	}
	id := ObjectID(args[0].ToInt())
	if ctx.Global.Room == nil {
		return Undefined, nil
	}
	if inst, ok := ctx.Global.Room.Instances[id]; ok {
		ctx.Global.Room.DestroyInstance(inst)
	}
	return Undefined, nil
}

func hostInstanceNumber(ctx *Context, args []Value) (Value, error) {
	if ctx.Global.Room == nil {
		return Int(0), nil
	}
	target := ObjectID(arg(args, 0).ToInt())
	var n int32
	for _, id := range ctx.Global.Room.order {
		inst := ctx.Global.Room.Instances[id]
		if inst.destroyed || inst.pendingCreate {
			continue
		}
		if isKindOf(ctx.Global.Objects, inst.Def, target) {
			n++
		}
	}
	return Int(n), nil
}

// collisionHalfExtent is the fallback half-width/height for an instance
// with no usable sprite: collision then approximates to a fixed-size box
// around its position.
const collisionHalfExtent = 16.0

// bbox returns inst's world-space collision rectangle (inclusive, §3's
// sprite bbox invariant), from its mask sprite when set, else its drawn
// sprite, else the fixed fallback box.
func bbox(g *Global, inst *Instance, x, y float64) (l, t, r, b float64) {
	spriteIndex := inst.Def.MaskIndex
	if spriteIndex < 0 {
		spriteIndex = inst.State.SpriteIndex
	}
	if s, ok := g.Sprites[ObjectID(spriteIndex)]; ok {
		l = x - float64(s.OriginX) + float64(s.BBoxLeft)
		t = y - float64(s.OriginY) + float64(s.BBoxTop)
		r = x - float64(s.OriginX) + float64(s.BBoxRight)
		b = y - float64(s.OriginY) + float64(s.BBoxBottom)
		return l, t, r, b
	}
	return x - collisionHalfExtent, y - collisionHalfExtent,
		x + collisionHalfExtent, y + collisionHalfExtent
}

func boxesOverlap(al, at, ar, ab, bl, bt, br, bb float64) bool {
	return al <= br && bl <= ar && at <= bb && bt <= ab
}

// placeMeeting reports whether self, displaced to (x, y), overlaps any
// live instance matching keep (§4.E's rectangular bbox test).
func placeMeeting(ctx *Context, x, y float64, keep func(*Instance) bool) bool {
	if ctx.Global.Room == nil {
		return false
	}
	self, _ := ctx.Instance.(*Instance)
	var sl, st, sr, sb float64
	if self != nil {
		sl, st, sr, sb = bbox(ctx.Global, self, x, y)
	} else {
		sl, st, sr, sb = x, y, x, y
	}
	for _, id := range ctx.Global.Room.order {
		inst := ctx.Global.Room.Instances[id]
		if inst.destroyed || inst.pendingCreate || inst == self {
			continue
		}
		if !keep(inst) {
			continue
		}
		il, it, ir, ib := bbox(ctx.Global, inst, inst.State.X, inst.State.Y)
		if boxesOverlap(sl, st, sr, sb, il, it, ir, ib) {
			return true
		}
	}
	return false
}

func hostPlaceMeeting(ctx *Context, args []Value) (Value, error) {
	x := arg(args, 0).ToFloat()
	y := arg(args, 1).ToFloat()
	target := ObjectID(arg(args, 2).ToInt())
	hit := placeMeeting(ctx, x, y, func(inst *Instance) bool {
		return isKindOf(ctx.Global.Objects, inst.Def, target)
	})
	return Bool(hit), nil
}

// hostPlaceFree is place_free(x, y): true when the displaced instance
// overlaps no solid instance (§4.E).
func hostPlaceFree(ctx *Context, args []Value) (Value, error) {
	x := arg(args, 0).ToFloat()
	y := arg(args, 1).ToFloat()
	hit := placeMeeting(ctx, x, y, func(inst *Instance) bool {
		return inst.State.Solid
	})
	return Bool(!hit), nil
}

func hostGameEnd(ctx *Context, args []Value) (Value, error) {
	ctx.Global.ended = true
	return Undefined, nil
}

func hostNoop(ctx *Context, args []Value) (Value, error) {
	return Undefined, nil
}

// Ended reports whether game_end() has been called (§4.E); the driver's
// frame loop checks this after each Step to decide whether to exit.
func (g *Global) Ended() bool { return g.ended }
