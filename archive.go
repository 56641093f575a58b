package gm

import (
	"strconv"
	"strings"
)

const archiveMagic uint32 = 1234321

// LoadArchive decodes a full project archive (§4.A) into a ready-to-run
// Global: header/crypt-block parsing, the byte-cipher inversion, and then
// the whole structural tree in the original's fixed section order. Any
// failure here is a load-time fatal error (§7); the caller's process
// should exit non-zero.
func LoadArchive(data []byte) (*Global, error) {
	r := newReader(data)

	magic, err := r.u32()
	if err != nil {
		return nil, wrapParse(r.offset(), "header", ErrTruncated)
	}
	if magic != archiveMagic {
		return nil, wrapParse(r.offset(), "header", ErrBadMagic)
	}
	if _, err := r.u32(); err != nil { // format version, uninterpreted
		return nil, wrapParse(r.offset(), "header", ErrTruncated)
	}

	if err := skipCryptRegion(r); err != nil {
		return nil, wrapParse(r.offset(), "crypt-block", err)
	}
	if err := skipCryptRegion(r); err != nil {
		return nil, wrapParse(r.offset(), "crypt-block", err)
	}
	seed, err := r.u32()
	if err != nil {
		return nil, wrapParse(r.offset(), "crypt-block", ErrTruncated)
	}

	// Per §4.A point 3, the cipher's position-dependent subtraction is
	// keyed to each byte's absolute offset in the file, not its offset
	// within the post-seed region, so decoding happens in place over the
	// original buffer starting at bodyStart rather than over a copy
	// reindexed from 0.
	bodyStart := r.offset()
	applyCipher(data, bodyStart, generateDecodeTable(seed))

	g := NewGlobal()
	br := newReader(data)
	br.pos = bodyStart
	if err := decodeContent(g, br); err != nil {
		return nil, wrapParse(br.offset(), "body", err)
	}
	return g, nil
}

// skipCryptRegion skips one of the crypt block's two length-prefixed u32
// arrays (§4.A): the u32 count is a count of u32 entries, so the region
// skipped is n*4 bytes, not n.
func skipCryptRegion(r *reader) error {
	n, err := r.u32()
	if err != nil {
		return ErrTruncated
	}
	return r.skip(int(n) * 4)
}

// decodeContent reads the archive's whole post-header tree in its fixed
// section order (§4.A): game id, settings, the nine resource chunks,
// the instance/tile id watermarks, includes, extensions, the game
// information blob, library creation codes, room order, and the resource
// tree. Resource chunks bind their names into Consts (§4.H) as they load.
func decodeContent(g *Global, r *reader) error {
	if _, err := r.u32(); err != nil { // game id
		return wrapParse(r.offset(), "game-id", ErrTruncated)
	}
	if err := r.skip(16); err != nil { // game guid
		return wrapParse(r.offset(), "game-id", ErrTruncated)
	}
	if err := decodeSettings(g, r); err != nil {
		return wrapParse(r.offset(), "settings", err)
	}

	if err := chunk(r, func(idx int32, name string) error {
		s, err := decodeSound(r)
		if err != nil {
			return err
		}
		s.Name = name
		g.BindResourceName(name, ObjectID(idx))
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "sounds", err)
	}

	if err := chunk(r, func(idx int32, name string) error {
		s, err := decodeSprite(r)
		if err != nil {
			return err
		}
		s.Name = name
		g.Sprites[ObjectID(idx)] = s
		g.BindResourceName(name, ObjectID(idx))
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "sprites", err)
	}

	if err := chunk(r, func(idx int32, name string) error {
		b, err := decodeBackground(r)
		if err != nil {
			return err
		}
		b.Name = name
		g.Backgrounds[ObjectID(idx)] = b
		g.BindResourceName(name, ObjectID(idx))
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "backgrounds", err)
	}

	if err := chunk(r, func(idx int32, name string) error {
		p, err := decodePath(r)
		if err != nil {
			return err
		}
		p.Name = name
		g.BindResourceName(name, ObjectID(idx))
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "paths", err)
	}

	if err := chunk(r, func(idx int32, name string) error {
		sd, err := decodeScript(r, name)
		if err != nil {
			return err
		}
		if sd.Err != nil {
			g.logf("script %s: %s", name, sd.Err)
		}
		g.Scripts[name] = sd.Script
		g.ScriptsByIndex[idx] = sd.Script
		g.BindResourceName(name, ObjectID(idx))
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "scripts", err)
	}

	if err := chunk(r, func(idx int32, name string) error {
		f, err := decodeFont(r)
		if err != nil {
			return err
		}
		f.Name = name
		g.GlyphFonts[ObjectID(idx)] = f
		g.BindResourceName(name, ObjectID(idx))
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "fonts", err)
	}

	if err := chunk(r, func(idx int32, name string) error {
		tl, err := decodeTimeline(g, r, name)
		if err != nil {
			return err
		}
		g.Timelines[ObjectID(idx)] = tl
		g.BindResourceName(name, ObjectID(idx))
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "timelines", err)
	}

	if err := chunk(r, func(idx int32, name string) error {
		def, err := decodeObject(g, r, ObjectID(idx), name)
		if err != nil {
			return err
		}
		g.Objects[def.ID] = def
		g.BindResourceName(name, ObjectID(idx))
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "objects", err)
	}

	var chunkOrder []ObjectID
	if err := chunk(r, func(idx int32, name string) error {
		def, err := decodeRoom(g, r, ObjectID(idx), name)
		if err != nil {
			return err
		}
		g.Rooms[def.ID] = def
		chunkOrder = append(chunkOrder, def.ID)
		g.BindResourceName(name, ObjectID(idx))
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "rooms", err)
	}

	lastInstanceID, err := r.i32()
	if err != nil {
		return wrapParse(r.offset(), "last-ids", ErrTruncated)
	}
	if _, err := r.i32(); err != nil { // last tile id
		return wrapParse(r.offset(), "last-ids", ErrTruncated)
	}
	// Instance ids allocated at run time continue above the archive's own
	// watermark (§3) so they never collide with placed-instance ids.
	if ObjectID(lastInstanceID) >= g.nextInstanceID {
		g.nextInstanceID = ObjectID(lastInstanceID) + 1
	}

	if err := plainChunk(r, func(i int32) error {
		inc, err := decodeInclude(r)
		if err != nil {
			return err
		}
		g.Includes = append(g.Includes, inc)
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "includes", err)
	}
	if err := plainChunk(r, func(i int32) error {
		name, err := r.string32()
		if err != nil {
			return err
		}
		g.Extensions = append(g.Extensions, name)
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "extensions", err)
	}
	if err := decodeInformation(g, r); err != nil {
		return wrapParse(r.offset(), "information", err)
	}
	if err := plainChunk(r, func(i int32) error {
		_, err := r.string32() // library creation code
		return err
	}); err != nil {
		return wrapParse(r.offset(), "library-codes", err)
	}

	var roomOrder []ObjectID
	if err := plainChunk(r, func(i int32) error {
		id, err := r.i32()
		if err != nil {
			return err
		}
		roomOrder = append(roomOrder, ObjectID(id))
		return nil
	}); err != nil {
		return wrapParse(r.offset(), "room-order", err)
	}
	g.RoomSeq = roomOrder
	if len(g.RoomSeq) == 0 {
		g.RoomSeq = chunkOrder
	}

	for i := 0; i < 12; i++ {
		node, err := decodeResourceNode(r)
		if err != nil {
			return wrapParse(r.offset(), "resource-tree", err)
		}
		g.Tree = append(g.Tree, node)
	}

	g.collectEventKeys()

	if len(g.RoomSeq) > 0 {
		if def, ok := g.Rooms[g.RoomSeq[0]]; ok {
			LoadRoom(g, def)
			g.Room.dispatch(g, EventID{Kind: EventOther, Sub: OtherGameStart})
		}
	}

	return nil
}

// chunk reads one resource chunk (§4.A: a "sparse indexed map" —
// (index, name, body) triples, empty slots skipped, the integer index is
// the resource's stable identity): a chunk version, an item count, and a
// presence flag plus name before each present body.
func chunk(r *reader, decode func(index int32, name string) error) error {
	if _, err := r.u32(); err != nil { // chunk version
		return err
	}
	count, err := r.i32()
	if err != nil {
		return err
	}
	for i := int32(0); i < count; i++ {
		present, err := r.bool32()
		if err != nil {
			return err
		}
		if !present {
			continue
		}
		name, err := r.string32()
		if err != nil {
			return err
		}
		if err := decode(i, name); err != nil {
			return err
		}
	}
	return nil
}

// plainChunk reads an unnamed chunk (§4.A): a version, a count, and the
// items back to back with no presence flags.
func plainChunk(r *reader, decode func(index int32) error) error {
	if _, err := r.u32(); err != nil {
		return err
	}
	count, err := r.i32()
	if err != nil {
		return err
	}
	for i := int32(0); i < count; i++ {
		if err := decode(i); err != nil {
			return err
		}
	}
	return nil
}

// decodeSettings reads the game-settings block. Only a handful of fields
// matter to a driver (window mode, scaling, cursor); the rest is parsed
// to keep the cursor aligned.
func decodeSettings(g *Global, r *reader) error {
	ver, err := r.u32()
	if err != nil {
		return err
	}
	if err := checkVersion("settings", ver, verSettings); err != nil {
		return err
	}
	if g.Settings.Fullscreen, err = r.bool32(); err != nil {
		return err
	}
	if g.Settings.Interpolate, err = r.bool32(); err != nil {
		return err
	}
	if _, err = r.bool32(); err != nil { // borderless
		return err
	}
	if g.Settings.ShowCursor, err = r.bool32(); err != nil {
		return err
	}
	if g.Settings.Scaling, err = r.i32(); err != nil {
		return err
	}
	for i := 0; i < 2; i++ { // resizable, always on top
		if _, err = r.bool32(); err != nil {
			return err
		}
	}
	if _, err = r.u32(); err != nil { // background color
		return err
	}
	if _, err = r.bool32(); err != nil { // set resolution
		return err
	}
	for i := 0; i < 3; i++ { // color depth, resolution, frequency
		if _, err = r.u32(); err != nil {
			return err
		}
	}
	for i := 0; i < 2; i++ { // don't show buttons, vsync
		if _, err = r.bool32(); err != nil {
			return err
		}
	}
	for i := 0; i < 6; i++ { // F4/F1/Esc/F5-F6/F9 toggles, close-as-escape
		if _, err = r.bool32(); err != nil {
			return err
		}
	}
	if _, err = r.u32(); err != nil { // process priority
		return err
	}
	if _, err = r.bool32(); err != nil { // freeze in background
		return err
	}
	progressBar, err := r.u32()
	if err != nil {
		return err
	}
	if progressBar == 2 { // custom loading bar carries two images
		for i := 0; i < 2; i++ {
			if _, err = zlibFrame(r); err != nil {
				return err
			}
		}
	}
	if _, err = r.bool32(); err != nil { // show custom load image
		return err
	}
	if _, err = zlibFrame(r); err != nil { // custom load image
		return err
	}
	if _, err = r.bool32(); err != nil { // image partially transparent
		return err
	}
	if _, err = r.u32(); err != nil { // image alpha
		return err
	}
	if _, err = r.bool32(); err != nil { // scale progress bar
		return err
	}
	if _, err = r.data32(); err != nil { // window icon
		return err
	}
	for i := 0; i < 3; i++ { // display errors, write to log, abort on error
		if _, err = r.bool32(); err != nil {
			return err
		}
	}
	if _, err = r.u32(); err != nil { // error flags
		return err
	}
	for i := 0; i < 2; i++ { // author, version string
		if _, err = r.string32(); err != nil {
			return err
		}
	}
	if _, err = r.f64(); err != nil { // last changed
		return err
	}
	if _, err = r.string32(); err != nil { // information
		return err
	}
	constants, err := r.i32()
	if err != nil {
		return err
	}
	for i := int32(0); i < constants; i++ {
		for j := 0; j < 2; j++ { // name, value
			if _, err = r.string32(); err != nil {
				return err
			}
		}
	}
	for i := 0; i < 4; i++ { // version major/minor/release/build
		if _, err = r.u32(); err != nil {
			return err
		}
	}
	for i := 0; i < 4; i++ { // company, product, copyright, description
		if _, err = r.string32(); err != nil {
			return err
		}
	}
	return nil
}

func decodeInclude(r *reader) (IncludeDef, error) {
	var inc IncludeDef
	var err error
	if inc.FileName, err = r.string32(); err != nil {
		return inc, err
	}
	if inc.FilePath, err = r.string32(); err != nil {
		return inc, err
	}
	if _, err = r.bool32(); err != nil { // original
		return inc, err
	}
	if _, err = r.u32(); err != nil { // original size
		return inc, err
	}
	stored, err := r.bool32()
	if err != nil {
		return inc, err
	}
	if stored {
		if inc.Data, err = r.data32(); err != nil {
			return inc, err
		}
	}
	if _, err = r.u32(); err != nil { // export type
		return inc, err
	}
	if _, err = r.string32(); err != nil { // export folder
		return inc, err
	}
	for i := 0; i < 3; i++ { // overwrite, free after export, remove at game end
		if _, err = r.bool32(); err != nil {
			return inc, err
		}
	}
	return inc, nil
}

func decodeInformation(g *Global, r *reader) error {
	ver, err := r.u32()
	if err != nil {
		return err
	}
	if err := checkVersion("information", ver, 600, 800); err != nil {
		return err
	}
	if _, err := r.u32(); err != nil { // background color
		return err
	}
	if _, err := r.bool32(); err != nil { // reuse main window style
		return err
	}
	if g.Info.Caption, err = r.string32(); err != nil {
		return err
	}
	for _, f := range []*int32{&g.Info.X, &g.Info.Y, &g.Info.W, &g.Info.H} {
		if *f, err = r.i32(); err != nil {
			return err
		}
	}
	for _, f := range []*bool{&g.Info.Border, &g.Info.Resizable, &g.Info.Topmost, &g.Info.PauseWhileShown} {
		if *f, err = r.bool32(); err != nil {
			return err
		}
	}
	if g.Info.Body, err = r.string32(); err != nil {
		return err
	}
	return nil
}

// ResourceNode is one entry of the editor's 12-root resource tree (§3).
// It is carried for completeness; nothing in the simulation consumes it.
type ResourceNode struct {
	Status   uint32
	Kind     uint32
	Index    uint32
	Name     string
	Children []*ResourceNode
}

func decodeResourceNode(r *reader) (*ResourceNode, error) {
	n := &ResourceNode{}
	var err error
	if n.Status, err = r.u32(); err != nil {
		return nil, err
	}
	if n.Kind, err = r.u32(); err != nil {
		return nil, err
	}
	if n.Index, err = r.u32(); err != nil {
		return nil, err
	}
	if n.Name, err = r.string32(); err != nil {
		return nil, err
	}
	count, err := r.i32()
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < count; i++ {
		child, err := decodeResourceNode(r)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// decodeEvent reads one event body (§4.A): an event version, an action
// count, and the actions themselves, each lowered to its compiled form.
func decodeEvent(g *Global, r *reader, scriptName string) ([]*Action, error) {
	ver, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := checkVersion("event", ver, verEvent); err != nil {
		return nil, err
	}
	count, err := r.i32()
	if err != nil {
		return nil, err
	}
	actions := make([]*Action, 0, count)
	for i := int32(0); i < count; i++ {
		act, err := decodeAction(g, r, scriptName)
		if err != nil {
			return nil, err
		}
		actions = append(actions, act)
	}
	return actions, nil
}

// decodeAction reads one wire action record and lowers it (§4.A, §4.F):
// inline code compiles directly; a Variable action compiles to the
// assignment it denotes; a library-function action compiles to a
// synthesized call, except for the few the runtime handles natively
// (action_execute_script, action_kill_object, action_set_alarm).
func decodeAction(g *Global, r *reader, scriptName string) (*Action, error) {
	ver, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := checkVersion("action", ver, verAction); err != nil {
		return nil, err
	}
	for i := 0; i < 2; i++ { // library id, action id
		if _, err := r.u32(); err != nil {
			return nil, err
		}
	}
	kind, err := r.u32()
	if err != nil {
		return nil, err
	}
	act := &Action{Kind: ActionKind(kind), ScriptIndex: -1, Target: TargetSelf}
	for i := 0; i < 2; i++ { // can be relative, is a question
		if _, err := r.bool32(); err != nil {
			return nil, err
		}
	}
	if _, err := r.bool32(); err != nil { // has target
		return nil, err
	}
	exec, err := r.u32()
	if err != nil {
		return nil, err
	}
	fnName, err := r.string32()
	if err != nil {
		return nil, err
	}
	fnCode, err := r.string32()
	if err != nil {
		return nil, err
	}
	if _, err := r.u32(); err != nil { // declared argument count
		return nil, err
	}
	kinds, err := r.i32()
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < kinds; i++ {
		if _, err := r.u32(); err != nil { // argument kind
			return nil, err
		}
	}
	target, err := r.i32()
	if err != nil {
		return nil, err
	}
	act.Target = ObjectID(target)
	relative, err := r.bool32()
	if err != nil {
		return nil, err
	}
	act.Relative = relative
	values, err := r.i32()
	if err != nil {
		return nil, err
	}
	args := make([]string, values)
	for i := range args {
		if args[i], err = r.string32(); err != nil {
			return nil, err
		}
	}
	not, err := r.bool32()
	if err != nil {
		return nil, err
	}
	act.Not = not
	act.Function = fnName

	compileActionBody(g, act, ActionExec(exec), fnCode, args, scriptName)
	return act, nil
}

// compileActionBody lowers a decoded action to its executable form. A
// source fragment that fails to parse leaves Code nil — a no-op action —
// and logs, matching §7's non-fatal script-parse posture.
func compileActionBody(g *Global, act *Action, exec ActionExec, fnCode string, args []string, scriptName string) {
	compile := func(src string) *Script {
		script, err := ParseScript(scriptName, src)
		if err != nil {
			g.logf("action in %s: %s", scriptName, err)
			return nil
		}
		return script
	}

	argv := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return "0"
	}

	switch act.Kind {
	case ActionKindCode:
		act.Code = compile(argv(0))

	case ActionKindVariable:
		op := " = "
		if act.Relative {
			op = " += "
		}
		act.Code = compile(argv(0) + op + argv(1) + ";")

	case ActionKindNormal:
		switch exec {
		case ActionExecCode:
			act.Code = compile(fnCode)
		case ActionExecFunction:
			switch act.Function {
			case "action_execute_script":
				if n, err := strconv.Atoi(strings.TrimSpace(argv(0))); err == nil {
					act.ScriptIndex = int32(n)
				}
				for _, a := range args[1:] {
					if wrapper := compile("return (" + a + ");"); wrapper != nil {
						act.ArgExprs = append(act.ArgExprs, wrapper)
					}
				}
			case "action_kill_object":
				// handled natively at dispatch
			case "action_set_alarm":
				op := " = "
				if act.Relative {
					op = " += "
				}
				act.Code = compile("alarm[" + argv(1) + "]" + op + argv(0) + ";")
			default:
				act.Code = compile(act.Function + "(" + strings.Join(args, ", ") + ");")
			}
		}
	}
}

// decodeObject reads one object resource (§4.A, §4.F): its fixed
// properties followed by the event map — max_type_id, then for each type
// id a -1-terminated list of (event_id, Event) pairs.
func decodeObject(g *Global, r *reader, id ObjectID, name string) (*ObjectDef, error) {
	def := &ObjectDef{ID: id, Name: name, Parent: LocalID, Events: make(map[EventID][]*Action)}

	ver, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := checkVersion("object", ver, verObject); err != nil {
		return nil, err
	}
	if def.SpriteIndex, err = r.i32(); err != nil {
		return nil, err
	}
	if def.Solid, err = r.bool32(); err != nil {
		return nil, err
	}
	if def.Visible, err = r.bool32(); err != nil {
		return nil, err
	}
	if def.Depth, err = r.i32(); err != nil {
		return nil, err
	}
	if def.Persistent, err = r.bool32(); err != nil {
		return nil, err
	}
	parent, err := r.i32()
	if err != nil {
		return nil, err
	}
	def.Parent = ObjectID(parent)
	if def.MaskIndex, err = r.i32(); err != nil {
		return nil, err
	}

	maxTypeID, err := r.i32()
	if err != nil {
		return nil, err
	}
	for typeID := int32(0); typeID <= maxTypeID; typeID++ {
		for {
			eventID, err := r.i32()
			if err != nil {
				return nil, err
			}
			if eventID == -1 {
				break
			}
			evID, err := EventIDFromWire(typeID, eventID)
			if err != nil {
				return nil, err
			}
			actions, err := decodeEvent(g, r, name)
			if err != nil {
				return nil, err
			}
			def.Events[evID] = actions
		}
	}

	return def, nil
}

// decodeRoom reads one room resource (§4.A, §4.G): layout metadata,
// creation code, background layers, views, instance placements (with
// their pre-assigned ids and creation code), and tiles, plus the trailing
// editor block carried only for alignment.
func decodeRoom(g *Global, r *reader, id ObjectID, name string) (*RoomDef, error) {
	def := &RoomDef{ID: id, Name: name}

	ver, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := checkVersion("room", ver, verRoom); err != nil {
		return nil, err
	}
	if def.Caption, err = r.string32(); err != nil {
		return nil, err
	}
	if def.Width, err = r.i32(); err != nil {
		return nil, err
	}
	if def.Height, err = r.i32(); err != nil {
		return nil, err
	}
	if def.SnapX, err = r.i32(); err != nil {
		return nil, err
	}
	if def.SnapY, err = r.i32(); err != nil {
		return nil, err
	}
	if _, err = r.bool32(); err != nil { // isometric grid
		return nil, err
	}
	if def.Speed, err = r.i32(); err != nil {
		return nil, err
	}
	if def.Persistent, err = r.bool32(); err != nil {
		return nil, err
	}
	if def.BackgroundColor, err = r.i32(); err != nil {
		return nil, err
	}
	if def.DrawBackgroundColor, err = r.bool32(); err != nil {
		return nil, err
	}
	creation, err := r.string32()
	if err != nil {
		return nil, err
	}
	if creation != "" {
		script, perr := ParseScript(name+" creation", creation)
		if perr != nil {
			g.logf("room %s creation code: %s", name, perr)
		}
		def.CreationCode = script
	}

	bgCount, err := r.i32()
	if err != nil {
		return nil, err
	}
	def.Backgrounds = make([]RoomLayerDef, bgCount)
	for i := range def.Backgrounds {
		l, err := decodeRoomLayer(r)
		if err != nil {
			return nil, err
		}
		def.Backgrounds[i] = l
	}

	if _, err = r.bool32(); err != nil { // views enabled
		return nil, err
	}
	viewCount, err := r.i32()
	if err != nil {
		return nil, err
	}
	def.Views = make([]RoomViewDef, viewCount)
	for i := range def.Views {
		v, err := decodeRoomView(r)
		if err != nil {
			return nil, err
		}
		def.Views[i] = v
	}

	instCount, err := r.i32()
	if err != nil {
		return nil, err
	}
	def.Instances = make([]RoomInstanceDef, instCount)
	for i := range def.Instances {
		inst, err := decodeRoomInstance(g, r, name)
		if err != nil {
			return nil, err
		}
		def.Instances[i] = inst
	}

	tileCount, err := r.i32()
	if err != nil {
		return nil, err
	}
	def.Tiles = make([]RoomTileDef, tileCount)
	for i := range def.Tiles {
		t, err := decodeRoomTile(r)
		if err != nil {
			return nil, err
		}
		def.Tiles[i] = t
	}

	if _, err = r.bool32(); err != nil { // preserve editor info
		return nil, err
	}
	for i := 0; i < 2; i++ { // editor window size
		if _, err = r.i32(); err != nil {
			return nil, err
		}
	}
	for i := 0; i < 8; i++ { // editor show/delete toggles
		if _, err = r.bool32(); err != nil {
			return nil, err
		}
	}
	for i := 0; i < 3; i++ { // editor tab, scroll x/y
		if _, err = r.i32(); err != nil {
			return nil, err
		}
	}

	return def, nil
}

func decodeRoomLayer(r *reader) (RoomLayerDef, error) {
	var l RoomLayerDef
	var err error
	if l.Visible, err = r.bool32(); err != nil {
		return l, err
	}
	if l.Foreground, err = r.bool32(); err != nil {
		return l, err
	}
	if l.Index, err = r.i32(); err != nil {
		return l, err
	}
	if l.X, err = r.i32(); err != nil {
		return l, err
	}
	if l.Y, err = r.i32(); err != nil {
		return l, err
	}
	if l.TileH, err = r.bool32(); err != nil {
		return l, err
	}
	if l.TileV, err = r.bool32(); err != nil {
		return l, err
	}
	if l.SpeedH, err = r.i32(); err != nil {
		return l, err
	}
	if l.SpeedV, err = r.i32(); err != nil {
		return l, err
	}
	if l.Stretch, err = r.bool32(); err != nil {
		return l, err
	}
	return l, nil
}

func decodeRoomView(r *reader) (RoomViewDef, error) {
	var v RoomViewDef
	enabled, err := r.bool32()
	if err != nil {
		return v, err
	}
	v.Enabled = enabled
	fields := []*int32{
		&v.ViewX, &v.ViewY, &v.ViewW, &v.ViewH,
		&v.PortX, &v.PortY, &v.PortW, &v.PortH,
		&v.BorderX, &v.BorderY, &v.SpacingX, &v.SpacingY,
	}
	for _, f := range fields {
		n, err := r.i32()
		if err != nil {
			return v, err
		}
		*f = n
	}
	if v.Following, err = r.i32(); err != nil {
		return v, err
	}
	return v, nil
}

func decodeRoomInstance(g *Global, r *reader, roomName string) (RoomInstanceDef, error) {
	var inst RoomInstanceDef
	x, err := r.i32()
	if err != nil {
		return inst, err
	}
	y, err := r.i32()
	if err != nil {
		return inst, err
	}
	inst.X, inst.Y = float64(x), float64(y)
	objIdx, err := r.i32()
	if err != nil {
		return inst, err
	}
	inst.ObjectIndex = ObjectID(objIdx)
	id, err := r.i32()
	if err != nil {
		return inst, err
	}
	inst.ID = ObjectID(id)
	creation, err := r.string32()
	if err != nil {
		return inst, err
	}
	if creation != "" {
		script, perr := ParseScript(roomName+" instance creation", creation)
		if perr != nil {
			g.logf("room %s instance %d creation code: %s", roomName, id, perr)
		}
		inst.CreationCode = script
	}
	if _, err := r.bool32(); err != nil { // locked (editor only)
		return inst, err
	}
	return inst, nil
}

func decodeRoomTile(r *reader) (RoomTileDef, error) {
	var t RoomTileDef
	var err error
	if t.X, err = r.i32(); err != nil {
		return t, err
	}
	if t.Y, err = r.i32(); err != nil {
		return t, err
	}
	if t.Background, err = r.i32(); err != nil {
		return t, err
	}
	if t.TileX, err = r.i32(); err != nil {
		return t, err
	}
	if t.TileY, err = r.i32(); err != nil {
		return t, err
	}
	if t.W, err = r.i32(); err != nil {
		return t, err
	}
	if t.H, err = r.i32(); err != nil {
		return t, err
	}
	if t.Depth, err = r.i32(); err != nil {
		return t, err
	}
	if t.ID, err = r.i32(); err != nil {
		return t, err
	}
	if _, err = r.bool32(); err != nil { // locked (editor only)
		return t, err
	}
	return t, nil
}
