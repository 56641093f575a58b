package gm

// HostFunc is a built-in function's implementation (§4.E): it receives the
// calling Context (so host functions can see the bound instance, e.g.
// instance_destroy()) and its already-evaluated arguments.
type HostFunc func(ctx *Context, args []Value) (Value, error)

// Global is the project-wide binding layer (§4.H): resource-name and
// engine constants, global variables, the compiled script/object tables,
// the host function dispatch table, and a handle to whichever Room is
// currently live. It is the single thing every Context carries a pointer
// to.
type Global struct {
	Consts *Namespace // read-only: resource names, vk_*, c_* (§4.H)
	Vars   *Namespace // global.* variables

	Scripts        map[string]*Script
	ScriptsByIndex map[int32]*Script // action_execute_script dispatches by resource index
	Objects        map[ObjectID]*ObjectDef
	Host           map[string]HostFunc

	Sprites     map[ObjectID]*SpriteDef
	Backgrounds map[ObjectID]*BackgroundDef
	GlyphFonts  map[ObjectID]*GlyphFontDef
	Timelines   map[ObjectID]*TimelineDef

	Room    *Room
	Rooms   map[ObjectID]*RoomDef
	RoomSeq []ObjectID // load order, for room_goto_next (§4.E)

	// PendingRoom is the target of an in-flight room_goto, applied by the
	// current room's cleanup() once the frame's event dispatch finishes
	// (§4.G's transition-atomicity rule). LocalID means "none pending".
	PendingRoom ObjectID

	Canvas Canvas // rendering collaborator for draw_* host functions
	Input  Input  // keyboard/mouse collaborator for keyboard_check and friends

	Fonts map[ObjectID]FontDef

	Settings   GameSettings
	Info       GameInformation
	Includes   []IncludeDef
	Extensions []string
	Tree       []*ResourceNode

	// Key codes referenced by any object's Keyboard/KeyPress/KeyRelease
	// event tables, collected once at load so the per-frame input pump
	// only polls keys some handler can actually react to.
	keyboardKeys   []int32
	keyPressKeys   []int32
	keyReleaseKeys []int32
	mouseSubs      []int32

	ended bool // set by game_end(); checked by the driver's frame loop

	Aux     map[ObjectID]Receiver // autovivified array objects (§4.D)
	auxNext ObjectID

	nextInstanceID ObjectID

	State GlobalDrawState
	Debug DebugSink
}

// GlobalDrawState is the engine-wide drawing state host functions like
// draw_set_color/draw_set_font mutate and draw_* functions read (§4.E).
type GlobalDrawState struct {
	Color     int32
	Alpha     float64
	Font      int32
	HAlign    int32
	VAlign    int32
	BlendMode int32
}

// NewGlobal builds an empty binding layer with the fixed constant tables
// already bound (§4.H); resource names and compiled scripts/objects are
// added by the archive loader once decoding completes.
func NewGlobal() *Global {
	g := &Global{
		Consts:         NewNamespace(),
		Vars:           NewNamespace(),
		Scripts:        make(map[string]*Script),
		ScriptsByIndex: make(map[int32]*Script),
		Objects:        make(map[ObjectID]*ObjectDef),
		Host:           make(map[string]HostFunc),
		Sprites:        make(map[ObjectID]*SpriteDef),
		Backgrounds:    make(map[ObjectID]*BackgroundDef),
		GlyphFonts:     make(map[ObjectID]*GlyphFontDef),
		Timelines:      make(map[ObjectID]*TimelineDef),
		Rooms:          make(map[ObjectID]*RoomDef),
		Fonts:          make(map[ObjectID]FontDef),
		PendingRoom:    LocalID,
		Aux:            make(map[ObjectID]Receiver),
		auxNext:        -1000,
		nextInstanceID: 100000,
	}
	bindKeyConstants(g.Consts)
	bindColorConstants(g.Consts)
	registerHostFunctions(g.Host)
	return g
}

// BindResourceName records a resource's load-time name binding (§4.H):
// "last loaded wins" on a name collision, matching the archive's own
// last-write-wins resource table semantics.
func (g *Global) BindResourceName(name string, id ObjectID) {
	g.Consts.vars[name] = Int(int32(id))
}

func (g *Global) IsConst(name string) bool { return g.Consts.Has(name) }

// NextInstanceID hands out a fresh, monotonically increasing instance id
// (§4.F), seeded above the archive's own resource-index range so instance
// ids never collide with object/sprite/room resource indices.
func (g *Global) NextInstanceID() ObjectID {
	id := g.nextInstanceID
	g.nextInstanceID++
	return id
}

// NewArray allocates a fresh room-scoped array object and registers it
// under a synthetic id (§4.D's autovivification rule).
func (g *Global) NewArray() (ObjectID, Receiver) {
	id := g.auxNext
	g.auxNext--
	arr := newArrayObject()
	g.Aux[id] = arr
	return id, arr
}

// Resolve maps an id to the Receiver it addresses (§4.D): the global scope,
// an autovivified array, a live instance, or — when id names an object
// type rather than an instance — the first live instance of that type or
// one of its descendants (the accepted single-receiver reading of `with`,
// see DESIGN.md).
func (g *Global) Resolve(ctx *Context, id ObjectID) (Receiver, error) {
	if id == GlobalID {
		return g.Vars, nil
	}
	if recv, ok := g.Aux[id]; ok {
		return recv, nil
	}
	if g.Room != nil {
		if inst, ok := g.Room.Instances[id]; ok {
			return inst, nil
		}
	}
	if _, ok := g.Objects[id]; ok {
		if g.Room != nil {
			if inst := g.Room.firstOfType(g, id); inst != nil {
				return inst, nil
			}
		}
		return nil, &InvalidObjectError{Value: Int(int32(id))}
	}
	return nil, &InvalidObjectError{Value: Int(int32(id))}
}

// isKindOf reports whether def's type chain (def, def.Parent, ...)
// includes target, used by Room.firstOfType to honor object inheritance in
// `with (obj_type)` resolution.
func isKindOf(objects map[ObjectID]*ObjectDef, def *ObjectDef, target ObjectID) bool {
	for d := def; d != nil; {
		if d.ID == target {
			return true
		}
		if d.Parent == LocalID {
			return false
		}
		d = objects[d.Parent]
	}
	return false
}

// DebugSink receives trace/diagnostic output from evaluation (§5's
// "DebugOut io.Writer" ambient logging contract); nil disables it.
type DebugSink interface {
	Logf(format string, args ...interface{})
}

// Canvas is the rendering collaborator draw_* host functions target
// (§4.E). The SDL2-backed driver in cmd/gmvm implements it; tests can
// substitute a recording fake.
type Canvas interface {
	Clear(color int32)
	Rectangle(x1, y1, x2, y2 float64, color int32, alpha float64, outline bool)
	Text(x, y float64, s string, color int32, alpha float64, font int32, halign, valign int32)
	Sprite(spriteIndex int32, imageIndex float64, x, y float64, alpha float64, blend int32)
	SpriteStretched(spriteIndex int32, imageIndex float64, x, y, w, h float64, alpha float64, blend int32)
	Background(backgroundIndex int32, x, y float64, tileH, tileV bool)
	Tile(backgroundIndex int32, x, y float64, srcX, srcY, w, h int32)
}

// GameSettings is the handful of settings-block fields a driver cares
// about (§4.A); everything else in the block is parsed for alignment
// only.
type GameSettings struct {
	Fullscreen  bool
	Interpolate bool
	ShowCursor  bool
	Scaling     int32
}

// GameInformation is the project's help window blob: read-only metadata
// the driver may use to caption and size its window.
type GameInformation struct {
	Caption          string
	X, Y             int32
	W, H             int32
	Border           bool
	Resizable        bool
	Topmost          bool
	PauseWhileShown  bool
	Body             string // RTF source, uninterpreted
}

// IncludeDef is one embedded file resource: carried as an opaque blob,
// never written to disk by the runtime.
type IncludeDef struct {
	FileName string
	FilePath string
	Data     []byte
}

// collectEventKeys scans every object's event table for the key codes
// bound to Keyboard/KeyPress/KeyRelease handlers, so DispatchInput polls
// exactly that set each frame.
func (g *Global) collectEventKeys() {
	seen := map[EventKind]map[int32]bool{
		EventKeyboard:   {},
		EventKeyPress:   {},
		EventKeyRelease: {},
	}
	for _, def := range g.Objects {
		for id := range def.Events {
			if set, ok := seen[id.Kind]; ok {
				set[id.Sub] = true
			}
		}
	}
	collect := func(kind EventKind) []int32 {
		var keys []int32
		for k := range seen[kind] {
			keys = append(keys, k)
		}
		sortInt32(keys)
		return keys
	}
	g.keyboardKeys = collect(EventKeyboard)
	g.keyPressKeys = collect(EventKeyPress)
	g.keyReleaseKeys = collect(EventKeyRelease)

	g.mouseSubs = nil
	mouseSeen := map[int32]bool{}
	for _, def := range g.Objects {
		for id := range def.Events {
			if id.Kind == EventMouse && !mouseSeen[id.Sub] {
				mouseSeen[id.Sub] = true
				g.mouseSubs = append(g.mouseSubs, id.Sub)
			}
		}
	}
	sortInt32(g.mouseSubs)
}

func sortInt32(s []int32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// vkAnyKey/vkNoKey are the two pseudo key codes an event table can bind
// instead of a concrete key (§4.H).
const (
	vkNoKey  int32 = 0
	vkAnyKey int32 = 1
)

// DispatchInput runs stage 1 of the frame contract (§4.G): for every key
// some handler listens for, poll the input collaborator and dispatch the
// matching Keyboard/KeyPress/KeyRelease events. vk_anykey and vk_nokey
// resolve against the union of concretely referenced keys.
func (g *Global) DispatchInput() {
	if g.Input == nil || g.Room == nil {
		return
	}
	poll := func(keys []int32, query func(int32) bool, kind EventKind) {
		anyDown := false
		for _, k := range keys {
			if k == vkAnyKey || k == vkNoKey {
				continue
			}
			if query(k) {
				anyDown = true
				g.Room.dispatch(g, EventID{Kind: kind, Sub: k})
			}
		}
		for _, k := range keys {
			if k == vkAnyKey && anyDown {
				g.Room.dispatch(g, EventID{Kind: kind, Sub: vkAnyKey})
			}
			if k == vkNoKey && !anyDown {
				g.Room.dispatch(g, EventID{Kind: kind, Sub: vkNoKey})
			}
		}
	}
	poll(g.keyPressKeys, g.Input.KeyPressed, EventKeyPress)
	poll(g.keyboardKeys, g.Input.KeyDown, EventKeyboard)
	poll(g.keyReleaseKeys, g.Input.KeyReleased, EventKeyRelease)
	g.dispatchMouse()
}

// Mouse event sub codes (§4.F's Mouse(code) variant): per-instance codes
// fire only while the cursor is inside the instance's bounding box,
// global codes fire regardless of position.
const (
	mouseLeftButton    int32 = 0
	mouseNoButton      int32 = 3
	mouseLeftPress     int32 = 4
	mouseLeftRelease   int32 = 7
	mouseGlobalButton  int32 = 50
	mouseGlobalPress   int32 = 53
	mouseGlobalRelease int32 = 56
)

// dispatchMouse fires the Mouse(code) events any object listens for,
// reading button and cursor state from the input collaborator. Wheel and
// enter/leave codes are not driven (the poll-based Input surface carries
// no wheel or crossing signal); their handlers simply never fire.
func (g *Global) dispatchMouse() {
	if len(g.mouseSubs) == 0 {
		return
	}
	mx, my := g.Input.MouseX(), g.Input.MouseY()
	for _, sub := range g.mouseSubs {
		var button int32
		var query func(int32) bool
		overInstance := true
		switch {
		case sub >= mouseLeftButton && sub < mouseNoButton:
			button, query = sub-mouseLeftButton, g.Input.MouseButtonDown
		case sub == mouseNoButton:
			button, query = -1, nil
		case sub >= mouseLeftPress && sub < mouseLeftRelease:
			button, query = sub-mouseLeftPress, g.Input.MouseButtonPressed
		case sub >= mouseLeftRelease && sub < mouseLeftRelease+3:
			button, query = sub-mouseLeftRelease, g.Input.MouseButtonReleased
		case sub >= mouseGlobalButton && sub < mouseGlobalButton+3:
			button, query, overInstance = sub-mouseGlobalButton, g.Input.MouseButtonDown, false
		case sub >= mouseGlobalPress && sub < mouseGlobalPress+3:
			button, query, overInstance = sub-mouseGlobalPress, g.Input.MouseButtonPressed, false
		case sub >= mouseGlobalRelease && sub < mouseGlobalRelease+3:
			button, query, overInstance = sub-mouseGlobalRelease, g.Input.MouseButtonReleased, false
		default:
			continue
		}
		if query != nil && !query(button) {
			continue
		}
		if sub == mouseNoButton {
			any := false
			for b := int32(0); b < 3; b++ {
				if g.Input.MouseButtonDown(b) {
					any = true
				}
			}
			if any {
				continue
			}
		}
		id := EventID{Kind: EventMouse, Sub: sub}
		for _, oid := range g.Room.snapshot() {
			inst, ok := g.Room.Instances[oid]
			if !ok || inst.destroyed || inst.pendingCreate {
				continue
			}
			if overInstance {
				l, t, r, b := bbox(g, inst, inst.State.X, inst.State.Y)
				if mx < l || mx > r || my < t || my > b {
					continue
				}
			}
			g.Room.dispatchTo(g, inst, id)
		}
	}
}

// Other-event sub codes the runtime dispatches (§4.F's Other(OtherCode)
// variant); the full original set is larger, these are the ones the room
// lifecycle raises.
const (
	OtherGameStart int32 = 2
	OtherRoomStart int32 = 4
	OtherRoomEnd   int32 = 5
)

// gotoRoom switches the live room to id, loading it fresh (§4.G). Called
// only from Room.cleanup so a transition always lands between frames. The
// outgoing room's instances see Other(RoomEnd) before teardown.
func (g *Global) gotoRoom(id ObjectID) error {
	def, ok := g.Rooms[id]
	if !ok {
		return &InvalidObjectError{Value: Int(int32(id))}
	}
	if g.Room != nil {
		g.Room.dispatch(g, EventID{Kind: EventOther, Sub: OtherRoomEnd})
	}
	// Ad hoc script objects are room-scoped (§3): release them with the
	// room that created them.
	g.Aux = make(map[ObjectID]Receiver)
	LoadRoom(g, def)
	return nil
}

// GotoNextRoom requests a transition to the room following the current one
// in load order (room_goto_next, §4.E), or returns false if there is none.
func (g *Global) GotoNextRoom() bool {
	if g.Room == nil {
		return false
	}
	for i, id := range g.RoomSeq {
		if id == g.Room.Def.ID && i+1 < len(g.RoomSeq) {
			g.PendingRoom = g.RoomSeq[i+1]
			return true
		}
	}
	return false
}

func (g *Global) logf(format string, args ...interface{}) {
	if g.Debug != nil {
		g.Debug.Logf(format, args...)
	}
}
