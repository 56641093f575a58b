package gm

import (
	"strings"
	"testing"
)

// recordingCanvas captures draw calls as compact op strings so tests can
// assert ordering without a real renderer.
type recordingCanvas struct {
	ops []string
}

func (c *recordingCanvas) op(s string) { c.ops = append(c.ops, s) }

func (c *recordingCanvas) Clear(color int32) { c.op("clear") }
func (c *recordingCanvas) Rectangle(x1, y1, x2, y2 float64, color int32, alpha float64, outline bool) {
	c.op("rect")
}
func (c *recordingCanvas) Text(x, y float64, s string, color int32, alpha float64, font int32, halign, valign int32) {
	c.op("text:" + s)
}
func (c *recordingCanvas) Sprite(spriteIndex int32, imageIndex float64, x, y float64, alpha float64, blend int32) {
	c.op("sprite")
}
func (c *recordingCanvas) SpriteStretched(spriteIndex int32, imageIndex float64, x, y, w, h float64, alpha float64, blend int32) {
	c.op("sprite-stretched")
}
func (c *recordingCanvas) Background(backgroundIndex int32, x, y float64, tileH, tileV bool) {
	c.op("background")
}
func (c *recordingCanvas) Tile(backgroundIndex int32, x, y float64, srcX, srcY, w, h int32) {
	c.op("tile")
}

// fakeInput reports a fixed set of pressed/held/released keys.
type fakeInput struct {
	pressed  map[int32]bool
	held     map[int32]bool
	released map[int32]bool
}

func (in *fakeInput) KeyDown(code int32) bool     { return in.held[code] }
func (in *fakeInput) KeyPressed(code int32) bool  { return in.pressed[code] }
func (in *fakeInput) KeyReleased(code int32) bool { return in.released[code] }
func (in *fakeInput) MouseX() float64                     { return 0 }
func (in *fakeInput) MouseY() float64                     { return 0 }
func (in *fakeInput) MouseButtonDown(code int32) bool     { return false }
func (in *fakeInput) MouseButtonPressed(code int32) bool  { return false }
func (in *fakeInput) MouseButtonReleased(code int32) bool { return false }

// TestDrawPipelineOrder checks §4.G's draw stages: background clear,
// background layers, the depth-sorted tile/instance list (sprite before
// the instance's Draw event), foreground layers last.
func TestDrawPipelineOrder(t *testing.T) {
	def := simpleObjectDef(1, "o")
	def.SpriteIndex = 0
	def.Events[EventID{Kind: EventDraw}] = []*Action{codeAction(t, `draw_rectangle(0, 0, 1, 1, 0);`)}

	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	roomDef := &RoomDef{
		DrawBackgroundColor: true,
		Backgrounds: []RoomLayerDef{
			{Visible: true, Foreground: false, Index: 0},
			{Visible: true, Foreground: true, Index: 1},
			{Visible: true, Foreground: false, Index: -1}, // unset layer, skipped
		},
		Tiles: []RoomTileDef{{Background: 0, Depth: 100}},
	}
	r := &Room{Def: roomDef, Instances: make(map[ObjectID]*Instance)}
	g.Room = r

	inst := NewInstance(10, def, 0, 0)
	inst.State.SpriteIndex = 0
	inst.State.Visible = true
	r.Instances[10] = inst
	r.order = []ObjectID{10}

	canvas := &recordingCanvas{}
	g.Canvas = canvas
	r.Draw(g)

	got := strings.Join(canvas.ops, ",")
	// The tile (depth 100) draws before the instance (depth 0); the
	// instance's sprite draws before its Draw event's rectangle.
	want := "clear,background,tile,sprite,rect,background"
	if got != want {
		t.Fatalf("draw op order = %q; want %q", got, want)
	}
}

// TestDrawDepthWindow checks that depths outside [-16000, 16000] are
// excluded from the draw list entirely.
func TestDrawDepthWindow(t *testing.T) {
	def := simpleObjectDef(1, "o")
	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r

	near := NewInstance(10, def, 0, 0)
	near.State.Depth = 15999
	near.State.Visible = true
	far := NewInstance(11, def, 0, 0)
	far.State.Depth = 16001
	far.State.Visible = true
	r.Instances[10] = near
	r.Instances[11] = far
	r.order = []ObjectID{10, 11}

	order := r.DrawOrder()
	if len(order) != 1 || order[0].ID != 10 {
		t.Fatalf("only the in-window instance should draw, got %d entries", len(order))
	}
}

// TestDispatchInputKeyEvents checks stage 1 of the frame contract (§4.G):
// keys with handlers get KeyPress/Keyboard/KeyRelease dispatched from the
// input collaborator's state.
func TestDispatchInputKeyEvents(t *testing.T) {
	const space = 0x20
	def := simpleObjectDef(1, "o")
	def.Events[EventID{Kind: EventKeyPress, Sub: space}] = []*Action{codeAction(t, "presses += 1;")}
	def.Events[EventID{Kind: EventKeyboard, Sub: space}] = []*Action{codeAction(t, "holds += 1;")}
	def.Events[EventID{Kind: EventKeyRelease, Sub: space}] = []*Action{codeAction(t, "releases += 1;")}

	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	g.collectEventKeys()
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r

	inst := NewInstance(10, def, 0, 0)
	r.Instances[10] = inst
	r.order = []ObjectID{10}

	g.Input = &fakeInput{
		pressed:  map[int32]bool{space: true},
		held:     map[int32]bool{space: true},
		released: map[int32]bool{},
	}
	g.DispatchInput()

	for name, want := range map[string]int32{"presses": 1, "holds": 1, "releases": 0} {
		v, _ := inst.Member(name)
		if v.ToInt() != want {
			t.Fatalf("%s = %v; want %d", name, v, want)
		}
	}

	g.Input = &fakeInput{
		pressed:  map[int32]bool{},
		held:     map[int32]bool{},
		released: map[int32]bool{space: true},
	}
	g.DispatchInput()
	v, _ := inst.Member("releases")
	if v.ToInt() != 1 {
		t.Fatalf("releases = %v; want 1 after the key came back up", v)
	}
}

// TestAdvanceAccumulatesSubTicks checks §4.G's frame clock: elapsed
// accumulates dt*speed and only whole sub-ticks run Steps; the fraction
// carries across calls.
func TestAdvanceAccumulatesSubTicks(t *testing.T) {
	def := simpleObjectDef(1, "o")
	def.Events[EventID{Kind: EventStep, Sub: StepNormal}] = []*Action{codeAction(t, "global.steps += 1;")}

	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	r := &Room{Def: &RoomDef{Speed: 30}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r

	inst := NewInstance(10, def, 0, 0)
	r.Instances[10] = inst
	r.order = []ObjectID{10}

	g.Advance(1.0 / 60) // half a sub-tick at speed 30
	steps, _ := g.Vars.Member("steps")
	if steps.ToInt() != 0 {
		t.Fatalf("half a sub-tick should not step, steps = %v", steps)
	}

	g.Advance(1.0 / 60) // completes the first sub-tick
	steps, _ = g.Vars.Member("steps")
	if steps.ToInt() != 1 {
		t.Fatalf("a whole sub-tick should run one Step, steps = %v", steps)
	}

	g.Advance(3.0 / 30) // three whole sub-ticks at once
	steps, _ = g.Vars.Member("steps")
	if steps.ToInt() != 4 {
		t.Fatalf("Advance should drain every whole sub-tick, steps = %v", steps)
	}
}

// TestActionExecuteScriptByIndex checks §4.F's action translation: a
// Normal/Function action naming action_execute_script runs the script
// table entry by index, with its argument expressions bound to
// argument0..N.
func TestActionExecuteScriptByIndex(t *testing.T) {
	g := NewGlobal()
	script := mustParse(t, "global.sum = argument0 + argument1;")
	g.ScriptsByIndex[3] = script

	wrap := func(src string) *Script { return mustParse(t, "return ("+src+");") }
	def := simpleObjectDef(1, "o")
	def.Events[EventID{Kind: EventStep, Sub: StepNormal}] = []*Action{{
		Kind:        ActionKindNormal,
		Function:    "action_execute_script",
		ScriptIndex: 3,
		ArgExprs:    []*Script{wrap("2"), wrap("5")},
		Target:      TargetSelf,
	}}
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r

	inst := NewInstance(10, def, 0, 0)
	r.Instances[10] = inst
	r.order = []ObjectID{10}

	r.dispatchTo(g, inst, EventID{Kind: EventStep, Sub: StepNormal})

	sum, _ := g.Vars.Member("sum")
	if sum.ToInt() != 7 {
		t.Fatalf("action_execute_script should bind arguments, sum = %v", sum)
	}
}

// TestActionKillObject checks the native action_kill_object translation:
// the receiver is queued for destruction, honoring the deferred rule.
func TestActionKillObject(t *testing.T) {
	g := NewGlobal()
	def := simpleObjectDef(1, "o")
	def.Events[EventID{Kind: EventStep, Sub: StepNormal}] = []*Action{{
		Kind:        ActionKindNormal,
		Function:    "action_kill_object",
		ScriptIndex: -1,
		Target:      TargetSelf,
	}}
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r

	inst := NewInstance(10, def, 0, 0)
	r.Instances[10] = inst
	r.order = []ObjectID{10}

	r.Step(g)
	if _, ok := r.Instances[10]; ok {
		t.Fatalf("action_kill_object should destroy the instance by cleanup")
	}
}

// TestCollisionEventDispatch checks Collision(target) firing between
// StepNormal and StepEnd when bounding boxes overlap, and not firing once
// the instances separate.
func TestCollisionEventDispatch(t *testing.T) {
	hero := simpleObjectDef(1, "hero")
	wall := simpleObjectDef(2, "wall")
	hero.Events[EventID{Kind: EventCollision, Sub: 2}] = []*Action{codeAction(t, "global.hits += 1;")}

	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: hero, 2: wall}
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r

	a := NewInstance(10, hero, 0, 0)
	b := NewInstance(11, wall, 10, 10) // inside the fallback collision box
	r.Instances[10] = a
	r.Instances[11] = b
	r.order = []ObjectID{10, 11}

	r.Step(g)
	hits, _ := g.Vars.Member("hits")
	if hits.ToInt() != 1 {
		t.Fatalf("overlapping instances should fire Collision once, hits = %v", hits)
	}

	b.State.X, b.State.Y = 1000, 1000
	r.Step(g)
	hits, _ = g.Vars.Member("hits")
	if hits.ToInt() != 1 {
		t.Fatalf("separated instances should not fire Collision, hits = %v", hits)
	}
}

// TestTimelineMomentsFire checks that an instance's attached timeline
// runs each crossed moment once, in position order, and stops firing past
// the last moment.
func TestTimelineMomentsFire(t *testing.T) {
	def := simpleObjectDef(1, "o")

	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	g.Timelines[4] = &TimelineDef{
		Name: "tl_intro",
		Moments: map[int32][]*Action{
			0: {codeAction(t, "global.seq = global.seq + \"a\";")},
			2: {codeAction(t, "global.seq = global.seq + \"b\";")},
		},
	}
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r
	g.Vars.SetMember("seq", String(""))

	inst := NewInstance(10, def, 0, 0)
	inst.State.TimelineIndex = 4
	r.Instances[10] = inst
	r.order = []ObjectID{10}

	for i := 0; i < 5; i++ {
		r.Step(g)
	}

	seq, _ := g.Vars.Member("seq")
	if seq.ToString() != "ab" {
		t.Fatalf("timeline moments ran %q; want \"ab\"", seq.ToString())
	}
}
