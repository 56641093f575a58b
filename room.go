package gm

import "sort"

// RoomInstanceDef is one instance placement recorded in a room resource
// (§4.A/§4.G): the object type to spawn, its starting position, the
// pre-assigned instance id the archive reserved for it, and its optional
// creation code.
type RoomInstanceDef struct {
	ObjectIndex  ObjectID
	ID           ObjectID
	X, Y         float64
	CreationCode *Script
}

// RoomLayerDef is one background or foreground layer of a room (§4.G):
// a reference into the background chunk plus placement and tiling flags.
type RoomLayerDef struct {
	Visible    bool
	Foreground bool
	Index      int32 // background resource index; negative means unset
	X, Y       int32
	TileH      bool
	TileV      bool
	SpeedH     int32
	SpeedV     int32
	Stretch    bool
}

// RoomTileDef is one placed tile (§4.G): a source rectangle within a
// background resource, stamped at a position and depth.
type RoomTileDef struct {
	X, Y       int32
	Background int32
	TileX      int32
	TileY      int32
	W, H       int32
	Depth      int32
	ID         int32
}

// RoomViewDef is one of a room's up to 8 viewports (§4.G).
type RoomViewDef struct {
	Enabled              bool
	ViewX, ViewY         int32
	ViewW, ViewH         int32
	PortX, PortY         int32
	PortW, PortH         int32
	BorderX, BorderY     int32
	SpacingX, SpacingY   int32
	Following            int32
}

// RoomDef is a compiled room resource (§4.A/§4.G): static layout data a
// Room is loaded from.
type RoomDef struct {
	ID                  ObjectID
	Name                string
	Caption             string
	Width, Height       int32
	SnapX, SnapY        int32
	Speed               int32
	Persistent          bool
	BackgroundColor     int32
	DrawBackgroundColor bool
	CreationCode        *Script
	Backgrounds         []RoomLayerDef
	Views               []RoomViewDef
	Instances           []RoomInstanceDef
	Tiles               []RoomTileDef
}

// View returns the room's first enabled viewport, or the whole room when
// views are unused.
func (def *RoomDef) View() (x, y, w, h int32) {
	for _, v := range def.Views {
		if v.Enabled {
			return v.ViewX, v.ViewY, v.ViewW, v.ViewH
		}
	}
	return 0, 0, def.Width, def.Height
}

// Room is the live, mutable simulation state for one loaded room (§4.G):
// the ordered set of live instances plus the deferred add/destroy state
// that keeps one event-dispatch pass from observing its own side effects,
// and the sub-tick accumulator the frame clock drains.
type Room struct {
	Def *RoomDef

	Instances map[ObjectID]*Instance
	order     []ObjectID // stable insertion order, also the draw tiebreak

	elapsed float64 // fractional sub-ticks carried across frames
}

// LoadRoom builds a live Room from def, spawning its placed instances
// under their archive-reserved ids and running, in placement order, each
// one's creation code and then every Create event; room creation code
// runs last, against the global receiver, and the new population sees
// Other(RoomStart) (§4.G: the initial population is not subject to the
// deferred-add rule, only instances created during simulation are).
func LoadRoom(g *Global, def *RoomDef) *Room {
	r := &Room{Def: def, Instances: make(map[ObjectID]*Instance)}
	type placed struct {
		id   ObjectID
		code *Script
	}
	var placements []placed
	for _, placement := range def.Instances {
		objDef, ok := g.Objects[placement.ObjectIndex]
		if !ok {
			continue
		}
		id := placement.ID
		if id <= 0 {
			id = g.NextInstanceID()
		} else if id >= g.nextInstanceID {
			g.nextInstanceID = id + 1
		}
		inst := NewInstance(id, objDef, placement.X, placement.Y)
		r.Instances[id] = inst
		r.order = append(r.order, id)
		placements = append(placements, placed{id: id, code: placement.CreationCode})
	}
	g.Room = r
	for _, p := range placements {
		if p.code == nil {
			continue
		}
		if _, err := ExecScript(NewContext(g, p.id, r.Instances[p.id]), p.code); err != nil {
			g.logf("%s", err)
		}
	}
	for _, id := range r.order {
		r.dispatchTo(g, r.Instances[id], EventID{Kind: EventCreate})
	}
	if def.CreationCode != nil {
		if _, err := ExecScript(NewContext(g, GlobalID, g.Vars), def.CreationCode); err != nil {
			g.logf("%s", err)
		}
	}
	r.dispatch(g, EventID{Kind: EventOther, Sub: OtherRoomStart})
	return r
}

// CreateInstance spawns an object at (x, y), to be added once the current
// event dispatch pass finishes (§4.G). Its Create event fires at the next
// cleanup(), not synchronously, matching the deferred add-instance rule;
// but the instance is already addressable (its fields readable/writable)
// the moment this returns, since it is inserted into Instances right away.
func (r *Room) CreateInstance(g *Global, defID ObjectID, x, y float64) (*Instance, error) {
	def, ok := g.Objects[defID]
	if !ok {
		return nil, &InvalidObjectError{Value: Int(int32(defID))}
	}
	id := g.NextInstanceID()
	inst := NewInstance(id, def, x, y)
	inst.pendingCreate = true
	r.Instances[id] = inst
	r.order = append(r.order, id)
	return inst, nil
}

// DestroyInstance marks inst for removal (§4.G): its Destroy event fires
// once, at the next cleanup(). Until then it stays in the room and still
// receives the sub-tick's remaining room-wide dispatches (StepEnd
// included); alarms, collisions and timeline moments skip it.
func (r *Room) DestroyInstance(inst *Instance) {
	inst.destroyed = true
}

// firstOfType returns the first live, fully-created instance (in stable
// order) whose type chain includes target — the single-receiver reading
// of `with (obj_type)` (see DESIGN.md).
func (r *Room) firstOfType(g *Global, target ObjectID) *Instance {
	for _, id := range r.order {
		inst := r.Instances[id]
		if inst.destroyed || inst.pendingCreate {
			continue
		}
		if isKindOf(g.Objects, inst.Def, target) {
			return inst
		}
	}
	return nil
}

func (r *Room) snapshot() []ObjectID {
	out := make([]ObjectID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Room) dispatch(g *Global, id EventID) {
	for _, oid := range r.snapshot() {
		inst, ok := r.Instances[oid]
		if !ok || inst.pendingCreate {
			continue
		}
		r.dispatchTo(g, inst, id)
	}
}

// dispatchTo runs the action list the instance's type chain binds to id
// (§4.F): nearest ancestor defining the event wins; the receiver stays
// the dispatched-to instance even when the actions come from a parent.
func (r *Room) dispatchTo(g *Global, inst *Instance, id EventID) {
	acts := inst.Def.lookupEvent(g.Objects, id)
	for _, act := range acts {
		r.execAction(g, inst, act)
	}
}

// execAction runs one compiled action against inst (§4.F). The applies-to
// target rebinds the receiver the way `with` would; an action whose
// target can't resolve is skipped, not an error.
func (r *Room) execAction(g *Global, inst *Instance, act *Action) {
	recv := inst
	if act.Target >= 0 {
		recv = r.firstOfType(g, act.Target)
		if recv == nil {
			return
		}
	}

	switch {
	case act.Kind == ActionKindNormal && act.Function == "action_kill_object":
		r.DestroyInstance(recv)

	case act.Kind == ActionKindNormal && act.ScriptIndex >= 0:
		script := g.ScriptsByIndex[act.ScriptIndex]
		if script == nil {
			return
		}
		ctx := NewContext(g, recv.ID, recv)
		for i, wrapper := range act.ArgExprs {
			v, err := ExecScript(ctx.withFreshLocals(), wrapper)
			if err != nil {
				g.logf("%s", err)
				v = Undefined
			}
			ctx.Locals.SetMember(argName(i), v)
		}
		if _, err := ExecScript(ctx, script); err != nil {
			g.logf("%s", err)
		}

	case act.Code != nil:
		ctx := NewContext(g, recv.ID, recv)
		if _, err := ExecScript(ctx, act.Code); err != nil {
			g.logf("%s", err)
		}
	}
}

// Advance drains the frame clock (§4.G's step contract): dt seconds of
// wall time accumulate dt*speed sub-ticks, and each whole sub-tick runs
// one full Step. A room transition mid-frame resets the clock with the
// room.
func (g *Global) Advance(dt float64) {
	if g.Room == nil {
		return
	}
	g.Room.elapsed += dt * float64(g.Room.Def.Speed)
	for {
		room := g.Room
		if room == nil || room.elapsed < 1 {
			return
		}
		room.elapsed--
		room.Step(g)
	}
}

// Step runs one simulation tick in the order §4.G fixes: StepBegin, each
// instance's implicit motion/animation/alarm countdown, any alarms that
// fired, StepNormal, StepEnd, then cleanup() applies the deferred
// add/destroy sets and any pending room transition.
func (r *Room) Step(g *Global) {
	r.dispatch(g, EventID{Kind: EventStep, Sub: StepBegin})

	type fired struct {
		inst *Instance
		n    int32
	}
	var firedAlarms []fired
	for _, id := range r.snapshot() {
		inst := r.Instances[id]
		if inst.destroyed || inst.pendingCreate {
			continue
		}
		for _, n := range inst.step() {
			firedAlarms = append(firedAlarms, fired{inst, n})
		}
	}
	for _, f := range firedAlarms {
		if f.inst.destroyed {
			continue
		}
		r.dispatchTo(g, f.inst, EventID{Kind: EventAlarm, Sub: f.n})
	}

	r.advanceTimelines(g)

	r.dispatch(g, EventID{Kind: EventStep, Sub: StepNormal})
	r.dispatchCollisions(g)
	r.dispatch(g, EventID{Kind: EventStep, Sub: StepEnd})
	r.cleanup(g)
}

// collisionSubs returns the distinct Collision(target) subs def's type
// chain handles, ascending, so dispatch order is deterministic.
func collisionSubs(objects map[ObjectID]*ObjectDef, def *ObjectDef) []int32 {
	seen := map[int32]bool{}
	var subs []int32
	for d := def; d != nil; {
		for id := range d.Events {
			if id.Kind == EventCollision && !seen[id.Sub] {
				seen[id.Sub] = true
				subs = append(subs, id.Sub)
			}
		}
		if d.Parent == LocalID {
			break
		}
		d = objects[d.Parent]
	}
	sortInt32(subs)
	return subs
}

// dispatchCollisions fires Collision(target) on every instance whose
// bounding box overlaps a live instance of the target type this sub-tick
// (§4.F), between StepNormal and StepEnd.
func (r *Room) dispatchCollisions(g *Global) {
	for _, id := range r.snapshot() {
		inst, ok := r.Instances[id]
		if !ok || inst.destroyed || inst.pendingCreate {
			continue
		}
		subs := collisionSubs(g.Objects, inst.Def)
		if len(subs) == 0 {
			continue
		}
		l, t, rt, b := bbox(g, inst, inst.State.X, inst.State.Y)
		for _, sub := range subs {
			target := ObjectID(sub)
			for _, oid := range r.snapshot() {
				other, ok := r.Instances[oid]
				if !ok || other == inst || other.destroyed || other.pendingCreate {
					continue
				}
				if !isKindOf(g.Objects, other.Def, target) {
					continue
				}
				ol, ot, or, ob := bbox(g, other, other.State.X, other.State.Y)
				if boxesOverlap(l, t, rt, b, ol, ot, or, ob) {
					r.dispatchTo(g, inst, EventID{Kind: EventCollision, Sub: sub})
					break
				}
			}
			if inst.destroyed {
				break
			}
		}
	}
}

// advanceTimelines moves each instance's attached timeline forward by its
// timeline_speed and runs, in position order, every moment the position
// crossed this sub-tick (§4.F; moment semantics follow the original's
// timeline tables).
func (r *Room) advanceTimelines(g *Global) {
	for _, id := range r.snapshot() {
		inst, ok := r.Instances[id]
		if !ok || inst.destroyed || inst.pendingCreate {
			continue
		}
		if inst.State.TimelineIndex < 0 {
			continue
		}
		tl, ok := g.Timelines[ObjectID(inst.State.TimelineIndex)]
		if !ok {
			continue
		}
		old := inst.State.TimelinePosition
		inst.State.TimelinePosition += inst.State.TimelineSpeed
		next := inst.State.TimelinePosition

		positions := make([]int32, 0, len(tl.Moments))
		for p := range tl.Moments {
			positions = append(positions, p)
		}
		sortInt32(positions)
		for _, p := range positions {
			if float64(p) < old || float64(p) >= next {
				continue
			}
			if inst.destroyed {
				break
			}
			for _, act := range tl.Moments[p] {
				r.execAction(g, inst, act)
			}
		}
	}
}

// cleanup applies everything Step deferred: pending Create dispatch,
// pending Destroy dispatch + removal, and a pending room transition
// (§4.G's atomicity rule — a room change never takes effect mid-frame).
func (r *Room) cleanup(g *Global) {
	for _, id := range r.snapshot() {
		inst := r.Instances[id]
		if inst.pendingCreate {
			inst.pendingCreate = false
			r.dispatchTo(g, inst, EventID{Kind: EventCreate})
		}
	}

	kept := r.order[:0:0]
	for _, id := range r.order {
		inst := r.Instances[id]
		if inst.destroyed {
			r.dispatchTo(g, inst, EventID{Kind: EventDestroy})
			delete(r.Instances, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept

	if g.PendingRoom != LocalID {
		target := g.PendingRoom
		g.PendingRoom = LocalID
		g.gotoRoom(target)
	}
}

// drawDepthWindow bounds which depths participate in the sorted draw list
// (§4.G); tiles and instances outside it are skipped entirely.
const drawDepthWindow = 16000

// drawEntry is one emission of the depth-sorted draw list: either a tile
// stamp or a visible instance.
type drawEntry struct {
	depth int32
	seq   int
	tile  *RoomTileDef
	inst  *Instance
}

// drawList produces the depth-sorted emission order (§4.G): tiles and
// visible instances with depth in [-16000, 16000], descending depth,
// ties broken by insertion order (tiles before instances at equal depth,
// matching their registration order at room load).
func (r *Room) drawList() []drawEntry {
	var entries []drawEntry
	seq := 0
	for i := range r.Def.Tiles {
		t := &r.Def.Tiles[i]
		if t.Depth < -drawDepthWindow || t.Depth > drawDepthWindow {
			continue
		}
		entries = append(entries, drawEntry{depth: t.Depth, seq: seq, tile: t})
		seq++
	}
	for _, id := range r.order {
		inst := r.Instances[id]
		if inst.destroyed || inst.pendingCreate || !inst.State.Visible {
			continue
		}
		if inst.State.Depth < -drawDepthWindow || inst.State.Depth > drawDepthWindow {
			continue
		}
		entries = append(entries, drawEntry{depth: inst.State.Depth, seq: seq, inst: inst})
		seq++
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].depth > entries[j].depth
	})
	return entries
}

// DrawOrder returns the live instances in render order, for callers that
// only care about instances (tiles excluded).
func (r *Room) DrawOrder() []*Instance {
	var out []*Instance
	for _, e := range r.drawList() {
		if e.inst != nil {
			out = append(out, e.inst)
		}
	}
	return out
}

// Draw renders one frame (§4.G): clear to the room's background color,
// background layers in order, the depth-sorted tile/instance list — each
// instance's sprite first, then its Draw event — and finally foreground
// layers. Pixels are produced by the Canvas collaborator; a nil Canvas
// still dispatches Draw events so headless runs observe the same script
// effects.
func (r *Room) Draw(g *Global) {
	if g.Canvas != nil {
		if r.Def.DrawBackgroundColor {
			g.Canvas.Clear(r.Def.BackgroundColor)
		}
		for _, l := range r.Def.Backgrounds {
			if !l.Visible || l.Foreground || l.Index < 0 {
				continue
			}
			g.Canvas.Background(l.Index, float64(l.X), float64(l.Y), l.TileH, l.TileV)
		}
	}

	for _, e := range r.drawList() {
		if e.tile != nil {
			if g.Canvas != nil {
				g.Canvas.Tile(e.tile.Background, float64(e.tile.X), float64(e.tile.Y),
					e.tile.TileX, e.tile.TileY, e.tile.W, e.tile.H)
			}
			continue
		}
		inst := e.inst
		if g.Canvas != nil && inst.State.SpriteIndex >= 0 {
			x, y := inst.State.X, inst.State.Y
			if sprite, ok := g.Sprites[ObjectID(inst.State.SpriteIndex)]; ok {
				x -= float64(sprite.OriginX)
				y -= float64(sprite.OriginY)
			}
			g.Canvas.Sprite(inst.State.SpriteIndex, inst.State.ImageIndex, x, y,
				inst.State.ImageAlpha, inst.State.ImageBlend)
		}
		r.dispatchTo(g, inst, EventID{Kind: EventDraw})
	}

	if g.Canvas != nil {
		for _, l := range r.Def.Backgrounds {
			if !l.Visible || !l.Foreground || l.Index < 0 {
				continue
			}
			g.Canvas.Background(l.Index, float64(l.X), float64(l.Y), l.TileH, l.TileV)
		}
	}
}
