package gm

import "math"

// ObjectID identifies either an instance (a positive, monotonically
// assigned id) or an object type/resource index when used in a type-lookup
// position (§3, §4.F). The two sentinels below are reserved the way the
// original engine reserves them: they can never be assigned to a real
// instance.
type ObjectID int32

const (
	// GlobalID is the receiver bound outside of any instance context (top
	// level code, and inside `with (global.id)` — §4.D).
	GlobalID ObjectID = 0
	// LocalID marks "no instance bound"; reading/writing an instance member
	// against it is always an InvalidObjectError.
	LocalID ObjectID = -1
)

// EventKind discriminates the tagged EventId variant (§4.F). Declared order
// matches original_source's EventTypeId so EventID's total ordering below
// reproduces the original dispatch order.
type EventKind uint8

const (
	EventCreate EventKind = iota
	EventDestroy
	EventAlarm
	EventStep
	EventCollision
	EventKeyboard
	EventMouse
	EventOther
	EventDraw
	EventKeyPress
	EventKeyRelease
	EventTrigger
)

// Step sub-phases, used as EventID.Sub when Kind == EventStep.
const (
	StepNormal int32 = iota
	StepBegin
	StepEnd
)

// EventID is the tagged event identifier (§4.F): Kind discriminates the
// variant, Sub carries the variant's payload (alarm index, step phase,
// colliding object id, key code, mouse/other/draw code, trigger index) or
// is 0 for variants that carry none.
type EventID struct {
	Kind EventKind
	Sub  int32
}

// Less gives EventID a total order matching dispatch priority: events
// compare first by Kind, then by Sub.
func (e EventID) Less(o EventID) bool {
	if e.Kind != o.Kind {
		return e.Kind < o.Kind
	}
	return e.Sub < o.Sub
}

// EventIDFromWire reconstructs an EventID from the archive's (typeId,
// eventId) pair (§4.A/§4.F), pinned to original_source's parse_events
// mapping.
func EventIDFromWire(typeID, eventID int32) (EventID, error) {
	switch typeID {
	case 0:
		return EventID{Kind: EventCreate}, nil
	case 1:
		return EventID{Kind: EventDestroy}, nil
	case 2:
		return EventID{Kind: EventAlarm, Sub: eventID}, nil
	case 3:
		switch eventID {
		case 0:
			return EventID{Kind: EventStep, Sub: StepNormal}, nil
		case 1:
			return EventID{Kind: EventStep, Sub: StepBegin}, nil
		case 2:
			return EventID{Kind: EventStep, Sub: StepEnd}, nil
		default:
			return EventID{}, &UnknownEventTypeError{TypeID: typeID, EventID: eventID}
		}
	case 4:
		return EventID{Kind: EventCollision, Sub: eventID}, nil
	case 5:
		return EventID{Kind: EventKeyboard, Sub: eventID}, nil
	case 6:
		return EventID{Kind: EventMouse, Sub: eventID}, nil
	case 7:
		return EventID{Kind: EventOther, Sub: eventID}, nil
	case 8:
		return EventID{Kind: EventDraw, Sub: eventID}, nil
	case 9:
		return EventID{Kind: EventKeyPress, Sub: eventID}, nil
	case 10:
		return EventID{Kind: EventKeyRelease, Sub: eventID}, nil
	case 11:
		return EventID{Kind: EventTrigger, Sub: eventID}, nil
	default:
		return EventID{}, &UnknownEventTypeError{TypeID: typeID, EventID: eventID}
	}
}

// ObjectDef is a compiled object resource (§4.F): its sprite/mask/depth
// defaults, inheritance link, and per-event compiled action lists. Events
// are resolved at dispatch time by walking the Parent chain, so a child
// object that defines no handler for an event falls through to its
// ancestors' handler.
type ObjectDef struct {
	ID           ObjectID
	Name         string
	SpriteIndex  int32
	Visible      bool
	Solid        bool
	Depth        int32
	Persistent   bool
	Parent       ObjectID // LocalID if none
	MaskIndex    int32
	Events       map[EventID][]*Action
}

// lookupEvent walks the parent chain starting at def, returning the first
// non-empty action list found for id, or nil if no ancestor defines it.
func (def *ObjectDef) lookupEvent(objects map[ObjectID]*ObjectDef, id EventID) []*Action {
	for d := def; d != nil; {
		if acts, ok := d.Events[id]; ok && len(acts) > 0 {
			return acts
		}
		if d.Parent == LocalID {
			break
		}
		d = objects[d.Parent]
	}
	return nil
}

// ActionKind discriminates the archive's action records (§4.A): Code and
// Variable carry a source fragment, Normal carries a library-function
// reference, and the Begin..Label markers are structural bracketing that
// shipping projects leave unused.
type ActionKind uint32

const (
	ActionKindNormal ActionKind = iota
	ActionKindBegin
	ActionKindEnd
	ActionKindElse
	ActionKindExit
	ActionKindRepeat
	ActionKindVariable
	ActionKindCode
	ActionKindPlaceholder
	ActionKindSeparator
	ActionKindLabel
)

// ActionExec selects how a Normal action runs: not at all, through a
// named library function, or through an attached code body.
type ActionExec uint32

const (
	ActionExecNone ActionExec = iota
	ActionExecFunction
	ActionExecCode
)

// Applies-to sentinels for Action.Target (§4.F): the receiver itself, the
// other instance of a collision pair, or (>= 0) an object index.
const (
	TargetSelf  ObjectID = -1
	TargetOther ObjectID = -2
)

// Action is one compiled step of an event's action list (§4.A, §4.F).
// The decoder lowers every executable record to a compiled Script where
// it can: inline code bodies directly, Variable actions as a synthesized
// assignment, and library-function calls as a synthesized call statement.
// action_execute_script keeps its index so dispatch resolves the script
// table at run time; structural markers keep only their Kind.
type Action struct {
	Kind        ActionKind
	Function    string
	Code        *Script   // compiled body; nil for markers and failed parses
	ScriptIndex int32     // action_execute_script target; -1 otherwise
	ArgExprs    []*Script // compiled `return (arg);` wrappers for script arguments
	Target      ObjectID
	Relative    bool
	Not         bool
}

// Velocity is stored as Go's std trig functions expect: Direction in
// degrees, Speed in pixels/step, matching GameMaker's own convention and
// the original implementation's Instance fields (§4.F). hspeed/vspeed are
// a read/write cartesian view over the same pair (§4.F member table).
type Velocity struct {
	Speed     float64
	Direction float64 // degrees, 0 = +x axis, counter-clockwise
}

// Cartesian decomposes the polar (speed, direction) pair into a per-step
// displacement.
func (v Velocity) Cartesian() (dx, dy float64) {
	rad := v.Direction * (math.Pi / 180)
	return v.Speed * math.Cos(rad), -v.Speed * math.Sin(rad)
}

// InstanceState holds the mutable per-instance fields the member table in
// §4.F exposes directly (x, y, depth, sprite_index, ...).
type InstanceState struct {
	X, Y        float64
	Depth       int32
	Visible     bool
	Velocity    Velocity
	SpriteIndex int32
	ImageIndex  float64
	ImageSpeed  float64
	ImageBlend  int32
	ImageAlpha  float64
	Solid       bool

	TimelineIndex    int32 // -1 when no timeline attached
	TimelinePosition float64
	TimelineSpeed    float64
}

// Alarm is one of the 12 countdown slots (§4.F): a negative value means
// disarmed.
type Alarm struct {
	Value int32
}

const numAlarms = 12

// Instance is a live object instance placed in a Room (§4.F). It
// implements Receiver so the evaluator can read/write its fields and call
// through to its Vars namespace for user-defined instance variables.
type Instance struct {
	ID     ObjectID
	Def    *ObjectDef
	State  InstanceState
	Alarms [numAlarms]Alarm
	Vars   *Namespace

	destroyed     bool
	pendingCreate bool
}

// NewInstance creates an instance at (x, y) from def, with Alarms disarmed
// and default state taken from the object definition.
func NewInstance(id ObjectID, def *ObjectDef, x, y float64) *Instance {
	inst := &Instance{
		ID:   id,
		Def:  def,
		Vars: NewNamespace(),
	}
	inst.State.X = x
	inst.State.Y = y
	inst.State.Depth = def.Depth
	inst.State.Visible = def.Visible
	inst.State.Solid = def.Solid
	inst.State.SpriteIndex = def.SpriteIndex
	inst.State.ImageSpeed = 1
	inst.State.ImageAlpha = 1
	inst.State.TimelineIndex = -1
	inst.State.TimelineSpeed = 1
	for i := range inst.Alarms {
		inst.Alarms[i].Value = -1
	}
	return inst
}

var instanceMembers = map[string]bool{
	"x": true, "y": true, "depth": true, "visible": true,
	"speed": true, "direction": true, "hspeed": true, "vspeed": true,
	"alarm": true, "sprite_index": true, "image_speed": true,
	"image_index": true, "image_single": true, "image_blend": true,
	"image_alpha": true, "solid": true, "id": true,
	"timeline_index": true, "timeline_position": true, "timeline_speed": true,
}

// Member implements Receiver's read side for the fixed fields the member
// table defines, falling through to the instance's own variable namespace
// for anything else (§4.F, §4.D).
func (inst *Instance) Member(name string) (Value, error) {
	switch name {
	case "x":
		return Float(inst.State.X), nil
	case "y":
		return Float(inst.State.Y), nil
	case "depth":
		return Int(inst.State.Depth), nil
	case "visible":
		return Bool(inst.State.Visible), nil
	case "speed":
		return Float(inst.State.Velocity.Speed), nil
	case "direction":
		return Float(inst.State.Velocity.Direction), nil
	case "hspeed":
		dx, _ := inst.State.Velocity.Cartesian()
		return Float(dx), nil
	case "vspeed":
		_, dy := inst.State.Velocity.Cartesian()
		return Float(dy), nil
	case "alarm":
		// bare `alarm` has no meaningful scalar read; mirrors the original
		// engine's behavior of requiring an index (`alarm[0]`).
		return Undefined, nil
	case "sprite_index":
		return Int(inst.State.SpriteIndex), nil
	case "image_speed":
		return Float(inst.State.ImageSpeed), nil
	case "image_index":
		return Float(inst.State.ImageIndex), nil
	case "image_single":
		return Float(inst.State.ImageIndex), nil
	case "image_blend":
		return Int(inst.State.ImageBlend), nil
	case "image_alpha":
		return Float(inst.State.ImageAlpha), nil
	case "solid":
		return Bool(inst.State.Solid), nil
	case "id":
		return Int(int32(inst.ID)), nil
	case "timeline_index":
		return Int(inst.State.TimelineIndex), nil
	case "timeline_position":
		return Float(inst.State.TimelinePosition), nil
	case "timeline_speed":
		return Float(inst.State.TimelineSpeed), nil
	}
	return inst.Vars.Member(name)
}

// SetMember implements Receiver's write side. Per §4.F, writing
// sprite_index resets image_index to 0 (no sprite data is cached here);
// writing hspeed/vspeed switches the velocity representation to
// cartesian-derived polar; alarm is not directly settable as a scalar
// (use the index form via SetIndex).
func (inst *Instance) SetMember(name string, v Value) error {
	switch name {
	case "x":
		inst.State.X = v.ToFloat()
		return nil
	case "y":
		inst.State.Y = v.ToFloat()
		return nil
	case "depth":
		inst.State.Depth = v.ToInt()
		return nil
	case "visible":
		inst.State.Visible = v.ToBool()
		return nil
	case "speed":
		inst.State.Velocity.Speed = v.ToFloat()
		return nil
	case "direction":
		inst.State.Velocity.Direction = v.ToFloat()
		return nil
	case "hspeed":
		_, dy := inst.State.Velocity.Cartesian()
		setVelocityCartesian(&inst.State.Velocity, v.ToFloat(), dy)
		return nil
	case "vspeed":
		dx, _ := inst.State.Velocity.Cartesian()
		setVelocityCartesian(&inst.State.Velocity, dx, v.ToFloat())
		return nil
	case "alarm":
		return &UndefinedPropertyError{Place: "instance", Name: name}
	case "sprite_index":
		inst.State.SpriteIndex = v.ToInt()
		inst.State.ImageIndex = 0
		return nil
	case "image_speed":
		inst.State.ImageSpeed = v.ToFloat()
		return nil
	case "image_index":
		inst.State.ImageIndex = v.ToFloat()
		return nil
	case "image_single":
		inst.State.ImageIndex = v.ToFloat()
		inst.State.ImageSpeed = 0
		return nil
	case "image_blend":
		inst.State.ImageBlend = v.ToInt()
		return nil
	case "image_alpha":
		inst.State.ImageAlpha = v.ToFloat()
		return nil
	case "solid":
		inst.State.Solid = v.ToBool()
		return nil
	case "id":
		return &UndefinedPropertyError{Place: "instance", Name: name}
	case "timeline_index":
		inst.State.TimelineIndex = v.ToInt()
		inst.State.TimelinePosition = 0
		return nil
	case "timeline_position":
		inst.State.TimelinePosition = v.ToFloat()
		return nil
	case "timeline_speed":
		inst.State.TimelineSpeed = v.ToFloat()
		return nil
	}
	return inst.Vars.SetMember(name, v)
}

// setVelocityCartesian rewrites Velocity from a requested (dx, dy) pair,
// recovering speed/direction by inverse trig (§4.F's representation-switch
// rule for hspeed/vspeed writes).
func setVelocityCartesian(vel *Velocity, dx, dy float64) {
	vel.Speed = math.Hypot(dx, dy)
	if vel.Speed == 0 {
		vel.Direction = 0
		return
	}
	vel.Direction = math.Atan2(-dy, dx) * (180 / math.Pi)
}

// indexedMember reports whether name is a structured member-array (§4.F):
// a name whose index form reads and writes instance state directly, never
// an autovivified array handle. The evaluator routes `name[i]` on such
// names straight to Index/SetIndex.
func (inst *Instance) indexedMember(name string) bool {
	return name == "alarm"
}

// Index implements `alarm[n]` reads; any other indexed access on a plain
// instance is an error (arrays autovivify only on room-scoped ad hoc
// receivers, §4.D).
func (inst *Instance) Index(args []Value) (Value, error) {
	if len(args) == 1 {
		n := int(args[0].ToInt())
		if n >= 0 && n < numAlarms {
			return Int(inst.Alarms[n].Value), nil
		}
	}
	return Undefined, &UndefinedPropertyError{Place: "instance", Name: "alarm"}
}

// SetIndex implements `alarm[n] = v` writes.
func (inst *Instance) SetIndex(args []Value, v Value) error {
	if len(args) == 1 {
		n := int(args[0].ToInt())
		if n >= 0 && n < numAlarms {
			inst.Alarms[n].Value = v.ToInt()
			return nil
		}
	}
	return &UndefinedPropertyError{Place: "instance", Name: "alarm"}
}

// Has reports whether name is one of the fixed instance fields or has been
// written to this instance's own variable namespace (§4.D).
func (inst *Instance) Has(name string) bool {
	if instanceMembers[name] {
		return true
	}
	return inst.Vars.Has(name)
}

// step advances one sub-tick's worth of implicit per-instance motion and
// animation (§4.G): image_index advances by image_speed, position advances
// by the polar velocity's cartesian projection, and armed alarms count
// down, firing (returned) when they reach zero.
func (inst *Instance) step() (firedAlarms []int32) {
	inst.State.ImageIndex += inst.State.ImageSpeed
	dx, dy := inst.State.Velocity.Cartesian()
	inst.State.X += dx
	inst.State.Y += dy
	for i := range inst.Alarms {
		if inst.Alarms[i].Value > 0 {
			inst.Alarms[i].Value--
			if inst.Alarms[i].Value == 0 {
				firedAlarms = append(firedAlarms, int32(i))
				inst.Alarms[i].Value = -1
			}
		}
	}
	return firedAlarms
}
