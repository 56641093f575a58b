package gm

import "testing"

// TestDeferredDestroyVisibleThroughStepEnd is §8 scenario 6: during
// StepNormal, an instance calling instance_destroy() still runs its own
// StepEnd handler in the same sub-tick, its Destroy handler runs during
// cleanup, and it is gone by the next StepBegin.
func TestDeferredDestroyVisibleThroughStepEnd(t *testing.T) {
	def := simpleObjectDef(1, "o")
	def.Events[EventID{Kind: EventStep, Sub: StepNormal}] = []*Action{codeAction(t, "instance_destroy();")}
	def.Events[EventID{Kind: EventStep, Sub: StepEnd}] = []*Action{codeAction(t, "ran_step_end = 1;")}
	def.Events[EventID{Kind: EventDestroy}] = []*Action{codeAction(t, "global.destroyed_count += 1;")}
	def.Events[EventID{Kind: EventStep, Sub: StepBegin}] = []*Action{codeAction(t, "global.begin_count += 1;")}

	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r

	inst := NewInstance(10, def, 0, 0)
	r.Instances[10] = inst
	r.order = []ObjectID{10}

	r.Step(g)

	ranStepEnd, _ := inst.Member("ran_step_end")
	if ranStepEnd.ToInt() != 1 {
		t.Fatalf("StepEnd should still run in the same sub-tick, got %v", ranStepEnd)
	}
	if !inst.destroyed {
		t.Fatalf("instance should be marked destroyed")
	}
	destroyedCount, _ := g.Vars.Member("destroyed_count")
	if destroyedCount.ToInt() != 1 {
		t.Fatalf("Destroy handler should have run once during cleanup, got %v", destroyedCount)
	}
	if _, ok := r.Instances[10]; ok {
		t.Fatalf("instance should be removed from the room after cleanup")
	}

	r.Step(g) // a second step; the destroyed instance must not see StepBegin again
	beginCount, _ := g.Vars.Member("begin_count")
	if beginCount.ToInt() != 1 {
		t.Fatalf("destroyed instance should not receive another StepBegin, begin_count = %v", beginCount)
	}
}

// TestDeferredCreateNotVisibleUntilNextStepBegin is §8's deferred-lifecycle
// law: an instance created inside an event handler is not visible to any
// other handler in the same dispatch pass, but is visible the next
// StepBegin.
func TestDeferredCreateNotVisibleUntilNextStepBegin(t *testing.T) {
	spawner := simpleObjectDef(1, "Spawner")
	spawned := simpleObjectDef(2, "Spawned")
	spawned.Events[EventID{Kind: EventStep, Sub: StepBegin}] = []*Action{codeAction(t, "global.spawned_seen_begin += 1;")}
	spawner.Events[EventID{Kind: EventStep, Sub: StepNormal}] = []*Action{
		codeAction(t, "instance_create(0, 0, 2);"),
		codeAction(t, "global.count_after_create = instance_number(2);"),
	}

	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: spawner, 2: spawned}
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r

	inst := NewInstance(10, spawner, 0, 0)
	r.Instances[10] = inst
	r.order = []ObjectID{10}

	r.Step(g)

	countAfterCreate, _ := g.Vars.Member("count_after_create")
	if countAfterCreate.ToInt() != 0 {
		t.Fatalf("newly created instance must not be visible within the same dispatch pass, instance_number = %v", countAfterCreate)
	}
	if len(r.Instances) != 2 {
		t.Fatalf("created instance should be present in the room after cleanup, have %d", len(r.Instances))
	}

	r.Step(g)
	seenBegin, _ := g.Vars.Member("spawned_seen_begin")
	if seenBegin.ToInt() != 1 {
		t.Fatalf("spawned instance should receive StepBegin on the next sub-tick, got %v", seenBegin)
	}
}

// TestDispatchOrderStableAcrossReentrantMutation is §8's dispatch-stability
// law: instances inserted in order I1,I2,I3 are dispatched in that order
// regardless of creates/destroys performed by earlier handlers in the pass.
func TestDispatchOrderStableAcrossReentrantMutation(t *testing.T) {
	def := simpleObjectDef(1, "o")
	def.Events[EventID{Kind: EventStep, Sub: StepNormal}] = []*Action{
		codeAction(t, "global.order = global.order + string(id) + \",\";"),
	}

	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r
	g.Vars.SetMember("order", String(""))

	for _, id := range []ObjectID{11, 12, 13} {
		inst := NewInstance(id, def, 0, 0)
		inst.Vars.SetMember("id", Int(int32(id)))
		r.Instances[id] = inst
		r.order = append(r.order, id)
	}

	r.Step(g)

	got, _ := g.Vars.Member("order")
	if got.ToString() != "11,12,13," {
		t.Fatalf("dispatch order = %q; want \"11,12,13,\"", got.ToString())
	}
}

// TestDepthSortStableTies checks §4.G's depth-sort rule: descending depth,
// ties broken by insertion order.
func TestDepthSortStableTies(t *testing.T) {
	def := simpleObjectDef(1, "o")
	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}

	ids := []ObjectID{1, 2, 3, 4}
	depths := map[ObjectID]int32{1: 5, 2: 10, 3: 5, 4: 0}
	for _, id := range ids {
		inst := NewInstance(id, def, 0, 0)
		inst.State.Visible = true
		inst.State.Depth = depths[id]
		r.Instances[id] = inst
		r.order = append(r.order, id)
	}

	order := r.DrawOrder()
	var got []ObjectID
	for _, inst := range order {
		got = append(got, inst.ID)
	}
	want := []ObjectID{2, 1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("DrawOrder length = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DrawOrder = %v; want %v", got, want)
		}
	}
}

// TestRoomTransitionAtomicity is §8's room-transition-atomicity law:
// room_goto inside a handler doesn't take effect until cleanup(), and a
// later room_goto call in the same frame overwrites the pending target.
func TestRoomTransitionAtomicity(t *testing.T) {
	def := simpleObjectDef(1, "o")
	def.Events[EventID{Kind: EventStep, Sub: StepNormal}] = []*Action{
		codeAction(t, "room_goto(7);"),
		codeAction(t, "room_goto(9);"),
		codeAction(t, "global.room_during_dispatch = 1;"),
	}

	g := NewGlobal()
	g.Objects = map[ObjectID]*ObjectDef{1: def}
	g.Rooms = map[ObjectID]*RoomDef{
		7: {ID: 7, Name: "r7"},
		9: {ID: 9, Name: "r9"},
	}
	r := &Room{Def: &RoomDef{ID: 0}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r

	inst := NewInstance(10, def, 0, 0)
	r.Instances[10] = inst
	r.order = []ObjectID{10}

	r.Step(g)

	if g.Room.Def.ID != 9 {
		t.Fatalf("pending room should resolve to the last room_goto call (9), got %d", g.Room.Def.ID)
	}
}
