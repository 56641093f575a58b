package gm

import "testing"

// newTestRoom builds a minimal live room with no def, suitable for tests
// that only need Global.Resolve to find instances by id.
func newTestRoom(g *Global) *Room {
	r := &Room{Def: &RoomDef{}, Instances: make(map[ObjectID]*Instance)}
	g.Room = r
	return r
}

func simpleObjectDef(id ObjectID, name string) *ObjectDef {
	return &ObjectDef{ID: id, Name: name, Parent: LocalID, Events: make(map[EventID][]*Action)}
}

// TestWithBlockRebindsReceiver is §8 scenario 3: with (6) { x = 10 }
// executed in A's (id 5) context must leave A untouched and set B (id 6).
func TestWithBlockRebindsReceiver(t *testing.T) {
	g := NewGlobal()
	r := newTestRoom(g)

	defA := simpleObjectDef(1, "oA")
	defB := simpleObjectDef(2, "oB")
	a := NewInstance(5, defA, 0, 0)
	b := NewInstance(6, defB, 0, 0)
	r.Instances[5] = a
	r.Instances[6] = b
	r.order = []ObjectID{5, 6}

	runScript(t, g, a, 5, "with (6) { x = 10; }")

	if got, _ := a.Member("x"); got.ToInt() != 0 {
		t.Fatalf("A.x = %v; want unchanged (0/undefined)", got)
	}
	if got, _ := b.Member("x"); got.ToInt() != 10 {
		t.Fatalf("B.x = %v; want 10", got)
	}
}

// TestArrayAutovivification is §8 scenario 4: foo[3] = 7; return foo[3];
// yields 7, and foo[0] (never written) yields Undefined.
func TestArrayAutovivification(t *testing.T) {
	g := NewGlobal()
	newTestRoom(g)
	def := simpleObjectDef(1, "o")
	inst := NewInstance(5, def, 0, 0)

	v := runScript(t, g, inst, 5, "foo[3] = 7; return foo[3];")
	if v.ToInt() != 7 {
		t.Fatalf("foo[3] after write = %v; want 7", v)
	}
	v = runScript(t, g, inst, 5, "foo[3] = 7; return foo[0];")
	if v.Kind() != KindUndefined {
		t.Fatalf("foo[0] (never written) = %v; want Undefined", v)
	}
}

func TestLocalVarDeclarationShadowsReceiver(t *testing.T) {
	g := NewGlobal()
	newTestRoom(g)
	def := simpleObjectDef(1, "o")
	inst := NewInstance(5, def, 0, 0)
	inst.Vars.SetMember("counter", Int(99))

	v := runScript(t, g, inst, 5, "var counter; counter = 1; return counter;")
	if v.ToInt() != 1 {
		t.Fatalf("local var should shadow receiver member, got %v", v)
	}
	if got, _ := inst.Member("counter"); got.ToInt() != 99 {
		t.Fatalf("receiver member should be untouched by shadowing local, got %v", got)
	}
}

func TestAssignToConstFails(t *testing.T) {
	g := NewGlobal()
	newTestRoom(g)
	def := simpleObjectDef(1, "o")
	inst := NewInstance(5, def, 0, 0)

	script := mustParse(t, "c_red = 1;")
	ctx := NewContext(g, 5, inst)
	_, err := ExecScript(ctx, script)
	if err == nil {
		t.Fatalf("expected AssignToValue error writing to a const name")
	}
}

func TestGlobalDotPrefixAlwaysGlobals(t *testing.T) {
	g := NewGlobal()
	newTestRoom(g)
	def := simpleObjectDef(1, "o")
	inst := NewInstance(5, def, 0, 0)
	inst.Vars.SetMember("counter", Int(1))

	runScript(t, g, inst, 5, "global.counter = 42;")
	if got, _ := g.Vars.Member("counter"); got.ToInt() != 42 {
		t.Fatalf("global.counter = %v; want 42", got)
	}
	if got, _ := inst.Member("counter"); got.ToInt() != 1 {
		t.Fatalf("instance-local counter should be unaffected, got %v", got)
	}
}

func TestUndefinedFunctionError(t *testing.T) {
	g := NewGlobal()
	newTestRoom(g)
	def := simpleObjectDef(1, "o")
	inst := NewInstance(5, def, 0, 0)

	script := mustParse(t, "totally_not_a_real_function(1, 2);")
	ctx := NewContext(g, 5, inst)
	_, err := ExecScript(ctx, script)
	if err == nil {
		t.Fatalf("expected UndefinedFunction error")
	}
}

func TestScriptCallGetsArgumentsAndFreshLocals(t *testing.T) {
	g := NewGlobal()
	newTestRoom(g)
	def := simpleObjectDef(1, "o")
	inst := NewInstance(5, def, 0, 0)

	g.Scripts["double_it"] = mustParse(t, "return argument0 * 2;")

	v := runScript(t, g, inst, 5, "return double_it(21);")
	if v.ToInt() != 42 {
		t.Fatalf("double_it(21) = %v; want 42", v)
	}
}

// TestAlarmIndexThroughEvaluator runs the `alarm[i]` index form through
// ExecScript rather than poking Index/SetIndex directly: the write must
// land in the alarm table (not autovivify an array), the read must come
// back from it, and a with-block must target the rebound receiver's
// alarms.
func TestAlarmIndexThroughEvaluator(t *testing.T) {
	g := NewGlobal()
	r := newTestRoom(g)
	def := simpleObjectDef(1, "o")
	inst := NewInstance(5, def, 0, 0)
	r.Instances[5] = inst
	r.order = []ObjectID{5}

	v := runScript(t, g, inst, 5, "alarm[2] = 7; return alarm[2];")
	if v.ToInt() != 7 {
		t.Fatalf("alarm[2] read back %v through the evaluator; want 7", v)
	}
	if inst.Alarms[2].Value != 7 {
		t.Fatalf("alarm table slot = %d; want 7 (write must not autovivify an array)", inst.Alarms[2].Value)
	}

	other := NewInstance(6, def, 0, 0)
	r.Instances[6] = other
	r.order = append(r.order, 6)
	runScript(t, g, inst, 5, "with (6) { alarm[0] = 3; }")
	if other.Alarms[0].Value != 3 {
		t.Fatalf("with-block alarm write should target the rebound receiver, got %d", other.Alarms[0].Value)
	}
	if inst.Alarms[0].Value != -1 {
		t.Fatalf("with-block alarm write must not touch the outer receiver, got %d", inst.Alarms[0].Value)
	}
}
