package gm

import "testing"

func mustParse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := ParseScript("t", src)
	if err != nil {
		t.Fatalf("ParseScript(%q) error: %v", src, err)
	}
	return s
}

func runScript(t *testing.T, g *Global, inst Receiver, id ObjectID, src string) Value {
	t.Helper()
	script := mustParse(t, src)
	ctx := NewContext(g, id, inst)
	v, err := ExecScript(ctx, script)
	if err != nil {
		t.Fatalf("ExecScript(%q) error: %v", src, err)
	}
	return v
}

func TestParserArithmeticPrecedence(t *testing.T) {
	g := NewGlobal()
	v := runScript(t, g, g.Vars, GlobalID, "return 2 + 3 * 4;")
	if v.ToInt() != 14 {
		t.Fatalf("2+3*4 = %v; want 14", v)
	}
	v = runScript(t, g, g.Vars, GlobalID, "return (2 + 3) * 4;")
	if v.ToInt() != 20 {
		t.Fatalf("(2+3)*4 = %v; want 20", v)
	}
}

func TestParserComparisonAndLogical(t *testing.T) {
	g := NewGlobal()
	v := runScript(t, g, g.Vars, GlobalID, "return 1 < 2 && 3 >= 3;")
	if !v.ToBool() {
		t.Fatalf("1<2 && 3>=3 should be true, got %v", v)
	}
}

func TestParserIfElseChain(t *testing.T) {
	g := NewGlobal()
	src := `
	if (0) return 1;
	else if (0) return 2;
	else if (1) return 3;
	else return 4;
	`
	v := runScript(t, g, g.Vars, GlobalID, src)
	if v.ToInt() != 3 {
		t.Fatalf("else-if chain = %v; want 3", v)
	}
}

func TestParserForLoop(t *testing.T) {
	g := NewGlobal()
	src := `
	var i; var sum;
	sum = 0;
	for (i = 0; i < 5; i += 1) {
		sum += i;
	}
	return sum;
	`
	v := runScript(t, g, g.Vars, GlobalID, src)
	if v.ToInt() != 10 {
		t.Fatalf("for-loop sum = %v; want 10", v)
	}
}

func TestParserRepeatAndWhile(t *testing.T) {
	g := NewGlobal()
	v := runScript(t, g, g.Vars, GlobalID, "var n; n = 0; repeat (3) n += 1; return n;")
	if v.ToInt() != 3 {
		t.Fatalf("repeat 3 = %v; want 3", v)
	}
	v = runScript(t, g, g.Vars, GlobalID, "var n; n = 0; while (n < 4) n += 1; return n;")
	if v.ToInt() != 4 {
		t.Fatalf("while = %v; want 4", v)
	}
}

func TestParserStringLiteralAndConcat(t *testing.T) {
	g := NewGlobal()
	v := runScript(t, g, g.Vars, GlobalID, `return "ab" + "cd";`)
	if v.ToString() != "abcd" {
		t.Fatalf("string concat = %v; want abcd", v)
	}
}

func TestParserAssignOps(t *testing.T) {
	g := NewGlobal()
	src := `
	var x; x = 10;
	x -= 3;
	x *= 2;
	x /= 7;
	return x;
	`
	v := runScript(t, g, g.Vars, GlobalID, src)
	if v.ToInt() != 2 {
		t.Fatalf("compound assigns = %v; want 2", v)
	}
}

func TestParserExitStatement(t *testing.T) {
	g := NewGlobal()
	v := runScript(t, g, g.Vars, GlobalID, "var x; x = 1; exit; x = 2;")
	if v.Kind() != KindUndefined {
		t.Fatalf("exit; should yield Undefined, got %v", v)
	}
}

func TestParserBadSyntaxIsNonFatal(t *testing.T) {
	_, err := ParseScript("broken", "if ( { }")
	if err == nil {
		t.Fatalf("expected a ScriptParseError for malformed source")
	}
	if _, ok := err.(*ScriptParseError); !ok {
		t.Fatalf("err = %T; want *ScriptParseError", err)
	}
}
