package gm

import (
	"strings"
	"testing"
)

func TestDisassembleRoundTripsThroughParser(t *testing.T) {
	src := `if (hp < 10) { hp += 1; } else exit;
for (i = 0; i < 3; i += 1) foo[i] = i * 2;
with (6) x = global.spawn_x;
return string_length("ok");`

	script := mustParse(t, src)
	text := Disassemble(script)

	// The rendered text is itself valid source.
	again, err := ParseScript("disasm", text)
	if err != nil {
		t.Fatalf("disassembled output failed to reparse: %v\n%s", err, text)
	}
	if len(again.Stmts) != len(script.Stmts) {
		t.Fatalf("reparse has %d statements; want %d\n%s", len(again.Stmts), len(script.Stmts), text)
	}

	for _, want := range []string{"hp += 1", "global.spawn_x", `string_length("ok")`, "for ("} {
		if !strings.Contains(text, want) {
			t.Fatalf("disassembly missing %q:\n%s", want, text)
		}
	}
}
