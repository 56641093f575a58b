package gm

import (
	"fmt"
	"io"
)

// Engine is the top-level orchestrator (grounded on the teacher's Console):
// it owns the decoded Global, wires the rendering/input collaborators the
// driver provides, and exposes one entry point per frame.
type Engine struct {
	Global  *Global
	DebugOut io.Writer
}

// debugSink adapts an io.Writer to the DebugSink interface Global logs
// through.
type debugSink struct{ w io.Writer }

func (d debugSink) Logf(format string, args ...interface{}) {
	if d.w == nil {
		return
	}
	fmt.Fprintf(d.w, format+"\n", args...)
}

// NewEngine decodes a project archive and returns a ready-to-run Engine.
// A decode failure is fatal (§7): the caller should treat a non-nil error
// as a reason to exit non-zero.
func NewEngine(data []byte, debugOut io.Writer) (*Engine, error) {
	g, err := LoadArchive(data)
	if err != nil {
		return nil, err
	}
	g.Debug = debugSink{debugOut}
	return &Engine{Global: g, DebugOut: debugOut}, nil
}

// AttachCanvas wires the rendering collaborator draw_* host functions and
// Room.Draw target.
func (e *Engine) AttachCanvas(c Canvas) { e.Global.Canvas = c }

// AttachInput wires the keyboard/mouse collaborator keyboard_check and
// friends read from.
func (e *Engine) AttachInput(in Input) { e.Global.Input = in }

// PumpInput runs stage 1 of the frame contract (§4.G): dispatch
// KeyPress/Keyboard/KeyRelease events for every key change the input
// collaborator reports. Call once per frame, before Advance.
func (e *Engine) PumpInput() {
	e.Global.DispatchInput()
}

// Advance feeds dt seconds of wall time to the frame clock (§4.G's step
// contract): whole sub-ticks accumulated at the room's speed each run one
// full StepBegin/.../StepEnd/cleanup sequence; the fraction carries over.
func (e *Engine) Advance(dt float64) {
	e.Global.Advance(dt)
}

// StepFrame advances the simulation by exactly one sub-tick regardless of
// wall time — the fixed-rate driver path and the one tests use; Advance
// is the variable-rate path. Engine itself does no timing of its own,
// mirroring the teacher's "yield only between frames" contract (§5).
func (e *Engine) StepFrame() {
	if e.Global.Room != nil {
		e.Global.Room.Step(e.Global)
	}
}

// DrawFrame dispatches the bound room's Draw event in depth order (§4.G).
// Call once per rendered frame, after StepFrame.
func (e *Engine) DrawFrame() {
	if e.Global.Room != nil {
		e.Global.Room.Draw(e.Global)
	}
}

// Ended reports whether game_end() was called; the driver should stop
// calling StepFrame/DrawFrame once this is true.
func (e *Engine) Ended() bool { return e.Global.Ended() }

// RoomSpeed returns the currently bound room's steps-per-second, or 0 if
// no room is loaded.
func (e *Engine) RoomSpeed() int32 {
	if e.Global.Room == nil {
		return 0
	}
	return e.Global.Room.Def.Speed
}
