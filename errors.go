package gm

import (
	"errors"
	"fmt"
)

// Load-time errors (§7). These are fatal: the archive decode aborts and the
// driver exits non-zero.
var (
	ErrBadMagic          = errors.New("gm: bad magic")
	ErrTruncated         = errors.New("gm: truncated archive")
	ErrDeflateFailed     = errors.New("gm: deflate failed")
	ErrUnknownEventType  = errors.New("gm: unknown event type id")
	ErrBadImage          = errors.New("gm: bad image container")
)

// UnsupportedVersionError reports a version-tagged body whose version
// constant isn't one the decoder was built against.
type UnsupportedVersionError struct {
	Path    string
	Version uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: unsupported version %d", e.Path, e.Version)
}

// ParseError is the archive decoder's path-qualified failure report (§7):
// "at <offset>: <kind>", with every enclosing parser frame listed.
type ParseError struct {
	Offset int
	Kind   error
	Frames []string // innermost first
}

func (e *ParseError) Error() string {
	s := fmt.Sprintf("at %d: %s", e.Offset, e.Kind)
	for i := len(e.Frames) - 1; i >= 0; i-- {
		s = e.Frames[i] + " > " + s
	}
	return s
}

func (e *ParseError) Unwrap() error { return e.Kind }

func wrapParse(offset int, frame string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Frames = append(pe.Frames, frame)
		return pe
	}
	return &ParseError{Offset: offset, Kind: err, Frames: []string{frame}}
}

// ScriptParseError is a non-fatal failure to parse one script/action source
// fragment (§7). The offending script becomes a no-op; execution continues.
type ScriptParseError struct {
	File     string
	Line     int
	Col      int
	Expected string
}

func (e *ScriptParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: expected %s", e.File, e.Line, e.Col, e.Expected)
}

// Runtime control-flow signals (§4.D, §7). Caught only at script boundary.
var (
	errExit = errors.New("gm: exit")
)

// ReturnSignal unwinds the current script with a value (the `return expr;`
// statement). It is caught at script boundary and never escapes Exec.
type ReturnSignal struct{ Value Value }

func (r *ReturnSignal) Error() string { return "gm: return" }

// Runtime errors (§7).
var (
	ErrAssignToValue = errors.New("gm: assignment to value expression")
)

type UnknownEventTypeError struct{ TypeID, EventID int32 }

func (e *UnknownEventTypeError) Error() string {
	return fmt.Sprintf("unknown event type %d/%d", e.TypeID, e.EventID)
}

func (e *UnknownEventTypeError) Unwrap() error { return ErrUnknownEventType }

type UndefinedFunctionError struct{ Name string }

func (e *UndefinedFunctionError) Error() string { return fmt.Sprintf("undefined function %q", e.Name) }

type InvalidOperandsError struct {
	Op       string
	Lhs, Rhs Value
}

func (e *InvalidOperandsError) Error() string {
	return fmt.Sprintf("invalid operands for %s: %s, %s", e.Op, e.Lhs.debugString(), e.Rhs.debugString())
}

type InvalidObjectError struct{ Value Value }

func (e *InvalidObjectError) Error() string {
	return fmt.Sprintf("invalid object id %s", e.Value.debugString())
}

type UndefinedPropertyError struct {
	Place string
	Name  string
}

func (e *UndefinedPropertyError) Error() string {
	return fmt.Sprintf("accessing property %q on invalid object %s", e.Name, e.Place)
}

// WithPosition wraps err with the source position of the expression or
// statement that raised it (§4.D, §7). It is a no-op on nil.
func WithPosition(err error, pos Pos) error {
	if err == nil {
		return nil
	}
	var se *ScriptError
	if errors.As(err, &se) {
		se.Frames = append(se.Frames, pos.String())
		return se
	}
	return &ScriptError{Err: err, Frames: []string{pos.String()}}
}

// WithScriptName wraps err with the name of the script/action it occurred
// in, at the script boundary (§4.D, §7).
func WithScriptName(err error, name string) error {
	if err == nil {
		return nil
	}
	var se *ScriptError
	if errors.As(err, &se) {
		se.Script = name
		return se
	}
	return &ScriptError{Err: err, Script: name}
}

// ScriptError is the display-form error chain from §7: outermost frame
// first, then each WithPosition frame innermost-last, then the root cause.
type ScriptError struct {
	Script string
	Frames []string // innermost first, in WithPosition order
	Err    error
}

func (e *ScriptError) Error() string {
	s := e.Err.Error()
	for i := 0; i < len(e.Frames); i++ {
		s = e.Frames[i] + ": " + s
	}
	if e.Script != "" {
		s = e.Script + ": " + s
	}
	return "[" + s + "]"
}

func (e *ScriptError) Unwrap() error { return e.Err }
