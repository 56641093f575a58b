package gm

// Context is the evaluator's environment for one executing script (§4.D):
// the project-wide Global, the bound instance (InstanceID/Instance), and
// the local variable scope introduced by `var` declarations and script
// arguments.
type Context struct {
	Global     *Global
	InstanceID ObjectID
	Instance   Receiver
	Locals     *Namespace
}

// NewContext builds the root context a top-level event handler or action
// runs under: self-bound to inst, with a fresh local scope.
func NewContext(g *Global, id ObjectID, inst Receiver) *Context {
	return &Context{Global: g, InstanceID: id, Instance: inst, Locals: NewNamespace()}
}

// withInstance returns a copy of ctx rebound to a different instance,
// keeping Locals shared — used by `with` (§4.D) and by script calls, which
// run in the caller's instance scope with a fresh Locals instead.
func (ctx *Context) withInstance(id ObjectID, inst Receiver) *Context {
	cp := *ctx
	cp.InstanceID = id
	cp.Instance = inst
	return &cp
}

func (ctx *Context) withFreshLocals() *Context {
	cp := *ctx
	cp.Locals = NewNamespace()
	return &cp
}

// readVar implements §4.D's unqualified-name read resolution: locals, then
// resource/constant bindings, then the bound receiver (instance fields,
// falling through to its own variable namespace).
func (ctx *Context) readVar(v Var) (Value, error) {
	if v.Global {
		return ctx.Global.Vars.Member(v.Name)
	}
	if ctx.Locals.Has(v.Name) {
		return ctx.Locals.Member(v.Name)
	}
	if ctx.Global.IsConst(v.Name) {
		return ctx.Global.Consts.Member(v.Name)
	}
	return ctx.Instance.Member(v.Name)
}

// writeVar implements §4.D's write resolution. Constants are rejected with
// AssignToValue; everything else falls through to the bound receiver,
// which autocreates an instance/global variable on first write.
func (ctx *Context) writeVar(v Var, val Value) error {
	if v.Global {
		return ctx.Global.Vars.SetMember(v.Name, val)
	}
	if ctx.Locals.Has(v.Name) {
		return ctx.Locals.SetMember(v.Name, val)
	}
	if ctx.Global.IsConst(v.Name) {
		return ErrAssignToValue
	}
	return ctx.Instance.SetMember(v.Name, val)
}

// Place is an evaluated lvalue (§4.D): something Read and Write can target
// without re-resolving the base expression on every access.
type Place interface {
	Read(ctx *Context) (Value, error)
	Write(ctx *Context, v Value) error
}

type varPlace struct{ v Var }

func (p varPlace) Read(ctx *Context) (Value, error)       { return ctx.readVar(p.v) }
func (p varPlace) Write(ctx *Context, v Value) error      { return ctx.writeVar(p.v, v) }

// propertyPlace is `base.name`: base evaluates to a value, which is
// resolved to an id and then to a Receiver (§4.D).
type propertyPlace struct {
	base Expr
	name string
}

func (p propertyPlace) receiver(ctx *Context) (Receiver, error) {
	v, err := Eval(ctx, p.base)
	if err != nil {
		return nil, err
	}
	id, err := v.ToID()
	if err != nil {
		return nil, err
	}
	return ctx.Global.Resolve(ctx, id)
}

func (p propertyPlace) Read(ctx *Context) (Value, error) {
	recv, err := p.receiver(ctx)
	if err != nil {
		return Undefined, err
	}
	return recv.Member(p.name)
}

func (p propertyPlace) Write(ctx *Context, v Value) error {
	recv, err := p.receiver(ctx)
	if err != nil {
		return err
	}
	return recv.SetMember(p.name, v)
}

// indexPlace is `base[args...]`. A write against a base that currently
// holds Undefined autovivifies a room-scoped array object and rebinds base
// to its handle (§4.D) before indexing into it. The exception is a bare
// name that is one of the receiver's structured member-arrays (`alarm`,
// §4.F): those never hold an array handle — index access routes straight
// to the receiver's own Index/SetIndex.
type indexPlace struct {
	base Expr
	args []Expr
}

// memberTarget reports whether the index base is a plain, unshadowed name
// for a structured member-array of the bound receiver, returning that
// receiver when so.
func (p indexPlace) memberTarget(ctx *Context) (Receiver, bool) {
	base := p.base
	for {
		paren, ok := base.(*ParenExpr)
		if !ok {
			break
		}
		base = paren.Inner
	}
	v, ok := base.(VarExpr)
	if !ok || v.Var.Global {
		return nil, false
	}
	if ctx.Locals.Has(v.Var.Name) || ctx.Global.IsConst(v.Var.Name) {
		return nil, false
	}
	inst, ok := ctx.Instance.(*Instance)
	if !ok || !inst.indexedMember(v.Var.Name) {
		return nil, false
	}
	return inst, true
}

func (p indexPlace) evalArgs(ctx *Context) ([]Value, error) {
	out := make([]Value, len(p.args))
	for i, a := range p.args {
		v, err := Eval(ctx, a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (p indexPlace) Read(ctx *Context) (Value, error) {
	if recv, ok := p.memberTarget(ctx); ok {
		args, err := p.evalArgs(ctx)
		if err != nil {
			return Undefined, err
		}
		return recv.Index(args)
	}
	base, err := Eval(ctx, p.base)
	if err != nil {
		return Undefined, err
	}
	if base.Kind() == KindUndefined {
		return Undefined, nil
	}
	id, err := base.ToID()
	if err != nil {
		return Undefined, err
	}
	recv, err := ctx.Global.Resolve(ctx, id)
	if err != nil {
		return Undefined, err
	}
	args, err := p.evalArgs(ctx)
	if err != nil {
		return Undefined, err
	}
	return recv.Index(args)
}

func (p indexPlace) Write(ctx *Context, v Value) error {
	if recv, ok := p.memberTarget(ctx); ok {
		args, err := p.evalArgs(ctx)
		if err != nil {
			return err
		}
		return recv.SetIndex(args, v)
	}
	basePlace, err := evalPlace(p.base)
	if err != nil {
		return err
	}
	cur, err := basePlace.Read(ctx)
	if err != nil {
		return err
	}

	var recv Receiver
	if cur.Kind() == KindUndefined {
		id, arr := ctx.Global.NewArray()
		recv = arr
		if err := basePlace.Write(ctx, Int(int32(id))); err != nil {
			return err
		}
	} else {
		id, err := cur.ToID()
		if err != nil {
			return err
		}
		recv, err = ctx.Global.Resolve(ctx, id)
		if err != nil {
			return err
		}
	}

	args, err := p.evalArgs(ctx)
	if err != nil {
		return err
	}
	return recv.SetIndex(args, v)
}

// valuePlace wraps a non-lvalue expression: reads evaluate it normally,
// writes are always AssignToValue (§7). The parser's lvalue-shape
// restriction keeps this from arising out of AssignStmt.Lhs, but
// IncDecExpr's operand grammar is looser, so this remains reachable there.
type valuePlace struct{ expr Expr }

func (p valuePlace) Read(ctx *Context) (Value, error) { return Eval(ctx, p.expr) }
func (p valuePlace) Write(ctx *Context, v Value) error { return ErrAssignToValue }

func evalPlace(e Expr) (Place, error) {
	switch t := e.(type) {
	case VarExpr:
		return varPlace{t.Var}, nil
	case *ParenExpr:
		return evalPlace(t.Inner)
	case *MemberExpr:
		return propertyPlace{base: t.Base, name: t.Name}, nil
	case *IndexExpr:
		return indexPlace{base: t.Base, args: t.Args}, nil
	default:
		return valuePlace{e}, nil
	}
}

// --- statement execution ---

// Exec runs one statement. Errors from ExprStmt/AssignStmt are wrapped
// with the statement's Pos (§7); ReturnSignal and the exit sentinel pass
// through untouched for the caller (ExecScript) to catch.
func Exec(ctx *Context, stmt Stmt) error {
	switch s := stmt.(type) {
	case *EmptyStmt:
		return nil

	case *BlockStmt:
		for _, st := range s.Stmts {
			if err := Exec(ctx, st); err != nil {
				return err
			}
		}
		return nil

	case *VarStmt:
		return ctx.Locals.SetMember(s.Name, Undefined)

	case *ExprStmt:
		_, err := Eval(ctx, s.Expr)
		return WithPosition(err, s.Pos)

	case *AssignStmt:
		return WithPosition(execAssign(ctx, s), s.Pos)

	case *IfStmt:
		cond, err := Eval(ctx, s.Cond)
		if err != nil {
			return err
		}
		if cond.ToBool() {
			return Exec(ctx, s.Then)
		}
		if s.Else != nil {
			return Exec(ctx, s.Else)
		}
		return nil

	case *RepeatStmt:
		v, err := Eval(ctx, s.Count)
		if err != nil {
			return err
		}
		for n := v.ToInt(); n > 0; n-- {
			if err := Exec(ctx, s.Body); err != nil {
				return err
			}
		}
		return nil

	case *WhileStmt:
		for {
			v, err := Eval(ctx, s.Cond)
			if err != nil {
				return err
			}
			if !v.ToBool() {
				return nil
			}
			if err := Exec(ctx, s.Body); err != nil {
				return err
			}
		}

	case *ForStmt:
		if err := Exec(ctx, s.Init); err != nil {
			return err
		}
		for {
			v, err := Eval(ctx, s.Cond)
			if err != nil {
				return err
			}
			if !v.ToBool() {
				return nil
			}
			if err := Exec(ctx, s.Body); err != nil {
				return err
			}
			if err := Exec(ctx, s.Update); err != nil {
				return err
			}
		}

	case *WithStmt:
		v, err := Eval(ctx, s.Target)
		if err != nil {
			return err
		}
		id, err := v.ToID()
		if err != nil {
			return err
		}
		recv, err := ctx.Global.Resolve(ctx, id)
		if err != nil {
			return err
		}
		return Exec(ctx.withInstance(id, recv), s.Body)

	case *ReturnStmt:
		v, err := Eval(ctx, s.Expr)
		if err != nil {
			return err
		}
		return &ReturnSignal{Value: v}

	case *ExitStmt:
		return errExit

	default:
		return nil
	}
}

func execAssign(ctx *Context, s *AssignStmt) error {
	place, err := evalPlace(s.Lhs)
	if err != nil {
		return err
	}
	rhs, err := Eval(ctx, s.Rhs)
	if err != nil {
		return err
	}
	if s.Op == "=" {
		return place.Write(ctx, rhs)
	}

	cur, err := place.Read(ctx)
	if err != nil {
		return err
	}
	var next Value
	switch s.Op {
	case "+=":
		next, err = Add(cur, rhs)
	case "-=":
		next, err = Sub(cur, rhs)
	case "*=":
		next, err = Mul(cur, rhs)
	case "/=":
		next, err = Div(cur, rhs)
	default:
		return &UndefinedFunctionError{Name: s.Op}
	}
	if err != nil {
		return err
	}
	return place.Write(ctx, next)
}

// ExecScript runs every statement of script under ctx, the way a top-level
// event action or a `script_name(...)` call does (§4.D). A `return expr;`
// yields Value; `exit;` yields Undefined; any other error is wrapped with
// the script's name (§7) before being returned.
func ExecScript(ctx *Context, script *Script) (Value, error) {
	for _, stmt := range script.Stmts {
		err := Exec(ctx, stmt)
		if err == nil {
			continue
		}
		if rs, ok := err.(*ReturnSignal); ok {
			return rs.Value, nil
		}
		if err == errExit {
			return Undefined, nil
		}
		return Undefined, WithScriptName(err, script.Name)
	}
	return Undefined, nil
}

// --- expression evaluation ---

func Eval(ctx *Context, expr Expr) (Value, error) {
	switch e := expr.(type) {
	case LitExpr:
		return e.Value, nil

	case VarExpr:
		return ctx.readVar(e.Var)

	case *ParenExpr:
		return Eval(ctx, e.Inner)

	case *MemberExpr:
		place := propertyPlace{base: e.Base, name: e.Name}
		return place.Read(ctx)

	case *IndexExpr:
		place := indexPlace{base: e.Base, args: e.Args}
		return place.Read(ctx)

	case *UnaryExpr:
		return evalUnary(ctx, e)

	case *IncDecExpr:
		return evalIncDec(ctx, e)

	case *BinaryExpr:
		return evalBinary(ctx, e)

	case *CallExpr:
		return evalCall(ctx, e)

	default:
		return Undefined, nil
	}
}

func evalUnary(ctx *Context, e *UnaryExpr) (Value, error) {
	v, err := Eval(ctx, e.Operand)
	if err != nil {
		return Undefined, err
	}
	switch e.Op {
	case "!":
		return Bool(!v.ToBool()), nil
	case "-":
		if v.Kind() == KindInt {
			return Int(-v.ToInt()), nil
		}
		return Float(-v.ToFloat()), nil
	case "+":
		if v.Kind() == KindInt {
			return Int(v.ToInt()), nil
		}
		return Float(v.ToFloat()), nil
	case "~":
		return Int(^v.ToInt()), nil
	default:
		return Undefined, &UndefinedFunctionError{Name: e.Op}
	}
}

func evalIncDec(ctx *Context, e *IncDecExpr) (Value, error) {
	place, err := evalPlace(e.Operand)
	if err != nil {
		return Undefined, err
	}
	cur, err := place.Read(ctx)
	if err != nil {
		return Undefined, err
	}
	var next Value
	if e.Op == "++" {
		next, err = Add(cur, Int(1))
	} else {
		next, err = Sub(cur, Int(1))
	}
	if err != nil {
		return Undefined, err
	}
	if err := place.Write(ctx, next); err != nil {
		return Undefined, err
	}
	if e.Postfix {
		return cur, nil
	}
	return next, nil
}

func evalBinary(ctx *Context, e *BinaryExpr) (Value, error) {
	// Short-circuit logical operators evaluate rhs lazily.
	switch e.Op {
	case "&&":
		lhs, err := Eval(ctx, e.Lhs)
		if err != nil {
			return Undefined, err
		}
		if !lhs.ToBool() {
			return Bool(false), nil
		}
		rhs, err := Eval(ctx, e.Rhs)
		if err != nil {
			return Undefined, err
		}
		return Bool(rhs.ToBool()), nil
	case "||":
		lhs, err := Eval(ctx, e.Lhs)
		if err != nil {
			return Undefined, err
		}
		if lhs.ToBool() {
			return Bool(true), nil
		}
		rhs, err := Eval(ctx, e.Rhs)
		if err != nil {
			return Undefined, err
		}
		return Bool(rhs.ToBool()), nil
	}

	lhs, err := Eval(ctx, e.Lhs)
	if err != nil {
		return Undefined, err
	}
	rhs, err := Eval(ctx, e.Rhs)
	if err != nil {
		return Undefined, err
	}

	switch e.Op {
	case "^^":
		return Bool(lhs.ToBool() != rhs.ToBool()), nil
	case "&":
		return Int(lhs.ToInt() & rhs.ToInt()), nil
	case "|":
		return Int(lhs.ToInt() | rhs.ToInt()), nil
	case "^":
		return Int(lhs.ToInt() ^ rhs.ToInt()), nil
	case "<":
		return Bool(Less(lhs, rhs)), nil
	case "<=":
		return Bool(LessEqual(lhs, rhs)), nil
	case ">":
		return Bool(Greater(lhs, rhs)), nil
	case ">=":
		return Bool(GreaterEqual(lhs, rhs)), nil
	case "==":
		return Bool(Equal(lhs, rhs)), nil
	case "!=":
		return Bool(NotEqual(lhs, rhs)), nil
	case "+":
		return Add(lhs, rhs)
	case "-":
		return Sub(lhs, rhs)
	case "*":
		return Mul(lhs, rhs)
	case "/":
		return Div(lhs, rhs)
	case "div":
		return IntDiv(lhs, rhs)
	case "%":
		return Mod(lhs, rhs)
	default:
		return Undefined, &UndefinedFunctionError{Name: e.Op}
	}
}

func evalCall(ctx *Context, e *CallExpr) (Value, error) {
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := Eval(ctx, a)
		if err != nil {
			return Undefined, err
		}
		args[i] = v
	}

	if script, ok := ctx.Global.Scripts[e.Name]; ok {
		if script == nil {
			// The resource exists but failed to parse at load (§7): the
			// call is a no-op, not an undefined-function error.
			return Undefined, nil
		}
		callCtx := ctx.withInstance(ctx.InstanceID, ctx.Instance).withFreshLocals()
		for i, v := range args {
			callCtx.Locals.SetMember(argName(i), v)
		}
		v, err := ExecScript(callCtx, script)
		return v, WithPosition(err, e.Pos)
	}

	if fn, ok := ctx.Global.Host[e.Name]; ok {
		v, err := fn(ctx, args)
		return v, WithPosition(err, e.Pos)
	}

	return Undefined, WithPosition(&UndefinedFunctionError{Name: e.Name}, e.Pos)
}

func argName(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "argument" + string(digits[i])
	}
	// Scripts with 10+ arguments are vanishingly rare; fall back to a
	// generic decimal encoding rather than special-casing them away.
	buf := []byte("argument")
	buf = appendInt(buf, i)
	return string(buf)
}

func appendInt(buf []byte, n int) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
	}
	return append(buf, tmp[i:]...)
}
