package gm

import (
	"fmt"
	"strings"
)

// Disassemble renders a Script back to a readable approximation of its
// source, one statement per line with block indentation (grounded on the
// teacher's table-driven instruction formatter: a small per-node switch
// producing one line of human-readable text per unit of structure).
func Disassemble(script *Script) string {
	var b strings.Builder
	for _, s := range script.Stmts {
		writeStmt(&b, s, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("    ", depth))
}

func writeStmt(b *strings.Builder, s Stmt, depth int) {
	indent(b, depth)
	switch st := s.(type) {
	case *EmptyStmt:
		b.WriteString(";\n")
	case *BlockStmt:
		b.WriteString("{\n")
		for _, inner := range st.Stmts {
			writeStmt(b, inner, depth+1)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *VarStmt:
		fmt.Fprintf(b, "var %s;\n", st.Name)
	case *ExprStmt:
		fmt.Fprintf(b, "%s;\n", exprString(st.Expr))
	case *AssignStmt:
		fmt.Fprintf(b, "%s %s %s;\n", exprString(st.Lhs), st.Op, exprString(st.Rhs))
	case *IfStmt:
		fmt.Fprintf(b, "if %s\n", exprString(st.Cond))
		writeStmt(b, st.Then, depth+1)
		if st.Else != nil {
			indent(b, depth)
			b.WriteString("else\n")
			writeStmt(b, st.Else, depth+1)
		}
	case *RepeatStmt:
		fmt.Fprintf(b, "repeat %s\n", exprString(st.Count))
		writeStmt(b, st.Body, depth+1)
	case *WhileStmt:
		fmt.Fprintf(b, "while %s\n", exprString(st.Cond))
		writeStmt(b, st.Body, depth+1)
	case *ForStmt:
		fmt.Fprintf(b, "for (%s %s %s; %s; %s %s %s)\n",
			exprString(st.Init.Lhs), st.Init.Op, exprString(st.Init.Rhs),
			exprString(st.Cond),
			exprString(st.Update.Lhs), st.Update.Op, exprString(st.Update.Rhs))
		writeStmt(b, st.Body, depth+1)
	case *WithStmt:
		fmt.Fprintf(b, "with %s\n", exprString(st.Target))
		writeStmt(b, st.Body, depth+1)
	case *ReturnStmt:
		fmt.Fprintf(b, "return %s;\n", exprString(st.Expr))
	case *ExitStmt:
		b.WriteString("exit;\n")
	default:
		b.WriteString("?;\n")
	}
}

func exprString(e Expr) string {
	switch ex := e.(type) {
	case LitExpr:
		if ex.Value.Kind() == KindString {
			return fmt.Sprintf("%q", ex.Value.ToString())
		}
		return ex.Value.ToString()
	case VarExpr:
		if ex.Var.Global {
			return "global." + ex.Var.Name
		}
		return ex.Var.Name
	case *ParenExpr:
		return "(" + exprString(ex.Inner) + ")"
	case *MemberExpr:
		return exprString(ex.Base) + "." + ex.Name
	case *IndexExpr:
		parts := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			parts[i] = exprString(a)
		}
		return fmt.Sprintf("%s[%s]", exprString(ex.Base), strings.Join(parts, ", "))
	case *UnaryExpr:
		return ex.Op + exprString(ex.Operand)
	case *IncDecExpr:
		if ex.Postfix {
			return exprString(ex.Operand) + ex.Op
		}
		return ex.Op + exprString(ex.Operand)
	case *BinaryExpr:
		return fmt.Sprintf("%s %s %s", exprString(ex.Lhs), ex.Op, exprString(ex.Rhs))
	case *CallExpr:
		parts := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			parts[i] = exprString(a)
		}
		return fmt.Sprintf("%s(%s)", ex.Name, strings.Join(parts, ", "))
	default:
		return "?"
	}
}
