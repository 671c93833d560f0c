// Package irgen lowers the firststep AST into the IR defined by pkg/ir: a
// second visitor over the same tree the interpreter walks, built the same
// way (nested scopes, per-stage error sink) but emitting instructions
// instead of producing values directly.
package irgen

import (
	"fmt"
	"io"

	"github.com/its-hmny/firststep/pkg/ast"
	"github.com/its-hmny/firststep/pkg/ir"
	"github.com/its-hmny/firststep/pkg/token"
)

// ----------------------------------------------------------------------------
// vregScope

// vregScope maps names to ir.Val bindings (ArgRef for parameters, VirtReg
// for locals), chained the same way the interpreter's Scope is.
type vregScope struct {
	vars   map[string]ir.Val
	parent *vregScope
}

func newVRegScope(parent *vregScope) *vregScope {
	return &vregScope{vars: make(map[string]ir.Val), parent: parent}
}

func (s *vregScope) get(name string) (ir.Val, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// ----------------------------------------------------------------------------
// Generator

// Generator lowers a stream of *ast.FunDef into an *ir.Module.
type Generator struct {
	errs   io.Writer
	errNum int

	mod     *ir.Module
	curFunc *ir.FunctionDef
	scope   *vregScope

	nextVReg  int
	nextLabel int
}

// New returns a Generator reporting semantic-ir errors to errs.
func New(errs io.Writer) *Generator {
	return &Generator{errs: errs, mod: ir.NewModule()}
}

// ErrorCount returns the number of errors reported so far.
func (g *Generator) ErrorCount() int { return g.errNum }

// Module returns the module built so far.
func (g *Generator) Module() *ir.Module { return g.mod }

func (g *Generator) logError(message string) ir.Val {
	if g.errs != nil {
		fmt.Fprintf(g.errs, "error(irgen): %s\n", message)
	}
	g.errNum++
	return nil
}

func (g *Generator) allocVReg() ir.VirtReg {
	r := ir.VirtReg{ID: g.nextVReg}
	g.nextVReg++
	return r
}

func (g *Generator) allocLabel() ir.Label {
	l := ir.Label{ID: g.nextLabel}
	g.nextLabel++
	return l
}

// ----------------------------------------------------------------------------
// Top level

// GenerateFunDef lowers one top-level function definition into the module.
func (g *Generator) GenerateFunDef(fn *ast.FunDef) {
	g.curFunc = &ir.FunctionDef{Name: fn.Name, ArgCount: len(fn.Args)}
	if !g.mod.AddFunction(g.curFunc) {
		g.logError("function has already been defined")
		return
	}

	g.scope = newVRegScope(nil)
	for i, arg := range fn.Args {
		g.scope.vars[arg] = ir.ArgRef{Index: i}
	}

	g.generateBlock(fn.Body)
}

// ----------------------------------------------------------------------------
// Statements

func (g *Generator) generateStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.Block:
		g.generateBlock(st)
	case *ast.Define:
		g.generateDefine(st)
	case *ast.Assign:
		g.generateAssign(st)
	case *ast.If:
		g.generateIf(st)
	case *ast.Return:
		g.generateReturn(st)
	default:
		panic("irgen: unknown statement node")
	}
}

func (g *Generator) generateBlock(b *ast.Block) {
	parent := g.scope
	g.scope = newVRegScope(parent)
	defer func() { g.scope = parent }()

	for _, stmt := range b.Stmts {
		g.generateStmt(stmt)
		if g.errNum > 0 {
			return
		}
	}
}

func (g *Generator) generateDefine(st *ast.Define) {
	expr := g.generateExpr(st.Expr)
	if expr == nil {
		return
	}
	if _, exists := g.scope.vars[st.Name]; exists {
		g.logError("symbol has already been defined")
		return
	}
	reg := g.allocVReg()
	g.scope.vars[st.Name] = reg
	g.curFunc.PushInst(ir.Assign{Dest: reg, Src: expr})
}

func (g *Generator) generateAssign(st *ast.Assign) {
	expr := g.generateExpr(st.Expr)
	if expr == nil {
		return
	}
	dest, ok := g.scope.get(st.Name)
	if !ok {
		g.logError("symbol has not been defined")
		return
	}
	g.curFunc.PushInst(ir.Assign{Dest: dest, Src: expr})
}

func (g *Generator) generateIf(st *ast.If) {
	cond := g.generateExpr(st.Cond)
	if cond == nil {
		return
	}

	falseLbl := g.allocLabel()
	var endLbl ir.Label
	hasElse := st.ElseThen != nil
	if hasElse {
		endLbl = g.allocLabel()
	}

	g.curFunc.PushInst(ir.Branch{Kind: ir.BEQZ, Cond: cond, Target: falseLbl})
	g.generateStmt(st.Then)
	if hasElse {
		g.curFunc.PushInst(ir.Jump{Target: endLbl})
	}
	g.curFunc.PushInst(ir.LabelDef{Target: falseLbl})
	if hasElse {
		g.generateStmt(st.ElseThen)
		g.curFunc.PushInst(ir.LabelDef{Target: endLbl})
	}
}

func (g *Generator) generateReturn(st *ast.Return) {
	expr := g.generateExpr(st.Expr)
	if expr == nil {
		return
	}
	g.curFunc.PushInst(ir.Return{Val: expr})
}

// ----------------------------------------------------------------------------
// Expressions

func (g *Generator) generateExpr(e ast.Expr) ir.Val {
	switch ex := e.(type) {
	case *ast.Int:
		return ir.Int{Value: ex.Value}
	case *ast.Id:
		return g.generateID(ex)
	case *ast.Binary:
		return g.generateBinary(ex)
	case *ast.Unary:
		return g.generateUnary(ex)
	case *ast.FunCall:
		return g.generateFunCall(ex)
	default:
		panic("irgen: unknown expression node")
	}
}

func (g *Generator) generateID(ex *ast.Id) ir.Val {
	v, ok := g.scope.get(ex.Name)
	if !ok {
		return g.logError("symbol has not been defined")
	}
	return v
}

// generateBinary reuses the same destination register across the
// short-circuit path: lhs is lowered into r, and on the non-short-circuit
// side rhs is assigned back into that same r.
func (g *Generator) generateBinary(ex *ast.Binary) ir.Val {
	if ex.Op == token.LAnd || ex.Op == token.LOr {
		endLbl := g.allocLabel()

		lhs := g.generateExpr(ex.Lhs)
		if lhs == nil {
			return nil
		}
		// Materialize the lhs into its own register: the rhs is assigned
		// back into that same register on the fall-through path, so it must
		// not alias a named variable (or be a constant).
		dest := g.allocVReg()
		g.curFunc.PushInst(ir.Assign{Dest: dest, Src: lhs})

		kind := ir.BEQZ
		if ex.Op == token.LOr {
			kind = ir.BNEZ
		}
		g.curFunc.PushInst(ir.Branch{Kind: kind, Cond: dest, Target: endLbl})

		rhs := g.generateExpr(ex.Rhs)
		if rhs == nil {
			return nil
		}
		g.curFunc.PushInst(ir.Assign{Dest: dest, Src: rhs})
		g.curFunc.PushInst(ir.LabelDef{Target: endLbl})
		return dest
	}

	lhs := g.generateExpr(ex.Lhs)
	rhs := g.generateExpr(ex.Rhs)
	if lhs == nil || rhs == nil {
		return nil
	}
	dest := g.allocVReg()
	g.curFunc.PushInst(ir.Binary{Op: ex.Op, Dest: dest, Lhs: lhs, Rhs: rhs})
	return dest
}

func (g *Generator) generateUnary(ex *ast.Unary) ir.Val {
	opr := g.generateExpr(ex.Opr)
	if opr == nil {
		return nil
	}
	dest := g.allocVReg()
	g.curFunc.PushInst(ir.Unary{Op: ex.Op, Dest: dest, Opr: opr})
	return dest
}

// generateFunCall resolves callee against user functions before falling
// back to the library functions: a user function named print therefore
// shadows the built-in here, unlike the interpreter which checks built-ins
// first.
func (g *Generator) generateFunCall(ex *ast.FunCall) ir.Val {
	callee, exists := g.mod.Funcs[ex.Name]
	if !exists {
		return g.logError("function not found")
	}
	if len(ex.Args) != callee.ArgCount {
		return g.logError("argument count mismatch")
	}

	args := make([]ir.Val, len(ex.Args))
	for i, argExpr := range ex.Args {
		arg := g.generateExpr(argExpr)
		if arg == nil {
			return nil
		}
		args[i] = arg
	}

	dest := g.allocVReg()
	g.curFunc.PushInst(ir.Call{Dest: dest, Callee: callee.Name, Args: args})
	return dest
}
