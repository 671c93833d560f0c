// Package interp implements a tree-walking evaluator over the firststep
// AST: lexically scoped nested environments, short-circuit logic, the two
// built-in library functions, and the in-environment $ret sentinel used to
// flow a function's result back out to its call site.
package interp

import (
	"fmt"
	"io"

	"github.com/its-hmny/firststep/pkg/ast"
	"github.com/its-hmny/firststep/pkg/token"
)

// ----------------------------------------------------------------------------
// Scope

// Scope is one link of the environment chain: a flat set of bindings plus a
// parent pointer. A scope is pushed on entering a Block and popped on
// leaving it; it is also pushed once per function call to hold that call's
// parameters and the return-value slot (isFuncBase marks that scope).
type Scope struct {
	vars       map[string]int32
	parent     *Scope
	isFuncBase bool
	retVal     int32
	retSet     bool
}

func newScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]int32), parent: parent}
}

// get searches from this scope outward, the usual unrestricted lookup used
// for reading an Id.
func (s *Scope) get(name string) (int32, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return 0, false
}

// ----------------------------------------------------------------------------
// Interp

// Interp is the top-level evaluator. Built-in functions read from in and
// write to out; every diagnostic goes to errs.
type Interp struct {
	errs   io.Writer
	errNum int

	in  io.Reader
	out io.Writer

	funcs map[string]*ast.FunDef
	scope *Scope
}

// New returns an Interp with built-ins wired to in/out and diagnostics to errs.
func New(in io.Reader, out io.Writer, errs io.Writer) *Interp {
	return &Interp{errs: errs, in: in, out: out, funcs: make(map[string]*ast.FunDef)}
}

// ErrorCount returns the number of errors reported so far.
func (ip *Interp) ErrorCount() int { return ip.errNum }

func (ip *Interp) logError(message string) {
	if ip.errs != nil {
		fmt.Fprintf(ip.errs, "error(interp): %s\n", message)
	}
	ip.errNum++
}

// AddFunctionDef registers a top-level function definition, rejecting a
// redefinition of a name already seen.
func (ip *Interp) AddFunctionDef(fn *ast.FunDef) bool {
	if _, exists := ip.funcs[fn.Name]; exists {
		ip.logError("function has already been defined")
		return false
	}
	ip.funcs[fn.Name] = fn
	return true
}

// Eval locates 'main' and evaluates it, returning its result.
func (ip *Interp) Eval() (int32, bool) {
	main, exists := ip.funcs["main"]
	if !exists {
		ip.logError("'main' function not found")
		return 0, false
	}
	ip.scope = nil
	return ip.callFunction(main, nil)
}

// ----------------------------------------------------------------------------
// Function calls

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// callBuiltin dispatches input/print. matched reports whether name named a
// built-in at all; when matched is false the caller falls through to user
// function resolution.
func (ip *Interp) callBuiltin(name string, argExprs []ast.Expr) (val int32, matched, ok bool) {
	switch name {
	case "input":
		if len(argExprs) != 0 {
			ip.logError("argument count mismatch")
			return 0, true, false
		}
		var v int32
		fmt.Fscan(ip.in, &v)
		return v, true, true
	case "print":
		if len(argExprs) != 1 {
			ip.logError("argument count mismatch")
			return 0, true, false
		}
		v, ok := ip.evalExpr(argExprs[0])
		if !ok {
			return 0, true, false
		}
		fmt.Fprintln(ip.out, v)
		return 0, true, true
	default:
		return 0, false, true
	}
}

// callFunction evaluates argExprs left to right in the caller's scope, then
// pushes a fresh base scope, binds the values to fn's formal parameters,
// runs the body, and reads back the return slot.
func (ip *Interp) callFunction(fn *ast.FunDef, argExprs []ast.Expr) (int32, bool) {
	if len(argExprs) != len(fn.Args) {
		ip.logError("argument count mismatch")
		return 0, false
	}

	args := make([]int32, len(argExprs))
	for i, argExpr := range argExprs {
		v, ok := ip.evalExpr(argExpr)
		if !ok {
			return 0, false
		}
		args[i] = v
	}

	caller := ip.scope
	base := newScope(caller)
	base.isFuncBase = true
	ip.scope = base
	defer func() { ip.scope = caller }()

	for i, v := range args {
		if _, exists := base.vars[fn.Args[i]]; exists {
			ip.logError("redefinition of argument")
			return 0, false
		}
		base.vars[fn.Args[i]] = v
	}

	if !ip.evalBlock(fn.Body) {
		return 0, false
	}
	if !base.retSet {
		ip.logError("function has no return value")
		return 0, false
	}
	return base.retVal, true
}

// evalFunCall resolves callee against the built-ins (input/print) before
// user functions: a user function named print is shadowed here, unlike
// pkg/irgen's generateFunCall, which prefers the user function.
func (ip *Interp) evalFunCall(ex *ast.FunCall) (int32, bool) {
	if val, matched, ok := ip.callBuiltin(ex.Name, ex.Args); matched {
		return val, ok
	}

	fn, exists := ip.funcs[ex.Name]
	if !exists {
		ip.logError("function not found")
		return 0, false
	}
	return ip.callFunction(fn, ex.Args)
}

// ----------------------------------------------------------------------------
// Statements

func (ip *Interp) evalStmt(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.Block:
		return ip.evalBlock(st)
	case *ast.Define:
		return ip.evalDefine(st)
	case *ast.Assign:
		return ip.evalAssign(st)
	case *ast.If:
		return ip.evalIf(st)
	case *ast.Return:
		return ip.evalReturn(st)
	default:
		panic("interp: unknown statement node")
	}
}

func (ip *Interp) evalBlock(b *ast.Block) bool {
	parent := ip.scope
	ip.scope = newScope(parent)
	defer func() { ip.scope = parent }()

	for _, stmt := range b.Stmts {
		ip.evalStmt(stmt)
		if ip.errNum > 0 {
			return false
		}
		// Once the enclosing function's return slot is written, the rest of
		// the frame's statements are dead: stop here so recursive programs
		// terminate instead of re-evaluating trailing returns.
		if ip.returnSet() {
			break
		}
	}
	return true
}

// returnSet reports whether the nearest enclosing function frame has
// already had its return value written.
func (ip *Interp) returnSet() bool {
	for s := ip.scope; s != nil; s = s.parent {
		if s.isFuncBase {
			return s.retSet
		}
	}
	return false
}

func (ip *Interp) evalDefine(st *ast.Define) bool {
	v, ok := ip.evalExpr(st.Expr)
	if !ok {
		return false
	}
	if _, exists := ip.scope.vars[st.Name]; exists {
		ip.logError("symbol has already been defined")
		return false
	}
	ip.scope.vars[st.Name] = v
	return true
}

// evalAssign walks outward updating the first scope that already binds
// Name, stopping at the nearest function-base scope: a callee can never
// reach across its own frame into the caller's variables.
func (ip *Interp) evalAssign(st *ast.Assign) bool {
	v, ok := ip.evalExpr(st.Expr)
	if !ok {
		return false
	}
	for s := ip.scope; s != nil; s = s.parent {
		if _, exists := s.vars[st.Name]; exists {
			s.vars[st.Name] = v
			return true
		}
		if s.isFuncBase {
			break
		}
	}
	ip.logError("symbol has not been defined")
	return false
}

func (ip *Interp) evalIf(st *ast.If) bool {
	cond, ok := ip.evalExpr(st.Cond)
	if !ok {
		return false
	}
	if cond != 0 {
		return ip.evalBlock(st.Then)
	} else if st.ElseThen != nil {
		return ip.evalStmt(st.ElseThen)
	}
	return true
}

func (ip *Interp) evalReturn(st *ast.Return) bool {
	v, ok := ip.evalExpr(st.Expr)
	if !ok {
		return false
	}
	for s := ip.scope; s != nil; s = s.parent {
		if s.isFuncBase {
			s.retVal = v
			s.retSet = true
			break
		}
	}
	return true
}

// ----------------------------------------------------------------------------
// Expressions

func (ip *Interp) evalExpr(e ast.Expr) (int32, bool) {
	switch ex := e.(type) {
	case *ast.Int:
		return ex.Value, true
	case *ast.Id:
		return ip.evalID(ex)
	case *ast.Binary:
		return ip.evalBinary(ex)
	case *ast.Unary:
		return ip.evalUnary(ex)
	case *ast.FunCall:
		return ip.evalFunCall(ex)
	default:
		panic("interp: unknown expression node")
	}
}

func (ip *Interp) evalID(ex *ast.Id) (int32, bool) {
	if v, ok := ip.scope.get(ex.Name); ok {
		return v, true
	}
	ip.logError("symbol has not been defined")
	return 0, false
}

func (ip *Interp) evalBinary(ex *ast.Binary) (int32, bool) {
	if ex.Op == token.LAnd || ex.Op == token.LOr {
		lhs, ok := ip.evalExpr(ex.Lhs)
		if !ok {
			return 0, false
		}
		if (ex.Op == token.LAnd && lhs == 0) || (ex.Op == token.LOr && lhs != 0) {
			return lhs, true
		}
		return ip.evalExpr(ex.Rhs)
	}

	lhs, lok := ip.evalExpr(ex.Lhs)
	rhs, rok := ip.evalExpr(ex.Rhs)
	if !lok || !rok {
		return 0, false
	}
	switch ex.Op {
	case token.Add:
		return lhs + rhs, true
	case token.Sub:
		return lhs - rhs, true
	case token.Mul:
		return lhs * rhs, true
	case token.Div:
		return lhs / rhs, true
	case token.Mod:
		return lhs % rhs, true
	case token.Less:
		return boolToInt(lhs < rhs), true
	case token.LessEq:
		return boolToInt(lhs <= rhs), true
	case token.Eq:
		return boolToInt(lhs == rhs), true
	case token.NotEq:
		return boolToInt(lhs != rhs), true
	default:
		panic("interp: unknown binary operator")
	}
}

func (ip *Interp) evalUnary(ex *ast.Unary) (int32, bool) {
	v, ok := ip.evalExpr(ex.Opr)
	if !ok {
		return 0, false
	}
	switch ex.Op {
	case token.Sub:
		return -v, true
	case token.LNot:
		return boolToInt(v == 0), true
	default:
		panic("interp: unknown unary operator")
	}
}
