// Package ir defines the intermediate representation the parser's AST is
// lowered into by pkg/irgen, and that pkg/riscv renders to assembly.
package ir

import "github.com/its-hmny/firststep/pkg/token"

// ----------------------------------------------------------------------------
// Values

// Val is a tagged union over the four kinds of value an instruction can
// read or write.
type Val interface{ isVal() }

// VirtReg names a compiler-allocated temporary or local. Ids are drawn from
// a module-global monotonic counter (pkg/irgen); pkg/riscv compacts the ids
// actually used by each function into that function's own slot range.
type VirtReg struct{ ID int }

func (VirtReg) isVal() {}

// ArgRef names formal parameter Index (0-based) of the enclosing function.
type ArgRef struct{ Index int }

func (ArgRef) isVal() {}

// Label names a branch target, also drawn from a module-global counter.
type Label struct{ ID int }

func (Label) isVal() {}

// Int is an immediate integer value.
type Int struct{ Value int32 }

func (Int) isVal() {}

// ----------------------------------------------------------------------------
// Instructions

// Instruction is a tagged union over the IR's instruction set.
type Instruction interface{ isInst() }

// Assign writes Src's value into Dest.
type Assign struct{ Dest, Src Val }

func (Assign) isInst() {}

// BranchKind selects the polarity of a conditional Branch.
type BranchKind int

const (
	BNEZ BranchKind = iota // branch if Cond is non-zero
	BEQZ                   // branch if Cond is zero
)

// Branch jumps to Target when Cond satisfies Kind.
type Branch struct {
	Kind   BranchKind
	Cond   Val
	Target Label
}

func (Branch) isInst() {}

// Jump is an unconditional branch to Target.
type Jump struct{ Target Label }

func (Jump) isInst() {}

// LabelDef marks the instruction stream position Target refers to.
type LabelDef struct{ Target Label }

func (LabelDef) isInst() {}

// Call invokes Callee with Args and writes its result to Dest.
type Call struct {
	Dest   Val
	Callee string
	Args   []Val
}

func (Call) isInst() {}

// Return ends the enclosing function, yielding Val as its result.
type Return struct{ Val Val }

func (Return) isInst() {}

// Binary computes Lhs Op Rhs into Dest.
type Binary struct {
	Op       token.Operator
	Dest     Val
	Lhs, Rhs Val
}

func (Binary) isInst() {}

// Unary computes Op Opr into Dest.
type Unary struct {
	Op   token.Operator
	Dest Val
	Opr  Val
}

func (Unary) isInst() {}

// ----------------------------------------------------------------------------
// Functions & module

// FunctionDef is one lowered function. Insts is nil for library functions
// (input, print), which are declared but never have a body to emit.
type FunctionDef struct {
	Name     string
	ArgCount int
	Insts    []Instruction
}

// PushInst appends inst to the function body.
func (f *FunctionDef) PushInst(inst Instruction) { f.Insts = append(f.Insts, inst) }

// Module collects every function lowered from a program, in definition order.
type Module struct {
	Funcs   map[string]*FunctionDef
	Order   []string
	libName map[string]bool
}

// NewModule returns a Module pre-populated with the two library functions.
func NewModule() *Module {
	m := &Module{Funcs: make(map[string]*FunctionDef), libName: make(map[string]bool)}
	m.Funcs["input"] = &FunctionDef{Name: "input", ArgCount: 0}
	m.Funcs["print"] = &FunctionDef{Name: "print", ArgCount: 1}
	m.libName["input"] = true
	m.libName["print"] = true
	return m
}

// AddFunction registers fn, rejecting a redefinition of a user function
// already seen (shadowing a library function of the same name is allowed:
// that's resolved at call-site lookup, not here).
func (m *Module) AddFunction(fn *FunctionDef) bool {
	if _, exists := m.Funcs[fn.Name]; exists && !m.libName[fn.Name] {
		return false
	}
	m.libName[fn.Name] = false // once shadowed, a further redefinition is a real redefinition
	m.Funcs[fn.Name] = fn
	m.Order = append(m.Order, fn.Name)
	return true
}
