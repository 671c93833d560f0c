package irgen_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/its-hmny/firststep/pkg/ir"
	"github.com/its-hmny/firststep/pkg/irgen"
	"github.com/its-hmny/firststep/pkg/lexer"
	"github.com/its-hmny/firststep/pkg/parser"
)

// lower parses every top-level function in src and lowers it, returning the
// resulting module and the total error count.
func lower(t *testing.T, src string) (*ir.Module, int) {
	t.Helper()
	var errs bytes.Buffer
	l := lexer.New(strings.NewReader(src), &errs)
	p := parser.New(l, &errs)
	g := irgen.New(&errs)

	for {
		fn := p.ParseNext()
		if fn == nil {
			break
		}
		g.GenerateFunDef(fn)
		if g.ErrorCount() > 0 {
			break
		}
	}
	return g.Module(), l.ErrorCount() + p.ErrorCount() + g.ErrorCount()
}

func TestDefineAllocatesRegisterAndAssign(t *testing.T) {
	mod, errN := lower(t, "main() { x := 1 return x }")
	if errN != 0 {
		t.Fatalf("unexpected error(s): %d", errN)
	}
	fn := mod.Funcs["main"]
	if len(fn.Insts) != 2 {
		t.Fatalf("got %d instructions, want 2 (Assign, Return)", len(fn.Insts))
	}
	assign, ok := fn.Insts[0].(ir.Assign)
	if !ok {
		t.Fatalf("Insts[0] = %#v, want ir.Assign", fn.Insts[0])
	}
	reg, ok := assign.Dest.(ir.VirtReg)
	if !ok {
		t.Fatalf("Assign.Dest = %#v, want ir.VirtReg", assign.Dest)
	}
	ret, ok := fn.Insts[1].(ir.Return)
	if !ok || ret.Val != reg {
		t.Errorf("Insts[1] = %#v, want Return of the same register", fn.Insts[1])
	}
}

func TestShortCircuitReusesDestinationRegister(t *testing.T) {
	mod, errN := lower(t, "f() { return 1 } main() { return 0 && f() }")
	if errN != 0 {
		t.Fatalf("unexpected error(s): %d", errN)
	}
	fn := mod.Funcs["main"]

	var branch ir.Branch
	var assign ir.Assign
	var foundBranch, foundAssign bool
	branchIdx, callIdx := -1, -1
	for i, inst := range fn.Insts {
		switch in := inst.(type) {
		case ir.Branch:
			branch, foundBranch, branchIdx = in, true, i
		case ir.Assign:
			assign, foundAssign = in, true
		case ir.Call:
			callIdx = i
		}
	}
	if !foundBranch || !foundAssign {
		t.Fatalf("expected both a Branch and an Assign in the lowered LAnd, got insts=%#v", fn.Insts)
	}
	if branch.Kind != ir.BEQZ {
		t.Errorf("Branch.Kind = %v, want BEQZ for LAnd", branch.Kind)
	}
	if branch.Cond != assign.Dest {
		t.Errorf("Branch.Cond = %#v and Assign.Dest = %#v, want the same register (pseudo-phi)", branch.Cond, assign.Dest)
	}
	// The call to f sits after the branch: the short-circuit path jumps
	// straight to the merge label without ever reaching it.
	if callIdx < 0 || branchIdx > callIdx {
		t.Errorf("expected the Branch (index %d) to precede the Call (index %d)", branchIdx, callIdx)
	}
}

func TestFunCallPrefersUserFunctionOverBuiltin(t *testing.T) {
	mod, errN := lower(t, "print(x) { return 99 } main() { y := print(1) return y }")
	if errN != 0 {
		t.Fatalf("unexpected error(s): %d", errN)
	}
	fn := mod.Funcs["print"]
	if fn.Insts == nil {
		t.Fatalf("print was shadowed, but module's print has no body")
	}
	if len(fn.Insts) != 1 {
		t.Errorf("user print has %d instructions, want 1 (Return)", len(fn.Insts))
	}
}

func TestRedefinitionRejected(t *testing.T) {
	_, errN := lower(t, "f() { return 1 } f() { return 2 }")
	if errN == 0 {
		t.Errorf("expected a semantic error for redefining 'f', got none")
	}
}

func TestUndefinedReferenceRejected(t *testing.T) {
	_, errN := lower(t, "main() { return a }")
	if errN == 0 {
		t.Errorf("expected a semantic error for undefined 'a', got none")
	}
}

func TestArgCountMismatchRejected(t *testing.T) {
	_, errN := lower(t, "add(a,b) { return a+b } main() { return add(1) }")
	if errN == 0 {
		t.Errorf("expected a semantic error for an argument count mismatch, got none")
	}
}
