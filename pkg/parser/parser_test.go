package parser_test

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/its-hmny/firststep/pkg/ast"
	"github.com/its-hmny/firststep/pkg/lexer"
	"github.com/its-hmny/firststep/pkg/parser"
	"github.com/its-hmny/firststep/pkg/token"
)

func parseOne(t *testing.T, src string) (*ast.FunDef, *parser.Parser) {
	t.Helper()
	var errs bytes.Buffer
	l := lexer.New(strings.NewReader(src), &errs)
	p := parser.New(l, &errs)
	fn := p.ParseNext()
	return fn, p
}

func TestParseFunDefShape(t *testing.T) {
	fn, p := parseOne(t, "add(a, b) { return a + b }")
	if fn == nil {
		t.Fatalf("ParseNext returned nil, want a FunDef (errors=%d)", p.ErrorCount())
	}
	if fn.Name != "add" {
		t.Errorf("Name = %q, want \"add\"", fn.Name)
	}
	if len(fn.Args) != 2 || fn.Args[0] != "a" || fn.Args[1] != "b" {
		t.Errorf("Args = %v, want [a b]", fn.Args)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("Body.Stmts = %d statements, want 1", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*ast.Return)
	if !ok {
		t.Fatalf("Stmts[0] is %T, want *ast.Return", fn.Body.Stmts[0])
	}
	bin, ok := ret.Expr.(*ast.Binary)
	if !ok || bin.Op != token.Add {
		t.Fatalf("Return.Expr = %#v, want Binary Add", ret.Expr)
	}
}

func TestLeftAssociativity(t *testing.T) {
	// 1-2-3 must parse as (1-2)-3, not 1-(2-3).
	fn, p := parseOne(t, "f() { return 1-2-3 }")
	if fn == nil {
		t.Fatalf("unexpected parse failure (errors=%d)", p.ErrorCount())
	}
	ret := fn.Body.Stmts[0].(*ast.Return)
	top, ok := ret.Expr.(*ast.Binary)
	if !ok || top.Op != token.Sub {
		t.Fatalf("top-level op = %#v, want Sub", ret.Expr)
	}
	lhs, ok := top.Lhs.(*ast.Binary)
	if !ok || lhs.Op != token.Sub {
		t.Fatalf("lhs = %#v, want nested Sub (1-2)", top.Lhs)
	}
	if _, ok := lhs.Lhs.(*ast.Int); !ok {
		t.Errorf("innermost lhs = %#v, want Int(1)", lhs.Lhs)
	}
	if _, ok := top.Rhs.(*ast.Int); !ok {
		t.Errorf("outermost rhs = %#v, want Int(3)", top.Rhs)
	}
}

func TestRelationalBindsTighterThanEquality(t *testing.T) {
	// a==b<c must parse as a==(b<c).
	fn, p := parseOne(t, "f(a,b,c) { return a==b<c }")
	if fn == nil {
		t.Fatalf("unexpected parse failure (errors=%d)", p.ErrorCount())
	}
	ret := fn.Body.Stmts[0].(*ast.Return)
	top, ok := ret.Expr.(*ast.Binary)
	if !ok || top.Op != token.Eq {
		t.Fatalf("top-level op = %#v, want Eq", ret.Expr)
	}
	if _, ok := top.Lhs.(*ast.Id); !ok {
		t.Errorf("lhs = %#v, want Id(a)", top.Lhs)
	}
	rhs, ok := top.Rhs.(*ast.Binary)
	if !ok || rhs.Op != token.Less {
		t.Fatalf("rhs = %#v, want nested Less (b<c)", top.Rhs)
	}
}

func TestUnaryAppliesOnlyToAValue(t *testing.T) {
	// !-x is rejected: unary does not chain onto another unary expression.
	if _, p := parseOne(t, "f(x) { return !-x }"); p.ErrorCount() == 0 {
		t.Errorf("expected a syntax error for !-x, got none")
	}

	// -(-x) is accepted: the inner negation is inside a parenthesized value.
	fn, p := parseOne(t, "f(x) { return -(-x) }")
	if fn == nil || p.ErrorCount() != 0 {
		t.Fatalf("expected -(-x) to parse cleanly, got %d error(s)", p.ErrorCount())
	}
	outer, ok := fn.Body.Stmts[0].(*ast.Return).Expr.(*ast.Unary)
	if !ok || outer.Op != token.Sub {
		t.Fatalf("outer = %#v, want Unary Sub", fn.Body.Stmts[0].(*ast.Return).Expr)
	}
	if _, ok := outer.Opr.(*ast.Unary); !ok {
		t.Errorf("inner operand = %#v, want another Unary", outer.Opr)
	}
}

func TestAssignmentIsNotAnExpression(t *testing.T) {
	// S5: `x = 7` must be rejected inside an expression position.
	_, p := parseOne(t, "main() { x := 0  if 0 || (1 && (x = 7)) {} return x }")
	if p.ErrorCount() == 0 {
		t.Errorf("expected a syntax error parsing `x = 7` as an expression, got none")
	}
}

func TestFunCallArguments(t *testing.T) {
	fn, p := parseOne(t, "main() { return add(1, 2, 3) }")
	if fn == nil {
		t.Fatalf("unexpected parse failure (errors=%d)", p.ErrorCount())
	}
	call, ok := fn.Body.Stmts[0].(*ast.Return).Expr.(*ast.FunCall)
	if !ok {
		t.Fatalf("Return.Expr = %#v, want *ast.FunCall", fn.Body.Stmts[0].(*ast.Return).Expr)
	}
	if call.Name != "add" || len(call.Args) != 3 {
		t.Errorf("got call %q with %d args, want \"add\" with 3", call.Name, len(call.Args))
	}
}

func TestIfElseChain(t *testing.T) {
	fn, p := parseOne(t, "f(x) { if x < 5 { return 1 } else if x < 10 { return 2 } else { return 3 } }")
	if fn == nil {
		t.Fatalf("unexpected parse failure (errors=%d)", p.ErrorCount())
	}
	top, ok := fn.Body.Stmts[0].(*ast.If)
	if !ok {
		t.Fatalf("Stmts[0] = %#v, want *ast.If", fn.Body.Stmts[0])
	}
	mid, ok := top.ElseThen.(*ast.If)
	if !ok {
		t.Fatalf("ElseThen = %#v, want *ast.If (else-if)", top.ElseThen)
	}
	if _, ok := mid.ElseThen.(*ast.Block); !ok {
		t.Errorf("innermost ElseThen = %#v, want *ast.Block", mid.ElseThen)
	}
}

func TestCanonicalReprintRoundTrips(t *testing.T) {
	// A parsed definition re-printed in canonical (fully parenthesized) form
	// must parse back to a structurally identical tree.
	sources := []string{
		"add(a, b) { return a + b }",
		"main() { x := 10 if x < 5 { return 1 } else { return 2 } }",
		"fib(n) { if n <= 1 { return n } return fib(n-1) + fib(n-2) }",
		"f(a) { return -(-1) || a && 3 == 4 < 5 * 6 % 2 }",
		"g(x, y) { x = !(y) if x {} else if y { return 0 } return g(x, y) }",
	}
	for _, src := range sources {
		first, p := parseOne(t, src)
		if first == nil || p.ErrorCount() != 0 {
			t.Fatalf("unexpected parse failure on %q (errors=%d)", src, p.ErrorCount())
		}
		canon := first.String()
		second, p2 := parseOne(t, canon)
		if second == nil || p2.ErrorCount() != 0 {
			t.Fatalf("canonical form %q of %q failed to re-parse (errors=%d)", canon, src, p2.ErrorCount())
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("round trip of %q via %q changed the tree:\n  first:  %#v\n  second: %#v", src, canon, first, second)
		}
	}
}

func TestParseNextEndSentinel(t *testing.T) {
	var errs bytes.Buffer
	l := lexer.New(strings.NewReader(""), &errs)
	p := parser.New(l, &errs)
	if fn := p.ParseNext(); fn != nil {
		t.Errorf("ParseNext() on empty input = %#v, want nil", fn)
	}
	if p.ErrorCount() != 0 {
		t.Errorf("ErrorCount() = %d, want 0 (clean EOF is not an error)", p.ErrorCount())
	}
}
