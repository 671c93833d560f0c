// Package ast defines the value-typed abstract syntax tree produced by the
// parser and consumed by the two back ends (interp, irgen).
package ast

import "github.com/its-hmny/firststep/pkg/token"

// ----------------------------------------------------------------------------
// General information

// Each statement/expression node owns its children and the tree is acyclic.
// We declare shared Stmt/Expr interfaces and define one struct per variant,
// a tagged-union shape: no virtual dispatch beyond a type switch in each
// visitor.

// Stmt is the shared interface for every statement-level AST node.
type Stmt interface{ stmtNode() }

// Expr is the shared interface for every expression-level AST node.
type Expr interface{ exprNode() }

// ----------------------------------------------------------------------------
// Top level

// FunDef is a function definition: a name, its ordered formal arguments and a body.
type FunDef struct {
	Name string
	Args []string
	Body *Block
}

// Block is an ordered sequence of statements evaluated under a new scope.
type Block struct {
	Stmts []Stmt
}

func (*Block) stmtNode() {}

// ----------------------------------------------------------------------------
// Statements

// Define introduces a new binding (':=') in the current scope.
type Define struct {
	Name string
	Expr Expr
}

func (*Define) stmtNode() {}

// Assign updates an existing binding ('=') visible in the current function frame.
type Assign struct {
	Name string
	Expr Expr
}

func (*Assign) stmtNode() {}

// If is a conditional; ElseThen is either nil, a *Block, or another *If (else-if chain).
type If struct {
	Cond     Expr
	Then     *Block
	ElseThen Stmt // nil, *Block or *If
}

func (*If) stmtNode() {}

// Return evaluates Expr and writes it to the enclosing function's return slot.
type Return struct {
	Expr Expr
}

func (*Return) stmtNode() {}

// ----------------------------------------------------------------------------
// Expressions

// Binary combines two operands using one of the arithmetic, relational,
// equality or short-circuit logical operators.
type Binary struct {
	Op  token.Operator
	Lhs Expr
	Rhs Expr
}

func (*Binary) exprNode() {}

// Unary applies Sub (negation) or LNot (logical not) to a single operand.
type Unary struct {
	Op  token.Operator // Sub or LNot
	Opr Expr
}

func (*Unary) exprNode() {}

// FunCall calls a user function or one of the two built-ins (input, print).
type FunCall struct {
	Name string
	Args []Expr
}

func (*FunCall) exprNode() {}

// Int is an integer literal.
type Int struct {
	Value int32
}

func (*Int) exprNode() {}

// Id references a binding visible in the current scope chain.
type Id struct {
	Name string
}

func (*Id) exprNode() {}
