// Package parser implements the recursive-descent, one-token-lookahead
// parser for the firststep language, with precedence climbing for binary
// operators.
package parser

import (
	"fmt"
	"io"

	"github.com/its-hmny/firststep/pkg/ast"
	"github.com/its-hmny/firststep/pkg/lexer"
	"github.com/its-hmny/firststep/pkg/token"
)

// ----------------------------------------------------------------------------
// Parser

// Parser consumes tokens from a Lexer and builds the AST one top-level
// function definition at a time.
type Parser struct {
	lex    *lexer.Lexer
	errs   io.Writer
	errNum int

	cur token.Kind
}

// New returns a Parser reading tokens from lex, reporting syntax errors to errs.
func New(lex *lexer.Lexer, errs io.Writer) *Parser {
	p := &Parser{lex: lex, errs: errs}
	p.nextToken()
	return p
}

// ErrorCount returns the number of syntax errors reported so far.
func (p *Parser) ErrorCount() int { return p.errNum }

func (p *Parser) nextToken() token.Kind {
	p.cur = p.lex.NextToken()
	return p.cur
}

func (p *Parser) isTokenChar(c rune) bool {
	return p.cur == token.Other && p.lex.OtherVal() == c
}

func (p *Parser) isTokenKey(k token.Keyword) bool {
	return p.cur == token.Key && p.lex.KeyVal() == k
}

func (p *Parser) isTokenOp(op token.Operator) bool {
	return p.cur == token.Op && p.lex.OpVal() == op
}

func (p *Parser) logError(message string) {
	if p.errs != nil {
		fmt.Fprintf(p.errs, "error(parser): %s\n", message)
	}
	p.errNum++
}

func (p *Parser) expectID() bool {
	if p.cur != token.Id {
		p.logError("expected identifier")
		return false
	}
	return true
}

func (p *Parser) expectChar(c rune) bool {
	if !p.isTokenChar(c) {
		p.logError(fmt.Sprintf("expected '%c'", c))
		return false
	}
	p.nextToken()
	return true
}

// ----------------------------------------------------------------------------
// Entry point

// ParseNext returns the next top-level function definition, or nil once
// input is exhausted (cleanly) or a syntax error aborted the parse. Callers
// distinguish the two by checking ErrorCount after the loop ends.
func (p *Parser) ParseNext() *ast.FunDef {
	if p.cur == token.End {
		return nil
	}
	return p.parseFunDef()
}

// ----------------------------------------------------------------------------
// Grammar: FunDef, Block, Stmt

func (p *Parser) parseFunDef() *ast.FunDef {
	if !p.expectID() {
		return nil
	}
	name := p.lex.IDVal()
	p.nextToken()

	if !p.expectChar('(') {
		return nil
	}

	var args []string
	if !p.isTokenChar(')') {
		for {
			if !p.expectID() {
				return nil
			}
			args = append(args, p.lex.IDVal())
			p.nextToken()
			if !p.isTokenChar(',') {
				break
			}
			p.nextToken()
		}
	}
	if !p.expectChar(')') {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.FunDef{Name: name, Args: args, Body: body}
}

func (p *Parser) parseBlock() *ast.Block {
	if !p.expectChar('{') {
		return nil
	}

	var stmts []ast.Stmt
	for !p.isTokenChar('}') {
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}
	p.nextToken() // eat '}'
	return &ast.Block{Stmts: stmts}
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur {
	case token.Id:
		return p.parseDefineAssign()
	case token.Key:
		switch p.lex.KeyVal() {
		case token.If:
			return p.parseIfElse()
		case token.Return:
			return p.parseReturn()
		}
	}
	p.logError("invalid statement")
	return nil
}

func (p *Parser) parseDefineAssign() ast.Stmt {
	name := p.lex.IDVal()
	p.nextToken()

	if !p.isTokenOp(token.Define) && !p.isTokenOp(token.Assign) {
		p.logError("expected ':=' or '='")
		return nil
	}
	isDefine := p.lex.OpVal() == token.Define
	p.nextToken()

	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	if isDefine {
		return &ast.Define{Name: name, Expr: expr}
	}
	return &ast.Assign{Name: name, Expr: expr}
}

func (p *Parser) parseIfElse() ast.Stmt {
	p.nextToken() // eat 'if'

	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	then := p.parseBlock()
	if then == nil {
		return nil
	}

	var elseThen ast.Stmt
	if p.isTokenKey(token.Else) {
		p.nextToken() // eat 'else'
		if p.isTokenKey(token.If) {
			elseThen = p.parseIfElse()
			if elseThen == nil {
				return nil
			}
		} else {
			blk := p.parseBlock()
			if blk == nil {
				return nil
			}
			elseThen = blk
		}
	}
	return &ast.If{Cond: cond, Then: then, ElseThen: elseThen}
}

func (p *Parser) parseReturn() ast.Stmt {
	p.nextToken() // eat 'return'
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	return &ast.Return{Expr: expr}
}

// ----------------------------------------------------------------------------
// Grammar: expressions, precedence climbing

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(p.parseLAndExpr, token.LOr)
}

func (p *Parser) parseLAndExpr() ast.Expr {
	return p.parseBinary(p.parseEqExpr, token.LAnd)
}

func (p *Parser) parseEqExpr() ast.Expr {
	return p.parseBinary(p.parseRelExpr, token.Eq, token.NotEq)
}

func (p *Parser) parseRelExpr() ast.Expr {
	return p.parseBinary(p.parseAddExpr, token.Less, token.LessEq)
}

func (p *Parser) parseAddExpr() ast.Expr {
	return p.parseBinary(p.parseMulExpr, token.Add, token.Sub)
}

func (p *Parser) parseMulExpr() ast.Expr {
	return p.parseBinary(p.parseUnaryExpr, token.Mul, token.Div, token.Mod)
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	if p.cur == token.Op {
		op := p.lex.OpVal()
		switch op {
		case token.Sub, token.LNot:
			p.nextToken()
		default:
			p.logError("invalid unary operator")
			return nil
		}
		opr := p.parseValue()
		if opr == nil {
			return nil
		}
		return &ast.Unary{Op: op, Opr: opr}
	}
	return p.parseValue()
}

func (p *Parser) parseValue() ast.Expr {
	switch p.cur {
	case token.Integer:
		v := p.lex.IntVal()
		p.nextToken()
		return &ast.Int{Value: v}
	case token.Id:
		id := p.lex.IDVal()
		p.nextToken()
		if p.isTokenChar('(') {
			return p.parseFunCall(id)
		}
		return &ast.Id{Name: id}
	case token.Other:
		if p.lex.OtherVal() == '(' {
			p.nextToken() // eat '('
			expr := p.parseExpr()
			if expr == nil {
				return nil
			}
			if !p.expectChar(')') {
				return nil
			}
			return expr
		}
	}
	p.logError("invalid value")
	return nil
}

func (p *Parser) parseFunCall(name string) ast.Expr {
	p.nextToken() // eat '('

	var args []ast.Expr
	if !p.isTokenChar(')') {
		for {
			expr := p.parseExpr()
			if expr == nil {
				return nil
			}
			args = append(args, expr)
			// NOTE: parseExpr already leaves cur positioned just past the
			// expression; do not advance again here before checking for ','.
			if !p.isTokenChar(',') {
				break
			}
			p.nextToken()
		}
	}
	if !p.expectChar(')') {
		return nil
	}
	return &ast.FunCall{Name: name, Args: args}
}

// parseBinary implements left-associative precedence climbing for one
// grammar tier: parse an operand with next, then fold in a maximal run of
// operators drawn from ops, each followed by another operand at the same tier.
func (p *Parser) parseBinary(next func() ast.Expr, ops ...token.Operator) ast.Expr {
	lhs := next()
	if lhs == nil {
		return nil
	}

	for p.cur == token.Op && containsOp(ops, p.lex.OpVal()) {
		op := p.lex.OpVal()
		p.nextToken()
		rhs := next()
		if rhs == nil {
			return nil
		}
		lhs = &ast.Binary{Op: op, Lhs: lhs, Rhs: rhs}
	}
	return lhs
}

func containsOp(ops []token.Operator, op token.Operator) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}
