package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical textual rendering of the tree. Every binary expression is fully
// parenthesized and every unary operand is wrapped, so a printed definition
// parses back to a structurally identical tree regardless of precedence.

func (f *FunDef) String() string {
	return fmt.Sprintf("%s(%s) %s", f.Name, strings.Join(f.Args, ", "), f.Body)
}

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for _, stmt := range b.Stmts {
		fmt.Fprintf(&sb, " %s", stmt)
	}
	sb.WriteString(" }")
	return sb.String()
}

func (d *Define) String() string { return fmt.Sprintf("%s := %s", d.Name, d.Expr) }

func (a *Assign) String() string { return fmt.Sprintf("%s = %s", a.Name, a.Expr) }

func (i *If) String() string {
	if i.ElseThen == nil {
		return fmt.Sprintf("if %s %s", i.Cond, i.Then)
	}
	return fmt.Sprintf("if %s %s else %s", i.Cond, i.Then, i.ElseThen)
}

func (r *Return) String() string { return fmt.Sprintf("return %s", r.Expr) }

func (b *Binary) String() string { return fmt.Sprintf("(%s %s %s)", b.Lhs, b.Op, b.Rhs) }

func (u *Unary) String() string { return fmt.Sprintf("%s(%s)", u.Op, u.Opr) }

func (c *FunCall) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

func (i *Int) String() string { return strconv.FormatInt(int64(i.Value), 10) }

func (i *Id) String() string { return i.Name }
