// Package token enumerates the lexical categories of the firststep
// language: keywords, operators, and the tagged Token variant the lexer
// streams to the parser.
package token

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the firststep token catalogue.
//
// A Token is a tagged variant: its Kind says which case is active, and the associated
// value (if any) lives on one of the lexer's side accessors rather than on the token
// itself, following the same one-token-of-lookahead discipline the parser is built on.

// Kind identifies which variant of Token is active.
type Kind int

const (
	Error Kind = iota // Lexical failure, already reported to the error sink
	End               // Input exhausted
	Id                // Identifier
	Integer           // Integer literal
	Key               // One of the reserved words below
	Op                // One of the operators below
	Other             // Any single character that is none of the above
)

func (k Kind) String() string {
	switch k {
	case Error:
		return "Error"
	case End:
		return "End"
	case Id:
		return "Id"
	case Integer:
		return "Integer"
	case Key:
		return "Keyword"
	case Op:
		return "Operator"
	case Other:
		return "Other"
	default:
		return "Unknown"
	}
}

// ----------------------------------------------------------------------------
// Keywords

// Keyword is the enum of reserved words recognized by the lexer.
type Keyword int

const (
	If Keyword = iota
	Else
	Return
)

// Keywords maps each reserved word to its literal spelling, in declaration order.
// The lexer looks up an identifier's spelling against this table to decide whether
// it is a plain Id or one of these Keyword(s).
var Keywords = []struct {
	Kind    Keyword
	Literal string
}{
	{If, "if"},
	{Else, "else"},
	{Return, "return"},
}

// ----------------------------------------------------------------------------
// Operators

// Operator is the enum of operators recognized by the lexer.
type Operator int

const (
	Add Operator = iota
	Sub
	Mul
	Div
	Mod
	Less
	LessEq
	Eq
	NotEq
	LAnd
	LOr
	LNot
	Define
	Assign
)

// String returns the operator's literal spelling.
func (op Operator) String() string {
	for _, o := range Operators {
		if o.Kind == op {
			return o.Literal
		}
	}
	return "?"
}

// Operators maps each operator to its literal spelling. The lexer's maximal-munch
// lookup matches a whole run of operator characters against this table, so the
// order of entries does not matter and prefixes (e.g. "<" vs "<=") never shadow
// each other.
var Operators = []struct {
	Kind    Operator
	Literal string
}{
	{Add, "+"}, {Sub, "-"}, {Mul, "*"}, {Div, "/"}, {Mod, "%"},
	{Less, "<"}, {LessEq, "<="}, {Eq, "=="}, {NotEq, "!="},
	{LAnd, "&&"}, {LOr, "||"}, {LNot, "!"}, {Define, ":="}, {Assign, "="},
}

// OperatorChars is the maximal set of characters that can appear in an operator
// run; the lexer consumes a maximal run of these before validating it as a whole
// against the Operators table.
const OperatorChars = "+-*/%<=!&|:"
