// Package lexer streams characters from a reader into firststep tokens.
package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/its-hmny/firststep/pkg/token"
)

// ----------------------------------------------------------------------------
// Lexer

// Lexer consumes a character stream and produces one Token at a time via
// NextToken. The value associated with the last returned token isn't
// carried on the Token itself: it's stashed on the Lexer and read back
// through the accessor methods below, so the parser can pick it up without
// an extra tagged-payload copy.
type Lexer struct {
	in       *bufio.Reader
	errs     io.Writer // error sink; when nil, diagnostics are dropped but still counted
	lastChar rune
	atEOF    bool
	errNum   int

	idVal    string
	intVal   int32
	keyVal   token.Keyword
	opVal    token.Operator
	otherVal rune
}

// New returns a Lexer reading from r, reporting lexical errors to errs.
func New(r io.Reader, errs io.Writer) *Lexer {
	l := &Lexer{in: bufio.NewReader(r), errs: errs, lastChar: ' '}
	return l
}

// ErrorCount returns the number of lexical errors reported so far.
func (l *Lexer) ErrorCount() int { return l.errNum }

// IDVal returns the identifier text of the last Id token.
func (l *Lexer) IDVal() string { return l.idVal }

// IntVal returns the value of the last Integer token.
func (l *Lexer) IntVal() int32 { return l.intVal }

// KeyVal returns the keyword of the last Keyword token.
func (l *Lexer) KeyVal() token.Keyword { return l.keyVal }

// OpVal returns the operator of the last Operator token.
func (l *Lexer) OpVal() token.Operator { return l.opVal }

// OtherVal returns the character of the last Other token.
func (l *Lexer) OtherVal() rune { return l.otherVal }

// ----------------------------------------------------------------------------
// Character-level helpers

func (l *Lexer) nextChar() {
	if l.atEOF {
		return
	}
	r, _, err := l.in.ReadRune()
	if err != nil {
		l.atEOF = true
		return
	}
	l.lastChar = r
}

func (l *Lexer) isEOL() bool { return l.lastChar == '\n' || l.lastChar == '\r' }

func isAlpha(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' }
func isOperatorChar(r rune) bool { return strings.ContainsRune(token.OperatorChars, r) }

// logError reports a one-line diagnostic to the error sink, increments the
// error counter and returns the distinguished Error token.
func (l *Lexer) logError(message string) token.Kind {
	if l.errs != nil {
		fmt.Fprintf(l.errs, "error(lexer): %s\n", message)
	}
	l.errNum++
	return token.Error
}

// ----------------------------------------------------------------------------
// Token handlers

func (l *Lexer) handleID() token.Kind {
	var sb strings.Builder
	for {
		sb.WriteRune(l.lastChar)
		l.nextChar()
		if l.atEOF || l.isEOL() || !(isAlpha(l.lastChar) || isDigit(l.lastChar) || l.lastChar == '_') {
			break
		}
	}

	word := sb.String()
	for _, kw := range token.Keywords {
		if kw.Literal == word {
			l.keyVal = kw.Kind
			return token.Key
		}
	}
	l.idVal = word
	return token.Id
}

func (l *Lexer) handleInteger() token.Kind {
	var sb strings.Builder
	for {
		sb.WriteRune(l.lastChar)
		l.nextChar()
		if l.atEOF || l.isEOL() || !isDigit(l.lastChar) {
			break
		}
	}

	num := sb.String()
	if len(num) > 1 && num[0] == '0' {
		return l.logError("invalid number")
	}

	v, err := strconv.ParseInt(num, 10, 32)
	if err != nil {
		return l.logError("invalid number")
	}
	l.intVal = int32(v)
	return token.Integer
}

func (l *Lexer) handleOperator() token.Kind {
	var sb strings.Builder
	for {
		sb.WriteRune(l.lastChar)
		l.nextChar()
		if l.atEOF || l.isEOL() || !isOperatorChar(l.lastChar) {
			break
		}
	}

	op := sb.String()
	for _, candidate := range token.Operators {
		if candidate.Literal == op {
			l.opVal = candidate.Kind
			return token.Op
		}
	}
	return l.logError("invalid operator")
}

func (l *Lexer) handleComment() token.Kind {
	l.nextChar() // eat '#'
	for !l.atEOF && !l.isEOL() {
		l.nextChar()
	}
	return l.NextToken()
}

func (l *Lexer) handleEOL() token.Kind {
	for {
		l.nextChar()
		if l.atEOF || !l.isEOL() {
			break
		}
	}
	return l.NextToken()
}

// NextToken returns the next token from the input stream. It always
// terminates: any byte sequence either yields a valid token or an Error
// token (with the error counter incremented), never an infinite loop.
func (l *Lexer) NextToken() token.Kind {
	if l.atEOF {
		return token.End
	}
	for !l.isEOL() && isSpace(l.lastChar) {
		l.nextChar()
		if l.atEOF {
			return token.End
		}
	}

	switch {
	case l.lastChar == '#':
		return l.handleComment()
	case isAlpha(l.lastChar) || l.lastChar == '_':
		return l.handleID()
	case isDigit(l.lastChar):
		return l.handleInteger()
	case isOperatorChar(l.lastChar):
		return l.handleOperator()
	case l.isEOL():
		return l.handleEOL()
	default:
		l.otherVal = l.lastChar
		l.nextChar()
		return token.Other
	}
}
