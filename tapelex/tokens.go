package tapelex

import (
	"fmt"

	"tapeweb.org/tape/tapeop"
)

// Pos is a byte offset within the source.
type Pos uint32

// Token is a recognized symbol in the source.
type Token struct {
	op  tapeop.Op
	eof bool
	pos Pos
}

// Op returns the instruction for the token.
// It is meaningless for the EOF token.
func (tok Token) Op() tapeop.Op { return tok.op }

// Pos returns the offset of the symbol in the source.
// For the EOF token it is the length of the source.
func (tok Token) Pos() Pos { return tok.pos }

func (tok Token) IsEOF() bool { return tok.eof }

func (tok Token) String() string {
	if tok.eof {
		return "EOF"
	}
	return fmt.Sprintf("%q@%d", tok.op.Symbol(), tok.pos)
}

func mkTok(op tapeop.Op, pos Pos) Token {
	return Token{op: op, pos: pos}
}
