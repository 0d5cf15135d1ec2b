// package tapelex translates source text into instructions.
//
// Each of the 8 symbols maps to one instruction.
// Every other byte, including whitespace, is discarded.
package tapelex

import (
	"bufio"
	"bytes"
	"io"

	"tapeweb.org/tape/tapeop"
)

type Lexer struct {
	r   io.ByteReader
	off Pos
	err error
}

func NewLexer(r io.ByteReader) *Lexer {
	return &Lexer{r: r}
}

// Next returns the next recognized symbol.
// At the end of the input it returns the EOF token, and will continue to do so.
func (l *Lexer) Next() (Token, error) {
	if l.err != nil {
		if l.err == io.EOF {
			return Token{eof: true, pos: l.off}, nil
		}
		return Token{}, l.err
	}
	for {
		c, err := l.r.ReadByte()
		if err != nil {
			l.err = err
			return l.Next()
		}
		pos := l.off
		l.off++
		if op, ok := tapeop.FromSymbol(c); ok {
			return mkTok(op, pos), nil
		}
	}
}

// ReadAll reads tokens until EOF and appends their instructions to out.
func (l *Lexer) ReadAll(out tapeop.Program) (tapeop.Program, error) {
	for {
		tok, err := l.Next()
		if err != nil {
			return out, err
		}
		if tok.IsEOF() {
			return out, nil
		}
		out = append(out, tok.Op())
	}
}

// Translate returns the instructions for src, in source order.
// The result is sized to the instructions, not to src.
func Translate(src []byte) tapeop.Program {
	prog, err := NewLexer(bytes.NewReader(src)).ReadAll(nil)
	if err != nil {
		// bytes.Reader only returns io.EOF
		panic(err)
	}
	return prog
}

// TranslateString is Translate for a string.
func TranslateString(src string) tapeop.Program {
	return Translate([]byte(src))
}

// TranslateReader reads all of r and returns the instructions.
func TranslateReader(r io.Reader) (tapeop.Program, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return NewLexer(br).ReadAll(nil)
}
