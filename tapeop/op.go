// package tapeop defines the instruction set of the tape machine.
package tapeop

import "fmt"

// Op is a single instruction.
// Ops carry no operands.
type Op uint8

const (
	PtrInc Op = iota
	PtrDec
	CellInc
	CellDec
	Output
	Input
	LoopStart
	LoopEnd

	numOps = iota
)

var symbols = [numOps]byte{
	PtrInc:    '>',
	PtrDec:    '<',
	CellInc:   '+',
	CellDec:   '-',
	Output:    '.',
	Input:     ',',
	LoopStart: '[',
	LoopEnd:   ']',
}

var names = [numOps]string{
	PtrInc:    "PtrInc",
	PtrDec:    "PtrDec",
	CellInc:   "CellInc",
	CellDec:   "CellDec",
	Output:    "Output",
	Input:     "Input",
	LoopStart: "LoopStart",
	LoopEnd:   "LoopEnd",
}

var fromSymbol = func() (ret [256]int8) {
	for i := range ret {
		ret[i] = -1
	}
	for op, sym := range symbols {
		ret[sym] = int8(op)
	}
	return ret
}()

// All returns every Op in order.
func All() []Op {
	ret := make([]Op, numOps)
	for i := range ret {
		ret[i] = Op(i)
	}
	return ret
}

// FromSymbol returns the Op for the source symbol c.
// ok is false if c is not one of the 8 symbols.
func FromSymbol(c byte) (op Op, ok bool) {
	x := fromSymbol[c]
	if x < 0 {
		return 0, false
	}
	return Op(x), true
}

func (op Op) Valid() bool {
	return op < numOps
}

// Symbol returns the source symbol for op.
func (op Op) Symbol() byte {
	if !op.Valid() {
		panic(fmt.Sprintf("tapeop: invalid op %d", op))
	}
	return symbols[op]
}

func (op Op) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
	return names[op]
}
