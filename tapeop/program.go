package tapeop

import (
	"context"
	"fmt"
	"sync"

	"tapeweb.org/tape"
	"tapeweb.org/tape/internal/cadata"
)

// Program is an ordered sequence of Ops.
// The index of an Op is its address.
type Program []Op

// String returns the canonical text of the program, one symbol per Op.
func (p Program) String() string {
	return string(p.AppendText(nil))
}

// AppendText appends the canonical text of p to out.
func (p Program) AppendText(out []byte) []byte {
	for _, op := range p {
		out = append(out, op.Symbol())
	}
	return out
}

// ParseText parses canonical text.
// Unlike translation from source, every byte must be a symbol.
func ParseText(x []byte) (Program, error) {
	ret := make(Program, len(x))
	for i, c := range x {
		op, ok := FromSymbol(c)
		if !ok {
			return nil, fmt.Errorf("tapeop: invalid symbol %q at %d", c, i)
		}
		ret[i] = op
	}
	return ret, nil
}

// ContentID returns the ID of the program's canonical text.
func (p Program) ContentID() tape.CID {
	return tape.Hash(p.AppendText(nil))
}

// Validate checks that every loop boundary has a match.
// It reports the first unmatched LoopEnd in address order, or else the
// innermost unmatched LoopStart.
// The machine does not call Validate, it discovers mismatches as it runs.
func (p Program) Validate() error {
	var opens []int
	for i, op := range p {
		switch op {
		case LoopStart:
			opens = append(opens, i)
		case LoopEnd:
			if len(opens) == 0 {
				return ErrUnbalancedLoopEnd{Addr: i}
			}
			opens = opens[:len(opens)-1]
		}
	}
	if len(opens) > 0 {
		return ErrUnbalancedLoopStart{Addr: opens[len(opens)-1]}
	}
	return nil
}

// Post writes the canonical text of p to s.
func Post(ctx context.Context, s cadata.Poster, p Program) (tape.CID, error) {
	if len(p) > tape.MaxProgramSize {
		return tape.CID{}, cadata.ErrTooLarge
	}
	return s.Post(ctx, p.AppendText(make([]byte, 0, len(p))))
}

// Load reads the program with ID cid from s.
func Load(ctx context.Context, s cadata.Getter, cid tape.CID) (Program, error) {
	buf := acquireBuffer()
	defer releaseBuffer(buf)
	n, err := s.Get(ctx, &cid, buf[:])
	if err != nil {
		return nil, err
	}
	data := buf[:n]
	if err := cadata.Check(tape.Hash, &cid, data); err != nil {
		return nil, err
	}
	return ParseText(data)
}

var bufPool = sync.Pool{
	New: func() any {
		return new([tape.MaxProgramSize]byte)
	},
}

func acquireBuffer() *[tape.MaxProgramSize]byte {
	return bufPool.Get().(*[tape.MaxProgramSize]byte)
}

func releaseBuffer(x *[tape.MaxProgramSize]byte) {
	bufPool.Put(x)
}
