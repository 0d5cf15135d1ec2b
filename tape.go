package tape

import (
	"lukechampine.com/blake3"

	"tapeweb.org/tape/internal/cadata"
)

const (
	// DefaultTapeSize is the number of cells on a tape when no size is given.
	DefaultTapeSize = 32768
	// SmallTapeSize is the tape size used by early versions of the machine.
	SmallTapeSize = 256

	// MaxProgramSize is the largest program source, in bytes, that will be stored.
	MaxProgramSize = 1 << 22
)

type (
	// CID is a Content ID
	CID = cadata.ID

	Store   = cadata.Store
	Getter  = cadata.Getter
	Poster  = cadata.Poster
	Exister = cadata.Exister
)

// Hash calculates the BLAKE3-256 hash of x.
// Programs are identified by the Hash of their canonical text.
func Hash(x []byte) cadata.ID {
	return blake3.Sum256(x)
}
