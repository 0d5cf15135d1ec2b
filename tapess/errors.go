package tapess

import (
	"fmt"

	"tapeweb.org/tape"
)

type ErrProgramNotFound struct {
	ID tape.CID
}

func (e ErrProgramNotFound) Error() string {
	return fmt.Sprintf("program %v not found", e.ID)
}

// ErrStepLimit is returned when a run uses all of its steps without halting.
type ErrStepLimit struct {
	Steps uint64
}

func (e ErrStepLimit) Error() string {
	return fmt.Sprintf("program did not halt within %d steps", e.Steps)
}
