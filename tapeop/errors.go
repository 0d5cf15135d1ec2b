package tapeop

import "fmt"

// ErrUnbalancedLoopStart is returned when a LoopStart has no matching LoopEnd
// before the end of the program.
type ErrUnbalancedLoopStart struct {
	Addr int
}

func (e ErrUnbalancedLoopStart) Error() string {
	return fmt.Sprintf("unbalanced brackets: no matching ] for [ at %d", e.Addr)
}

// ErrUnbalancedLoopEnd is returned when a LoopEnd has no matching LoopStart
// at or after address 0.
type ErrUnbalancedLoopEnd struct {
	Addr int
}

func (e ErrUnbalancedLoopEnd) Error() string {
	return fmt.Sprintf("unbalanced brackets: no matching [ for ] at %d", e.Addr)
}
