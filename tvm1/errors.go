package tvm1

import (
	"fmt"

	"tapeweb.org/tape/tapeop"
)

type (
	ErrUnbalancedLoopStart = tapeop.ErrUnbalancedLoopStart
	ErrUnbalancedLoopEnd   = tapeop.ErrUnbalancedLoopEnd
)

// ErrInputExhausted is returned when an Input instruction has no byte to read.
// Err is set if the source failed with something other than io.EOF.
type ErrInputExhausted struct {
	Addr int
	Err  error
}

func (e ErrInputExhausted) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input exhausted at %d: %v", e.Addr, e.Err)
	}
	return fmt.Sprintf("input exhausted at %d", e.Addr)
}

func (e ErrInputExhausted) Unwrap() error {
	return e.Err
}

// ErrOutput is returned when the output sink rejects a byte.
type ErrOutput struct {
	Addr int
	Err  error
}

func (e ErrOutput) Error() string {
	return fmt.Sprintf("output failed at %d: %v", e.Addr, e.Err)
}

func (e ErrOutput) Unwrap() error {
	return e.Err
}
