package tvm1

import (
	"fmt"

	"tapeweb.org/tape/tapeop"
)

// FindLoopEnd returns the address of the LoopEnd matching the LoopStart at start.
// The program is scanned forward from start+1, counting nested LoopStarts.
//
// Nothing is cached. Every call costs a scan of the loop body.
// TODO: a one time pass building a table of matching addresses would make each crossing O(1).
func FindLoopEnd(prog Program, start int) (int, error) {
	if prog[start] != tapeop.LoopStart {
		panic(fmt.Sprintf("FindLoopEnd: %v at %d is not LoopStart", prog[start], start))
	}
	depth := 0
	for addr := start + 1; addr < len(prog); addr++ {
		switch prog[addr] {
		case tapeop.LoopStart:
			depth++
		case tapeop.LoopEnd:
			if depth == 0 {
				return addr, nil
			}
			depth--
		}
	}
	return 0, ErrUnbalancedLoopStart{Addr: start}
}

// FindLoopStart returns the address of the LoopStart matching the LoopEnd at end.
// The program is scanned backward from end-1 to 0, counting nested LoopEnds.
func FindLoopStart(prog Program, end int) (int, error) {
	if prog[end] != tapeop.LoopEnd {
		panic(fmt.Sprintf("FindLoopStart: %v at %d is not LoopEnd", prog[end], end))
	}
	depth := 0
	for addr := end - 1; addr >= 0; addr-- {
		switch prog[addr] {
		case tapeop.LoopEnd:
			depth++
		case tapeop.LoopStart:
			if depth == 0 {
				return addr, nil
			}
			depth--
		}
	}
	return 0, ErrUnbalancedLoopEnd{Addr: end}
}
