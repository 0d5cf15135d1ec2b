// package tvm1 contains an implementation of the tape machine.
//
// A VM owns a fixed size tape of byte cells, a data pointer into the tape,
// and an instruction pointer into the loaded program.
// Loop boundaries are matched by scanning the program each time one is crossed.
package tvm1

import (
	"context"
	"fmt"
	"math"

	"tapeweb.org/tape/tapeop"
)

type (
	Op      = tapeop.Op
	Program = tapeop.Program
)

type VM struct {
	tape []byte
	dp   int

	prog  Program
	ip    int
	steps uint64

	err  error
	ctx  context.Context
	port PortBackend
}

// New creates a VM with a tape of tapeSize cells, all 0.
// port is where the VM reads Input and writes Output.
func New(tapeSize int, port PortBackend) *VM {
	if tapeSize <= 0 {
		panic(fmt.Sprintf("tvm1: tape size must be positive, have %d", tapeSize))
	}
	return &VM{
		tape: make([]byte, tapeSize),
		port: port,
	}
}

// Reset clears the tape and both pointers, and unloads the program.
func (vm *VM) Reset() {
	clear(vm.tape)
	vm.dp = 0
	vm.prog = nil
	vm.ip = 0
	vm.steps = 0
	vm.err = nil
}

// SetProg loads prog and moves the instruction pointer to its start.
// The tape is not changed.
func (vm *VM) SetProg(prog Program) {
	vm.prog = prog
	vm.ip = 0
	vm.err = nil
}

// Run executes the VM for a maximum of maxSteps.
// The number of steps taken is returned.
// If Run returns 0, then nothing happened and the machine has halted.
func (vm *VM) Run(ctx context.Context, maxSteps uint64) (steps uint64) {
	vm.ctx = ctx
	defer func() { vm.ctx = nil }()
	defer func() { vm.steps += steps }()

	for i := uint64(0); i < maxSteps; i++ {
		if !vm.isAlive() {
			return i
		}
		vm.step(vm.prog[vm.ip])
		if vm.err != nil {
			// ip stays on the faulting instruction
			return i + 1
		}
		// loop jumps leave ip on the matching boundary, so this always applies.
		vm.ip++
	}
	return maxSteps
}

// Exec resets the VM, loads prog and runs it to completion.
// The returned error is the fault that stopped the machine, if any.
func (vm *VM) Exec(ctx context.Context, prog Program) error {
	vm.Reset()
	vm.SetProg(prog)
	for vm.Run(ctx, math.MaxUint64) > 0 {
	}
	return vm.Err()
}

func (vm *VM) step(op Op) {
	switch op {
	case tapeop.PtrInc:
		vm.dp = (vm.dp + 1) % len(vm.tape)
	case tapeop.PtrDec:
		vm.dp = (vm.dp + len(vm.tape) - 1) % len(vm.tape)
	case tapeop.CellInc:
		vm.tape[vm.dp]++
	case tapeop.CellDec:
		vm.tape[vm.dp]--
	case tapeop.Output:
		vm.output()
	case tapeop.Input:
		vm.input()
	// Both boundaries are matched whether or not the jump is taken,
	// so an unbalanced bracket faults the first time it is executed.
	case tapeop.LoopStart:
		end, err := FindLoopEnd(vm.prog, vm.ip)
		if err != nil {
			vm.fail(err)
		} else if vm.tape[vm.dp] == 0 {
			vm.ip = end
		}
	case tapeop.LoopEnd:
		start, err := FindLoopStart(vm.prog, vm.ip)
		if err != nil {
			vm.fail(err)
		} else if vm.tape[vm.dp] != 0 {
			vm.ip = start
		}
	default:
		vm.fail(fmt.Errorf("invalid instruction %v at %d", op, vm.ip))
	}
}

func (vm *VM) isAlive() bool {
	return vm.ip < len(vm.prog) && vm.err == nil
}

func (vm *VM) fail(err error) {
	vm.err = err
}

// Err returns the fault which stopped the machine, or nil.
func (vm *VM) Err() error {
	return vm.err
}

// Halted returns true if the machine will not execute any more instructions.
func (vm *VM) Halted() bool {
	return !vm.isAlive()
}

// Steps returns the number of instructions executed since the last Reset
func (vm *VM) Steps() uint64 {
	return vm.steps
}

func (vm *VM) DataPointer() int {
	return vm.dp
}

func (vm *VM) InstructionPointer() int {
	return vm.ip
}

// Cell returns the value of the cell at i.
func (vm *VM) Cell(i int) byte {
	return vm.tape[i]
}
