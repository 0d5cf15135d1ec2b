package tvm1

import (
	"context"
	"io"
)

type (
	// InputFunc produces one byte, or io.EOF if the source is exhausted.
	InputFunc = func(ctx context.Context) (byte, error)
	// OutputFunc consumes one byte.
	OutputFunc = func(ctx context.Context, b byte) error
)

// PortBackend connects the VM to the outside world.
// A nil Input is an empty source. A nil Output discards.
type PortBackend struct {
	Input  InputFunc
	Output OutputFunc
}

// Ports returns a PortBackend reading from in and writing to out.
// Either may be nil.
func Ports(in io.Reader, out io.Writer) PortBackend {
	var pb PortBackend
	if in != nil {
		pb.Input = ReaderPort(in)
	}
	if out != nil {
		pb.Output = WriterPort(out)
	}
	return pb
}

// ReaderPort returns an InputFunc which reads a single byte from r per call.
// Nothing is read ahead of the machine.
func ReaderPort(r io.Reader) InputFunc {
	if br, ok := r.(io.ByteReader); ok {
		return func(context.Context) (byte, error) {
			return br.ReadByte()
		}
	}
	var buf [1]byte
	return func(context.Context) (byte, error) {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return buf[0], nil
	}
}

// WriterPort returns an OutputFunc which writes each byte to w as it is produced.
func WriterPort(w io.Writer) OutputFunc {
	if bw, ok := w.(io.ByteWriter); ok {
		return func(_ context.Context, b byte) error {
			return bw.WriteByte(b)
		}
	}
	var buf [1]byte
	return func(_ context.Context, b byte) error {
		buf[0] = b
		_, err := w.Write(buf[:])
		return err
	}
}

func (vm *VM) output() {
	if vm.port.Output == nil {
		return
	}
	if err := vm.port.Output(vm.ctx, vm.tape[vm.dp]); err != nil {
		vm.fail(ErrOutput{Addr: vm.ip, Err: err})
	}
}

func (vm *VM) input() {
	if vm.port.Input == nil {
		vm.fail(ErrInputExhausted{Addr: vm.ip})
		return
	}
	b, err := vm.port.Input(vm.ctx)
	switch {
	case err == io.EOF:
		vm.fail(ErrInputExhausted{Addr: vm.ip})
	case err != nil:
		vm.fail(ErrInputExhausted{Addr: vm.ip, Err: err})
	default:
		vm.tape[vm.dp] = b
	}
}
