package tvm1

import (
	"context"
	"io"

	"tapeweb.org/tape/tapelex"
)

// RunSource translates src and executes it on a fresh VM with a tape of tapeSize cells.
// Input is read from in, and output is written to out.
func RunSource(ctx context.Context, src []byte, in io.Reader, out io.Writer, tapeSize int) error {
	prog := tapelex.Translate(src)
	vm := New(tapeSize, Ports(in, out))
	return vm.Exec(ctx, prog)
}
