package tvm1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tapeweb.org/tape"
	"tapeweb.org/tape/internal/testutil"
	"tapeweb.org/tape/tapelex"
	"tapeweb.org/tape/tapeop"
)

func TestVM(t *testing.T) {
	t.Parallel()
	type testCase struct {
		Name  string
		Setup func(t testing.TB, vm *VM)
		Src   string
		In    string

		Out  string
		DP   int
		Cell byte
		Err  error
	}
	tcs := []testCase{
		{
			Name: "Empty",
		},
		{
			Name: "Bang",
			Src:  strings.Repeat("+", 33) + strings.Repeat(".", 5),
			Out:  "!!!!!",
			Cell: 33,
		},
		{
			Name: "CellDec wraps",
			Src:  "-",
			Cell: 255,
		},
		{
			Name: "CellInc wraps",
			Setup: func(t testing.TB, vm *VM) {
				vm.tape[0] = 255
			},
			Src:  "+",
			Cell: 0,
		},
		{
			Name: "PtrDec wraps",
			Src:  "<+",
			DP:   tape.SmallTapeSize - 1,
			Cell: 1,
		},
		{
			Name: "PtrInc wraps",
			Setup: func(t testing.TB, vm *VM) {
				vm.dp = tape.SmallTapeSize - 1
			},
			Src:  ">+",
			DP:   0,
			Cell: 1,
		},
		{
			Name: "Skip loop",
			Src:  "[.]+",
			Cell: 1,
		},
		{
			Name: "Clear",
			Src:  "+++++[-]",
			Cell: 0,
		},
		{
			Name: "Move",
			Src:  "+++[->++<]>",
			DP:   1,
			Cell: 6,
		},
		{
			Name: "Nested",
			Src:  "++[>++[>+++<-]<-]>>.",
			DP:   2,
			Cell: 12,
			Out:  "\x0c",
		},
		{
			Name: "Echo",
			Src:  ",.,.,.",
			In:   "abc",
			Out:  "abc",
			Cell: 'c',
		},
		{
			Name: "Cat until zero",
			Src:  ",[.,]",
			In:   "hi\x00ignored",
			Out:  "hi",
		},
		{
			Name: "Hello",
			Src:  `++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++.`,
			Out:  "Hello World!\n",
			DP:   6,
			Cell: 10,
		},
		{
			Name: "Input exhausted",
			Src:  "+,",
			Cell: 1,
			Err:  ErrInputExhausted{Addr: 1},
		},
		{
			Name: "Lone LoopEnd",
			Src:  "]",
			Err:  ErrUnbalancedLoopEnd{Addr: 0},
		},
		{
			Name: "Lone LoopStart",
			Src:  "[",
			Err:  ErrUnbalancedLoopStart{Addr: 0},
		},
		{
			Name: "Unmatched LoopEnd is lazy",
			Src:  "+.]",
			Out:  "\x01",
			Cell: 1,
			Err:  ErrUnbalancedLoopEnd{Addr: 2},
		},
		{
			Name: "Unmatched LoopStart over non-zero cell",
			Src:  "+[",
			Cell: 1,
			Err:  ErrUnbalancedLoopStart{Addr: 1},
		},
		{
			Name: "Unmatched inner LoopEnd",
			Src:  "+[-]]",
			Err:  ErrUnbalancedLoopEnd{Addr: 4},
		},
	}

	for i, tc := range tcs {
		t.Run(fmt.Sprintf("%d/%s", i, tc.Name), func(t *testing.T) {
			ctx := testutil.Context(t)
			out := bytes.Buffer{}
			vm := New(tape.SmallTapeSize, Ports(strings.NewReader(tc.In), &out))
			prog := tapelex.TranslateString(tc.Src)
			vm.SetProg(prog)
			if tc.Setup != nil {
				tc.Setup(t, vm)
			}
			stepsTaken := vm.Run(ctx, 1e6)
			t.Log("steps taken:", stepsTaken)
			require.True(t, vm.Halted())
			if tc.Err != nil {
				require.Equal(t, tc.Err, vm.Err())
			} else {
				require.NoError(t, vm.Err())
				require.Equal(t, len(prog), vm.InstructionPointer())
			}
			require.Equal(t, tc.Out, out.String())
			require.Equal(t, tc.DP, vm.DataPointer())
			require.Equal(t, tc.Cell, vm.Cell(vm.DataPointer()))
		})
	}
}

func TestFaultStopsMachine(t *testing.T) {
	t.Parallel()
	out := bytes.Buffer{}
	vm := New(8, Ports(nil, &out))
	err := vm.Exec(context.TODO(), tapeop.Program{tapeop.CellInc, tapeop.LoopEnd, tapeop.Output})
	require.Equal(t, ErrUnbalancedLoopEnd{Addr: 1}, err)
	require.Equal(t, 1, vm.InstructionPointer())
	require.Equal(t, uint64(2), vm.Steps())
	require.Empty(t, out.String())
	// Run does nothing once the machine has faulted.
	require.Equal(t, uint64(0), vm.Run(context.TODO(), 10))
}

func TestExec(t *testing.T) {
	ctx := testutil.Context(t)
	out := bytes.Buffer{}
	vm := New(tape.DefaultTapeSize, Ports(nil, &out))
	require.NoError(t, vm.Exec(ctx, tapelex.TranslateString("++++++++[>++++<-]>+.")))
	require.Equal(t, "!", out.String())
	require.Equal(t, uint64(76), vm.Steps())

	// Exec starts from a fresh machine each time.
	out.Reset()
	require.NoError(t, vm.Exec(ctx, tapelex.TranslateString(">.")))
	require.Equal(t, "\x00", out.String())
	require.Equal(t, 1, vm.DataPointer())
}

func TestRunBounded(t *testing.T) {
	ctx := testutil.Context(t)
	vm := New(16, PortBackend{})
	vm.SetProg(tapelex.TranslateString("+[]"))
	require.Equal(t, uint64(100), vm.Run(ctx, 100))
	require.False(t, vm.Halted())
	require.Equal(t, uint64(100), vm.Run(ctx, 100))
	require.Equal(t, uint64(200), vm.Steps())
	require.NoError(t, vm.Err())
}

func TestCellIncClosure(t *testing.T) {
	t.Parallel()
	ctx := context.TODO()
	prog := make(tapeop.Program, 256)
	for i := range prog {
		prog[i] = tapeop.CellInc
	}
	for v := 0; v < 256; v++ {
		vm := New(1, PortBackend{})
		vm.tape[0] = byte(v)
		vm.SetProg(prog)
		vm.Run(ctx, 1e3)
		require.NoError(t, vm.Err())
		require.Equal(t, byte(v), vm.Cell(0))
	}
}

func TestPointerClosure(t *testing.T) {
	t.Parallel()
	ctx := context.TODO()
	progs := []tapeop.Program{
		{tapeop.PtrDec, tapeop.PtrInc},
		{tapeop.PtrInc, tapeop.PtrDec},
	}
	// 300 is not a power of two
	for _, n := range []int{1, 2, tape.SmallTapeSize, 300} {
		for p := 0; p < n; p++ {
			for _, prog := range progs {
				vm := New(n, PortBackend{})
				vm.dp = p
				vm.SetProg(prog)
				vm.Run(ctx, 10)
				require.NoError(t, vm.Err())
				require.Equal(t, p, vm.DataPointer(), "n=%d p=%d prog=%v", n, p, prog)
			}
		}
	}
}

func TestPtrDecNonPowerOfTwo(t *testing.T) {
	t.Parallel()
	vm := New(300, PortBackend{})
	require.NoError(t, vm.Exec(context.TODO(), tapelex.TranslateString("<")))
	require.Equal(t, 299, vm.DataPointer())
}

func TestOutputFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	vm := New(4, PortBackend{
		Output: func(ctx context.Context, b byte) error { return boom },
	})
	err := vm.Exec(context.TODO(), tapelex.TranslateString("+."))
	require.ErrorIs(t, err, boom)
	require.Equal(t, ErrOutput{Addr: 1, Err: boom}, err)
	require.Equal(t, 1, vm.InstructionPointer())
}

func TestInputFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	vm := New(4, PortBackend{
		Input: func(ctx context.Context) (byte, error) { return 0, boom },
	})
	err := vm.Exec(context.TODO(), tapelex.TranslateString(","))
	require.ErrorIs(t, err, boom)
	require.True(t, errors.As(err, &ErrInputExhausted{}))
}

func TestInputReadsOneByte(t *testing.T) {
	t.Parallel()
	// Reader without ReadByte, the port must not read ahead.
	r := io.MultiReader(strings.NewReader("xyz"))
	out := bytes.Buffer{}
	vm := New(4, Ports(r, &out))
	require.NoError(t, vm.Exec(context.TODO(), tapelex.TranslateString(",.")))
	require.Equal(t, "x", out.String())
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "yz", string(rest))
}

func TestNilPorts(t *testing.T) {
	t.Parallel()
	vm := New(4, PortBackend{})
	require.NoError(t, vm.Exec(context.TODO(), tapelex.TranslateString("+.")))
	err := vm.Exec(context.TODO(), tapelex.TranslateString(","))
	require.Equal(t, ErrInputExhausted{Addr: 0}, err)
}

func TestRunSource(t *testing.T) {
	ctx := testutil.Context(t)
	out := bytes.Buffer{}
	src := []byte("swap two bytes ,>,.<.")
	require.NoError(t, RunSource(ctx, src, strings.NewReader("ab"), &out, tape.DefaultTapeSize))
	require.Equal(t, "ba", out.String())
}

func BenchmarkHello(b *testing.B) {
	prog := tapelex.TranslateString(`++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++.`)
	vm := New(tape.DefaultTapeSize, PortBackend{})
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := vm.Exec(ctx, prog); err != nil {
			b.Fatal(err)
		}
	}
}
