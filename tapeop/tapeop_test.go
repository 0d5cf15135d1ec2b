package tapeop

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"tapeweb.org/tape"
	"tapeweb.org/tape/internal/cadata"
	"tapeweb.org/tape/internal/testutil"
)

func TestSymbols(t *testing.T) {
	t.Parallel()
	var text []byte
	for _, op := range All() {
		text = append(text, op.Symbol())
		op2, ok := FromSymbol(op.Symbol())
		require.True(t, ok)
		require.Equal(t, op, op2)
	}
	require.Equal(t, "><+-.,[]", string(text))

	for _, c := range []byte("abcXYZ0189 \n\t#") {
		_, ok := FromSymbol(c)
		require.False(t, ok, "%q", c)
	}
}

func TestString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "LoopEnd", LoopEnd.String())
	require.Equal(t, "Op(9)", Op(9).String())
	require.Equal(t, "+[->+<]", Program{CellInc, LoopStart, CellDec, PtrInc, CellInc, PtrDec, LoopEnd}.String())
}

func TestParseText(t *testing.T) {
	t.Parallel()
	p, err := ParseText([]byte("[-]."))
	require.NoError(t, err)
	require.Equal(t, Program{LoopStart, CellDec, LoopEnd, Output}, p)

	_, err = ParseText([]byte("[ -]"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	type testCase struct {
		Text string
		Err  error
	}
	tcs := []testCase{
		{Text: ""},
		{Text: "[]"},
		{Text: "[[]][]"},
		{Text: "+[>[-]<-]."},
		{Text: "]", Err: ErrUnbalancedLoopEnd{Addr: 0}},
		{Text: "[", Err: ErrUnbalancedLoopStart{Addr: 0}},
		{Text: "[]]", Err: ErrUnbalancedLoopEnd{Addr: 2}},
		{Text: "[[]", Err: ErrUnbalancedLoopStart{Addr: 0}},
		{Text: "[[[]", Err: ErrUnbalancedLoopStart{Addr: 1}},
	}
	for i, tc := range tcs {
		t.Run(fmt.Sprintf("%d/%q", i, tc.Text), func(t *testing.T) {
			p, err := ParseText([]byte(tc.Text))
			require.NoError(t, err)
			err = p.Validate()
			if tc.Err == nil {
				require.NoError(t, err)
			} else {
				require.Equal(t, tc.Err, err)
			}
		})
	}
}

func TestPostLoad(t *testing.T) {
	ctx := testutil.Context(t)
	s := testutil.NewStore(t)
	p := Program{CellInc, CellInc, LoopStart, CellDec, LoopEnd, Output}

	cid, err := Post(ctx, s, p)
	require.NoError(t, err)
	require.Equal(t, p.ContentID(), cid)

	p2, err := Load(ctx, s, cid)
	require.NoError(t, err)
	require.Equal(t, p, p2)

	missing := tape.Hash([]byte("+"))
	_, err = Load(ctx, s, missing)
	require.True(t, errors.As(err, &cadata.ErrNotFound{}))
}

func TestPostEmpty(t *testing.T) {
	ctx := testutil.Context(t)
	var posted [][]byte
	cid, err := Post(ctx, posterFunc(func(data []byte) (cadata.ID, error) {
		posted = append(posted, data)
		return tape.Hash(data), nil
	}), Program{})
	require.NoError(t, err)
	require.Equal(t, tape.Hash(nil), cid)
	require.Len(t, posted, 1)
	require.NotNil(t, posted[0])
	require.Empty(t, posted[0])
}

type posterFunc func([]byte) (cadata.ID, error)

func (f posterFunc) Post(_ context.Context, data []byte) (cadata.ID, error) {
	return f(data)
}
