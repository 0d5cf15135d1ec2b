package stores

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"

	"tapeweb.org/tape/internal/cadata"
)

func hash(x []byte) cadata.ID {
	return blake3.Sum256(x)
}

func TestMem(t *testing.T) {
	ctx := context.Background()
	s := NewMem(hash, 16)

	id, err := s.Post(ctx, []byte("+++."))
	require.NoError(t, err)
	require.Equal(t, hash([]byte("+++.")), id)
	require.Equal(t, 1, s.Len())

	buf := make([]byte, s.MaxSize())
	n, err := s.Get(ctx, &id, buf)
	require.NoError(t, err)
	require.Equal(t, "+++.", string(buf[:n]))

	_, err = s.Get(ctx, &id, buf[:2])
	require.ErrorIs(t, err, io.ErrShortBuffer)

	yes, err := s.Exists(ctx, &id)
	require.NoError(t, err)
	require.True(t, yes)
	require.Equal(t, []cadata.ID{id}, s.All())

	require.NoError(t, s.Delete(ctx, &id))
	_, err = s.Get(ctx, &id, buf)
	require.True(t, cadata.IsNotFound(err))
	require.Equal(t, 0, s.Len())
}

func TestMemTooLarge(t *testing.T) {
	ctx := context.Background()
	s := NewMem(hash, 4)
	_, err := s.Post(ctx, []byte("+++++"))
	require.ErrorIs(t, err, cadata.ErrTooLarge)
}
