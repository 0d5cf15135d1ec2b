package stores

import (
	"context"
	"io"

	"go.brendoncarroll.net/state"
	"go.brendoncarroll.net/state/kv"

	"tapeweb.org/tape/internal/cadata"
)

var (
	_ cadata.Store  = &Mem{}
	_ cadata.Lister = &Mem{}
)

// Mem is an in-memory content addressed store.
type Mem struct {
	hf      cadata.HashFunc
	maxSize int
	kv      *kv.MemStore[cadata.ID, []byte]
}

func NewMem(hf cadata.HashFunc, maxSize int) *Mem {
	return &Mem{
		kv: kv.NewMemStore[cadata.ID, []byte](func(a, b cadata.ID) int {
			return a.Compare(b)
		}),
		hf:      hf,
		maxSize: maxSize,
	}
}

func (s *Mem) Post(ctx context.Context, data []byte) (cadata.ID, error) {
	if len(data) > s.maxSize {
		return cadata.ID{}, cadata.ErrTooLarge
	}
	id := s.hf(data)
	if err := s.kv.Put(ctx, id, append([]byte{}, data...)); err != nil {
		return cadata.ID{}, err
	}
	return id, nil
}

func (s *Mem) Get(ctx context.Context, id *cadata.ID, buf []byte) (int, error) {
	data, err := kv.Get(ctx, s.kv, *id)
	if err != nil {
		if state.IsErrNotFound[cadata.ID](err) {
			return 0, cadata.ErrNotFound{Key: id}
		}
		return 0, err
	}
	if len(data) > len(buf) {
		return 0, io.ErrShortBuffer
	}
	return copy(buf, data), nil
}

func (s *Mem) Exists(ctx context.Context, id *cadata.ID) (bool, error) {
	return s.kv.Exists(ctx, *id)
}

func (s *Mem) Delete(ctx context.Context, id *cadata.ID) error {
	return s.kv.Delete(ctx, *id)
}

func (s *Mem) List(ctx context.Context, span cadata.Span, ids []cadata.ID) (int, error) {
	return s.kv.List(ctx, span, ids)
}

func (s *Mem) All() (ret []cadata.ID) {
	kv.ForEach(context.TODO(), s.kv, state.TotalSpan[cadata.ID](), func(i cadata.ID) error {
		ret = append(ret, i)
		return nil
	})
	return ret
}

func (s *Mem) Len() int {
	return s.kv.Len()
}

func (s *Mem) MaxSize() int {
	return s.maxSize
}
