// package sqlstores implements a content addressed store in a sqlite table.
package sqlstores

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/jmoiron/sqlx"

	"tapeweb.org/tape/internal/cadata"
	"tapeweb.org/tape/tapess/internal/dbutil"
	"tapeweb.org/tape/tapess/internal/migrations"
)

var (
	_ cadata.Store  = &Store{}
	_ cadata.Lister = &Store{}
)

func Migration(x *migrations.State) *migrations.State {
	return x.
		ApplyStmt(`CREATE TABLE blobs (
		id BLOB NOT NULL,
		data BLOB NOT NULL,

		PRIMARY KEY(id)
	) WITHOUT ROWID, STRICT;`)
}

type txStore struct {
	tx      *sqlx.Tx
	hf      cadata.HashFunc
	maxSize int
}

// NewTxStore returns a store which operates within tx.
func NewTxStore(tx *sqlx.Tx, hf cadata.HashFunc, maxSize int) *txStore {
	return &txStore{
		tx:      tx,
		hf:      hf,
		maxSize: maxSize,
	}
}

func (s *txStore) Post(ctx context.Context, data []byte) (cadata.ID, error) {
	if len(data) > s.maxSize {
		return cadata.ID{}, cadata.ErrTooLarge
	}
	if data == nil {
		// a nil slice is written as NULL
		data = []byte{}
	}
	id := s.hf(data)
	if _, err := s.tx.ExecContext(ctx, `INSERT INTO blobs (id, data)
		VALUES (?, ?) ON CONFLICT DO NOTHING`, id[:], data); err != nil {
		return cadata.ID{}, err
	}
	return id, nil
}

func (s *txStore) Get(ctx context.Context, id *cadata.ID, buf []byte) (int, error) {
	var data []byte
	if err := s.tx.GetContext(ctx, &data, `SELECT data FROM blobs WHERE id = ?`, id[:]); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = cadata.ErrNotFound{Key: id}
		}
		return 0, err
	}
	if len(data) > len(buf) {
		return 0, io.ErrShortBuffer
	}
	return copy(buf, data), nil
}

func (s *txStore) Delete(ctx context.Context, id *cadata.ID) error {
	_, err := s.tx.ExecContext(ctx, `DELETE FROM blobs WHERE id = ?`, id[:])
	return err
}

func (s *txStore) Exists(ctx context.Context, id *cadata.ID) (bool, error) {
	var exists bool
	if err := s.tx.GetContext(ctx, &exists, `SELECT EXISTS(
		SELECT 1 FROM blobs WHERE id = ?
	)`, id[:]); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *txStore) List(ctx context.Context, span cadata.Span, ids []cadata.ID) (int, error) {
	begin := beginFromSpan(span)
	rows, err := s.tx.QueryContext(ctx, `SELECT id FROM blobs
		WHERE id >= ?
		ORDER BY id
		LIMIT ?
	`, begin[:], len(ids))
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int
	for rows.Next() && n < len(ids) {
		var buf []byte
		if err := rows.Scan(&buf); err != nil {
			return 0, err
		}
		ids[n] = cadata.IDFromBytes(buf)
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *txStore) MaxSize() int {
	return s.maxSize
}

// Store is a cadata.Store which runs each operation in its own transaction.
type Store struct {
	db      *sqlx.DB
	hf      cadata.HashFunc
	maxSize int
}

func NewStore(db *sqlx.DB, hf cadata.HashFunc, maxSize int) *Store {
	return &Store{db: db, hf: hf, maxSize: maxSize}
}

func (s *Store) Post(ctx context.Context, data []byte) (cadata.ID, error) {
	return dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (cadata.ID, error) {
		return s.txStore(tx).Post(ctx, data)
	})
}

func (s *Store) Get(ctx context.Context, id *cadata.ID, buf []byte) (int, error) {
	return dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (int, error) {
		return s.txStore(tx).Get(ctx, id, buf)
	})
}

func (s *Store) Delete(ctx context.Context, id *cadata.ID) error {
	return dbutil.DoTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.txStore(tx).Delete(ctx, id)
	})
}

func (s *Store) Exists(ctx context.Context, id *cadata.ID) (bool, error) {
	return dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (bool, error) {
		return s.txStore(tx).Exists(ctx, id)
	})
}

func (s *Store) List(ctx context.Context, span cadata.Span, ids []cadata.ID) (int, error) {
	return dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (int, error) {
		return s.txStore(tx).List(ctx, span, ids)
	})
}

func (s *Store) MaxSize() int {
	return s.maxSize
}

func (s *Store) txStore(tx *sqlx.Tx) *txStore {
	return NewTxStore(tx, s.hf, s.maxSize)
}

func beginFromSpan(x cadata.Span) cadata.ID {
	lb, ok := x.LowerBound()
	if !ok {
		return cadata.ID{}
	}
	if !x.IncludesLower() {
		lb = lb.Successor()
	}
	return lb
}
