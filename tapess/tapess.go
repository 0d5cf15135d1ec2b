// package tapess is the tape machine storage system.
//
// A System stores programs in a sqlite database, keyed by the hash of their
// canonical text, and keeps a record of every run.
package tapess

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/jmoiron/sqlx"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"tapeweb.org/tape"
	"tapeweb.org/tape/internal/cadata"
	"tapeweb.org/tape/tapelex"
	"tapeweb.org/tape/tapeop"
	"tapeweb.org/tape/tapess/internal/dbutil"
	"tapeweb.org/tape/tapess/internal/sqlstores"
)

// ProgramCacheSize is the number of translated programs kept in memory.
const ProgramCacheSize = 128

type System struct {
	db    *sqlx.DB
	store *sqlstores.Store

	mu    sync.Mutex
	cache *simplelru.LRU[tape.CID, tapeop.Program]
}

func NewSystem(db *sqlx.DB) *System {
	cache, err := simplelru.NewLRU[tape.CID, tapeop.Program](ProgramCacheSize, nil)
	if err != nil {
		panic(err)
	}
	return &System{
		db:    db,
		store: sqlstores.NewStore(db, tape.Hash, tape.MaxProgramSize),
		cache: cache,
	}
}

type ProgramInfo struct {
	ID        tape.CID  `db:"id"`
	Source    string    `db:"source"`
	Ops       int       `db:"ops"`
	CreatedAt time.Time `db:"created_at"`
}

// Put translates src and stores the program.
// Sources which translate to the same program share an ID; the first source is kept.
func (s *System) Put(ctx context.Context, src []byte) (tape.CID, error) {
	if len(src) > tape.MaxProgramSize {
		return tape.CID{}, cadata.ErrTooLarge
	}
	prog := tapelex.Translate(src)
	cid, err := dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (tape.CID, error) {
		store := sqlstores.NewTxStore(tx, tape.Hash, tape.MaxProgramSize)
		cid, err := tapeop.Post(ctx, store, prog)
		if err != nil {
			return tape.CID{}, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO programs (id, source, ops)
			VALUES (?, ?, ?) ON CONFLICT DO NOTHING`, cid[:], string(src), len(prog)); err != nil {
			return tape.CID{}, err
		}
		return cid, nil
	})
	if err != nil {
		return tape.CID{}, err
	}
	logctx.Debug(ctx, "stored program", zap.Stringer("id", cid), zap.Int("ops", len(prog)))
	s.mu.Lock()
	s.cache.Add(cid, prog)
	s.mu.Unlock()
	return cid, nil
}

// Get returns the program with ID cid.
func (s *System) Get(ctx context.Context, cid tape.CID) (tapeop.Program, error) {
	s.mu.Lock()
	prog, ok := s.cache.Get(cid)
	s.mu.Unlock()
	if ok {
		return prog, nil
	}
	prog, err := tapeop.Load(ctx, s.store, cid)
	if err != nil {
		if cadata.IsNotFound(err) {
			err = ErrProgramNotFound{ID: cid}
		}
		return nil, err
	}
	s.mu.Lock()
	s.cache.Add(cid, prog)
	s.mu.Unlock()
	return prog, nil
}

// Info returns the stored metadata for a program.
func (s *System) Info(ctx context.Context, cid tape.CID) (*ProgramInfo, error) {
	var info ProgramInfo
	if err := s.db.GetContext(ctx, &info, `SELECT id, source, ops, created_at
		FROM programs WHERE id = ?`, cid[:]); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrProgramNotFound{ID: cid}
		}
		return nil, err
	}
	return &info, nil
}

// List returns all of the programs in the system, oldest first.
func (s *System) List(ctx context.Context) ([]ProgramInfo, error) {
	var ret []ProgramInfo
	if err := s.db.SelectContext(ctx, &ret, `SELECT id, source, ops, created_at
		FROM programs ORDER BY created_at, id`); err != nil {
		return nil, err
	}
	return ret, nil
}

// Drop removes a program and its runs.
// Dropping a program that does not exist is not an error.
func (s *System) Drop(ctx context.Context, cid tape.CID) error {
	s.mu.Lock()
	s.cache.Remove(cid)
	s.mu.Unlock()
	return dbutil.DoTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE program_id = ?`, cid[:]); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, cid[:]); err != nil {
			return err
		}
		return sqlstores.NewTxStore(tx, tape.Hash, tape.MaxProgramSize).Delete(ctx, &cid)
	})
}
