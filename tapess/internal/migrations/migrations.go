// package migrations applies an ordered list of schema statements to a database.
package migrations

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tapeweb.org/tape/tapess/internal/dbutil"
)

// State is a schema, described by the statements that create it.
// States are immutable, ApplyStmt returns a new State.
type State struct {
	stmts []string
}

func InitialState() *State {
	return &State{}
}

func (s *State) ApplyStmt(q string) *State {
	stmts := make([]string, len(s.stmts), len(s.stmts)+1)
	copy(stmts, s.stmts)
	return &State{stmts: append(stmts, q)}
}

// Len is the number of statements in the State.
func (s *State) Len() int {
	return len(s.stmts)
}

// Migrate brings db to the target State.
// Statements that have already been applied are skipped, and must match target.
func Migrate(ctx context.Context, db *sqlx.DB, target *State) error {
	return dbutil.DoTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			stmt TEXT NOT NULL
		)`); err != nil {
			return err
		}
		var applied []string
		if err := tx.SelectContext(ctx, &applied, `SELECT stmt FROM schema_migrations ORDER BY version`); err != nil {
			return err
		}
		if len(applied) > len(target.stmts) {
			return fmt.Errorf("migrations: database has %d statements applied, target only has %d", len(applied), len(target.stmts))
		}
		for i, q := range applied {
			if q != target.stmts[i] {
				return fmt.Errorf("migrations: statement %d differs from database", i)
			}
		}
		for i := len(applied); i < len(target.stmts); i++ {
			q := target.stmts[i]
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("migrations: applying statement %d: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, stmt) VALUES (?, ?)`, i, q); err != nil {
				return err
			}
		}
		return nil
	})
}
