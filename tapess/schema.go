package tapess

import (
	"context"

	"github.com/jmoiron/sqlx"

	"tapeweb.org/tape/tapess/internal/dbutil"
	"tapeweb.org/tape/tapess/internal/migrations"
	"tapeweb.org/tape/tapess/internal/sqlstores"
)

func OpenDB(p string) (*sqlx.DB, error) {
	return dbutil.Open(p)
}

func SetupDB(ctx context.Context, db *sqlx.DB) error {
	return migrations.Migrate(ctx, db, currentSchema)
}

var currentSchema = func() *migrations.State {
	x := migrations.InitialState()
	x = sqlstores.Migration(x)
	x = x.ApplyStmt(`CREATE TABLE programs (
		id BLOB PRIMARY KEY,
		source TEXT NOT NULL,
		ops INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

		FOREIGN KEY(id) REFERENCES blobs(id)
	)`)
	x = x.ApplyStmt(`CREATE TABLE runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		program_id BLOB NOT NULL,
		config TEXT NOT NULL,
		input BLOB NOT NULL,
		output BLOB NOT NULL,
		steps INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		tai_sec INTEGER NOT NULL,
		tai_nano INTEGER NOT NULL,

		FOREIGN KEY(program_id) REFERENCES programs(id)
	)`)
	return x
}()
