package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tapeweb.org/tape/tapess/internal/dbutil"
)

func TestMigrate(t *testing.T) {
	ctx := context.TODO()
	db := dbutil.NewTestDB(t)
	s1 := InitialState().ApplyStmt(`CREATE TABLE a (x INTEGER)`)
	s2 := s1.ApplyStmt(`CREATE TABLE b (y INTEGER)`)
	require.Equal(t, 1, s1.Len())
	require.Equal(t, 2, s2.Len())

	require.NoError(t, Migrate(ctx, db, s1))
	require.NoError(t, Migrate(ctx, db, s1))
	require.NoError(t, Migrate(ctx, db, s2))
	_, err := db.Exec(`INSERT INTO b (y) VALUES (1)`)
	require.NoError(t, err)

	// cannot go backwards
	require.Error(t, Migrate(ctx, db, s1))
	// cannot diverge
	require.Error(t, Migrate(ctx, db, s1.ApplyStmt(`CREATE TABLE c (z INTEGER)`)))
}
