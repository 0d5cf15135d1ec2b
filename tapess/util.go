package tapess

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tapeweb.org/tape/internal/testutil"
	"tapeweb.org/tape/tapess/internal/dbutil"
)

func NewTestSys(t testing.TB) *System {
	ctx := testutil.Context(t)
	db := dbutil.NewTestDB(t)
	require.NoError(t, SetupDB(ctx, db))
	return NewSystem(db)
}
