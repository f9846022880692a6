package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Nothing listens on port 1, so every query against this DSN fails with a
// connection error.
const unreachableDSN = "host=127.0.0.1 port=1 user=agent password=agent dbname=agent sslmode=disable"

func TestDeferredOpenSucceedsWithoutServer(t *testing.T) {
	db, err := NewDeferredGormDB(unreachableDSN)
	require.NoError(t, err)
	require.NotNil(t, db)

	// The failure surfaces per query, not at open time.
	assert.Error(t, db.Exec("SELECT 1").Error)
}

func TestDeferredOpenAcceptsEmptyDSN(t *testing.T) {
	db, err := NewDeferredGormDB("")
	require.NoError(t, err)
	require.NotNil(t, db)
}
