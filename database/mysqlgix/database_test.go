package mysqlgix

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gixsql/gixsql/database"
)

func newMockDriver(t *testing.T, autocommit bool) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	d := &Driver{}
	d.Init(database.NullLogger{})
	d.db = db
	d.cfg = database.Config{Autocommit: autocommit}

	if !autocommit {
		mock.ExpectBegin()
		tx, err := db.Begin()
		require.NoError(t, err)
		d.tx = tx
	}
	return d, mock
}

func TestDriver_AutocommitOffReopensTransactionAfterCommit(t *testing.T) {
	d, mock := newMockDriver(t, false)
	mock.ExpectCommit()
	mock.ExpectBegin()

	code := d.Exec("COMMIT")
	assert.Equal(t, database.OK, code)
	assert.Equal(t, database.OK, d.GetErrorCode())
	assert.NotNil(t, d.tx)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_AutocommitOffReopensTransactionAfterRollback(t *testing.T) {
	d, mock := newMockDriver(t, false)
	mock.ExpectRollback()
	mock.ExpectBegin()

	code := d.Exec("ROLLBACK")
	assert.Equal(t, database.OK, code)
	assert.Equal(t, database.OK, d.GetErrorCode())
	assert.NotNil(t, d.tx)
	require.NoError(t, mock.ExpectationsWereMet())
}
