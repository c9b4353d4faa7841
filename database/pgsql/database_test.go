package pgsql

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

	t.Cleanup(func() { db.Close() })
	return d, mock
}

func TestDriver_ExecZeroRowsReturnsNoData(t *testing.T) {
	d, mock := newMockDriver(t, true)
	mock.ExpectExec("DELETE FROM T").WillReturnResult(sqlmock.NewResult(0, 0))

	code := d.Exec("DELETE FROM T")
	assert.Equal(t, database.NoData, code)
	assert.Equal(t, database.StateNoData, d.GetState())
}

func TestDriver_ExecParamsBindsNullForSentinelLength(t *testing.T) {
	d, mock := newMockDriver(t, true)
	mock.ExpectExec("UPDATE T SET A").WillReturnResult(sqlmock.NewResult(0, 1))

	code := d.ExecParams("UPDATE T SET A=$1 WHERE K=$2",
		[]int{0, 0}, []string{"", "k1"}, []int{database.DBNull, 2}, []uint32{0, 0})
	assert.Equal(t, database.OK, code)
}

func TestDriver_ExecParamsLengthMismatchFails(t *testing.T) {
	d, _ := newMockDriver(t, true)
	code := d.ExecParams("SELECT 1", []int{0}, []string{}, []int{}, []uint32{})
	assert.Equal(t, database.InternalErr, code)
}

func TestDriver_PrepareDuplicateNameFails(t *testing.T) {
	d, mock := newMockDriver(t, true)
	mock.ExpectPrepare("UPDATE T SET A")

	require.Equal(t, database.OK, d.Prepare("p1", "UPDATE T SET A=$1 WHERE K=$2"))
	assert.Equal(t, database.PrepareFailed, d.Prepare("P1", "UPDATE T SET A=$1 WHERE K=$2"))
}

// S4: prepare("p1", "UPDATE T SET A=? WHERE K=?") with fixup_parameters
// rewrites to $n placeholders; exec_prepared("P1", ...) succeeds
// because names are lower-cased.
func TestDriver_PrepareFixupAndCaseInsensitiveExec(t *testing.T) {
	d, mock := newMockDriver(t, true)
	d.cfg.FixupParameters = true
	mock.ExpectPrepare("UPDATE T SET A=\\$1 WHERE K=\\$2").
		ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))

	require.Equal(t, database.OK, d.Prepare("p1", "UPDATE T SET A=? WHERE K=?"))
	assert.Equal(t, database.OK, d.ExecPrepared("P1", []int{0, 0}, []string{"a", "k"}, []int{1, 1}, []uint32{0, 0}))
}

func TestDriver_ExecPreparedAfterTerminateFails(t *testing.T) {
	d, mock := newMockDriver(t, true)
	mock.ExpectPrepare("SELECT 1")
	require.Equal(t, database.OK, d.Prepare("p1", "SELECT 1"))

	mock.ExpectClose()
	require.Equal(t, database.OK, d.Terminate())

	assert.Equal(t, database.SQLError, d.ExecPrepared("p1", nil, nil, nil, nil))
}

// S5: autocommit off issues BEGIN at connect, and a fresh transaction
// after a successful COMMIT.
func TestDriver_AutocommitOffReopensTransactionAfterCommit(t *testing.T) {
	d, mock := newMockDriver(t, false)
	mock.ExpectCommit()
	mock.ExpectBegin()

	code := d.Exec("COMMIT")
	assert.Equal(t, database.OK, code)
	assert.Equal(t, database.OK, d.GetErrorCode())
	assert.NotNil(t, d.tx)
	// Asserts there is no stray Exec("COMMIT") through the tx alongside
	// the driver-level Commit()/Begin() pair (the double-commit bug would
	// leave an unmet or unexpected expectation here).
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

func TestDriver_GetResultSetValueTruncationFails(t *testing.T) {
	d, _ := newMockDriver(t, true)
	d.cursors["C1"] = &cursorState{
		cols: []string{"A"},
		rows: []map[string]any{{"A": "abcdef"}},
	}
	_, length, _, ok := d.GetResultSetValue("C1", 0, 0, 3)
	assert.False(t, ok)
	assert.Equal(t, 6, length)
	assert.Equal(t, database.BufferOverflow, d.GetErrorCode())
}

func TestDriver_MoveToFirstRecordNoRowsFails(t *testing.T) {
	d, _ := newMockDriver(t, true)
	d.cursors["C1"] = &cursorState{}
	code := d.MoveToFirstRecord("C1")
	assert.Equal(t, database.MoveToFirstFailed, code)
	assert.Equal(t, database.StateNoData, d.GetState())
}
