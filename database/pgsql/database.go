// Package pgsql is the reference DbInterface backend (spec.md §4.6),
// built on lib/pq and database/sql. It is registered with
// database.Factory under the "pgsql" backend name.
package pgsql

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/gixsql/gixsql/database"
)

func init() {
	database.Register(database.Pgsql, func() database.DbInterface { return &Driver{} })
}

// cursorState tracks a client-materialised or native result set for
// one declared cursor. Native PostgreSQL cursors are scrollable, but
// database/sql's *sql.Rows is forward-only, so NEXT/PREV/CUR are all
// served from a buffered row slice populated on open (spec.md §4.6
// cursor_fetch_one modes).
type cursorState struct {
	cur      *database.Cursor
	rows     []map[string]any
	pos      int // index of the row last fetched, -1 before first fetch
	cols     []string
	declared bool
	opened   bool
}

// preparedStmt pairs the *sql.Stmt with its rewritten SQL text. The
// Driver's prepared map keys it by the normalised (lower-cased) name, so
// Prepare/ExecPrepared can enforce the duplicate-name and
// case-insensitive-lookup rules (spec.md §4.6, S4).
type preparedStmt struct {
	stmt *sql.Stmt
	sql  string
}

// Driver is the pgsql DbInterface implementation. One Driver owns one
// *sql.DB and (when autocommit is off) one open *sql.Tx (spec.md §4.6
// autocommit bookkeeping, §8 invariant 7).
type Driver struct {
	logger database.Logger
	cfg    database.Config
	db     *sql.DB
	tx     *sql.Tx

	prepared map[string]*preparedStmt
	cursors  map[string]*cursorState

	lastCode database.Code
	lastMsg  string
	lastSQLState string
}

func (d *Driver) Init(logger database.Logger) database.Code {
	d.logger = logger
	d.prepared = make(map[string]*preparedStmt)
	d.cursors = make(map[string]*cursorState)
	d.setOK()
	return database.OK
}

func (d *Driver) Connect(info database.ConnInfo) database.Code {
	db, err := sql.Open("postgres", info.DSN)
	if err != nil {
		return d.fail(database.ConnectionFailed, err)
	}
	if err := db.Ping(); err != nil {
		return d.fail(database.ConnectionFailed, err)
	}
	d.db = db
	d.cfg = info.Opts

	if !d.cfg.Autocommit {
		// Autocommit OFF: begin a transaction immediately after connect
		// (spec.md §4.6, §8 invariant 7).
		tx, err := db.Begin()
		if err != nil {
			return d.fail(database.ConnectionFailed, err)
		}
		d.tx = tx
	}
	d.setOK()
	return database.ConnectedStatus
}

func (d *Driver) Reset() database.Code {
	if d.tx != nil {
		_ = d.tx.Rollback()
		d.tx = nil
	}
	for name := range d.prepared {
		delete(d.prepared, name)
	}
	for name := range d.cursors {
		delete(d.cursors, name)
	}
	if !d.cfg.Autocommit && d.db != nil {
		tx, err := d.db.Begin()
		if err != nil {
			return d.fail(database.ConnResetFailed, err)
		}
		d.tx = tx
	}
	d.setOK()
	return database.OK
}

func (d *Driver) Terminate() database.Code {
	if d.tx != nil {
		_ = d.tx.Rollback()
		d.tx = nil
	}
	for _, p := range d.prepared {
		_ = p.stmt.Close()
	}
	d.prepared = nil
	d.cursors = nil
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			return d.fail(database.ConnResetFailed, err)
		}
		d.db = nil
	}
	d.setOK()
	return database.OK
}

// execer returns the *sql.Tx when one is open, else the raw *sql.DB,
// so every statement runs against the current autocommit context.
func (d *Driver) execer() interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Prepare(query string) (*sql.Stmt, error)
} {
	if d.tx != nil {
		return d.tx
	}
	return d.db
}

func (d *Driver) Exec(sqlText string) database.Code {
	if code, handled := d.commitOrRollbackBoundary(sqlText); handled {
		return code
	}
	res, err := d.execer().Exec(sqlText)
	if err != nil {
		return d.fail(database.SQLError, err)
	}
	return d.dmlResultCode(res)
}

func (d *Driver) ExecParams(sqlText string, types []int, values []string, lengths []int, flags []uint32) database.Code {
	if len(types) != len(values) || len(values) != len(lengths) || len(lengths) != len(flags) {
		return d.fail(database.InternalErr, fmt.Errorf("parameter array length mismatch"))
	}
	if code, handled := d.commitOrRollbackBoundary(sqlText); handled {
		return code
	}
	args, err := bindArgs(values, lengths)
	if err != nil {
		return d.fail(database.InternalErr, err)
	}
	res, err := d.execer().Exec(sqlText, args...)
	if err != nil {
		return d.fail(database.SQLError, err)
	}
	return d.dmlResultCode(res)
}

func (d *Driver) Prepare(name, sqlText string) database.Code {
	name = strings.ToLower(name)
	if _, exists := d.prepared[name]; exists {
		return d.fail(database.PrepareFailed, fmt.Errorf("prepared statement %q already exists", name))
	}
	rewritten := sqlText
	if d.cfg.FixupParameters {
		rewritten = FixupParameters(sqlText)
	}
	stmt, err := d.execer().Prepare(rewritten)
	if err != nil {
		return d.fail(database.PrepareFailed, err)
	}
	d.prepared[name] = &preparedStmt{stmt: stmt, sql: rewritten}
	d.setOK()
	return database.OK
}

func (d *Driver) ExecPrepared(name string, types []int, values []string, lengths []int, flags []uint32) database.Code {
	name = strings.ToLower(name)
	p, ok := d.prepared[name]
	if !ok || d.db == nil {
		return d.fail(database.SQLError, fmt.Errorf("no such prepared statement %q (or connection terminated)", name))
	}
	args, err := bindArgs(values, lengths)
	if err != nil {
		return d.fail(database.InternalErr, err)
	}
	res, err := p.stmt.Exec(args...)
	if err != nil {
		return d.fail(database.SQLError, err)
	}
	return d.dmlResultCode(res)
}

// commitOrRollbackBoundary recognises a bare COMMIT/ROLLBACK verb and,
// when autocommit is off, drives the transaction boundary directly
// through *sql.Tx and reopens a fresh transaction, instead of letting
// the caller send the literal text through database/sql's Exec path
// (the tx would already be closed by the time that statement runs,
// risking sql.ErrTxDone; spec.md §4.6 autocommit, S5, §8 invariant 7).
// handled reports whether sqlText was a commit/rollback boundary this
// call already fully processed.
func (d *Driver) commitOrRollbackBoundary(sqlText string) (code database.Code, handled bool) {
	if d.cfg.Autocommit || d.tx == nil {
		return database.OK, false
	}
	verb := strings.ToUpper(strings.TrimSpace(sqlText))
	switch {
	case strings.HasPrefix(verb, "COMMIT"):
		if err := d.tx.Commit(); err != nil {
			return d.fail(database.SQLError, err), true
		}
	case strings.HasPrefix(verb, "ROLLBACK"):
		if err := d.tx.Rollback(); err != nil {
			return d.fail(database.SQLError, err), true
		}
	default:
		return database.OK, false
	}
	tx, err := d.db.Begin()
	if err != nil {
		return d.fail(database.ConnectionFailed, err), true
	}
	d.tx = tx
	d.setOK()
	return database.OK, true
}

func (d *Driver) dmlResultCode(res sql.Result) database.Code {
	n, err := res.RowsAffected()
	if err != nil {
		// Not every statement reports a row count (e.g. DDL); treat as success.
		d.setOK()
		return database.OK
	}
	if n == 0 {
		d.lastCode = database.NoData
		d.lastSQLState = database.StateNoData
		d.lastMsg = "no rows affected"
		return database.NoData
	}
	d.setOK()
	return database.OK
}

func (d *Driver) CursorDeclare(c *database.Cursor) database.Code {
	if d.cursors == nil {
		d.cursors = make(map[string]*cursorState)
	}
	d.cursors[c.Name] = &cursorState{cur: c, pos: -1, declared: true}
	d.setOK()
	return database.OK
}

func (d *Driver) CursorOpen(c *database.Cursor) database.Code {
	st, ok := d.cursors[c.Name]
	if !ok {
		return d.fail(database.OpenCursorFailed, fmt.Errorf("cursor %q was not declared", c.Name))
	}

	query := c.Query
	if strings.HasPrefix(query, "@") {
		// The query source is itself a prepared-statement name; look up
		// its source text from our own catalogue (spec.md §4.6).
		name := strings.ToLower(strings.TrimPrefix(query, "@"))
		p, ok := d.prepared[name]
		if !ok {
			return d.fail(database.OpenCursorFailed, fmt.Errorf("prepared statement %q not found for cursor source", name))
		}
		query = p.sql
	}

	if d.cfg.UseNativeCursors {
		decl := fmt.Sprintf("DECLARE %s CURSOR", c.Name)
		if c.WithHold || d.cfg.WithHold {
			decl += " WITH HOLD"
		}
		decl += " FOR " + query
		if _, err := d.execer().Exec(decl); err != nil {
			return d.fail(database.OpenCursorFailed, err)
		}
	}

	rows, err := d.execer().Query(query)
	if err != nil {
		return d.fail(database.OpenCursorFailed, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return d.fail(database.OpenCursorFailed, err)
	}
	st.cols = cols

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return d.fail(database.OpenCursorFailed, err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		st.rows = append(st.rows, row)
	}
	if err := rows.Err(); err != nil {
		return d.fail(database.OpenCursorFailed, err)
	}

	st.opened = true
	d.setOK()
	return database.OK
}

func (d *Driver) CursorFetchOne(c *database.Cursor, mode database.CursorMode) database.Code {
	st, ok := d.cursors[c.Name]
	if !ok || !st.opened {
		return d.fail(database.FetchRowFailed, fmt.Errorf("cursor %q is not open", c.Name))
	}

	switch mode {
	case database.FetchNext:
		st.pos++
	case database.FetchPrev:
		st.pos--
	case database.FetchCur:
		// leave pos unchanged
	}

	if st.pos < 0 || st.pos >= len(st.rows) {
		d.lastCode = database.NoData
		d.lastSQLState = database.StateNoData
		d.lastMsg = "no more rows"
		if st.pos < 0 {
			st.pos = -1
		} else {
			st.pos = len(st.rows)
		}
		return database.NoData
	}
	d.setOK()
	return database.OK
}

func (d *Driver) CursorClose(c *database.Cursor) database.Code {
	if _, ok := d.cursors[c.Name]; !ok {
		return d.fail(database.CloseCursorFailed, fmt.Errorf("cursor %q was never declared", c.Name))
	}
	if d.cfg.UseNativeCursors {
		if _, err := d.execer().Exec(fmt.Sprintf("CLOSE %s", c.Name)); err != nil {
			return d.fail(database.CloseCursorFailed, err)
		}
	}
	delete(d.cursors, c.Name)
	d.setOK()
	return database.OK
}

// GetResultSetValue reads column col of row row of the result set
// materialised for cursor ctx; the cursor's fetch position is not
// consulted. Truncation (the rendered value longer than bfrlen) is an
// error and nothing is written past bfrlen (spec.md §4.6, §8 invariant 8).
func (d *Driver) GetResultSetValue(ctx string, row, col int, bfrlen int) (string, int, bool, bool) {
	st, ok := d.cursors[ctx]
	if !ok || row < 0 || row >= len(st.rows) || col < 0 || col >= len(st.cols) {
		d.fail(database.InternalErr, fmt.Errorf("invalid result-set coordinates (%s, row=%d, col=%d)", ctx, row, col))
		return "", 0, false, false
	}
	v := st.rows[row][st.cols[col]]
	if v == nil {
		d.setOK()
		return "", 0, true, true
	}
	rendered := renderValue(v, d.cfg.DecodeBinary)
	if len(rendered) > bfrlen {
		d.fail(database.BufferOverflow, fmt.Errorf("value length %d exceeds buffer length %d", len(rendered), bfrlen))
		return "", len(rendered), false, false
	}
	d.setOK()
	return rendered, len(rendered), false, true
}

func (d *Driver) MoveToFirstRecord(stmtName string) database.Code {
	st, ok := d.cursors[stmtName]
	if !ok || len(st.rows) == 0 {
		d.lastCode = database.NoData
		d.lastSQLState = database.StateNoData
		d.lastMsg = "no data"
		return database.MoveToFirstFailed
	}
	st.pos = 0
	d.setOK()
	return database.OK
}

func (d *Driver) GetNativeFeatures() uint32 {
	f := database.ResultSetRowCount | database.PreparedStatementCatalogue
	if d.cfg.UseNativeCursors {
		f |= database.NativeCursors
	}
	return f
}

func (d *Driver) GetErrorMessage() string   { return d.lastMsg }
func (d *Driver) GetErrorCode() database.Code { return d.lastCode }
func (d *Driver) GetState() string          { return d.lastSQLState }

func (d *Driver) setOK() {
	d.lastCode = database.OK
	d.lastMsg = ""
	d.lastSQLState = database.StateOK
}

func (d *Driver) fail(code database.Code, err error) database.Code {
	d.lastCode = code
	d.lastMsg = err.Error()
	d.lastSQLState = "58000"
	if d.logger != nil {
		d.logger.Printf("pgsql: %s\n", err.Error())
	}
	return code
}

func renderValue(v any, decodeBinary bool) string {
	switch t := v.(type) {
	case []byte:
		if decodeBinary {
			return string(t)
		}
		return fmt.Sprintf("%x", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func bindArgs(values []string, lengths []int) ([]any, error) {
	args := make([]any, len(values))
	for i, v := range values {
		if lengths[i] == database.DBNull {
			args[i] = nil
			continue
		}
		args[i] = v
	}
	return args, nil
}
