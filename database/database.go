// Package database defines the DbInterface runtime driver contract
// (spec.md §4.6): the polymorphic connection/statement/cursor surface
// that every backend (pgsql, mysqlgix, ...) implements, plus the
// shared Config, Code, and CursorMode types that surface is built on.
package database

// Code is the error/status code returned by every DbInterface
// operation: 0 on success, a conventional positive code such as 100
// for "no data", or a negative value identifying a failure class
// (spec.md §4.6, §7).
type Code int

const (
	OK      Code = 0
	NoData  Code = 100 // conventionally "no data / SQLCODE = 100" (spec.md §4.6, §8 invariant 6)
	TooMuch Code = 101

	ConnectionFailed     Code = -1
	ConnResetFailed      Code = -2
	SQLError             Code = -3
	PrepareFailed        Code = -4
	InternalErr          Code = -5
	DeclareCursorFailed  Code = -6
	OpenCursorFailed     Code = -7
	CloseCursorFailed    Code = -8
	FetchRowFailed       Code = -9
	MoveToFirstFailed    Code = -10
	BufferOverflow       Code = -11
	ConnectedStatus      Code = -12 // returned in place of OK by connect() on success, per spec.md §4.6
)

// SQLSTATE conventions (spec.md §4.6).
const (
	StateOK     = "00000"
	StateNoData = "02000"
)

// Native feature bits (spec.md §4.6 get_native_features).
const (
	ResultSetRowCount uint32 = 1 << iota
	NativeCursors
	PreparedStatementCatalogue
)

// Parameter flag bits (spec.md §4.6 exec_params/exec_prepared).
const (
	FlagBinary uint32 = 1 << iota
	FlagVarlen
)

// DBNull is the length sentinel marking a parameter value as SQL NULL
// (spec.md §4.6).
const DBNull = -1

// CursorMode selects the fetch direction for cursor_fetch_one.
type CursorMode int

const (
	FetchNext CursorMode = iota
	FetchPrev
	FetchCur
)

// ConnInfo carries the information needed to establish a connection:
// a DSN plus backend-specific options (spec.md §4.6 connect(info, opts)).
type ConnInfo struct {
	DSN  string
	Opts Config
}

// Config holds the connection-scoped options a DbInterface backend
// consults: autocommit policy, cursor strategy, and parameter/result
// decoding flags (spec.md §4.6, §9).
type Config struct {
	Autocommit       bool
	UseNativeCursors bool
	WithHold         bool
	FixupParameters  bool
	DecodeBinary     bool
	ConnectTimeout   int // seconds; not read by the pgsql or mysqlgix backends, which use the DSN as given
}

// Cursor identifies a declared cursor and the query it was declared
// for. The same struct is passed to cursor_declare/open/fetch/close so
// a backend can track per-cursor state (native statement handle,
// position) keyed by Name.
type Cursor struct {
	Name     string
	Query    string
	WithHold bool
}

// DbInterface is the runtime driver contract every backend
// implements (spec.md §4.6). Every operation returns a Code: OK (0)
// on success (Connect returns ConnectedStatus instead), NoData/TooMuch
// for the conventional non-error codes, or a negative failure code.
// GetResultSetValue reports success through its ok result, and
// GetNativeFeatures returns a bitfield. The caller inspects GetErrorMessage/
// GetErrorCode/GetState for detail after a non-OK return.
type DbInterface interface {
	Init(logger Logger) Code
	Connect(info ConnInfo) Code
	Reset() Code
	Terminate() Code

	Exec(sql string) Code
	ExecParams(sql string, types []int, values []string, lengths []int, flags []uint32) Code

	Prepare(name, sql string) Code
	ExecPrepared(name string, types []int, values []string, lengths []int, flags []uint32) Code

	CursorDeclare(c *Cursor) Code
	CursorOpen(c *Cursor) Code
	CursorFetchOne(c *Cursor, mode CursorMode) Code
	CursorClose(c *Cursor) Code

	GetResultSetValue(ctx string, row, col int, bfrlen int) (value string, length int, isNull bool, ok bool)
	MoveToFirstRecord(stmtName string) Code

	GetNativeFeatures() uint32

	GetErrorMessage() string
	GetErrorCode() Code
	GetState() string
}
