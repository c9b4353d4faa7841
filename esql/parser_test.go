package esql

import (
	"testing"

	"github.com/gixsql/gixsql/optvar"
	"github.com/gixsql/gixsql/perr"
	"github.com/gixsql/gixsql/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string, opts optvar.Map) *ParseResult {
	t.Helper()
	if opts == nil {
		opts = optvar.New()
	}
	step := New(opts)
	errs := perr.New()
	_, ok := step.Run(pipeline.NewBuffer(src), errs)
	require.True(t, ok, errs.Errors())
	return step.Result
}

// S2: param rewrite, style=a (the IR's internal placeholder form is
// always $n; params_style only affects the generated call shape).
func TestParser_RewritesParamsInOrder(t *testing.T) {
	src := "*>GIX-FILE-PUSH /tmp/x.cbl\n" +
		"       EXEC SQL SELECT A FROM T WHERE B = :HV-B AND C = :HV-C END-EXEC.\n" +
		"*>GIX-FILE-POP\n"

	opts := optvar.New()
	opts.Set(optvar.KeyEmitDebugInfo, optvar.OfBool(false))

	// Host vars must be declared for FindHostVar lookups to succeed, so
	// declare them first in the same source.
	src = "*>GIX-FILE-PUSH /tmp/x.cbl\n" +
		"       EXEC SQL BEGIN DECLARE SECTION END-EXEC.\n" +
		"       01 HV-B PIC 9(5).\n" +
		"       01 HV-C PIC 9(5).\n" +
		"       EXEC SQL END DECLARE SECTION END-EXEC.\n" +
		"       EXEC SQL SELECT A FROM T WHERE B = :HV-B AND C = :HV-C END-EXEC.\n" +
		"*>GIX-FILE-POP\n"

	pr := run(t, src, opts)
	require.Len(t, pr.IR.Statements, 1)
	stmt := pr.IR.Statements[0]

	assert.Equal(t, "SELECT A FROM T WHERE B = $1 AND C = $2", stmt.SQLText)
	require.Len(t, stmt.Params, 2)
	assert.Equal(t, "HV-B", stmt.Params[0].HostVar.Name)
	assert.Equal(t, "HV-C", stmt.Params[1].HostVar.Name)
}

// S3: DECLARE CURSOR binds :K from the declare section.
func TestParser_DeclareCursor(t *testing.T) {
	src := "*>GIX-FILE-PUSH /tmp/x.cbl\n" +
		"       EXEC SQL BEGIN DECLARE SECTION END-EXEC.\n" +
		"       01 K PIC 9(5).\n" +
		"       01 R PIC X(30).\n" +
		"       EXEC SQL END DECLARE SECTION END-EXEC.\n" +
		"       EXEC SQL DECLARE CUR1 CURSOR FOR SELECT * FROM T WHERE K=:K END-EXEC.\n" +
		"       EXEC SQL OPEN CUR1 END-EXEC.\n" +
		"       EXEC SQL FETCH CUR1 INTO :R END-EXEC.\n" +
		"*>GIX-FILE-POP\n"

	pr := run(t, src, nil)
	cur := pr.IR.FindCursor("CUR1")
	require.NotNil(t, cur)
	assert.Equal(t, "SELECT * FROM T WHERE K=$1", cur.SQLText)
	require.Len(t, cur.Params, 1)
	assert.Equal(t, "K", cur.Params[0].Name)

	var fetch *Statement
	for _, s := range pr.IR.Statements {
		if s.Kind == Fetch {
			fetch = s
		}
	}
	require.NotNil(t, fetch)
	require.Len(t, fetch.Into, 1)
	assert.Equal(t, "R", fetch.Into[0].Name)
}

func TestParser_DuplicateDeclareFails(t *testing.T) {
	src := "*>GIX-FILE-PUSH /tmp/x.cbl\n" +
		"       EXEC SQL BEGIN DECLARE SECTION END-EXEC.\n" +
		"       01 K PIC 9(5).\n" +
		"       01 K PIC 9(5).\n" +
		"       EXEC SQL END DECLARE SECTION END-EXEC.\n" +
		"*>GIX-FILE-POP\n"

	step := New(optvar.New())
	errs := perr.New()
	_, ok := step.Run(pipeline.NewBuffer(src), errs)
	require.False(t, ok)
	assert.Equal(t, perr.DuplicateDeclare, errs.Code())
}

func TestParseHostVarDecl_PackedDecimal(t *testing.T) {
	hv, ok := parseHostVarDecl("01 AMT PIC S9(7)V99 COMP-3.", Location{}, optvar.New())
	require.True(t, ok)
	assert.Equal(t, SignedNumberPD, hv.Type)
	assert.Equal(t, 7, hv.Length)
	assert.Equal(t, 2, hv.Scale)
}
