package esqlgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gixsql/gixsql/esql"
	"github.com/gixsql/gixsql/optvar"
	"github.com/gixsql/gixsql/perr"
	"github.com/gixsql/gixsql/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_ReplacesStatementsAndKeepsPassthrough(t *testing.T) {
	src := "*>GIX-FILE-PUSH /tmp/x.cbl\n" +
		"       IDENTIFICATION DIVISION.\n" +
		"       EXEC SQL BEGIN DECLARE SECTION END-EXEC.\n" +
		"       01 HV-B PIC 9(5).\n" +
		"       EXEC SQL END DECLARE SECTION END-EXEC.\n" +
		"       EXEC SQL SELECT A FROM T WHERE B = :HV-B END-EXEC.\n" +
		"       DISPLAY \"done\".\n" +
		"*>GIX-FILE-POP\n"

	opts := optvar.New()
	parser := esql.New(opts)
	errs := perr.New()
	_, ok := parser.Run(pipeline.NewBuffer(src), errs)
	require.True(t, ok, errs.Errors())

	proc := New(parser, opts)
	out, ok := proc.Run(pipeline.Data{}, errs)
	require.True(t, ok, errs.Errors())

	text := out.Buffer()
	assert.Contains(t, text, "IDENTIFICATION DIVISION.")
	assert.Contains(t, text, "DISPLAY \"done\".")
	assert.Contains(t, text, "01 HV-B PIC 9(5).")
	assert.Contains(t, text, "CALL GIXSQL-ENTRY-GIXSQLEXEC USING")
	assert.Contains(t, text, "BY REFERENCE HV-B BY VALUE 5")
	assert.NotContains(t, text, "EXEC SQL")

	// params_style defaults to "d": the generated call carries "?", not
	// the IR's internal $n placeholder (spec.md §4.3/§6).
	assert.Contains(t, text, `"SELECT A FROM T WHERE B = ?"`)
	assert.NotContains(t, text, "$1")

	require.Len(t, proc.MapRows, 1)
	assert.Equal(t, "DML", proc.MapRows[0].Verb)
	assert.Equal(t, "/tmp/x.cbl", proc.MapRows[0].OriginalFile)

	require.Len(t, proc.SymbolRows, 1)
	assert.Equal(t, "HV-B", proc.SymbolRows[0].Name)
}

func TestProcessor_ParamsStyleSelectsCallSiteSyntax(t *testing.T) {
	src := "*>GIX-FILE-PUSH /tmp/x.cbl\n" +
		"       EXEC SQL BEGIN DECLARE SECTION END-EXEC.\n" +
		"       01 HV-B PIC 9(5).\n" +
		"       EXEC SQL END DECLARE SECTION END-EXEC.\n" +
		"       EXEC SQL SELECT A FROM T WHERE B = :HV-B END-EXEC.\n" +
		"*>GIX-FILE-POP\n"

	cases := []struct {
		style string
		want  string
	}{
		{"a", `"SELECT A FROM T WHERE B = $1"`},
		{"d", `"SELECT A FROM T WHERE B = ?"`},
		{"c", `"SELECT A FROM T WHERE B = :HV-B"`},
	}

	for _, tc := range cases {
		opts := optvar.New()
		opts.Set(optvar.KeyParamsStyle, optvar.OfString(tc.style))
		parser := esql.New(opts)
		errs := perr.New()
		_, ok := parser.Run(pipeline.NewBuffer(src), errs)
		require.True(t, ok, errs.Errors())

		proc := New(parser, opts)
		out, ok := proc.Run(pipeline.Data{}, errs)
		require.True(t, ok, errs.Errors())
		assert.Contains(t, out.Buffer(), tc.want, "style=%s", tc.style)
	}
}

func TestProcessor_Cobol85SelectsScopeTerminator(t *testing.T) {
	src := "*>GIX-FILE-PUSH /tmp/x.cbl\n" +
		"       EXEC SQL COMMIT END-EXEC.\n" +
		"*>GIX-FILE-POP\n"

	opts := optvar.New()
	opts.Set(optvar.KeyEmitCobol85, optvar.OfBool(true))
	parser := esql.New(opts)
	errs := perr.New()
	_, ok := parser.Run(pipeline.NewBuffer(src), errs)
	require.True(t, ok, errs.Errors())

	proc := New(parser, opts)
	out, ok := proc.Run(pipeline.Data{}, errs)
	require.True(t, ok, errs.Errors())
	assert.Contains(t, out.Buffer(), "    END-CALL")

	opts74 := optvar.New()
	parser74 := esql.New(opts74)
	_, ok = parser74.Run(pipeline.NewBuffer(src), errs)
	require.True(t, ok, errs.Errors())
	proc74 := New(parser74, opts74)
	out74, ok := proc74.Run(pipeline.Data{}, errs)
	require.True(t, ok, errs.Errors())
	assert.NotContains(t, out74.Buffer(), "END-CALL")
}

func TestProcessor_StaticCalls(t *testing.T) {
	src := "*>GIX-FILE-PUSH /tmp/x.cbl\n" +
		"       EXEC SQL COMMIT END-EXEC.\n" +
		"*>GIX-FILE-POP\n"

	opts := optvar.New()
	opts.Set(optvar.KeyEmitStaticCalls, optvar.OfBool(true))
	parser := esql.New(opts)
	errs := perr.New()
	_, ok := parser.Run(pipeline.NewBuffer(src), errs)
	require.True(t, ok, errs.Errors())

	proc := New(parser, opts)
	out, ok := proc.Run(pipeline.Data{}, errs)
	require.True(t, ok, errs.Errors())

	assert.Contains(t, out.Buffer(), `CALL "GIXSQLCOMMIT" USING`)
}

func TestProcessor_WritesMapFile(t *testing.T) {
	src := "*>GIX-FILE-PUSH /tmp/x.cbl\n" +
		"       EXEC SQL COMMIT END-EXEC.\n" +
		"*>GIX-FILE-POP\n"

	opts := optvar.New()
	opts.Set(optvar.KeyEmitMapFile, optvar.OfBool(true))
	parser := esql.New(opts)
	errs := perr.New()
	_, ok := parser.Run(pipeline.NewBuffer(src), errs)
	require.True(t, ok, errs.Errors())

	dir := t.TempDir()
	proc := New(parser, opts)
	proc.MapFilePath = filepath.Join(dir, "out.map")
	_, ok = proc.Run(pipeline.Data{}, errs)
	require.True(t, ok, errs.Errors())

	content, err := os.ReadFile(proc.MapFilePath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "COMMIT"))
}
