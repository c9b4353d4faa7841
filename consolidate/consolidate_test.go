package consolidate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gixsql/gixsql/copyresolver"
	"github.com/gixsql/gixsql/optvar"
	"github.com/gixsql/gixsql/perr"
	"github.com/gixsql/gixsql/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// S1: COPY FOO. inlines FOO's content surrounded by push/pop markers
// referencing FOO's absolute path.
func TestConsolidate_InlinesCopybook(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "FOO.cpy", "01 X PIC X(10).\n")
	main := writeFile(t, dir, "main.cbl", "       COPY FOO.\n")

	resolver := copyresolver.New(dir, nil, []string{"cpy", ""}, false)
	step := New(resolver, optvar.New())

	errs := perr.New()
	out, ok := step.Run(pipeline.NewFilename(main), errs)
	require.True(t, ok, errs.Errors())
	require.Equal(t, pipeline.Buffer, out.Kind())

	fooAbs, _ := filepath.Abs(filepath.Join(dir, "FOO.cpy"))
	buf := out.Buffer()
	assert.Contains(t, buf, "*>GIX-FILE-PUSH "+fooAbs)
	assert.Contains(t, buf, "01 X PIC X(10).")
	assert.Contains(t, buf, "*>GIX-FILE-POP")
}

func TestConsolidate_CopyNotFound(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.cbl", "       COPY MISSING.\n")

	resolver := copyresolver.New(dir, nil, []string{""}, false)
	step := New(resolver, optvar.New())

	errs := perr.New()
	_, ok := step.Run(pipeline.NewFilename(main), errs)
	require.False(t, ok)
	assert.Equal(t, perr.CopyNotFound, errs.Code())
}

func TestConsolidate_CopyCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "A.cpy", "       COPY B.\n")
	writeFile(t, dir, "B.cpy", "       COPY A.\n")
	main := writeFile(t, dir, "main.cbl", "       COPY A.\n")

	resolver := copyresolver.New(dir, nil, []string{"cpy"}, false)
	step := New(resolver, optvar.New())

	errs := perr.New()
	_, ok := step.Run(pipeline.NewFilename(main), errs)
	require.False(t, ok)
	assert.Equal(t, perr.CopyCycle, errs.Code())
}
