package mysqlgix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteNamedToQuestion(t *testing.T) {
	got := rewriteNamedToQuestion("UPDATE T SET A=:HV-A WHERE K=:HV-K")
	assert.Equal(t, "UPDATE T SET A=? WHERE K=?", got)
}

func TestRewriteNamedToQuestion_PreservesQuotedColon(t *testing.T) {
	got := rewriteNamedToQuestion("SELECT * FROM T WHERE NAME = 'a:b' AND K=:HV-K")
	assert.Equal(t, "SELECT * FROM T WHERE NAME = 'a:b' AND K=?", got)
}
