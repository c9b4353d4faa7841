package pgsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixupParameters_Positional(t *testing.T) {
	got := FixupParameters("UPDATE T SET A=? WHERE K=?")
	assert.Equal(t, "UPDATE T SET A=$1 WHERE K=$2", got)
}

func TestFixupParameters_PreservesQuotedStrings(t *testing.T) {
	got := FixupParameters("SELECT * FROM T WHERE NAME = 'has a ? and a :colon' AND ID = ?")
	assert.Equal(t, "SELECT * FROM T WHERE NAME = 'has a ? and a :colon' AND ID = $1", got)
}

func TestFixupParameters_HostVariableStyle(t *testing.T) {
	got := FixupParameters("SELECT A FROM T WHERE B = :HV-B AND C = :HV-C")
	assert.Equal(t, "SELECT A FROM T WHERE B = $1 AND C = $2", got)
}
