package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityString(t *testing.T) {
	identity := Identity{Name: "Alice", Email: "alice@example.com"}
	assert.Equal(t, "Alice <alice@example.com>", identity.String())
	assert.False(t, identity.IsZero())
	assert.True(t, Identity{}.IsZero())
}

func TestCloneRowsIsIndependent(t *testing.T) {
	rows := []Row{{"1", "a"}, {"2", NullText}}
	copied := CloneRows(rows)
	copied[0][1] = "changed"

	assert.Equal(t, "a", rows[0][1])
	assert.Equal(t, NullText, copied[1][1])
	assert.Nil(t, Row(nil).Clone())
}
