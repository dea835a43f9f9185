package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTables(t *testing.T) {
	valid, invalid := ValidTables([]string{"hands", " events ", "", "users;drop", "_tmp1", "1bad"})
	assert.Equal(t, []string{"hands", "events", "_tmp1"}, valid)
	assert.Equal(t, []string{"users;drop", "1bad"}, invalid)
}

func TestTruncateStatement(t *testing.T) {
	assert.Equal(t, `TRUNCATE TABLE "hands", "events" RESTART IDENTITY CASCADE`, TruncateStatement([]string{"hands", "events"}))
}
