package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	rt := RefreshToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, rt.Usable(now))
	assert.False(t, rt.Usable(now.Add(2*time.Hour)))
	rt.Revoked = true
	assert.False(t, rt.Usable(now))
}
