package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoardEnv(t *testing.T) {
	t.Setenv("DEPARTUREBOARD_FRAME_RATE", "60")

	env := GetEnvironmentVariables()

	assert.Equal(t, "60", BoardEnv(env, "FRAME_RATE", "30"))
	assert.Equal(t, "10m", BoardEnv(env, "REFRESH_INTERVAL_UNSET", "10m"))
}
