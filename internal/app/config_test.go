package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateForcesNTSCRegion(t *testing.T) {
	c := NewConfig()
	c.Emulation.Region = "PAL"
	require := assert.New(t)
	require.NoError(c.validate())
	require.Equal("NTSC", c.Emulation.Region)
}

func TestValidateFallsBackToEbitengineOnUnknownBackend(t *testing.T) {
	c := NewConfig()
	c.Video.Backend = "sdl2"
	assert.NoError(t, c.validate())
	assert.Equal(t, "ebitengine", c.Video.Backend)
}

func TestValidateKeepsKnownBackends(t *testing.T) {
	for _, name := range []string{"ebitengine", "headless", "terminal"} {
		c := NewConfig()
		c.Video.Backend = name
		require := assert.New(t)
		require.NoError(c.validate())
		require.Equal(name, c.Video.Backend)
	}
}
