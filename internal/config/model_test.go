package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatform_Decode(t *testing.T) {
	type input struct{ URL string }

	p := NewPlatform("socketio", func(target any) error {
		target.(*input).URL = "http://deployer:3000"
		return nil
	})
	var in input
	require.NoError(t, p.Decode(&in))
	assert.Equal(t, "http://deployer:3000", in.URL)

	empty := NewPlatform("memory", nil)
	assert.True(t, errors.Is(empty.Decode(&in), ErrNoPlatformBody))
}
