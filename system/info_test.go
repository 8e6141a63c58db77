package system

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfoIsCached(t *testing.T) {
	first := GetInfo()
	second := GetInfo()

	require.Same(t, first, second)
	require.NotEmpty(t, first.DeviceID)
	require.NotEmpty(t, first.OS)
	require.NotEmpty(t, first.Model)
	require.NotEmpty(t, NetworkType())
}
