package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewManagerBuildsStack(t *testing.T) {
	manager, err := newManager(&rootFlags{profileDir: t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, manager)
}
