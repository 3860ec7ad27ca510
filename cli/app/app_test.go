package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	ctl := New()
	ctl.Writer = &buf
	require.NoError(t, ctl.Run([]string{"adenium-go", "--version"}))
	require.Contains(t, buf.String(), "Adenium")
	require.Contains(t, buf.String(), "GoVersion")
}

func TestCommands(t *testing.T) {
	ctl := New()
	require.NotNil(t, ctl.Command("trie"))
}
