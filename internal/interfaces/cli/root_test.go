package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandStructure(t *testing.T) {
	root := NewRootCommand()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["worker"])
	assert.True(t, names["migrate"])
	assert.True(t, names["import"])
	assert.True(t, names["token"])
}

func TestRootCommandVersionFlag(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "dev")
}

func TestMigrateHasUpAndDown(t *testing.T) {
	root := NewRootCommand()

	migrate, _, err := root.Find([]string{"migrate"})
	require.NoError(t, err)

	subs := make(map[string]bool)
	for _, c := range migrate.Commands() {
		subs[c.Name()] = true
	}
	assert.True(t, subs["up"])
	assert.True(t, subs["down"])
}
