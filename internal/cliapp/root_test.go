package cliapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCommandRegistersAllVerbs(t *testing.T) {
	root := NewRootCommand()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["scan"])
	assert.True(t, names["history"])
	assert.True(t, names["report"])
	assert.True(t, names["compare"])
	assert.True(t, names["custom-detectors"])
}
