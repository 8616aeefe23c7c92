package main

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"build", "changelog", "test", "lint", "integration-test"}, names)
}

func TestHandlerLevel(t *testing.T) {
	assert.Equal(t, log.InfoLevel, newHandler(false).GetLevel())
	assert.Equal(t, log.DebugLevel, newHandler(true).GetLevel())
}
