package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommand_RejectsArguments(t *testing.T) {
	for _, args := range [][]string{{}, {"sideways"}, {"up", "down"}} {
		cmd := newCommand()
		cmd.SetArgs(args)

		assert.Error(t, cmd.Execute(), args)
	}
}
