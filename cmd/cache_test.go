package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheCmd_RegistersExpectedSubcommands(t *testing.T) {
	var names []string
	for _, c := range cacheCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "clear")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "migrate")
}
