package main

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldLogs(t *testing.T) {
	var stderr bytes.Buffer
	prev := log.Logger
	log.Logger = log.Output(&stderr)
	defer func() { log.Logger = prev }()

	release := holdLogs(&stderr)
	log.Error().Msg("pull frame failed")
	assert.Zero(t, stderr.Len(), "nothing reaches the terminal while it is drawn")

	release()
	assert.Contains(t, stderr.String(), "pull frame failed")

	log.Info().Msg("after")
	assert.Contains(t, stderr.String(), `"message":"after"`)
}

func TestListDevices(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, listDevices(&out, "lavfi"))

	assert.Contains(t, out.String(), "input formats: ")
	assert.Contains(t, out.String(), "lavfi")
	assert.Contains(t, out.String(), "lavfi devices:\n[0] default\n")

	assert.Error(t, listDevices(&out, "no-such-format"))
}
