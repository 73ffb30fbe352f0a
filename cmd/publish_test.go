package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localpulse/listings-cli/internal/syncer"
)

func TestPublishExitError(t *testing.T) {
	assert.NoError(t, publishExitError(syncer.Report{Success: true}))

	err := publishExitError(syncer.Report{Message: "provider unreachable; listing status was left unchanged, try again shortly"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unreachable")
}

func TestProbeExitError(t *testing.T) {
	assert.NoError(t, probeExitError(&syncer.ProbeResult{Reachable: true, Authorized: true}))

	err := probeExitError(&syncer.ProbeResult{Reachable: true, Message: "reconnect the provider account"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconnect the provider account")

	require.Error(t, probeExitError(&syncer.ProbeResult{}))
}
