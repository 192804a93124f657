package volmon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClientArgs(t *testing.T) {
	tests := []struct {
		name       string
		percent    int
		muted      bool
		deviceName string
		want       []string
	}{
		{"volume only", 40, false, "", []string{"audio", "40"}},
		{"muted", 40, true, "", []string{"audio", "40", "--mute"}},
		{"with device", 40, false, "SpeakerA", []string{"audio", "40", "--device", "SpeakerA"}},
		{"muted with device", 0, true, "TV", []string{"audio", "0", "--mute", "--device", "TV"}},
		{"boosted volume", 110, false, "", []string{"audio", "110"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildClientArgs(tt.percent, tt.muted, tt.deviceName))
		})
	}
}

func TestDispatchSpawnFailureIsSwallowed(t *testing.T) {
	d := newClientDispatcher(testLogger(), filepath.Join(t.TempDir(), "no-such-client"))

	// spawn failure is logged and otherwise ignored
	assert.NotPanics(t, func() {
		d.Dispatch(50, false, "")
	})
}

func TestCheckClientExecutable(t *testing.T) {
	dir := t.TempDir()

	executable := filepath.Join(dir, "client")
	require.NoError(t, os.WriteFile(executable, []byte("#!/bin/sh\n"), 0o755))

	plainFile := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(plainFile, []byte("hi"), 0o644))

	assert.NoError(t, checkClientExecutable(executable))
	assert.Error(t, checkClientExecutable(plainFile))
	assert.Error(t, checkClientExecutable(filepath.Join(dir, "missing")))
	assert.Error(t, checkClientExecutable(dir))
}
