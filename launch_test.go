package anvil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes an executable script standing in for the runtime
// binary, so launches in tests do not depend on anything installed.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-runtime")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestLaunch_WritesConfigAndStarts(t *testing.T) {
	spec := NewProcessSpecFromAddress("na+sm://test")
	require.NoError(t, spec.Validate())

	configPath := filepath.Join(t.TempDir(), "proc.json")
	sink := metrics.NewInmemSink(time.Minute, time.Minute)

	d, err := Launch(context.Background(), spec,
		WithBinary(fakeBinary(t, "exit 0")),
		WithConfigFile(configPath),
		WithMetricSink(sink),
	)
	require.NoError(t, err)
	require.Equal(t, "na+sm", d.Protocol())
	require.Equal(t, configPath, d.ConfigPath())
	require.Greater(t, d.Pid(), 0)
	require.NoError(t, d.Wait())

	written, err := os.ReadFile(configPath)
	require.NoError(t, err)
	want, err := spec.Encode()
	require.NoError(t, err)
	require.Equal(t, string(want), string(written))

	counters := sink.Data()[0].Counters
	require.Contains(t, counters, "anvil.launch.count")
}

func TestLaunch_TempConfigFile(t *testing.T) {
	spec := NewProcessSpecFromAddress("na+sm")
	workdir := t.TempDir()

	d, err := Launch(context.Background(), spec,
		WithBinary(fakeBinary(t, "exit 0")),
		WithWorkdir(workdir),
	)
	require.NoError(t, err)
	require.Equal(t, workdir, filepath.Dir(d.ConfigPath()))
	require.FileExists(t, d.ConfigPath(), "config file is left behind for inspection")
	require.NoError(t, d.Wait())
}

func TestLaunch_StartFailure(t *testing.T) {
	spec := NewProcessSpecFromAddress("na+sm")
	sink := metrics.NewInmemSink(time.Minute, time.Minute)

	_, err := Launch(context.Background(), spec,
		WithBinary(filepath.Join(t.TempDir(), "does-not-exist")),
		WithConfigFile(filepath.Join(t.TempDir(), "proc.json")),
		WithMetricSink(sink),
	)
	require.ErrorIs(t, err, ErrLaunchFailed)

	var labels []metrics.Label
	found := false
	for key, counter := range sink.Data()[0].Counters {
		if strings.HasPrefix(key, "anvil.launch.error.count") {
			found = true
			labels = counter.Labels
		}
	}
	require.True(t, found, "error counter emitted")
	require.Contains(t, labels, LabelProtocol.M("na+sm"))
}

func TestDeployment_Stop(t *testing.T) {
	spec := NewProcessSpecFromAddress("na+sm")

	d, err := Launch(context.Background(), spec,
		WithBinary(fakeBinary(t, "sleep 30")),
		WithConfigFile(filepath.Join(t.TempDir(), "proc.json")),
	)
	require.NoError(t, err)
	require.NoError(t, d.Stop())
	require.Error(t, d.Wait(), "terminated by signal")
	require.ErrorIs(t, d.Stop(), ErrStopped)
}
