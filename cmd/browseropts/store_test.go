package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	opts "github.com/goliatone/go-browser-opts"
	"github.com/goliatone/go-browser-opts/browser"
	"github.com/goliatone/go-browser-opts/pkg/state"
)

func useLayerStore(t *testing.T, store state.Store[browser.Settings]) *bool {
	t.Helper()
	closed := false
	previous := openLayerStore
	openLayerStore = func(url, prefix string, _ *slog.Logger) (state.Store[browser.Settings], func() error, error) {
		assert.Equal(t, "redis://localhost:6379/0", url)
		return store, func() error { closed = true; return nil }, nil
	}
	t.Cleanup(func() { openLayerStore = previous })
	return &closed
}

func TestResolveOverlaysStoredSnapshots(t *testing.T) {
	store := state.NewMemoryStore[browser.Settings]()
	ref := state.Ref{Project: "web", Scope: opts.InstanceScope("chromium")}
	_, err := store.Save(context.Background(), ref, browser.Settings{Headless: browser.Bool(false)}, state.Meta{SnapshotID: "ops-1"})
	require.NoError(t, err)
	closed := useLayerStore(t, store)

	path := writeConfig(t, "vitest.yaml", browserOnly)
	stdout, _, err := runCLI(t, "resolve", path, "--redis", "redis://localhost:6379/0", "--project", "web")
	require.NoError(t, err)
	assert.True(t, *closed)

	var report resolveReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	chromium, ok := report.Resolution.Instance("chromium")
	require.True(t, ok)
	assert.False(t, chromium.Headless)
	assert.Equal(t, "instance", chromium.HeadlessSource)
	assert.Equal(t, "ops-1", chromium.SnapshotIDs["instance"])

	stdout, _, err = runCLI(t, "explain", path, "-i", "chromium", "--redis", "redis://localhost:6379/0", "--project", "web")
	require.NoError(t, err)
	assert.Contains(t, stdout, "@ops-1")
}

func TestStoreFlagErrors(t *testing.T) {
	path := writeConfig(t, "vitest.yaml", browserOnly)

	_, _, err := runCLI(t, "resolve", path, "--redis", "redis://localhost:6379/0")
	assert.Equal(t, 2, exitCode(t, err))

	_, _, err = runCLI(t, "resolve", path, "--project", "web")
	assert.Equal(t, 2, exitCode(t, err))

	_, _, err = runCLI(t, "resolve", path, "--redis", "http://localhost", "--project", "web")
	assert.Equal(t, 2, exitCode(t, err))
}

func TestExplainRejectsUnknownOutput(t *testing.T) {
	path := writeConfig(t, "vitest.yaml", browserOnly)
	stdout, _, err := runCLI(t, "explain", path, "-i", "firefox", "-o", "yaml")
	assert.Equal(t, 2, exitCode(t, err))
	assert.Empty(t, stdout)
}
