package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/browserpool"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/httpsession"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
)

func TestBuildAdaptersRegistersAllTwelveSourcesByDefault(t *testing.T) {
	cfg := config.Config{DisabledSources: map[config.SourceID]bool{}}
	logger := telemetry.NewNoopLogger()
	sessions := httpsession.New(logger)
	browser := browserpool.New(1, logger)

	adapters := buildAdapters(cfg, sessions, browser, logger)

	assert.Len(t, adapters, len(config.AllSources))
	seen := make(map[string]bool)
	for _, a := range adapters {
		seen[string(a.SourceID())] = true
	}
	for _, src := range config.AllSources {
		assert.True(t, seen[string(src)], "expected adapter for source %q", src)
	}
}

func TestBuildAdaptersSkipsDisabledSources(t *testing.T) {
	cfg := config.Config{DisabledSources: map[config.SourceID]bool{
		config.SourceBDDK: true,
		config.SourceKVKK: true,
	}}
	logger := telemetry.NewNoopLogger()
	sessions := httpsession.New(logger)
	browser := browserpool.New(1, logger)

	adapters := buildAdapters(cfg, sessions, browser, logger)

	assert.Len(t, adapters, len(config.AllSources)-2)
	for _, a := range adapters {
		assert.NotEqual(t, string(config.SourceBDDK), string(a.SourceID()))
		assert.NotEqual(t, string(config.SourceKVKK), string(a.SourceID()))
	}
}
