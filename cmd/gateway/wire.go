package main

import (
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/anayasa"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/bddk"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/bedesten"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/danistay"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/emsal"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/kik"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/kiklegacy"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/kvkk"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/rekabet"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/sayistay"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/uyusmazlik"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/adapter/yargitay"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/browserpool"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/httpsession"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
)

// buildAdapters constructs every registered backend adapter against the
// shared session and browser pools. A source named in cfg.DisabledSources is
// skipped entirely — it never gets an adapter, so the registry rejects any
// descriptor that still names it.
func buildAdapters(cfg config.Config, sessions *httpsession.Pool, browser *browserpool.Pool, logger telemetry.Logger) []adapter.Adapter {
	var out []adapter.Adapter
	add := func(src config.SourceID, a adapter.Adapter) {
		if cfg.DisabledSources[src] {
			return
		}
		out = append(out, a)
	}

	add(config.SourceYargitay, yargitay.New(sessions, logger))
	add(config.SourceDanistay, danistay.New(sessions, logger))
	add(config.SourceAnayasa, anayasa.New(sessions, logger))
	add(config.SourceUyusmazlik, uyusmazlik.New(sessions, logger))
	add(config.SourceRekabet, rekabet.New(sessions, logger))
	add(config.SourceBedesten, bedesten.New(sessions, logger))
	add(config.SourceEmsal, emsal.New(sessions, logger))
	add(config.SourceSayistay, sayistay.New(sessions, logger))
	add(config.SourceKIK, kik.New(sessions, logger))
	add(config.SourceKIKLegacy, kiklegacy.New(browser, logger))
	add(config.SourceBDDK, bddk.New(sessions, cfg.BDDKSearchAPIKey, logger))
	add(config.SourceKVKK, kvkk.New(sessions, cfg.KVKKSearchAPIKey, logger))

	return out
}
