package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"goa.design/clue/log"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/browserpool"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/config"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/health"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/httpsession"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/model"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/normalize"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/telemetry"
	"github.com/saidsurucu/yargi-mcp-sub000/internal/toolregistry"
)

var (
	addrF = ""
	dbgF  = false
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Unified Turkish legal-research gateway",
	Long: `gateway exposes a single tool-oriented RPC surface over twelve Turkish
legal and regulatory research backends, normalizing every response into
paginated Markdown chunks behind one uniform envelope.`,
	RunE: runServer,
}

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe every backend once and exit non-zero if any is unhealthy",
	RunE:  runHealthcheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addrF, "addr", "localhost:8090", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVar(&dbgF, "debug", false, "log request and response bodies")
	rootCmd.AddCommand(healthcheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogContext() context.Context {
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if dbgF {
		ctx = log.Context(ctx, log.WithDebug())
	}
	return ctx
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := newLogContext()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(ctx, err)
	}

	logger := telemetry.NewClueLogger()
	metrics := telemetry.NewClueMetrics()
	tracer := telemetry.NewClueTracer()

	sessions := httpsession.New(logger)
	browser := browserpool.New(cfg.BrowserMaxContext, logger)
	normalizer := normalize.New()

	adapters := buildAdapters(cfg, sessions, browser, logger)

	var descriptors []toolregistry.Descriptor
	for _, d := range toolregistry.BuildDescriptors() {
		if !cfg.DisabledSources[config.SourceID(d.Source)] {
			descriptors = append(descriptors, d)
		}
	}

	registry, err := toolregistry.New(toolregistry.Deps{
		Adapters:   adapters,
		Normalizer: normalizer,
		Timeouts:   cfg,
		Logger:     logger,
		Metrics:    metrics,
		Tracer:     tracer,
	}, descriptors...)
	if err != nil {
		log.Fatal(ctx, err)
	}

	errc := make(chan error, 1)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(ctx)

	handleHTTPServer(ctx, addrF, registry, &wg, errc)

	log.Printf(ctx, "exiting (%v)", <-errc)
	cancel()
	wg.Wait()

	shutdown(context.Background(), ctx, browser, sessions)
	log.Printf(ctx, "exited")
	return nil
}

// shutdown implements the graceful teardown order: browser pool first (it
// holds the heaviest OS resources), then the HTTP session pool. Each step is
// independently idempotent and a failure in one does not block the next.
func shutdown(shutdownCtx, logCtx context.Context, browser *browserpool.Pool, sessions *httpsession.Pool) {
	if err := browser.Shutdown(shutdownCtx); err != nil {
		log.Printf(logCtx, "browser pool shutdown: %v", err)
	}
	if err := sessions.Shutdown(shutdownCtx); err != nil {
		log.Printf(logCtx, "http session pool shutdown: %v", err)
	}
}

func runHealthcheck(cmd *cobra.Command, args []string) error {
	ctx := newLogContext()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := telemetry.NewNoopLogger()
	sessions := httpsession.New(logger)
	browser := browserpool.New(cfg.BrowserMaxContext, logger)
	defer shutdown(context.Background(), ctx, browser, sessions)

	adapters := buildAdapters(cfg, sessions, browser, logger)

	probeCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	aggregate := health.ProbeAll(probeCtx, adapters, 10*time.Second)
	for _, sample := range aggregate.Samples {
		log.Printf(ctx, "health %s: %s", sample.SourceID, sample.Status)
	}
	if aggregate.Status != model.HealthHealthy {
		return fmt.Errorf("healthcheck failed: aggregate status %q", aggregate.Status)
	}
	return nil
}
