package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/gestureconnect/signd/internal/buildinfo"
	"github.com/gestureconnect/signd/internal/history"
	"github.com/gestureconnect/signd/internal/ingest"
	"github.com/gestureconnect/signd/internal/logging"
	"github.com/gestureconnect/signd/internal/metrics"
	"github.com/gestureconnect/signd/internal/predict"
	"github.com/gestureconnect/signd/internal/server"
	"github.com/gestureconnect/signd/internal/setup"
	"github.com/gestureconnect/signd/internal/shutdown"
	"github.com/gestureconnect/signd/internal/signd"
	"github.com/gestureconnect/signd/internal/stream"
	"golang.org/x/sync/errgroup"
)

func main() {
	fmt.Print(buildinfo.Graffiti)
	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}
	defer done()
}

func run(ctx context.Context, cancel func()) error {
	logger := logging.FromContext(ctx)
	config := signd.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(context.Background())

	// One slot per background manager that reports on shutdown: the
	// transcript flusher, the notifier and the frame queue drain.
	shutdownCh := make(chan error, 3)

	var transcript *history.Manager
	if provideFn := env.ProvideTranscript(); provideFn != nil {
		transcript = provideFn(shutdownCh)
	}
	notifier, err := env.ProvideNotifier()(shutdownCh)
	if err != nil {
		return fmt.Errorf("notifier provider function error: %w", err)
	}
	registry, err := env.ProvideRegistry()(notifier, transcript, shutdownCh)
	if err != nil {
		return fmt.Errorf("registry provider function error: %w", err)
	}
	if err := registry.Run(ctx); err != nil {
		return fmt.Errorf("registry.Run: %w", err)
	}

	mux := http.NewServeMux()

	ingestHandler, err := ingest.NewHandler(&config.Ingest, registry)
	if err != nil {
		return fmt.Errorf("ingest.NewHandler: %w", err)
	}
	predictHandler, err := predict.NewHandler(&config.Predict, registry)
	if err != nil {
		return fmt.Errorf("predict.NewHandler: %w", err)
	}
	resetHandler, err := predict.NewResetHandler(&config.Predict, registry)
	if err != nil {
		return fmt.Errorf("predict.NewResetHandler: %w", err)
	}
	var transcriptReader predict.Transcript
	if transcript != nil {
		transcriptReader = transcript
	}
	statusHandler, err := predict.NewStatusHandler(&config.Predict, registry, transcriptReader)
	if err != nil {
		return fmt.Errorf("predict.NewStatusHandler: %w", err)
	}
	streamHandler, err := stream.NewHandler(&config.Stream, registry)
	if err != nil {
		return fmt.Errorf("stream.NewHandler: %w", err)
	}

	mux.Handle("/ingest", ingestHandler)
	mux.Handle("/predict", predictHandler)
	mux.Handle("/reset", resetHandler)
	mux.Handle("/status", statusHandler)
	mux.Handle("/classes", predict.NewClassesHandler(registry.Classes()))
	mux.Handle("/stream", streamHandler)
	mux.Handle("/health", server.HandleHealth(ctx))

	exporter, err := metrics.NewExporter()
	if err != nil {
		return fmt.Errorf("metrics.NewExporter: %w", err)
	}
	// pprof registers itself on the default mux via the blank import.
	debugMux := http.DefaultServeMux
	debugMux.Handle("/metrics", exporter)
	debugMux.Handle("/debug/sessions", predict.NewDebugHandler(registry))

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	debugSrv, err := server.New(config.DebugAddr)
	if err != nil {
		return fmt.Errorf("server.New debug: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ServeHTTPHandler(gctx, mux)
	})
	g.Go(func() error {
		return debugSrv.ServeHTTPHandler(gctx, debugMux)
	})
	go func() {
		if err := g.Wait(); err != nil {
			logger.Errorf("server error: %v", err)
			cancel()
		}
	}()

	return <-shutdownCh
}
