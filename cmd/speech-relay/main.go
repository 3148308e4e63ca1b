// main package for the speech-relay service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/config"
	"github.com/book-expert/speech-desk/internal/objectstore"
	"github.com/book-expert/speech-desk/internal/provider/azure"
	"github.com/book-expert/speech-desk/internal/relay"
	"github.com/book-expert/speech-desk/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "speech-relay.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	defer func() { _ = bootstrapLog.Close() }()

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	// 4. Connect to NATS and bind the payload buckets
	natsConnection, err := nats.Connect(cfg.NATS.URL, nats.Name("speech-relay"))
	if err != nil {
		finalLog.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	texts, err := objectstore.Open(jetstreamContext, cfg.NATS.TextBucket, cfg.PayloadTTL())
	if err != nil {
		return err
	}

	audio, err := objectstore.Open(jetstreamContext, cfg.NATS.AudioBucket, cfg.PayloadTTL())
	if err != nil {
		return err
	}

	// 5. Start the worker until interrupted
	speech := azure.NewHTTPClient(cfg.Provider.EndpointTemplate, cfg.Provider.OutputFormat, cfg.Timeout())

	relayWorker, err := worker.NewNatsWorker(natsConnection, worker.Options{
		Subject: cfg.NATS.RequestSubject,
		Texts:   texts,
		Audio:   audio,
		Speech:  speech,
		Log:     finalLog,
		Fallback: relay.Credentials{
			Key:    cfg.Relay.FallbackKey,
			Region: cfg.Relay.FallbackRegion,
		},
		HandleTimeout: cfg.Timeout(),
	})
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	finalLog.System("Speech-Relay successfully initialized. Listening for jobs on subject: %s", cfg.NATS.RequestSubject)

	return relayWorker.Run(ctx)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
