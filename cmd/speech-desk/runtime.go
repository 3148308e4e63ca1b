package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/audio"
	"github.com/book-expert/speech-desk/internal/catalog"
	"github.com/book-expert/speech-desk/internal/config"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/book-expert/speech-desk/internal/objectstore"
	"github.com/book-expert/speech-desk/internal/provider/azure"
	"github.com/book-expert/speech-desk/internal/provider/natsbus"
	"github.com/book-expert/speech-desk/internal/settings"
	"github.com/nats-io/nats.go"
)

const logFileName = "speech-desk.log"

// deskRuntime holds everything a command needs. Close releases it.
type deskRuntime struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *settings.JSONStore
	catalog  *catalog.Catalog
	provider core.Provider
	closers  []func()
}

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

// loadConfig reads the configuration, falling back to defaults when no
// configuration is available.
func loadConfig() (*config.Config, error) {
	bootstrapLog, err := setupLogger(os.TempDir(), "speech-desk-bootstrap.log")
	if err != nil {
		return nil, err
	}

	defer func() { _ = bootstrapLog.Close() }()

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		if errors.Is(err, config.ErrUnknownProvider) {
			return nil, err
		}

		bootstrapLog.Warn("Configuration not loaded, using defaults: %v", err)

		return config.Defaults(), nil
	}

	return cfg, nil
}

// newRuntime loads configuration, settings store and catalog. The provider
// is only built when withProvider is set.
func newRuntime(flags *rootFlags, withProvider bool) (*deskRuntime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if flags.settingsFile != "" {
		cfg.Paths.SettingsFile = flags.settingsFile
	}

	log, err := setupLogger(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return nil, err
	}

	rt := &deskRuntime{
		cfg:      cfg,
		log:      log,
		store:    settings.NewJSONStore(cfg.Paths.SettingsFile),
		catalog:  nil,
		provider: nil,
		closers:  nil,
	}

	rt.catalog, err = catalog.Load(cfg.Paths.CatalogFile)
	if err != nil {
		log.Error("Failed to load catalog: %v", err)
		rt.Close()

		return nil, err
	}

	if withProvider {
		err = rt.buildProvider()
		if err != nil {
			log.Error("Failed to set up provider: %v", err)
			rt.Close()

			return nil, err
		}
	}

	return rt, nil
}

func (rt *deskRuntime) buildProvider() error {
	var player audio.Player

	speaker, err := audio.NewSpeaker()
	if err != nil {
		rt.log.Warn("Speaker unavailable, only recording will work: %v", err)
	} else {
		player = speaker
		rt.closers = append(rt.closers, func() { _ = speaker.Close() })
	}

	sink := audio.NewSink(player, rt.log)

	switch rt.cfg.Provider.Kind {
	case config.ProviderNATS:
		return rt.buildRelayProvider(sink)
	default:
		client := azure.NewHTTPClient(rt.cfg.Provider.EndpointTemplate, rt.cfg.Provider.OutputFormat, rt.cfg.Timeout())
		rt.provider = azure.NewProvider(client, sink, rt.log)
		rt.log.Info("Using the speech service directly")

		return nil
	}
}

func (rt *deskRuntime) buildRelayProvider(sink core.AudioSink) error {
	natsConnection, err := nats.Connect(rt.cfg.NATS.URL, nats.Timeout(rt.cfg.Timeout()))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", rt.cfg.NATS.URL, err)
	}

	rt.closers = append(rt.closers, natsConnection.Close)

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	texts, err := objectstore.Open(jetstreamContext, rt.cfg.NATS.TextBucket, rt.cfg.PayloadTTL())
	if err != nil {
		return err
	}

	audioBucket, err := objectstore.Open(jetstreamContext, rt.cfg.NATS.AudioBucket, rt.cfg.PayloadTTL())
	if err != nil {
		return err
	}

	rt.provider = natsbus.New(natsConnection, natsbus.Options{
		Subject: rt.cfg.NATS.RequestSubject,
		Texts:   texts,
		Audio:   audioBucket,
		Sink:    sink,
		Log:     rt.log,
	})
	rt.log.Info("Using the speech relay on %s", rt.cfg.NATS.RequestSubject)

	return nil
}

// recordingPath picks the output file: path when given, otherwise a
// timestamped file in the recordings directory. Paths that cannot be
// created fall back to rec.wav.
func (rt *deskRuntime) recordingPath(path string, now time.Time) string {
	if path == "" {
		mkErr := os.MkdirAll(rt.cfg.Paths.RecordingsDir, 0o750)
		if mkErr != nil {
			rt.log.Warn("Failed to create recordings directory: %v", mkErr)
		}

		path = audio.TimestampedPath(rt.cfg.Paths.RecordingsDir, now)
	}

	chosen := audio.PrepareOutputPath(path, audio.FallbackRecording)
	if chosen != path {
		rt.log.Warn("Cannot write %s, recording to %s instead", path, chosen)
	}

	return chosen
}

// Close releases connections and devices, then the logger.
func (rt *deskRuntime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}

	closeErr := rt.log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
	}
}
