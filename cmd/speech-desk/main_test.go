package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/catalog"
	"github.com/book-expert/speech-desk/internal/config"
	"github.com/book-expert/speech-desk/internal/controller"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/book-expert/speech-desk/internal/session"
	"github.com/book-expert/speech-desk/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mu       sync.Mutex
	result   core.Result
	requests []core.SynthesisRequest
}

func (p *stubProvider) Synthesize(_ context.Context, req core.SynthesisRequest) (core.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)

	return p.result, nil
}

type countingNotifier struct {
	mu     sync.Mutex
	alerts int
	opened []string
}

func (n *countingNotifier) Alert() {
	n.mu.Lock()
	n.alerts++
	n.mu.Unlock()
}

func (n *countingNotifier) Open(path string) error {
	n.mu.Lock()
	n.opened = append(n.opened, path)
	n.mu.Unlock()

	return nil
}

func newTestRuntime(t *testing.T, provider core.Provider, doc settings.Document) *deskRuntime {
	t.Helper()

	dir := t.TempDir()

	log, err := logger.New(dir, "speech-desk-test.log")
	require.NoError(t, err)

	cat, err := catalog.Load("")
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.Paths.SettingsFile = filepath.Join(dir, "settings.json")
	cfg.Paths.RecordingsDir = filepath.Join(dir, "recordings")

	store := settings.NewJSONStore(cfg.Paths.SettingsFile)
	if doc != nil {
		require.NoError(t, store.Save(doc))
	}

	return &deskRuntime{cfg: cfg, log: log, store: store, catalog: cat, provider: provider, closers: nil}
}

func savedDoc() settings.Document {
	return settings.Document{
		settings.KeySpeechKey:    "abc123",
		settings.KeySpeechRegion: "eastus",
		settings.KeySpeechVoice:  "en-US-JennyNeural",
	}
}

func TestReadText(t *testing.T) {
	t.Parallel()

	text, err := readText([]string{"hello", "world"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	text, err = readText(nil, strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)

	text, err = readText([]string{"-"}, strings.NewReader("dash"))
	require.NoError(t, err)
	assert.Equal(t, "dash", text)
}

func TestMaskKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", maskKey(""))
	assert.Equal(t, "***", maskKey("abc"))
	assert.Equal(t, "****5678", maskKey("12345678"))
}

func TestHeadlessRun_Completed(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{result: core.CompletedResult(100)}
	rt := newTestRuntime(t, provider, savedDoc())

	defer rt.Close()

	var out bytes.Buffer

	outcome, err := headlessRun{
		rt:        rt,
		out:       &out,
		notifier:  &countingNotifier{},
		overrides: fieldFlags{},
		text:      "  hello  ",
		start:     (*controller.Controller).StartReading,
	}.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, outcome.Status)
	assert.Contains(t, out.String(), controller.MsgReading)
	assert.Contains(t, out.String(), session.MsgCompleted)

	require.Len(t, provider.requests, 1)
	assert.Equal(t, "hello", provider.requests[0].Text)
	assert.False(t, provider.requests[0].Output.IsFile())
}

func TestHeadlessRun_FailureRingsAndErrors(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{result: core.CanceledResult(core.CancelError, "401 Unauthorized")}
	rt := newTestRuntime(t, provider, savedDoc())

	defer rt.Close()

	notifier := &countingNotifier{}

	var out bytes.Buffer

	outcome, err := headlessRun{
		rt:        rt,
		out:       &out,
		notifier:  notifier,
		overrides: fieldFlags{},
		text:      "hello",
		start:     (*controller.Controller).StartReading,
	}.run(context.Background())

	require.ErrorIs(t, err, errSynthesisFailed)
	assert.Equal(t, core.StatusFailed, outcome.Status)
	assert.Equal(t, "Error: 401 Unauthorized", outcome.Message)
	assert.Contains(t, out.String(), "Error: 401 Unauthorized")
	assert.Equal(t, 1, notifier.alerts)
}

func TestHeadlessRun_PreconditionNotMet(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{result: core.CompletedResult(1)}
	rt := newTestRuntime(t, provider, nil)

	defer rt.Close()

	_, err := headlessRun{
		rt:        rt,
		out:       &bytes.Buffer{},
		notifier:  nil,
		overrides: fieldFlags{},
		text:      "hello",
		start:     (*controller.Controller).StartReading,
	}.run(context.Background())

	require.ErrorIs(t, err, controller.ErrPreconditionNotMet)
	assert.Empty(t, provider.requests)
}

func TestHeadlessRun_SaveOverridesAfterSuccess(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{result: core.CompletedResult(1)}
	rt := newTestRuntime(t, provider, savedDoc())

	defer rt.Close()

	outPath := filepath.Join(t.TempDir(), "out.wav")

	_, err := headlessRun{
		rt:        rt,
		out:       &bytes.Buffer{},
		notifier:  nil,
		overrides: fieldFlags{key: "", region: "westeurope", voice: "", save: true},
		text:      "hello",
		start: func(ctrl *controller.Controller) error {
			return ctrl.StartRecording(outPath)
		},
	}.run(context.Background())
	require.NoError(t, err)

	require.Len(t, provider.requests, 1)
	assert.Equal(t, outPath, provider.requests[0].Output.FilePath)

	doc, err := rt.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "westeurope", doc.String(settings.KeySpeechRegion, ""))
}

func TestSaveSettings(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t, nil, savedDoc())

	defer rt.Close()

	var out bytes.Buffer

	err := saveSettings(rt, newConsoleView(&out), fieldFlags{key: "", region: "", voice: "en-GB-RyanNeural", save: true})
	require.NoError(t, err)

	doc, err := rt.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "en-GB-RyanNeural", doc.String(settings.KeySpeechVoice, ""))
	assert.Equal(t, "abc123", doc.String(settings.KeySpeechKey, ""))
	assert.Contains(t, out.String(), controller.MsgSettingsSaved)
}

func TestCheckCatalog(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Load("")
	require.NoError(t, err)

	require.NoError(t, checkCatalog(cat, fieldFlags{region: "eastus", voice: "en-US-JennyNeural"}))
	require.ErrorIs(t, checkCatalog(cat, fieldFlags{region: "moon"}), errUnknownRegion)
	require.ErrorIs(t, checkCatalog(cat, fieldFlags{voice: "xx-Nobody"}), errUnknownVoice)
}

func TestPrintSettings(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Load("")
	require.NoError(t, err)

	doc := savedDoc()
	doc.Set(settings.KeyOutFile, true)
	doc.Set(settings.KeyReadFile, true)

	var out bytes.Buffer

	require.NoError(t, printSettings(&out, "settings.json", doc, cat))
	assert.Contains(t, out.String(), "**c123")
	assert.NotContains(t, out.String(), "abc123")
	assert.Contains(t, out.String(), "Clip output: timestamped file")
	assert.Contains(t, out.String(), "Open recordings: true")
}

func TestRecordingPath(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t, nil, nil)

	defer rt.Close()

	now := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

	path := rt.recordingPath("", now)
	assert.Equal(t, filepath.Join(rt.cfg.Paths.RecordingsDir, "speech-20261019-083000.wav"), path)

	explicit := filepath.Join(t.TempDir(), "mine.wav")
	assert.Equal(t, explicit, rt.recordingPath(explicit, now))

	_, statErr := os.Stat(explicit)
	require.NoError(t, statErr)
}

func TestRunClip_EmptyClipboard(t *testing.T) {
	previous := clipboardReader
	clipboardReader = func() (string, error) { return " [1]\n ", nil }

	t.Cleanup(func() { clipboardReader = previous })

	cmd := newClipCmd(&rootFlags{settingsFile: ""})

	var stderr bytes.Buffer

	cmd.SetErr(&stderr)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()
	require.ErrorIs(t, err, errClipboardEmpty)
	assert.Equal(t, "\a", stderr.String())
}
