// Package controller mediates between a view and the synthesis session,
// validation policy and settings store.
//
// All exported methods must be called on the foreground thread, the one
// that runs the Dispatcher's functions. Session notifications arrive on
// other goroutines and are handed back to that thread through the Dispatcher.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/book-expert/speech-desk/internal/session"
	"github.com/book-expert/speech-desk/internal/settings"
	"github.com/book-expert/speech-desk/internal/validation"
)

// Status messages shown to the user.
const (
	MsgReady             = "Ready."
	MsgReading           = "Reading..."
	MsgSettingsSaved     = "Settings saved."
	msgFmtRecording      = "Recording to %s..."
	msgFmtSaveFailed     = "Failed to save settings: %v"
	msgFmtSettingsLoaded = "Could not read settings, using defaults: %v"
)

var (
	// ErrPreconditionNotMet indicates a command was invoked while the
	// inputs do not allow it. No state changes.
	ErrPreconditionNotMet = errors.New("precondition not met")
	// ErrSessionActive indicates a synthesis session is already running.
	ErrSessionActive = errors.New("a synthesis session is already active")
	// ErrMissingDependency indicates Options lacks a required collaborator.
	ErrMissingDependency = errors.New("missing controller dependency")
)

// SettingsStore loads and persists the settings document.
type SettingsStore interface {
	Load() (settings.Document, error)
	Save(doc settings.Document) error
}

// Options wires a Controller.
type Options struct {
	View       core.View
	Store      SettingsStore
	Provider   core.Provider
	Dispatcher core.Dispatcher
	Log        *logger.Logger

	// Notifier is optional; without it failures make no sound and
	// recordings are not opened.
	Notifier core.Notifier

	// Context is the parent of every session context. Defaults to Background.
	Context context.Context

	// AfterTerminal, if set, runs on the foreground thread after a
	// session's outcome has been applied to the view.
	AfterTerminal func(outcome core.Outcome)
}

// Controller owns the field state, the dirty flag and the active session.
type Controller struct {
	view          core.View
	store         SettingsStore
	provider      core.Provider
	dispatcher    core.Dispatcher
	notifier      core.Notifier
	log           *logger.Logger
	ctx           context.Context
	afterTerminal func(outcome core.Outcome)

	doc        settings.Document
	fields     core.FieldState
	saved      core.FieldState
	dirty      bool
	highlights map[core.Field]bool
	active     *session.Session
}

// New loads the persisted settings and pushes the initial state to the view.
// A settings read failure is logged and reported on the status line; the
// controller then starts from defaults.
func New(opts Options) (*Controller, error) {
	if opts.View == nil || opts.Store == nil || opts.Provider == nil || opts.Dispatcher == nil || opts.Log == nil {
		return nil, ErrMissingDependency
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Controller{
		view:          opts.View,
		store:         opts.Store,
		provider:      opts.Provider,
		dispatcher:    opts.Dispatcher,
		notifier:      opts.Notifier,
		log:           opts.Log,
		ctx:           ctx,
		afterTerminal: opts.AfterTerminal,
		doc:           settings.Document{},
		fields:        core.FieldState{},
		saved:         core.FieldState{},
		dirty:         false,
		highlights:    make(map[core.Field]bool),
		active:        nil,
	}

	status := MsgReady

	doc, err := c.store.Load()
	if err != nil {
		c.log.Warn("Settings not loaded, continuing with defaults: %v", err)
		status = fmt.Sprintf(msgFmtSettingsLoaded, err)
	}

	if doc != nil {
		c.doc = doc
	}

	c.fields = core.FieldState{
		Key:    c.doc.String(settings.KeySpeechKey, ""),
		Region: c.doc.String(settings.KeySpeechRegion, ""),
		Voice:  c.doc.String(settings.KeySpeechVoice, ""),
		Text:   "",
	}
	c.saved = c.fields.Settings()

	c.view.SetInputEnabled(true)
	c.clearHighlights()
	c.view.SetDirty(false)
	c.view.SetSaveEnabled(false)
	c.view.SetReadEnabled(c.ReadEnabled())
	c.view.ShowStatus(status)

	return c, nil
}

// Fields returns the current input values.
func (c *Controller) Fields() core.FieldState {
	return c.fields
}

// Document returns a copy of the last loaded or saved settings document.
func (c *Controller) Document() settings.Document {
	return c.doc.Clone()
}

// Dirty reports whether key, region or voice differ from the saved settings.
func (c *Controller) Dirty() bool {
	return c.dirty
}

// Highlighted reports whether a field is marked as unconfirmed.
func (c *Controller) Highlighted(field core.Field) bool {
	return c.highlights[field]
}

// Active reports whether a synthesis session is in flight.
func (c *Controller) Active() bool {
	return c.active != nil
}

// ReadEnabled reports whether a read or record command would be accepted.
func (c *Controller) ReadEnabled() bool {
	return c.active == nil && validation.CanSynthesize(c.fields)
}

// OnFieldChanged records a new value for field and refreshes the dirty and
// read-enabled state. Settings fields are highlighted as unconfirmed and
// saving is disabled until a synthesis succeeds with them.
func (c *Controller) OnFieldChanged(field core.Field, value string) {
	c.fields = c.fields.With(field, value)

	if field.IsSetting() {
		c.highlights[field] = true
		c.view.SetFieldHighlight(field, true)
		c.view.SetSaveEnabled(false)
	}

	c.dirty = validation.IsDirty(c.fields, c.saved)
	c.view.SetDirty(c.dirty)
	c.view.SetReadEnabled(c.ReadEnabled())
}

// StartReading synthesizes the text to the default speaker.
func (c *Controller) StartReading() error {
	return c.start(core.Speaker(), MsgReading)
}

// StartRecording synthesizes the text into the WAV file at outputPath.
func (c *Controller) StartRecording(outputPath string) error {
	if strings.TrimSpace(outputPath) == "" {
		return fmt.Errorf("%w: output path is empty", ErrPreconditionNotMet)
	}

	return c.start(core.File(outputPath), fmt.Sprintf(msgFmtRecording, outputPath))
}

// Stop asks the active session to cancel. Without one it does nothing.
func (c *Controller) Stop() {
	if c.active == nil {
		return
	}

	c.active.RequestCancel()
}

// SaveSettings persists key, region and voice. The text body is ignored.
// On a write failure the settings stay dirty and the error wraps
// settings.ErrWrite.
func (c *Controller) SaveSettings() error {
	if !validation.CanSave(c.fields) {
		return fmt.Errorf("%w: key, region and voice are required", ErrPreconditionNotMet)
	}

	current := c.fields.Settings()

	doc := c.doc.Clone()
	doc.Set(settings.KeySpeechKey, current.Key)
	doc.Set(settings.KeySpeechRegion, current.Region)
	doc.Set(settings.KeySpeechVoice, current.Voice)

	err := c.store.Save(doc)
	if err != nil {
		c.log.Error("Failed to save settings: %v", err)
		c.view.ShowStatus(fmt.Sprintf(msgFmtSaveFailed, err))

		return fmt.Errorf("failed to save settings: %w", err)
	}

	c.doc = doc
	c.saved = current
	c.dirty = false

	c.clearHighlights()
	c.view.SetDirty(false)
	c.view.SetSaveEnabled(false)
	c.view.ShowStatus(MsgSettingsSaved)
	c.log.Info("Settings saved: region=%s voice=%s", current.Region, current.Voice)

	return nil
}

func (c *Controller) start(target core.OutputTarget, status string) error {
	if c.active != nil {
		return ErrSessionActive
	}

	if !validation.CanSynthesize(c.fields) {
		return fmt.Errorf("%w: key, region, voice and text are required", ErrPreconditionNotMet)
	}

	req := core.SynthesisRequest{
		Credential: strings.TrimSpace(c.fields.Key),
		Region:     c.fields.Region,
		Voice:      c.fields.Voice,
		Text:       strings.TrimSpace(c.fields.Text),
		Output:     target,
	}

	c.view.SetInputEnabled(false)
	c.view.SetReadEnabled(false)
	c.view.SetSaveEnabled(false)
	c.view.ShowStatus(status)

	c.active = session.Start(c.ctx, c.provider, req, sessionObserver{controller: c}, c.log)

	return nil
}

func (c *Controller) onSessionTerminal(sess *session.Session, outcome core.Outcome) {
	if sess != c.active {
		c.log.Warn("Ignoring outcome of inactive session %s", sess.ID())

		return
	}

	c.active = nil

	c.view.ShowStatus(outcome.Message)
	c.view.SetInputEnabled(true)
	c.view.SetReadEnabled(c.ReadEnabled())

	switch outcome.Status {
	case core.StatusCompleted, core.StatusCanceled:
		c.view.SetSaveEnabled(c.dirty)

		if outcome.Status == core.StatusCompleted {
			c.openRecording(sess.Request().Output)
		}
	case core.StatusFailed:
		c.view.SetSaveEnabled(false)

		if c.notifier != nil {
			c.notifier.Alert()
		}
	}

	if c.afterTerminal != nil {
		c.afterTerminal(outcome)
	}
}

func (c *Controller) openRecording(target core.OutputTarget) {
	if !target.IsFile() || !c.doc.ReadFileAfter() || c.notifier == nil {
		return
	}

	err := c.notifier.Open(target.FilePath)
	if err != nil {
		c.log.Warn("Failed to open recording %s: %v", target.FilePath, err)
	}
}

func (c *Controller) clearHighlights() {
	for _, field := range core.SettingsFields {
		c.highlights[field] = false
		c.view.SetFieldHighlight(field, false)
	}
}

// sessionObserver hands session notifications to the foreground thread.
type sessionObserver struct {
	controller *Controller
}

func (o sessionObserver) OnStatusChanged(sess *session.Session, status core.Status) {
	o.controller.log.Info("Session %s is %s", sess.ID(), status)
}

func (o sessionObserver) OnTerminal(sess *session.Session, outcome core.Outcome) {
	o.controller.dispatcher.Dispatch(func() {
		o.controller.onSessionTerminal(sess, outcome)
	})
}
