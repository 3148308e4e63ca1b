// Package tui is the interactive terminal window for speech-desk.
package tui

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/speech-desk/internal/audio"
	"github.com/book-expert/speech-desk/internal/catalog"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	windowTitle   = " Speech Desk "
	dirtyMarker   = "*"
	labelKey      = "Key"
	labelRegion   = "Region"
	labelVoice    = "Voice"
	labelText     = "Text"
	labelOutput   = "Record to"
	buttonRead    = "Read"
	buttonRecord  = "Record"
	buttonStop    = "Stop"
	buttonSave    = "Save"
	fieldWidth    = 48
	textRows      = 8
	dirPermission = 0o750
)

var highlightColor = tcell.ColorYellow

// Controls is what the window drives. *controller.Controller implements it.
type Controls interface {
	Fields() core.FieldState
	OnFieldChanged(field core.Field, value string)
	StartReading() error
	StartRecording(outputPath string) error
	Stop()
	SaveSettings() error
}

// Window implements core.View with tview widgets. Its methods must run on
// the tview event goroutine once the application is running.
type Window struct {
	catalog       *catalog.Catalog
	recordingsDir string
	now           func() time.Time

	form   *tview.Form
	key    *tview.InputField
	region *tview.DropDown
	voice  *tview.DropDown
	text   *tview.TextArea
	output *tview.InputField
	status *tview.TextView
	root   *tview.Flex

	read   *tview.Button
	record *tview.Button
	stop   *tview.Button
	save   *tview.Button

	controls    Controls
	syncing     bool
	dirty       bool
	highlighted map[core.Field]bool
}

// NewWindow builds the widgets. Nothing is routed to a controller until Bind.
func NewWindow(cat *catalog.Catalog, recordingsDir string) *Window {
	w := &Window{
		catalog:       cat,
		recordingsDir: recordingsDir,
		now:           time.Now,
		highlighted:   make(map[core.Field]bool),
	}

	w.key = tview.NewInputField().
		SetLabel(labelKey).
		SetFieldWidth(fieldWidth).
		SetMaskCharacter('*').
		SetChangedFunc(func(text string) { w.changed(core.FieldKey, text) })

	regionNames := make([]string, 0, len(cat.Regions()))
	for _, region := range cat.Regions() {
		regionNames = append(regionNames, region.Name)
	}

	w.region = tview.NewDropDown().
		SetLabel(labelRegion).
		SetFieldWidth(fieldWidth).
		SetOptions(regionNames, func(_ string, index int) {
			w.changed(core.FieldRegion, w.regionCode(index))
		})

	voiceNames := make([]string, 0, len(cat.Voices()))
	for _, voice := range cat.Voices() {
		voiceNames = append(voiceNames, voice.DisplayName())
	}

	w.voice = tview.NewDropDown().
		SetLabel(labelVoice).
		SetFieldWidth(fieldWidth).
		SetOptions(voiceNames, func(_ string, index int) {
			w.changed(core.FieldVoice, w.voiceCode(index))
		})

	w.text = tview.NewTextArea().
		SetLabel(labelText).
		SetSize(textRows, fieldWidth)
	w.text.SetChangedFunc(func() { w.changed(core.FieldText, w.text.GetText()) })

	w.output = tview.NewInputField().
		SetLabel(labelOutput).
		SetFieldWidth(fieldWidth).
		SetPlaceholder("timestamped file in " + recordingsDir)

	w.form = tview.NewForm().
		AddFormItem(w.key).
		AddFormItem(w.region).
		AddFormItem(w.voice).
		AddFormItem(w.text).
		AddFormItem(w.output).
		AddButton(buttonRead, w.onRead).
		AddButton(buttonRecord, w.onRecord).
		AddButton(buttonStop, w.onStop).
		AddButton(buttonSave, w.onSave)
	w.form.SetBorder(true).SetTitle(windowTitle)

	w.read = w.form.GetButton(w.form.GetButtonIndex(buttonRead))
	w.record = w.form.GetButton(w.form.GetButtonIndex(buttonRecord))
	w.stop = w.form.GetButton(w.form.GetButtonIndex(buttonStop))
	w.save = w.form.GetButton(w.form.GetButtonIndex(buttonSave))

	w.status = tview.NewTextView().SetDynamicColors(false)
	w.status.SetBorder(true)

	w.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(w.form, 0, 1, true).
		AddItem(w.status, 3, 0, false)

	return w
}

// Root is the primitive to hand to tview.Application.SetRoot.
func (w *Window) Root() tview.Primitive {
	return w.root
}

// Bind seeds the widgets from the controls' current fields and routes user
// edits and button presses to them.
func (w *Window) Bind(controls Controls) {
	w.controls = controls
	fields := controls.Fields()

	w.syncing = true
	defer func() { w.syncing = false }()

	w.key.SetText(fields.Key)
	w.region.SetCurrentOption(w.catalog.RegionIndex(fields.Region))
	w.voice.SetCurrentOption(w.catalog.VoiceIndex(fields.Voice))
	w.text.SetText(fields.Text, true)
}

// ShowStatus replaces the status line.
func (w *Window) ShowStatus(text string) {
	w.status.SetText(text)
}

// SetInputEnabled locks or unlocks every editable field.
func (w *Window) SetInputEnabled(enabled bool) {
	w.key.SetDisabled(!enabled)
	w.region.SetDisabled(!enabled)
	w.voice.SetDisabled(!enabled)
	w.text.SetDisabled(!enabled)
	w.output.SetDisabled(!enabled)
}

// SetFieldHighlight colors the label of an unconfirmed settings field.
func (w *Window) SetFieldHighlight(field core.Field, invalid bool) {
	w.highlighted[field] = invalid

	color := tview.Styles.SecondaryTextColor
	if invalid {
		color = highlightColor
	}

	switch field {
	case core.FieldKey:
		w.key.SetLabelColor(color)
	case core.FieldRegion:
		w.region.SetLabelColor(color)
	case core.FieldVoice:
		w.voice.SetLabelColor(color)
	case core.FieldText:
	}
}

// SetSaveEnabled toggles the Save button.
func (w *Window) SetSaveEnabled(enabled bool) {
	w.save.SetDisabled(!enabled)
}

// SetReadEnabled toggles the Read and Record buttons.
func (w *Window) SetReadEnabled(enabled bool) {
	w.read.SetDisabled(!enabled)
	w.record.SetDisabled(!enabled)
}

// SetDirty prefixes the window title with a marker while settings are unsaved.
func (w *Window) SetDirty(dirty bool) {
	w.dirty = dirty

	if dirty {
		w.form.SetTitle(dirtyMarker + windowTitle)

		return
	}

	w.form.SetTitle(windowTitle)
}

// Title is the current window title.
func (w *Window) Title() string {
	return w.form.GetTitle()
}

// Status is the current status line.
func (w *Window) Status() string {
	return w.status.GetText(true)
}

// Highlighted reports whether a field is shown as unconfirmed.
func (w *Window) Highlighted(field core.Field) bool {
	return w.highlighted[field]
}

// ReadEnabled reports whether the Read button accepts presses.
func (w *Window) ReadEnabled() bool {
	return !w.read.IsDisabled()
}

// SaveEnabled reports whether the Save button accepts presses.
func (w *Window) SaveEnabled() bool {
	return !w.save.IsDisabled()
}

func (w *Window) changed(field core.Field, value string) {
	if w.syncing || w.controls == nil {
		return
	}

	w.controls.OnFieldChanged(field, value)
}

func (w *Window) regionCode(index int) string {
	regions := w.catalog.Regions()
	if index < 0 || index >= len(regions) {
		return ""
	}

	return regions[index].Code
}

func (w *Window) voiceCode(index int) string {
	voices := w.catalog.Voices()
	if index < 0 || index >= len(voices) {
		return ""
	}

	return voices[index].Code
}

func (w *Window) onRead() {
	if w.controls == nil {
		return
	}

	w.report(w.controls.StartReading())
}

func (w *Window) onRecord() {
	if w.controls == nil {
		return
	}

	path := strings.TrimSpace(w.output.GetText())
	if path == "" {
		_ = os.MkdirAll(w.recordingsDir, dirPermission)
		path = audio.TimestampedPath(w.recordingsDir, w.now())
	}

	path = audio.PrepareOutputPath(path, audio.FallbackRecording)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	w.output.SetText(path)
	w.report(w.controls.StartRecording(path))
}

func (w *Window) onStop() {
	if w.controls == nil {
		return
	}

	w.controls.Stop()
}

func (w *Window) onSave() {
	if w.controls == nil {
		return
	}

	w.report(w.controls.SaveSettings())
}

func (w *Window) report(err error) {
	if err != nil {
		w.ShowStatus("Error: " + err.Error())
	}
}
