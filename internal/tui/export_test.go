package tui

import "time"

func EditKey(w *Window, value string) { w.key.SetText(value) }

func SelectVoice(w *Window, index int) { w.voice.SetCurrentOption(index) }

func PressRead(w *Window) { w.onRead() }

func PressRecord(w *Window) { w.onRecord() }

func PressStop(w *Window) { w.onStop() }

func PressSave(w *Window) { w.onSave() }

func SetClock(w *Window, now func() time.Time) { w.now = now }
