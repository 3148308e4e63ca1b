// Package validation decides whether the current inputs allow synthesis or
// saving, and whether they differ from the persisted settings.
package validation

import (
	"strings"

	"github.com/book-expert/speech-desk/internal/core"
)

// CanSynthesize reports whether key, region, voice and text are all present.
// Key and text are checked after trimming whitespace.
func CanSynthesize(fields core.FieldState) bool {
	return CanSave(fields) && strings.TrimSpace(fields.Text) != ""
}

// CanSave reports whether the settings subset (key, region, voice) is present.
func CanSave(fields core.FieldState) bool {
	return strings.TrimSpace(fields.Key) != "" && fields.Region != "" && fields.Voice != ""
}

// IsDirty reports whether key, region or voice differ from the saved values.
// The text body never affects the result.
func IsDirty(fields, saved core.FieldState) bool {
	current := fields.Settings()
	last := saved.Settings()

	return current.Key != last.Key || current.Region != last.Region || current.Voice != last.Voice
}
