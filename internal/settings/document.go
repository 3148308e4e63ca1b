// Package settings persists the user's speech settings as a flat JSON document.
package settings

import (
	"encoding/json"
	"maps"
	"strconv"
)

// Persisted keys.
const (
	KeySpeechKey    = "SPEECH_KEY"
	KeySpeechRegion = "SPEECH_REGION"
	KeySpeechVoice  = "SPEECH_VOICE"
	KeyOutFile      = "OUT_FILE"
	KeyReadFile     = "READ_FILE"
)

// Document is a flat key/value configuration. Keys it does not know about
// are kept untouched so they survive a load/save cycle.
type Document map[string]any

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	maps.Copy(out, d)

	return out
}

// String returns the string value for key, or def when absent or not a string.
func (d Document) String(key, def string) string {
	value, ok := d[key].(string)
	if !ok {
		return def
	}

	return value
}

// Bool returns the boolean value for key, or def when absent or not a bool.
// The strings "true" and "false" are accepted as well.
func (d Document) Bool(key string, def bool) bool {
	switch value := d[key].(type) {
	case bool:
		return value
	case string:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return def
		}

		return parsed
	default:
		return def
	}
}

// Set stores a value under key.
func (d Document) Set(key string, value any) {
	d[key] = value
}

// OutputFile interprets OUT_FILE. A string selects that path; true asks for
// an auto-generated timestamped filename; false or absent means the speaker.
func (d Document) OutputFile() (path string, auto bool) {
	switch value := d[KeyOutFile].(type) {
	case string:
		return value, false
	case bool:
		return "", value
	default:
		return "", false
	}
}

// ReadFileAfter reports whether a finished recording should be opened.
func (d Document) ReadFileAfter() bool {
	return d.Bool(KeyReadFile, false)
}

// Int returns a numeric value for key, or def.
func (d Document) Int(key string, def int) int {
	switch value := d[key].(type) {
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return def
		}

		return int(parsed)
	case float64:
		return int(value)
	case int:
		return value
	default:
		return def
	}
}
