// Package catalog provides the read-only list of selectable regions and voices.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrRead indicates the catalog is missing, unreadable or empty. The
// application cannot start without it.
var ErrRead = errors.New("catalog read failed")

//go:embed catalog.json
var bundled []byte

// Region is a selectable service region.
type Region struct {
	Name string `json:"regionName"`
	Code string `json:"regionCode"`
}

// Voice is a selectable synthesis voice.
type Voice struct {
	Name string `json:"voiceName"`
	Code string `json:"voiceCode"`
	Sex  string `json:"voiceSex"`
}

// DisplayName is the label shown next to the voice in a picker.
func (v Voice) DisplayName() string {
	switch strings.ToLower(v.Sex) {
	case "female":
		return v.Name + " ♀"
	case "male":
		return v.Name + " ♂"
	default:
		return v.Name
	}
}

type document struct {
	Regions []Region `json:"regions"`
	Voices  []Voice  `json:"voices"`
}

// Catalog is immutable after Load.
type Catalog struct {
	regions []Region
	voices  []Voice
}

// Load reads the catalog at path, or the bundled catalog when path is empty.
func Load(path string) (*Catalog, error) {
	data := bundled

	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRead, path, err)
		}

		data = fileData
	}

	return Parse(data)
}

// Parse builds a catalog from its JSON form.
func Parse(data []byte) (*Catalog, error) {
	var doc document

	err := json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	if len(doc.Regions) == 0 || len(doc.Voices) == 0 {
		return nil, fmt.Errorf("%w: catalog needs at least one region and one voice", ErrRead)
	}

	for _, region := range doc.Regions {
		if region.Code == "" {
			return nil, fmt.Errorf("%w: region %q has no code", ErrRead, region.Name)
		}
	}

	for _, voice := range doc.Voices {
		if voice.Code == "" {
			return nil, fmt.Errorf("%w: voice %q has no code", ErrRead, voice.Name)
		}
	}

	return &Catalog{regions: doc.Regions, voices: doc.Voices}, nil
}

// Regions returns the regions in catalog order.
func (c *Catalog) Regions() []Region {
	return append([]Region(nil), c.regions...)
}

// Voices returns the voices in catalog order.
func (c *Catalog) Voices() []Voice {
	return append([]Voice(nil), c.voices...)
}

// Region looks a region up by code.
func (c *Catalog) Region(code string) (Region, bool) {
	for _, region := range c.regions {
		if region.Code == code {
			return region, true
		}
	}

	return Region{}, false
}

// Voice looks a voice up by code.
func (c *Catalog) Voice(code string) (Voice, bool) {
	for _, voice := range c.voices {
		if voice.Code == code {
			return voice, true
		}
	}

	return Voice{}, false
}

// RegionIndex returns the position of code in Regions, or -1.
func (c *Catalog) RegionIndex(code string) int {
	for i, region := range c.regions {
		if region.Code == code {
			return i
		}
	}

	return -1
}

// VoiceIndex returns the position of code in Voices, or -1.
func (c *Catalog) VoiceIndex(code string) int {
	for i, voice := range c.voices {
		if voice.Code == code {
			return i
		}
	}

	return -1
}
