package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Patch is a partially specified record. Nil fields were absent from the
// stored blob and must not overwrite the live values.
type Patch struct {
	Volume *float64 `json:"volume,omitempty"`
	CPM    *float64 `json:"cpm,omitempty"`
	Bass   *bool    `json:"bass,omitempty"`
	Melody *bool    `json:"melody,omitempty"`
	Guitar *bool    `json:"guitar,omitempty"`
	Drums1 *bool    `json:"drums1,omitempty"`
	Drums2 *bool    `json:"drums2,omitempty"`

	raw []byte
}

// PatchOf returns a patch with every field of s present.
func PatchOf(s Settings) Patch {
	return Patch{
		Volume: &s.Volume,
		CPM:    &s.CPM,
		Bass:   &s.Bass,
		Melody: &s.Melody,
		Guitar: &s.Guitar,
		Drums1: &s.Drums1,
		Drums2: &s.Drums2,
	}
}

// ParsePatch decodes a stored blob. Unknown keys are ignored.
func ParsePatch(blob []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(blob, &p); err != nil {
		return Patch{}, fmt.Errorf("decode settings: %w", err)
	}
	p.raw = append([]byte(nil), blob...)
	return p, nil
}

func (p Patch) track(t Track) *bool {
	switch t {
	case Bass:
		return p.Bass
	case Melody:
		return p.Melody
	case Guitar:
		return p.Guitar
	case Drums1:
		return p.Drums1
	case Drums2:
		return p.Drums2
	}
	return nil
}

// Empty reports whether no field is present.
func (p Patch) Empty() bool {
	if p.Volume != nil || p.CPM != nil {
		return false
	}
	for _, t := range trackOrder {
		if p.track(t) != nil {
			return false
		}
	}
	return true
}

// JSON returns the blob the patch was decoded from, indented with two
// spaces. Patches built in memory are marshalled instead.
func (p Patch) JSON() string {
	blob := p.raw
	if blob == nil {
		var err error
		if blob, err = json.Marshal(p); err != nil {
			return ""
		}
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, blob, "", "  "); err != nil {
		return string(blob)
	}
	return buf.String()
}
