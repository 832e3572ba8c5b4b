// Package settings holds the deck's live control record and persists it to a
// single key-value slot.
package settings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Track names one togglable part of the pattern.
type Track string

const (
	Bass   Track = "bass"
	Melody Track = "melody"
	Guitar Track = "guitar"
	Drums1 Track = "drums1"
	Drums2 Track = "drums2"
)

// Tempo bounds in cycles per minute.
const (
	MinCPM     = 60
	MaxCPM     = 200
	DefaultCPM = 120

	DefaultVolume = 0.8
)

var (
	// ErrNotFound is returned by Store.Load when the slot is empty.
	ErrNotFound = errors.New("no saved settings found")
	// ErrCPMRange is returned by ParseCPM for non-numeric or out of range input.
	ErrCPMRange = errors.New("cpm must be between 60 and 200")
	// ErrUnknownTrack is returned by ParseTrack.
	ErrUnknownTrack = errors.New("unknown track")
)

var trackOrder = []Track{Bass, Melody, Guitar, Drums1, Drums2}

// Settings is the flat control record the template is rendered from.
type Settings struct {
	Volume float64 `json:"volume"`
	CPM    float64 `json:"cpm"`
	Bass   bool    `json:"bass"`
	Melody bool    `json:"melody"`
	Guitar bool    `json:"guitar"`
	Drums1 bool    `json:"drums1"`
	Drums2 bool    `json:"drums2"`
}

// Default returns the startup record: volume 0.8, 120 cpm, every track on.
func Default() Settings {
	return Settings{
		Volume: DefaultVolume,
		CPM:    DefaultCPM,
		Bass:   true,
		Melody: true,
		Guitar: true,
		Drums1: true,
		Drums2: true,
	}
}

// Tracks lists the track names in display order.
func Tracks() []Track {
	out := make([]Track, len(trackOrder))
	copy(out, trackOrder)
	return out
}

// ParseTrack resolves a track name, ignoring case and surrounding space.
func ParseTrack(name string) (Track, error) {
	t := Track(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range trackOrder {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTrack, name)
}

func (s *Settings) field(t Track) *bool {
	switch t {
	case Bass:
		return &s.Bass
	case Melody:
		return &s.Melody
	case Guitar:
		return &s.Guitar
	case Drums1:
		return &s.Drums1
	case Drums2:
		return &s.Drums2
	}
	return nil
}

// Track reports whether t is audible. Unknown tracks report false.
func (s Settings) Track(t Track) bool {
	if f := s.field(t); f != nil {
		return *f
	}
	return false
}

// SetTrack switches t on or off.
func (s *Settings) SetTrack(t Track, on bool) {
	if f := s.field(t); f != nil {
		*f = on
	}
}

// Toggle flips t and returns its new state.
func (s *Settings) Toggle(t Track) bool {
	f := s.field(t)
	if f == nil {
		return false
	}
	*f = !*f
	return *f
}

// SetVolume stores v clamped to [0, 1].
func (s *Settings) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	s.Volume = math.Max(0, math.Min(1, v))
}

// Apply copies every field present in p onto s. A stored tempo outside
// [MinCPM, MaxCPM] is replaced by DefaultCPM and Apply returns false.
func (s *Settings) Apply(p Patch) bool {
	if p.Volume != nil {
		s.Volume = *p.Volume
	}
	cpmOK := true
	if p.CPM != nil {
		s.CPM = *p.CPM
		if !ValidCPM(s.CPM) {
			s.CPM = DefaultCPM
			cpmOK = false
		}
	}
	for _, t := range trackOrder {
		if v := p.track(t); v != nil {
			s.SetTrack(t, *v)
		}
	}
	return cpmOK
}

// ValidCPM reports whether v is a usable tempo.
func ValidCPM(v float64) bool {
	return !math.IsNaN(v) && v >= MinCPM && v <= MaxCPM
}

// ParseCPM validates tempo text. Anything that is not a number in
// [MinCPM, MaxCPM] yields ErrCPMRange.
func ParseCPM(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || !ValidCPM(v) {
		return 0, fmt.Errorf("%w: %q", ErrCPMRange, text)
	}
	return v, nil
}

// FormatNumber renders v in its shortest decimal form ("0.5", "90").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
