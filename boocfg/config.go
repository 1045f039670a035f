// Package boocfg loads the looper's YAML configuration document: MIDI
// control-surface bindings, LED trigger bytes, MIDI port names, and engine
// tunables.
package boocfg

import (
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigSectionMalformed is logged (not returned, and not fatally) when
// a binding entry has the wrong arity - e.g. a "play" control with 1 or 3
// elements instead of the required 2. Malformed entries are skipped
// rather than aborting the whole load.
var ErrConfigSectionMalformed = errors.New("boocfg: malformed binding entry")

// PortPair is one (server, client) port-wiring entry under connections.*.
type PortPair struct {
	Server string `yaml:"server"`
	Client string `yaml:"client"`
}

// Connections lists the configured port pairs. Nothing is auto-connected:
// cmd/boocli only uses the client name of the first midi_input, midi_clock
// and midi_output entry as the MIDI port to open; the audio input/output
// entries and the server names are not used.
type Connections struct {
	Input      []PortPair `yaml:"input"`
	Output     []PortPair `yaml:"output"`
	MIDIClock  []PortPair `yaml:"midi_clock"`
	MIDIInput  []PortPair `yaml:"midi_input"`
	MIDIOutput []PortPair `yaml:"midi_output"`
}

// FunctionBinding is one track's MIDI control-surface bindings, each a
// 2-element [status, data1] fingerprint matched against incoming Note
// On/CC messages.
type FunctionBinding struct {
	Time    []int `yaml:"time"`
	Load    []int `yaml:"load"`
	Save    []int `yaml:"save"`
	Play    []int `yaml:"play"`
	Record  []int `yaml:"record"`
	Mute    []int `yaml:"mute"`
	Solo    []int `yaml:"solo"`
	VolUp   []int `yaml:"volup"`
	VolDown []int `yaml:"voldown"`
	Mode    []int `yaml:"mode"`
	Delete  []int `yaml:"delete"`
}

// FunctionLED is one track's LED trigger bytes for a single visual state,
// each a 3-element [status, data1, data2] MIDI message to send out.
type FunctionLED struct {
	Time    []int `yaml:"time"`
	Load    []int `yaml:"load"`
	Save    []int `yaml:"save"`
	Play    []int `yaml:"play"`
	Record  []int `yaml:"record"`
	Mute    []int `yaml:"mute"`
	Solo    []int `yaml:"solo"`
	VolUp   []int `yaml:"volup"`
	VolDown []int `yaml:"voldown"`
	Mode    []int `yaml:"mode"`
	Delete  []int `yaml:"delete"`
}

// Controls is the complete per-track MIDI binding table.
type Controls struct {
	Tracks        []FunctionBinding `yaml:"tracks"`
	LedOn         []FunctionLED     `yaml:"led_on"`
	LedPendingOn  []FunctionLED     `yaml:"led_pending_on"`
	LedPendingOff []FunctionLED     `yaml:"led_pending_off"`
	LedOff        []FunctionLED     `yaml:"led_off"`
}

// BarRowBinding is one bar-selector row's 8 button bindings.
type BarRowBinding struct {
	Bar1 []int `yaml:"bar1"`
	Bar2 []int `yaml:"bar2"`
	Bar3 []int `yaml:"bar3"`
	Bar4 []int `yaml:"bar4"`
	Bar5 []int `yaml:"bar5"`
	Bar6 []int `yaml:"bar6"`
	Bar7 []int `yaml:"bar7"`
	Bar8 []int `yaml:"bar8"`
}

// BarRowLED is one bar-selector row's 8 LED trigger messages for a single
// visual state.
type BarRowLED struct {
	Bar1 []int `yaml:"bar1"`
	Bar2 []int `yaml:"bar2"`
	Bar3 []int `yaml:"bar3"`
	Bar4 []int `yaml:"bar4"`
	Bar5 []int `yaml:"bar5"`
	Bar6 []int `yaml:"bar6"`
	Bar7 []int `yaml:"bar7"`
	Bar8 []int `yaml:"bar8"`
}

// Bars is the bar-selector binding table.
type Bars struct {
	Rows   []BarRowBinding `yaml:"rows"`
	LedOn  []BarRowLED     `yaml:"led_on"`
	LedOff []BarRowLED     `yaml:"led_off"`
}

// EngineTuning carries the engine's runtime tunables.
type EngineTuning struct {
	ClockPPBar  int `yaml:"clock_pp_bar"`
	SeamSamples int `yaml:"seam_samples"`
	MaxTracks   int `yaml:"max_tracks"`
}

// Document is the root of the YAML configuration file.
type Document struct {
	Name        string       `yaml:"name"`
	Connections Connections  `yaml:"connections"`
	Controls    Controls     `yaml:"controls"`
	Bars        Bars         `yaml:"bars"`
	Engine      EngineTuning `yaml:"engine"`
}

// defaults applied when the engine block (or a field of it) is absent.
const (
	DefaultClockPPBar  = 96
	DefaultSeamSamples = 8
	DefaultMaxTracks   = 4
)

// Load reads and parses the YAML document at path. It does not validate
// binding arities; call Resolve with a logger to get the soft-error,
// skip-and-log behaviour used when building runtime bindings.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("boocfg: read %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("boocfg: parse %s: %w", path, err)
	}

	if doc.Engine.ClockPPBar <= 0 {
		doc.Engine.ClockPPBar = DefaultClockPPBar
	}
	if doc.Engine.SeamSamples <= 0 {
		doc.Engine.SeamSamples = DefaultSeamSamples
	}
	if doc.Engine.MaxTracks <= 0 {
		doc.Engine.MaxTracks = DefaultMaxTracks
	}

	return &doc, nil
}

// trigger2 validates and copies a 2-element binding ([status, data1]),
// logging and skipping on arity mismatch rather than failing the load.
func trigger2(logger *log.Logger, field string, vals []int) (ok bool, b0, b1 byte) {
	if len(vals) != 2 {
		if len(vals) != 0 {
			logger.Printf("boocfg: %s: %v, skipping", field, ErrConfigSectionMalformed)
		}
		return false, 0, 0
	}
	return true, byte(vals[0]), byte(vals[1])
}

// trigger3 validates and copies a 3-element LED message
// ([status, data1, data2]).
func trigger3(logger *log.Logger, field string, vals []int) (ok bool, b0, b1, b2 byte) {
	if len(vals) != 3 {
		if len(vals) != 0 {
			logger.Printf("boocfg: %s: %v, skipping", field, ErrConfigSectionMalformed)
		}
		return false, 0, 0, 0
	}
	return true, byte(vals[0]), byte(vals[1]), byte(vals[2])
}
