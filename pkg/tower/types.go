// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"fmt"
	"strings"
)

// Layer selects one of the three LED layers, counted from the top of the tower.
type Layer uint8

const (
	LayerOne Layer = iota
	LayerTwo
	LayerThree
)

// Layers lists every layer in wire order.
var Layers = [...]Layer{LayerOne, LayerTwo, LayerThree}

func (l Layer) Valid() bool { return l <= LayerThree }

func (l Layer) String() string {
	switch l {
	case LayerOne:
		return "1"
	case LayerTwo:
		return "2"
	case LayerThree:
		return "3"
	default:
		return fmt.Sprintf("Layer(%d)", uint8(l))
	}
}

// LayerFromNumber converts a 1-based layer number to a Layer.
func LayerFromNumber(n int) (Layer, error) {
	if n < 1 || n > len(Layers) {
		return 0, fmt.Errorf("%w: layer %d (must be 1-%d)", ErrInvalidParameter, n, len(Layers))
	}
	return Layer(n - 1), nil
}

// LEDState is the state of a single colour channel.
type LEDState uint8

const (
	LEDOff LEDState = iota
	LEDOn
	LEDDuty
)

func (s LEDState) Valid() bool { return s <= LEDDuty }

func (s LEDState) String() string {
	switch s {
	case LEDOff:
		return "off"
	case LEDOn:
		return "on"
	case LEDDuty:
		return "duty"
	default:
		return fmt.Sprintf("LEDState(%d)", uint8(s))
	}
}

// ParseLEDState parses "off", "on" or "duty".
func ParseLEDState(s string) (LEDState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0":
		return LEDOff, nil
	case "on", "1":
		return LEDOn, nil
	case "duty", "2":
		return LEDDuty, nil
	}
	return 0, fmt.Errorf("%w: LED state %q", ErrInvalidParameter, s)
}

// LEDPattern is the lighting pattern applied to a whole layer.
type LEDPattern uint8

const (
	PatternOff LEDPattern = iota
	PatternOn
	PatternBlink1
	PatternBlink2
)

func (p LEDPattern) Valid() bool { return p <= PatternBlink2 }

func (p LEDPattern) String() string {
	switch p {
	case PatternOff:
		return "off"
	case PatternOn:
		return "on"
	case PatternBlink1:
		return "blink1"
	case PatternBlink2:
		return "blink2"
	default:
		return fmt.Sprintf("LEDPattern(%d)", uint8(p))
	}
}

// ParseLEDPattern parses "off", "on", "blink1" or "blink2".
func ParseLEDPattern(s string) (LEDPattern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0":
		return PatternOff, nil
	case "on", "1":
		return PatternOn, nil
	case "blink1", "2":
		return PatternBlink1, nil
	case "blink2", "3":
		return PatternBlink2, nil
	}
	return 0, fmt.Errorf("%w: LED pattern %q", ErrInvalidParameter, s)
}

// BuzzerTone selects the buzzer pitch.
type BuzzerTone uint8

const (
	ToneHigh BuzzerTone = iota
	ToneLow
)

func (t BuzzerTone) Valid() bool { return t <= ToneLow }

func (t BuzzerTone) String() string {
	switch t {
	case ToneHigh:
		return "high"
	case ToneLow:
		return "low"
	default:
		return fmt.Sprintf("BuzzerTone(%d)", uint8(t))
	}
}

// ParseBuzzerTone parses "high" or "low".
func ParseBuzzerTone(s string) (BuzzerTone, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "0":
		return ToneHigh, nil
	case "low", "1":
		return ToneLow, nil
	}
	return 0, fmt.Errorf("%w: buzzer tone %q", ErrInvalidParameter, s)
}

// BuzzerVolume selects the buzzer loudness.
type BuzzerVolume uint8

const (
	VolumeBig BuzzerVolume = iota
	VolumeMedium
	VolumeSmall
)

func (v BuzzerVolume) Valid() bool { return v <= VolumeSmall }

func (v BuzzerVolume) String() string {
	switch v {
	case VolumeBig:
		return "big"
	case VolumeMedium:
		return "medium"
	case VolumeSmall:
		return "small"
	default:
		return fmt.Sprintf("BuzzerVolume(%d)", uint8(v))
	}
}

// ParseBuzzerVolume parses "big", "medium" or "small".
func ParseBuzzerVolume(s string) (BuzzerVolume, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big", "0":
		return VolumeBig, nil
	case "medium", "1":
		return VolumeMedium, nil
	case "small", "2":
		return VolumeSmall, nil
	}
	return 0, fmt.Errorf("%w: buzzer volume %q", ErrInvalidParameter, s)
}

// BuzzerPattern selects one of the tower's built-in buzzer sequences.
type BuzzerPattern uint8

const (
	BuzzerPatternOff BuzzerPattern = iota
	BuzzerPattern1
	BuzzerPattern2
	BuzzerPattern3
	BuzzerPattern4
)

func (p BuzzerPattern) Valid() bool { return p <= BuzzerPattern4 }

func (p BuzzerPattern) String() string {
	switch p {
	case BuzzerPatternOff:
		return "off"
	case BuzzerPattern1, BuzzerPattern2, BuzzerPattern3, BuzzerPattern4:
		return fmt.Sprintf("pattern%d", uint8(p))
	default:
		return fmt.Sprintf("BuzzerPattern(%d)", uint8(p))
	}
}

// ParseBuzzerPattern parses "off", "1".."4" or "pattern1".."pattern4".
func ParseBuzzerPattern(s string) (BuzzerPattern, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "pattern") {
	case "off", "0":
		return BuzzerPatternOff, nil
	case "1":
		return BuzzerPattern1, nil
	case "2":
		return BuzzerPattern2, nil
	case "3":
		return BuzzerPattern3, nil
	case "4":
		return BuzzerPattern4, nil
	}
	return 0, fmt.Errorf("%w: buzzer pattern %q", ErrInvalidParameter, s)
}

// StatusSelector chooses what a status-read reports: an LED layer (0-2)
// or the buzzer (3).
type StatusSelector uint8

// SelectorBuzzer selects the buzzer in a status-read.
const SelectorBuzzer StatusSelector = 3

// SelectorForLayer returns the status-read selector for an LED layer.
func SelectorForLayer(l Layer) StatusSelector { return StatusSelector(l) }

func (s StatusSelector) Valid() bool { return s <= SelectorBuzzer }

// IsBuzzer reports whether the selector addresses the buzzer.
func (s StatusSelector) IsBuzzer() bool { return s == SelectorBuzzer }

func (s StatusSelector) String() string {
	switch {
	case s == SelectorBuzzer:
		return "buzzer"
	case s.Valid():
		return "layer " + Layer(s).String()
	default:
		return fmt.Sprintf("StatusSelector(%d)", uint8(s))
	}
}

// LEDStatus describes one LED layer.
type LEDStatus struct {
	Red     LEDState   `json:"red" cbor:"1,keyasint"`
	Green   LEDState   `json:"green" cbor:"2,keyasint"`
	Blue    LEDState   `json:"blue" cbor:"3,keyasint"`
	Pattern LEDPattern `json:"pattern" cbor:"4,keyasint"`
}

// Valid reports whether every field is in range.
func (s LEDStatus) Valid() bool {
	return s.Red.Valid() && s.Green.Valid() && s.Blue.Valid() && s.Pattern.Valid()
}

func (s LEDStatus) String() string {
	return fmt.Sprintf("red=%s green=%s blue=%s pattern=%s", s.Red, s.Green, s.Blue, s.Pattern)
}

// LEDsOff is the status that turns a layer fully off.
var LEDsOff = LEDStatus{Red: LEDOff, Green: LEDOff, Blue: LEDOff, Pattern: PatternOff}

// BuzzerStatus describes the buzzer.
type BuzzerStatus struct {
	Tone    BuzzerTone    `json:"tone" cbor:"1,keyasint"`
	Volume  BuzzerVolume  `json:"volume" cbor:"2,keyasint"`
	Pattern BuzzerPattern `json:"pattern" cbor:"3,keyasint"`
}

// Valid reports whether every field is in range.
func (s BuzzerStatus) Valid() bool {
	return s.Tone.Valid() && s.Volume.Valid() && s.Pattern.Valid()
}

func (s BuzzerStatus) String() string {
	return fmt.Sprintf("tone=%s volume=%s pattern=%s", s.Tone, s.Volume, s.Pattern)
}

// BuzzerSilent is the status sent to stop the buzzer.
var BuzzerSilent = BuzzerStatus{Tone: ToneHigh, Volume: VolumeMedium, Pattern: BuzzerPatternOff}
