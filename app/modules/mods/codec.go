package mods

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoModString is the sentinel encoding of an empty mod set.
const NoModString = "-"

// DefaultSpeed is the custom speed multiplier when none is encoded.
const DefaultSpeed = 1.0

// Custom speed domain and quantization step.
const (
	MinSpeed  = 0.5
	MaxSpeed  = 2.0
	speedStep = 0.05
)

// ErrUnknownMod is returned by Decode for an unrecognized mod character in
// the leading token block.
var ErrUnknownMod = errors.New("unknown mod character")

// Decoded is the result of decoding a droid mod string.
type Decoded struct {
	Mods        ModSet
	CustomSpeed float64
}

// Decode parses a droid mod string: an optional block of single-character mod
// tokens followed by zero or more "|"-separated extra segments. A segment of
// the form "x<float>" carries the custom speed. Extra segments are parsed
// leniently: unknown or malformed segments are ignored and a bad speed value
// falls back to the default.
func Decode(modString string) (Decoded, error) {
	out := Decoded{CustomSpeed: DefaultSpeed}

	segments := strings.Split(modString, "|")
	tokens := segments[0]
	if tokens != NoModString && tokens != "" {
		for i := 0; i < len(tokens); i++ {
			m := Mod(tokens[i])
			if _, known := modNames[m]; !known {
				return Decoded{}, fmt.Errorf("%w: %q", ErrUnknownMod, tokens[i])
			}
			out.Mods.Add(m)
		}
	}

	for _, seg := range segments[1:] {
		if len(seg) < 2 || seg[0] != 'x' {
			continue
		}
		speed, err := strconv.ParseFloat(seg[1:], 64)
		if err != nil || math.IsNaN(speed) || math.IsInf(speed, 0) {
			continue
		}
		out.CustomSpeed = speed
	}

	return out, nil
}

// Encode renders a mod set and custom speed back to the wire form. The empty
// set with default speed encodes as the sentinel "-".
func Encode(set ModSet, customSpeed float64) string {
	var sb strings.Builder
	if set.Len() == 0 {
		sb.WriteString(NoModString)
	} else {
		for _, m := range set.Mods() {
			sb.WriteByte(byte(m))
		}
	}
	if customSpeed != DefaultSpeed {
		sb.WriteString(fmt.Sprintf("|x%.2f", customSpeed))
	}
	return sb.String()
}

// ValidSpeed reports whether a custom speed lies in [MinSpeed, MaxSpeed] and
// on the 0.05 quantization grid.
func ValidSpeed(speed float64) bool {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return false
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return false
	}
	return int(math.Round(speed*100))%5 == 0
}

// SpeedScoreFactor is the score bonus factor applied per hit for plays at a
// non-default speed. Faster play scores more, slower less.
func SpeedScoreFactor(speed float64) float64 {
	if speed == DefaultSpeed {
		return 1
	}
	// Linear in the deviation from 1.0x, clamped to stay positive.
	factor := 1 + (speed-1)*0.24
	if factor < 0.3 {
		factor = 0.3
	}
	return factor
}
