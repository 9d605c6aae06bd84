package ctdf

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Colour struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	ColourWhite = Colour{255, 255, 255}
	ColourClock = Colour{255, 150, 255}
)

// ParseColour accepts "#rrggbb" or "rrggbb"
func ParseColour(s string) (Colour, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Colour{}, fmt.Errorf("colour %q: expected 6 hex digits", s)
	}

	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Colour{}, fmt.Errorf("colour %q: %w", s, err)
	}

	return Colour{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
	}, nil
}

func (c Colour) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Scale dims the colour to brightness/255
func (c Colour) Scale(brightness uint8) Colour {
	scale := func(v uint8) uint8 {
		return uint8(uint16(v) * uint16(brightness) / 255)
	}

	return Colour{scale(c.R), scale(c.G), scale(c.B)}
}

// UnmarshalYAML accepts either a hex string or a three element sequence
func (c *Colour) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := ParseColour(value.Value)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case yaml.SequenceNode:
		var rgb []uint8
		if err := value.Decode(&rgb); err != nil {
			return fmt.Errorf("colour: %w", err)
		}
		if len(rgb) != 3 {
			return fmt.Errorf("colour: expected 3 components, got %d", len(rgb))
		}
		*c = Colour{rgb[0], rgb[1], rgb[2]}
		return nil
	default:
		return fmt.Errorf("colour: unsupported yaml node at line %d", value.Line)
	}
}
