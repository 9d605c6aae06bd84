package config

import (
	"fmt"
	"strings"
	"time"

	iso8601 "github.com/senseyeio/duration"
	"gopkg.in/yaml.v3"
)

// Duration accepts Go durations ("10m", "1.5s") and ISO-8601 ones ("PT10M")
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}

	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(strings.ToUpper(s), "P") {
		isoDuration, err := iso8601.ParseISO8601(strings.ToUpper(s))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}

		reference := time.Unix(0, 0).UTC()
		return isoDuration.Shift(reference).Sub(reference), nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	return parsed, nil
}
