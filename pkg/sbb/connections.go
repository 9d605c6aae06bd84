package sbb

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
)

// ConnectionsResponse is the subset of the /v1/connections response the board asks for
type ConnectionsResponse struct {
	Connections []Connection `json:"connections"`
}

type Connection struct {
	From     Checkpoint `json:"from"`
	Sections []Section  `json:"sections"`
}

type Checkpoint struct {
	DepartureTimestamp *int64 `json:"departureTimestamp"`
	Delay              *int   `json:"delay"`
}

type Section struct {
	Journey *Journey `json:"journey"`
}

type Journey struct {
	Category string     `json:"category"`
	Number   LooseString `json:"number"`
}

// LooseString accepts both "17" and 17, the API is not consistent about line numbers
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*s = LooseString(value)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*s = LooseString(number.String())

	return nil
}

// Label is category and number of the first section that is an actual journey (walks have none)
func (c Connection) Label() string {
	for _, section := range c.Sections {
		if section.Journey != nil {
			return section.Journey.Category + string(section.Journey.Number)
		}
	}

	return "err"
}

func (c Connection) Departure() ctdf.Departure {
	var scheduledAt *time.Time
	if c.From.DepartureTimestamp != nil {
		departure := time.Unix(*c.From.DepartureTimestamp, 0)
		scheduledAt = &departure
	}

	var delay time.Duration
	if c.From.Delay != nil {
		delay = time.Duration(*c.From.Delay) * time.Minute
	}

	return ctdf.NewDeparture(scheduledAt, delay, c.Label())
}
