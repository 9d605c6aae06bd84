package ctdf

import "time"

type Departure struct {
	// ScheduledAt is nil when the upstream record carried no usable timestamp
	ScheduledAt *time.Time    `json:"scheduledat,omitempty"`
	Delay       time.Duration `json:"delay"`
	Label       string        `json:"label"`
}

func NewDeparture(scheduledAt *time.Time, delay time.Duration, label string) Departure {
	return Departure{
		ScheduledAt: scheduledAt,
		Delay:       delay,
		Label:       label,
	}
}

func (d Departure) Valid() bool {
	return d.ScheduledAt != nil
}

// EffectiveTime is the scheduled time shifted by the delay. Zero for invalid departures.
func (d Departure) EffectiveTime() time.Time {
	if !d.Valid() {
		return time.Time{}
	}

	return d.ScheduledAt.Add(d.Delay)
}

// DepartedBy reports whether the departure has already left at now.
// Invalid departures never count as departed.
func (d Departure) DepartedBy(now time.Time) bool {
	if !d.Valid() {
		return false
	}

	return !d.EffectiveTime().After(now)
}

func (d Departure) DelayMinutes() int {
	return int(d.Delay / time.Minute)
}
