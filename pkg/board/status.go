package board

import (
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
)

type Status struct {
	Page       int    `json:"page" groups:"basic,detailed"`
	PageName   string `json:"pagename" groups:"basic,detailed"`
	Pair       int    `json:"pair" groups:"basic,detailed"`
	Paused     bool   `json:"paused" groups:"basic,detailed"`
	Brightness uint8  `json:"brightness" groups:"basic,detailed"`

	TicksRemaining int `json:"ticksremaining" groups:"detailed"`

	Feeds []FeedStatus `json:"feeds" groups:"basic,detailed"`
}

type FeedStatus struct {
	Name       string    `json:"name" groups:"basic,detailed"`
	Page       int       `json:"page" groups:"basic,detailed"`
	State      string    `json:"state" groups:"basic,detailed"`
	Departures int       `json:"departures" groups:"basic,detailed"`
	FetchedAt  time.Time `json:"fetchedat" groups:"basic,detailed"`

	Query               string           `json:"query" groups:"detailed"`
	Cursor              int              `json:"cursor" groups:"detailed"`
	LastAttempt         time.Time        `json:"lastattempt" groups:"detailed"`
	LastError           string           `json:"lasterror,omitempty" groups:"detailed"`
	ConsecutiveFailures int              `json:"consecutivefailures" groups:"detailed"`
	DataSource          *ctdf.DataSource `json:"datasource,omitempty" groups:"detailed"`
}

func (f *FeedState) Status(page int) FeedStatus {
	status := FeedStatus{
		Name:                f.Name,
		Page:                page,
		State:               f.fetchState.String(),
		Departures:          f.snapshot.Len(),
		FetchedAt:           f.snapshot.FetchedAt,
		Query:               f.Query.String(),
		Cursor:              f.cursor,
		LastAttempt:         f.LastAttempt,
		ConsecutiveFailures: f.ConsecutiveFailures,
		DataSource:          f.snapshot.DataSource,
	}
	if f.LastError != nil {
		status.LastError = f.LastError.Error()
	}

	return status
}

func (d *Dashboard) Status() Status {
	status := Status{
		Page:           d.page,
		Pair:           d.pair,
		Paused:         d.paused,
		Brightness:     d.brightness,
		TicksRemaining: d.Rotation.TicksRemaining(),
	}

	if page := d.ActivePage(); page != nil {
		status.PageName = page.Name
	}

	for pageIndex, page := range d.Pages {
		for _, feed := range page.Feeds {
			status.Feeds = append(status.Feeds, feed.Status(pageIndex))
		}
	}

	return status
}
