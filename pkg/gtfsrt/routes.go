package gtfsrt

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// Route is the part of a GTFS static routes.txt row needed to label departures
type Route struct {
	ID        string `csv:"route_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
}

// RouteLabels maps route_id to the text shown on the board
type RouteLabels map[string]string

func LoadRoutes(reader io.Reader) (RouteLabels, error) {
	// Allow rows with missing trailing columns
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	var routes []Route
	if err := gocsv.UnmarshalCSV(csvReader, &routes); err != nil {
		return nil, err
	}

	labels := RouteLabels{}
	for _, route := range routes {
		switch {
		case route.ShortName != "":
			labels[route.ID] = route.ShortName
		case route.LongName != "":
			labels[route.ID] = route.LongName
		}
	}

	return labels, nil
}

func LoadRoutesFile(path string) (RouteLabels, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	labels, err := LoadRoutes(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return labels, nil
}

// Label falls back to the raw route id for routes missing from routes.txt
func (r RouteLabels) Label(routeID string) string {
	if label, ok := r[routeID]; ok {
		return label
	}
	if routeID == "" {
		return "err"
	}

	return routeID
}
