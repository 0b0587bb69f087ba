// Package locations averages the building entrances published by MIT
// Facilities into one coordinate per building.
package locations

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/sipb/hydrant/collection/services"
	classentry "github.com/sipb/hydrant/data/class-entry"
	log "github.com/sirupsen/logrus"
)

const (
	URL        = "https://hub.arcgis.com/api/download/v1/items/b935e99782064e2da7cc8e08ba10c1cb/csv?layers=3"
	OutputName = "locations.json"
)

var byteOrderMark = []byte("\ufeff")

// accessPoint is one building entrance
type accessPoint struct {
	ObjectID string `csv:"OBJECTID"`
	X        string `csv:"X_Coord"`
	Y        string `csv:"Y_Coord"`
	Facility string `csv:"FACILITY"`
}

var requiredColumns = []string{"OBJECTID", "X_Coord", "Y_Coord", "FACILITY"}

type Locations struct {
	client *resty.Client
	url    string
}

func New(client *resty.Client, url string) *Locations {
	if url == "" {
		url = URL
	}
	return &Locations{client: client, url: url}
}

func (l *Locations) GetName() string { return "locations" }

func (l *Locations) Outputs(services.Target) []string { return []string{OutputName} }

func (l *Locations) Collect(
	logger *log.Entry,
	ctx context.Context,
	_ services.Target,
) ([]services.Snapshot, services.Report, error) {
	var report services.Report
	body, _, err := services.Get(ctx, l.client, l.url)
	if err != nil {
		return nil, report, err
	}
	points, err := parseAccessPoints(body)
	if err != nil {
		return nil, report, err
	}
	buildings, err := averageBuildings(points)
	if err != nil {
		return nil, report, err
	}
	report.Collected = len(buildings)
	logger.Infof("Processed location data for %d buildings", len(buildings))
	return []services.Snapshot{{Name: OutputName, Data: buildings}}, report, nil
}

func parseAccessPoints(body []byte) ([]accessPoint, error) {
	body = bytes.TrimPrefix(body, byteOrderMark)

	var rows []accessPoint
	if err := services.UnmarshalCSV(body, &rows, requiredColumns...); err != nil {
		return nil, fmt.Errorf("locations: %w", err)
	}

	points := rows[:0]
	for _, row := range rows {
		// these rows have no coordinates
		if row.ObjectID == "0" {
			continue
		}
		points = append(points, row)
	}
	return points, nil
}

// averageBuildings is the mean entrance coordinate of each facility
func averageBuildings(points []accessPoint) (map[string]classentry.BuildingInfo, error) {
	type sum struct {
		x, y  float64
		count int
	}
	sums := map[string]*sum{}
	for _, point := range points {
		x, err := strconv.ParseFloat(point.X, 64)
		if err != nil {
			return nil, fmt.Errorf("%w bad x coordinate for %s: %w", services.ErrIncorrectAssumption, point.Facility, err)
		}
		y, err := strconv.ParseFloat(point.Y, 64)
		if err != nil {
			return nil, fmt.Errorf("%w bad y coordinate for %s: %w", services.ErrIncorrectAssumption, point.Facility, err)
		}
		s, ok := sums[point.Facility]
		if !ok {
			s = &sum{}
			sums[point.Facility] = s
		}
		s.x += x
		s.y += y
		s.count++
	}

	buildings := make(map[string]classentry.BuildingInfo, len(sums))
	for facility, s := range sums {
		buildings[facility] = classentry.BuildingInfo{
			Number: facility,
			Lat:    s.y / float64(s.count),
			Long:   s.x / float64(s.count),
		}
	}
	return buildings, nil
}
