package locations

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sipb/hydrant/collection/services"
	"github.com/sipb/hydrant/collection/services/testservice"
	classentry "github.com/sipb/hydrant/data/class-entry"
)

const accessPoints = "\ufeffFID,OBJECTID,X_Coord,Y_Coord,Location,FACILITY,Display\n" +
	"1,0,,,Placeholder,56,N\n" +
	"2,11,-71.0900,42.3600,Main,56,Y\n" +
	"3,12,-71.0910,42.3610,Side,56,Y\n" +
	"4,13,-71.0930,42.3590,Lobby,10,Y\n"

func TestCollect(t *testing.T) {
	logger, _ := testservice.NewLogger()
	server := testservice.NewMockServer(t, logger, testservice.Route{
		Pattern:     "GET /csv",
		ContentType: "text/csv",
		Body:        []byte(accessPoints),
	})
	l := New(testservice.NewClient(logger), server.URL+"/csv")

	snapshots, report, err := l.Collect(logger, context.Background(), services.Target{})
	if err != nil {
		t.Fatal(err)
	}
	buildings := snapshots[0].Data.(map[string]classentry.BuildingInfo)
	if len(buildings) != 2 || report.Collected != 2 {
		t.Fatalf("unexpected buildings %v", buildings)
	}

	b56 := buildings["56"]
	if b56.Number != "56" || math.Abs(b56.Lat-42.3605) > 1e-9 || math.Abs(b56.Long+71.0905) > 1e-9 {
		t.Fatalf("unexpected building 56 %+v", b56)
	}
	b10 := buildings["10"]
	if math.Abs(b10.Lat-42.3590) > 1e-9 || math.Abs(b10.Long+71.0930) > 1e-9 {
		t.Fatalf("unexpected building 10 %+v", b10)
	}
}

func TestMissingColumn(t *testing.T) {
	_, err := parseAccessPoints([]byte("OBJECTID,X_Coord,Y_Coord\n1,2,3\n"))
	if !errors.Is(err, services.ErrIncorrectAssumption) {
		t.Fatalf("expected an incorrect assumption got %v", err)
	}
}

func TestBadCoordinate(t *testing.T) {
	_, err := averageBuildings([]accessPoint{{ObjectID: "1", X: "west", Y: "1", Facility: "E14"}})
	if !errors.Is(err, services.ErrIncorrectAssumption) {
		t.Fatalf("expected an incorrect assumption got %v", err)
	}
}
