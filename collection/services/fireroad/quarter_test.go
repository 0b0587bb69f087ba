package fireroad

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	classentry "github.com/sipb/hydrant/data/class-entry"
)

func TestQuarterInfo(t *testing.T) {
	testCases := []struct {
		info     string
		expected *classentry.QuarterInfo
	}{
		{"0,apr 14", &classentry.QuarterInfo{End: &classentry.MonthDay{4, 14}}},
		{"1,4/4", &classentry.QuarterInfo{Start: &classentry.MonthDay{4, 4}}},
		{"2,4/9 to 5/9", &classentry.QuarterInfo{Start: &classentry.MonthDay{4, 9}, End: &classentry.MonthDay{5, 9}}},
		{"2,4/9", nil},
		{"1,someday", nil},
		{"3,4/4", nil},
		{"", nil},
	}
	for _, test := range testCases {
		if diff := cmp.Diff(test.expected, quarterInfo(test.info)); diff != "" {
			t.Errorf("%q: %s", test.info, diff)
		}
	}
}

func TestAttributes(t *testing.T) {
	attrs := attributes(course{HassAttribute: "HASS-S", GirAttribute: "LAB2", CommunicationRequirement: "CI-HW"})
	expected := classentry.Attributes{HassS: true, PartLab: true, CIHW: true}
	if attrs != expected {
		t.Fatalf("got %+v", attrs)
	}
	if attributes(course{}) != (classentry.Attributes{}) {
		t.Fatal("no attributes expected")
	}
}
