package cim_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sipb/hydrant/collection/services"
	"github.com/sipb/hydrant/collection/services/cim"
	"github.com/sipb/hydrant/collection/services/testservice"
	classentry "github.com/sipb/hydrant/data/class-entry"
)

const registrarPage = `<html><body>
<div data-accordion-item>
  <h2>Courses 1-9</h2>
  <div class="ci-m__section">
    <div class="ci-m__section-title"> 6-1, 6-2, 6-3* </div>
    <span class="ci-m__subject-number">6.1800</span>
    <span class="ci-m__subject-number">6.UAT</span>
  </div>
  <div class="ci-m__section">
    <div class="ci-m__section-title"></div>
    <span class="ci-m__subject-number">6.UAR</span>
  </div>
  <div class="ci-m__section">
    <div class="ci-m__section-title">8</div>
    <span class="ci-m__subject-number">8.13/8.14</span>
  </div>
</div>
<div data-accordion-item>
  <p>No subjects here</p>
</div>
<div data-accordion-item>
  <div class="ci-m__section">
    <div class="ci-m__section-title">18-C</div>
    <span class="ci-m__subject-number">6.1800J</span>
  </div>
</div>
</body></html>`

func TestCollect(t *testing.T) {
	logger, _ := testservice.NewLogger()
	server := testservice.NewMockServer(t, logger, testservice.HTML("GET /cim", registrarPage))
	c := cim.New(testservice.NewClient(logger), server.URL+"/cim")

	snapshots, report, err := c.Collect(logger, context.Background(), services.Target{})
	if err != nil {
		t.Fatal(err)
	}
	subjects := snapshots[0].Data.(map[string]classentry.CIMEntry)
	expected := map[string]classentry.CIMEntry{
		"6.1800": {CIM: []string{"6-1, 6-2, 6-3", "18-C"}},
		"6.UAT":  {CIM: []string{"6-1, 6-2, 6-3"}},
		"6.UAR":  {CIM: []string{"6-1, 6-2, 6-3"}},
		"8.13":   {CIM: []string{"8"}},
		"8.14":   {CIM: []string{"8"}},
	}
	if diff := cmp.Diff(expected, subjects); diff != "" {
		t.Fatal(diff)
	}
	if report.Collected != 5 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCollectDuplicateCourse(t *testing.T) {
	page := `<div data-accordion-item><div class="ci-m__section">
<div class="ci-m__section-title">8</div><span class="ci-m__subject-number">8.13</span>
</div></div>
<div data-accordion-item><div class="ci-m__section">
<div class="ci-m__section-title">8</div><span class="ci-m__subject-number">8.14</span>
</div></div>`
	logger, _ := testservice.NewLogger()
	server := testservice.NewMockServer(t, logger, testservice.HTML("GET /cim", page))
	c := cim.New(testservice.NewClient(logger), server.URL+"/cim")

	_, _, err := c.Collect(logger, context.Background(), services.Target{})
	if !errors.Is(err, services.ErrIncorrectAssumption) {
		t.Fatalf("expected an incorrect assumption got %v", err)
	}
}
