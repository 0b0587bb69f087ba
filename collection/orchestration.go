package collection

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sipb/hydrant/collection/services"
	"github.com/sipb/hydrant/collection/services/catalog"
	"github.com/sipb/hydrant/collection/services/cim"
	"github.com/sipb/hydrant/collection/services/fireroad"
	"github.com/sipb/hydrant/collection/services/locations"
	"github.com/sipb/hydrant/collection/services/pe"
	"github.com/sipb/hydrant/data"
	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetName() string

	// names of the snapshots this service owns for the target
	Outputs(target services.Target) []string

	// fetches everything for the target, nothing is written here
	Collect(
		logger *log.Entry,
		ctx context.Context,
		target services.Target,
	) ([]services.Snapshot, services.Report, error)
}

// DefaultServices is every source in the order a full run collects them.
func DefaultServices(client *resty.Client, config data.Config) []Service {
	return []Service{
		fireroad.New(client, ""),
		catalog.New(client, ""),
		cim.New(client, ""),
		locations.New(client, ""),
		pe.New(client, config.PEDir, ""),
	}
}

func ServiceByName(serviceEntries []Service, name string) (Service, error) {
	for _, s := range serviceEntries {
		if s.GetName() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no source named `%s`", name)
}

type Status string

const (
	StatusOk Status = "ok"
	// the source was unreachable and the previous snapshot stayed
	StatusKept   Status = "kept previous"
	StatusEmpty  Status = "wrote empty"
	StatusFailed Status = "failed"
)

type Result struct {
	Source   string
	Report   services.Report
	Warnings int
	Status   Status
	Err      error
}

type Orchestrator struct {
	store   data.Store
	logger  *log.Logger
	counter *logginghelpers.CounterHook
	// where the summary table is printed, nil for none
	out io.Writer
}

// NewOrchestrator hooks a counter into logger so warnings can be tallied per
// source.
func NewOrchestrator(logger *log.Logger, store data.Store, out io.Writer) *Orchestrator {
	counter := logginghelpers.NewCounterHook()
	logger.AddHook(counter)
	return &Orchestrator{
		store:   store,
		logger:  logger,
		counter: counter,
		out:     out,
	}
}

func (o *Orchestrator) getTermLogger(runID string, target services.Target) *log.Entry {
	return o.logger.WithFields(log.Fields{
		logginghelpers.FieldJob:  "collect",
		logginghelpers.FieldRun:  runID,
		logginghelpers.FieldTerm: target.Term.UrlName(),
	})
}

// Run collects every service one after another. A source that can't be
// reached keeps its previous snapshot, any other failure is logged and the
// rest still run. The returned error joins the failures.
func (o *Orchestrator) Run(ctx context.Context, target services.Target, serviceEntries ...Service) ([]Result, error) {
	o.counter.Reset()
	termLogger := o.getTermLogger(uuid.NewString(), target)
	termLogger.Infof("Starting collection of %d sources for %s", len(serviceEntries), target.Term)

	results := make([]Result, 0, len(serviceEntries))
	var errs []error
	for _, s := range serviceEntries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		logger := termLogger.WithField(logginghelpers.FieldSource, s.GetName())
		result := o.runOne(logger, ctx, target, s)
		result.Warnings = o.counter.Warnings(s.GetName())
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.GetName(), result.Err))
		}
		results = append(results, result)
	}

	if o.out != nil {
		o.summarize(results)
	}
	return results, errors.Join(errs...)
}

func (o *Orchestrator) runOne(
	logger *log.Entry,
	ctx context.Context,
	target services.Target,
	s Service,
) Result {
	result := Result{Source: s.GetName()}

	snapshots, report, err := s.Collect(logger, ctx, target)
	result.Report = report
	if errors.Is(err, services.ErrTemporaryNetworkFailure) {
		logger.Warnf("Could not reach %s, leaving previous snapshots: %v", s.GetName(), err)
		result.Status = StatusKept
		for _, name := range s.Outputs(target) {
			kept, err := o.store.KeepOrEmpty(name)
			if err != nil {
				logger.Errorf("Could not write empty %s: %v", name, err)
				result.Status = StatusFailed
				result.Err = err
				return result
			}
			if !kept {
				logger.Infof("No previous %s, wrote an empty one", name)
				result.Status = StatusEmpty
			}
		}
		return result
	}
	if err != nil {
		logger.Errorf("Collection failed: %v", err)
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	for _, snapshot := range snapshots {
		if err := o.store.Write(snapshot.Name, snapshot.Data); err != nil {
			logger.Errorf("Could not save %s: %v", snapshot.Name, err)
			result.Status = StatusFailed
			result.Err = err
			return result
		}
		logger.Debugf("Wrote %s", o.store.Path(snapshot.Name))
	}
	result.Status = StatusOk
	logger.Infof("Collected %d records, skipped %d", report.Collected, report.Skipped)
	return result
}

func (o *Orchestrator) summarize(results []Result) {
	t := table.NewWriter()
	t.SetOutputMirror(o.out)
	t.AppendHeader(table.Row{"Source", "Collected", "Skipped", "Warnings", "Status"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Source, r.Report.Collected, r.Report.Skipped, r.Warnings, r.Status})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
