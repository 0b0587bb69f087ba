package collection

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"dario.cat/mergo"
	"github.com/sipb/hydrant/collection/overrides"
	"github.com/sipb/hydrant/collection/services"
	"github.com/sipb/hydrant/collection/services/catalog"
	"github.com/sipb/hydrant/collection/services/cim"
	"github.com/sipb/hydrant/collection/services/fireroad"
	"github.com/sipb/hydrant/collection/services/pe"
	"github.com/sipb/hydrant/data"
	classentry "github.com/sipb/hydrant/data/class-entry"
	"github.com/sipb/hydrant/data/timeslot"
	log "github.com/sirupsen/logrus"
)

const lastUpdatedLayout = "2006-01-02 15:04"

// Package is the file the front end loads for a term.
type Package struct {
	TermInfo    classentry.TermInfo       `json:"termInfo"`
	LastUpdated string                    `json:"lastUpdated"`
	Classes     map[string]map[string]any `json:"classes"`
	// PE&W classes by quarter
	PE map[int]map[string]any `json:"pe,omitempty"`
}

// PackageName is latest.json for the semester, the pre-semester is written
// under its url name.
func PackageName(target services.Target) string {
	if target.Kind == services.Semester {
		return "latest.json"
	}
	return target.Term.UrlName() + ".json"
}

type dataset map[string]map[string]any

// Build merges the snapshots in store for target. Only classes both
// fireroad and the catalog know about are kept, fireroad has the schedule
// and the catalog says it is offered. Later datasets win field by field in
// the order fireroad, catalog, cim, overrides.
func Build(
	logger *log.Entry,
	store data.Store,
	target services.Target,
	classOverrides classentry.Overrides,
	now time.Time,
) (Package, error) {
	pkg := Package{
		TermInfo:    target.Info,
		LastUpdated: now.Format(lastUpdatedLayout),
		Classes:     map[string]map[string]any{},
	}

	var fireroadClasses, catalogClasses, cimClasses dataset
	if err := store.Read(fireroad.OutputName(target.Kind), &fireroadClasses); err != nil {
		return pkg, fmt.Errorf("packaging needs fireroad: %w", err)
	}
	if err := store.Read(catalog.OutputName, &catalogClasses); err != nil {
		return pkg, fmt.Errorf("packaging needs the catalog: %w", err)
	}
	if err := readOptional(logger, store, cim.OutputName, &cimClasses); err != nil {
		return pkg, err
	}
	overrideClasses := make(dataset, len(classOverrides))
	for number, override := range classOverrides {
		overrideClasses[number] = map[string]any(override)
	}

	datasets := []dataset{fireroadClasses, catalogClasses, cimClasses, overrideClasses}
	for number := range fireroadClasses {
		if _, ok := catalogClasses[number]; !ok {
			continue
		}
		class := map[string]any{}
		for _, d := range datasets {
			fields, ok := d[number]
			if !ok {
				continue
			}
			if err := mergo.Merge(&class, fields, mergo.WithOverride); err != nil {
				return pkg, fmt.Errorf("merging %s: %w", number, err)
			}
		}
		pkg.Classes[number] = class
	}

	for _, quarter := range pe.Quarters(target.Term) {
		var classes map[string]any
		if err := readOptional(logger, store, pe.OutputName(quarter), &classes); err != nil {
			return pkg, err
		}
		if len(classes) == 0 {
			continue
		}
		if pkg.PE == nil {
			pkg.PE = map[int]map[string]any{}
		}
		pkg.PE[quarter] = classes
	}

	logger.Infof("Packaged %d classes of %d from fireroad", len(pkg.Classes), len(fireroadClasses))
	return pkg, nil
}

// readOptional treats a missing snapshot as empty.
func readOptional(logger *log.Entry, store data.Store, name string, v any) error {
	err := store.Read(name, v)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warnf("No %s, packaging without it", name)
		return nil
	}
	return err
}

// Publish builds the package for target and writes it to public.
func Publish(
	logger *log.Entry,
	store data.Store,
	public data.Store,
	target services.Target,
	overridesDir string,
) (Package, error) {
	classOverrides, err := overrides.Load(logger, overridesDir)
	if err != nil {
		return Package{}, err
	}
	pkg, err := Build(logger, store, target, classOverrides, time.Now())
	if err != nil {
		return pkg, err
	}
	name := PackageName(target)
	if err := public.Write(name, pkg); err != nil {
		return pkg, err
	}
	// the front end decodes slots against this grid
	logger.WithField("grid", timeslot.GridVersion).Infof("Wrote %s", public.Path(name))
	return pkg, nil
}
