// internal/fleet/fleet.go
package fleet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gisops/svcmgr/internal/arcgis"
	"github.com/gisops/svcmgr/internal/logger"
	"github.com/gisops/svcmgr/internal/snapshot"
)

// Fleet runs the three fleet-state workflows against one server.
// Each workflow is a single linear pass: every candidate service is
// visited exactly once, strictly in sequence. Admin-layer stop/start
// calls are not safe to issue concurrently against the same server,
// so there is no parallelism anywhere in this package.
type Fleet struct {
	api      AdminAPI
	excluded map[string]bool
}

// New builds a Fleet. The exclusion policy is fixed at construction.
func New(api AdminAPI, excludedFolders []string) *Fleet {
	ex := make(map[string]bool, len(excludedFolders))
	for _, f := range excludedFolders {
		ex[f] = true
	}
	return &Fleet{api: api, excluded: ex}
}

// Save captures the configured state and instance bounds of every
// non-excluded service into w, in discovery order. A service whose
// detail fetch fails is reported and its row omitted; only a failed
// or empty enumeration, or a write failure, fails the workflow.
func (f *Fleet) Save(w io.Writer) (Summary, error) {
	var sum Summary

	refs, err := f.api.ListServices()
	if err != nil {
		return sum, fmt.Errorf("fleet: list services: %w", err)
	}
	if len(refs) == 0 {
		return sum, errors.New("fleet: no services found")
	}

	var records []snapshot.Record
	for _, ref := range refs {
		if f.excluded[ref.Folder] {
			logger.Infof("skipping excluded service: %s", ref.Path())
			sum.Skipped++
			continue
		}

		doc, err := f.api.GetService(ref)
		if err != nil {
			logger.Errorf("fetch failed for %s: %v", ref.Path(), err)
			sum.Failed++
			continue
		}

		records = append(records, snapshot.FromServiceConfig(ref.Folder, ref.Name, ref.Type, doc))
		logger.Infof("saved: %s", ref.Path())
		sum.Processed++
	}

	if err := snapshot.Encode(w, records); err != nil {
		return sum, fmt.Errorf("fleet: write snapshot: %w", err)
	}

	return sum, nil
}

// StopAllExcept transitions the fleet to reduced capacity: every
// service whose name equals keeper is pinned to 1/1 instances and
// started, every other non-excluded service is stopped. Individual
// start/stop failures are soft. The one hard precondition is that the
// keeper name matched a discovered service.
func (f *Fleet) StopAllExcept(keeper string) (Summary, error) {
	var sum Summary

	refs, err := f.api.ListServices()
	if err != nil {
		return sum, fmt.Errorf("fleet: list services: %w", err)
	}
	if len(refs) == 0 {
		return sum, errors.New("fleet: no services found")
	}

	keeperFound := false

	for _, ref := range refs {
		if f.excluded[ref.Folder] {
			logger.Infof("skipping excluded service: %s", ref.Path())
			sum.Skipped++
			continue
		}

		if ref.Name == keeper {
			keeperFound = true
			logger.Infof("keeping service running: %s", ref.Path())

			ok := true
			if err := f.api.UpdateInstances(ref, 1, 1); err != nil {
				logger.Errorf("instance update failed for %s: %v", ref.Path(), err)
				ok = false
			}
			if err := f.api.StartService(ref); err != nil {
				logger.Errorf("start failed for %s: %v", ref.Path(), err)
				ok = false
			}
			if ok {
				sum.Processed++
			} else {
				sum.Failed++
			}
			continue
		}

		if err := f.api.StopService(ref); err != nil {
			logger.Errorf("stop failed for %s: %v", ref.Path(), err)
			sum.Failed++
			continue
		}
		logger.Infof("stopped service: %s", ref.Path())
		sum.Processed++
	}

	if !keeperFound {
		return sum, fmt.Errorf("fleet: keeper service %q not found", keeper)
	}

	return sum, nil
}

// Restore reapplies a saved snapshot: instance bounds first, then the
// configured state. A row whose bounds update fails is neither started
// nor stopped. Malformed rows and excluded folders are tallied and
// skipped; only an unreadable snapshot fails the workflow.
func (f *Fleet) Restore(r io.Reader) (Summary, error) {
	var sum Summary

	records, rowErrs, err := snapshot.Decode(r)
	if err != nil {
		return sum, fmt.Errorf("fleet: read snapshot: %w", err)
	}
	for _, re := range rowErrs {
		logger.Errorf("%v", re)
		sum.BadRows++
	}

	for _, rec := range records {
		ref := arcgis.ServiceRef{Folder: rec.Folder, Name: rec.ServiceName, Type: rec.ServiceType}

		if f.excluded[ref.Folder] {
			logger.Infof("skipping excluded service: %s", ref.Path())
			sum.Skipped++
			continue
		}

		if err := f.api.UpdateInstances(ref, rec.MinInstances, rec.MaxInstances); err != nil {
			logger.Errorf("instance update failed for %s: %v", ref.Path(), err)
			sum.Failed++
			continue
		}
		logger.Infof("updated instances for %s: %d/%d", ref.Path(), rec.MinInstances, rec.MaxInstances)

		var actionErr error
		if strings.EqualFold(rec.ConfiguredState, snapshot.StateStarted) {
			actionErr = f.api.StartService(ref)
		} else {
			actionErr = f.api.StopService(ref)
		}
		if actionErr != nil {
			logger.Errorf("state restore failed for %s: %v", ref.Path(), actionErr)
			sum.Failed++
			continue
		}

		logger.Infof("restored: %s (%s)", ref.Path(), rec.ConfiguredState)
		sum.Processed++
	}

	return sum, nil
}
