// internal/fleet/types.go
package fleet

import "github.com/gisops/svcmgr/internal/arcgis"

// AdminAPI is the exact contract the workflows use.
// IMPORTANT: There must be NO other version of this interface anywhere.
type AdminAPI interface {
	ListServices() ([]arcgis.ServiceRef, error)
	GetService(ref arcgis.ServiceRef) (map[string]any, error)
	UpdateInstances(ref arcgis.ServiceRef, min, max int) error
	StartService(ref arcgis.ServiceRef) error
	StopService(ref arcgis.ServiceRef) error
}

// Summary tallies per-service outcomes for one workflow run.
// Per-service failures are absorbed here, never raised.
type Summary struct {
	Processed int // services acted on successfully
	Skipped   int // excluded by folder policy
	Failed    int // per-service failures, reported and tolerated
	BadRows   int // malformed snapshot rows (restore only)
}
