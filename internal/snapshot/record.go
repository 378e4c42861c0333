// internal/snapshot/record.go
package snapshot

// Record is the minimal persisted projection of one service: identity
// plus desired state plus instance bounds. Sufficient to restore.
type Record struct {
	Folder          string
	ServiceName     string
	ServiceType     string
	ConfiguredState string
	MinInstances    int
	MaxInstances    int
}

// ---- PERSISTED LAYOUT ----

// header is the persisted column set, in contract order.
// The layout is shared across save/restore runs on different machines
// and MUST NOT change.
var header = []string{
	"folder",
	"service_name",
	"service_type",
	"configured_state",
	"min_instances",
	"max_instances",
}

// ---- STATE VALUES ----

// Configured state is the server's persisted intent for a service,
// distinct from its transient real-time status.
const (
	StateStarted = "STARTED"
	StateStopped = "STOPPED"
)
