// internal/snapshot/defaults.go
package snapshot

import (
	"strconv"
	"strings"
)

// DefaultInstanceCount is used when the server omits an instance bound.
const DefaultInstanceCount = 1

// FromServiceConfig projects a live service configuration document
// into a Record, applying the save-time default policy: a state the
// server omitted defaults to STOPPED, omitted bounds default to 1.
// No IO. No side effects.
func FromServiceConfig(folder, name, typ string, doc map[string]any) Record {
	return Record{
		Folder:          folder,
		ServiceName:     name,
		ServiceType:     typ,
		ConfiguredState: stringOr(doc["configuredState"], StateStopped),
		MinInstances:    intOr(doc["minInstancesPerNode"], DefaultInstanceCount),
		MaxInstances:    intOr(doc["maxInstancesPerNode"], DefaultInstanceCount),
	}
}

// intOr coerces a decoded JSON value to int. JSON numbers decode as
// float64; some server builds return numerics as strings.
func intOr(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}
