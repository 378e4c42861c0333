// internal/arcgis/types.go
package arcgis

// ServiceRef identifies one service on a server instance.
// Folder is empty for root services. Identity is all three fields,
// compared case-sensitively. Immutable once discovered.
type ServiceRef struct {
	Folder string
	Name   string
	Type   string
}

// Path returns the operator-facing service path: folder/name.type,
// or name.type for root services.
func (r ServiceRef) Path() string {
	if r.Folder == "" {
		return r.Name + "." + r.Type
	}
	return r.Folder + "/" + r.Name + "." + r.Type
}

// endpoint returns the admin REST resource for the service detail
// document. Root services omit the folder segment.
func (r ServiceRef) endpoint() string {
	if r.Folder == "" {
		return "services/" + r.Name + "." + r.Type
	}
	return "services/" + r.Folder + "/" + r.Name + "." + r.Type
}

// ---- WIRE DOCUMENTS ----

// catalogResponse is one folder listing: the services directly inside
// it plus, for the root folder, the child folder names.
type catalogResponse struct {
	Folders  []string         `json:"folders"`
	Services []catalogService `json:"services"`
}

type catalogService struct {
	ServiceName string `json:"serviceName"`
	Type        string `json:"type"`
}

// statusResponse is the shape of edit/start/stop action responses.
type statusResponse struct {
	Status string `json:"status"`
}

// errorDocument is the API-level error payload. The server signals
// failures inside a 200 response as often as with an HTTP status.
type errorDocument struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}
