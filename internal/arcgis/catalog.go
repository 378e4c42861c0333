// internal/arcgis/catalog.go
package arcgis

import "net/http"

// ListServices enumerates every administrable service: root services
// first, then each child folder in server-reported order. The server
// hierarchy is exactly two levels deep; there is no recursion.
//
// No exclusion policy is applied here. The catalog is a faithful,
// unfiltered view of server state; callers filter at the point of use.
//
// A failed child-folder listing drops that folder and enumeration
// continues. Callers treat an empty overall listing as a failure.
func (c *Client) ListServices() ([]ServiceRef, error) {
	var root catalogResponse
	if err := c.call(http.MethodGet, "services", nil, &root); err != nil {
		return nil, err
	}

	var refs []ServiceRef
	for _, s := range root.Services {
		refs = append(refs, ServiceRef{Name: s.ServiceName, Type: s.Type})
	}

	for _, folder := range root.Folders {
		var sub catalogResponse
		if err := c.call(http.MethodGet, "services/"+folder, nil, &sub); err != nil {
			continue
		}
		for _, s := range sub.Services {
			refs = append(refs, ServiceRef{Folder: folder, Name: s.ServiceName, Type: s.Type})
		}
	}

	return refs, nil
}
