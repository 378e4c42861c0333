// internal/arcgis/service.go
package arcgis

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// readOnlyFields are server-managed fields that must never round-trip
// through an edit request. configuredState is included per the observed
// server contract: the edit endpoint accepts a record without it.
var readOnlyFields = []string{"status", "configuredState", "realTimeState", "extensions"}

// GetService fetches the full configuration document for one service.
// The document is open-ended; server-managed fields ride along and are
// only stripped at edit time. Never cached: every mutation re-fetches.
func (c *Client) GetService(ref ServiceRef) (map[string]any, error) {
	var doc map[string]any
	if err := c.call(http.MethodGet, ref.endpoint(), nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateInstances changes a service's per-node instance bounds through
// a read-modify-write cycle. The base record is fetched fresh; an
// unreadable base aborts before any write is attempted. The cycle is
// not transactional against the server — a concurrent external change
// between GET and edit is a lost-update race inherent to the API.
func (c *Client) UpdateInstances(ref ServiceRef, min, max int) error {
	doc, err := c.GetService(ref)
	if err != nil {
		return err
	}

	doc["minInstancesPerNode"] = min
	doc["maxInstancesPerNode"] = max

	for _, field := range readOnlyFields {
		delete(doc, field)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return &APIError{Endpoint: ref.endpoint() + "/edit", Err: err}
	}

	// The edit endpoint takes the whole record as one form field.
	params := url.Values{}
	params.Set("service", string(payload))

	var res statusResponse
	if err := c.call(http.MethodPost, ref.endpoint()+"/edit", params, &res); err != nil {
		return err
	}
	return res.check(ref.endpoint() + "/edit")
}

// StartService starts a service. Starting an already-started service
// is expected to still report success; the server's status is trusted.
func (c *Client) StartService(ref ServiceRef) error {
	return c.action(ref, "start")
}

// StopService stops a service.
func (c *Client) StopService(ref ServiceRef) error {
	return c.action(ref, "stop")
}

func (c *Client) action(ref ServiceRef, verb string) error {
	endpoint := ref.endpoint() + "/" + verb
	var res statusResponse
	if err := c.call(http.MethodPost, endpoint, nil, &res); err != nil {
		return err
	}
	return res.check(endpoint)
}

func (r statusResponse) check(endpoint string) error {
	if r.Status == "success" {
		return nil
	}
	return &APIError{Endpoint: endpoint, Message: fmt.Sprintf("status %q", r.Status)}
}
