// internal/fleet/fleet_test.go
package fleet

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gisops/svcmgr/internal/arcgis"
)

// ---- fake admin API ----

type updateCall struct {
	path     string
	min, max int
}

type fakeAPI struct {
	refs    []arcgis.ServiceRef
	listErr error

	docs   map[string]map[string]any
	getErr map[string]error

	updateErr map[string]error
	startErr  map[string]error
	stopErr   map[string]error

	updates []updateCall
	started []string
	stopped []string
}

func newFakeAPI(refs ...arcgis.ServiceRef) *fakeAPI {
	return &fakeAPI{
		refs:      refs,
		docs:      map[string]map[string]any{},
		getErr:    map[string]error{},
		updateErr: map[string]error{},
		startErr:  map[string]error{},
		stopErr:   map[string]error{},
	}
}

func (f *fakeAPI) ListServices() ([]arcgis.ServiceRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.refs, nil
}

func (f *fakeAPI) GetService(ref arcgis.ServiceRef) (map[string]any, error) {
	if err := f.getErr[ref.Path()]; err != nil {
		return nil, err
	}
	if doc, ok := f.docs[ref.Path()]; ok {
		return doc, nil
	}
	return map[string]any{}, nil
}

func (f *fakeAPI) UpdateInstances(ref arcgis.ServiceRef, min, max int) error {
	if err := f.updateErr[ref.Path()]; err != nil {
		return err
	}
	f.updates = append(f.updates, updateCall{path: ref.Path(), min: min, max: max})
	return nil
}

func (f *fakeAPI) StartService(ref arcgis.ServiceRef) error {
	if err := f.startErr[ref.Path()]; err != nil {
		return err
	}
	f.started = append(f.started, ref.Path())
	return nil
}

func (f *fakeAPI) StopService(ref arcgis.ServiceRef) error {
	if err := f.stopErr[ref.Path()]; err != nil {
		return err
	}
	f.stopped = append(f.stopped, ref.Path())
	return nil
}

func defaultExcluded() []string {
	return []string{"Hosted", "System", "Utilities"}
}

// ---- save ----

func TestSave_SnapshotContents(t *testing.T) {
	api := newFakeAPI(
		arcgis.ServiceRef{Name: "Parcels", Type: "MapServer"},
		arcgis.ServiceRef{Folder: "Hosted", Name: "X", Type: "FeatureServer"},
	)
	api.docs["Parcels.MapServer"] = map[string]any{
		"configuredState":     "STARTED",
		"minInstancesPerNode": float64(2),
		"maxInstancesPerNode": float64(4),
		"status":              "ok",
	}

	var buf bytes.Buffer
	sum, err := New(api, defaultExcluded()).Save(&buf)
	require.NoError(t, err)

	want := "folder,service_name,service_type,configured_state,min_instances,max_instances\n" +
		",Parcels,MapServer,STARTED,2,4\n"
	assert.Equal(t, want, buf.String())

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)
}

func TestSave_FetchFailureOmitsRow(t *testing.T) {
	api := newFakeAPI(
		arcgis.ServiceRef{Name: "A", Type: "MapServer"},
		arcgis.ServiceRef{Name: "B", Type: "MapServer"},
	)
	api.getErr["A.MapServer"] = errors.New("detail fetch failed")
	api.docs["B.MapServer"] = map[string]any{"configuredState": "STOPPED"}

	var buf bytes.Buffer
	sum, err := New(api, defaultExcluded()).Save(&buf)
	require.NoError(t, err, "per-service fetch failures must not abort the batch")

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, buf.String(), ",B,MapServer,")
	assert.NotContains(t, buf.String(), ",A,MapServer,")
}

func TestSave_EnumerationFailures(t *testing.T) {
	api := newFakeAPI()
	api.listErr = errors.New("listing failed")
	_, err := New(api, defaultExcluded()).Save(&bytes.Buffer{})
	require.Error(t, err)

	_, err = New(newFakeAPI(), defaultExcluded()).Save(&bytes.Buffer{})
	require.Error(t, err, "an empty fleet is indistinguishable from a mis-scoped token")
}

// ---- stop-all-but-one ----

func TestStopAllExcept_KeeperSemantics(t *testing.T) {
	api := newFakeAPI(
		arcgis.ServiceRef{Name: "A", Type: "MapServer"},
		arcgis.ServiceRef{Name: "B", Type: "MapServer"},
		arcgis.ServiceRef{Name: "C", Type: "GPServer"},
	)

	sum, err := New(api, defaultExcluded()).StopAllExcept("B")
	require.NoError(t, err)

	assert.Equal(t, []updateCall{{path: "B.MapServer", min: 1, max: 1}}, api.updates)
	assert.Equal(t, []string{"B.MapServer"}, api.started)
	assert.Equal(t, []string{"A.MapServer", "C.GPServer"}, api.stopped)
	assert.Equal(t, 3, sum.Processed)
}

func TestStopAllExcept_KeeperNotFound(t *testing.T) {
	api := newFakeAPI(
		arcgis.ServiceRef{Name: "A", Type: "MapServer"},
		arcgis.ServiceRef{Folder: "Hosted", Name: "X", Type: "FeatureServer"},
	)

	sum, err := New(api, defaultExcluded()).StopAllExcept("Z")
	require.Error(t, err)

	// Non-excluded services were still visited; excluded folders saw
	// no traffic at all.
	assert.Equal(t, []string{"A.MapServer"}, api.stopped)
	assert.Empty(t, api.started)
	assert.Empty(t, api.updates)
	assert.Equal(t, 1, sum.Skipped)
}

func TestStopAllExcept_KeeperSubStepFailuresAreSoft(t *testing.T) {
	api := newFakeAPI(
		arcgis.ServiceRef{Name: "A", Type: "MapServer"},
		arcgis.ServiceRef{Name: "B", Type: "MapServer"},
	)
	api.updateErr["B.MapServer"] = errors.New("edit rejected")

	sum, err := New(api, defaultExcluded()).StopAllExcept("B")
	require.NoError(t, err, "keeper sub-step failures must not fail the workflow")

	// Start is still attempted after a failed instance update.
	assert.Equal(t, []string{"B.MapServer"}, api.started)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Processed)
}

func TestStopAllExcept_StopFailuresAreSoft(t *testing.T) {
	api := newFakeAPI(
		arcgis.ServiceRef{Name: "A", Type: "MapServer"},
		arcgis.ServiceRef{Name: "B", Type: "MapServer"},
		arcgis.ServiceRef{Name: "C", Type: "MapServer"},
	)
	api.stopErr["A.MapServer"] = errors.New("stop failed")

	sum, err := New(api, defaultExcluded()).StopAllExcept("B")
	require.NoError(t, err)

	assert.Equal(t, []string{"C.MapServer"}, api.stopped)
	assert.Equal(t, 1, sum.Failed)
}

// ---- restore ----

func restoreInput(rows ...string) string {
	all := append([]string{
		"folder,service_name,service_type,configured_state,min_instances,max_instances",
	}, rows...)
	return strings.Join(all, "\n") + "\n"
}

func TestRestore_AppliesBoundsThenState(t *testing.T) {
	api := newFakeAPI()
	input := restoreInput(
		",Parcels,MapServer,started,2,4", // state match is case-insensitive
		"Ops,Roads,FeatureServer,STOPPED,1,1",
	)

	sum, err := New(api, defaultExcluded()).Restore(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []updateCall{
		{path: "Parcels.MapServer", min: 2, max: 4},
		{path: "Ops/Roads.FeatureServer", min: 1, max: 1},
	}, api.updates)
	assert.Equal(t, []string{"Parcels.MapServer"}, api.started)
	assert.Equal(t, []string{"Ops/Roads.FeatureServer"}, api.stopped)
	assert.Equal(t, 2, sum.Processed)
}

func TestRestore_ExcludedRowNeverMutated(t *testing.T) {
	api := newFakeAPI()
	input := restoreInput(
		"Hosted,X,FeatureServer,STARTED,1,1",
		",Parcels,MapServer,STARTED,1,1",
	)

	sum, err := New(api, defaultExcluded()).Restore(strings.NewReader(input))
	require.NoError(t, err)

	// Even a snapshot row naming an excluded folder explicitly must
	// not reach the server.
	for _, u := range api.updates {
		assert.NotContains(t, u.path, "Hosted")
	}
	assert.Equal(t, []string{"Parcels.MapServer"}, api.started)
	assert.Equal(t, 1, sum.Skipped)
}

func TestRestore_BoundsFailureSkipsStateChange(t *testing.T) {
	api := newFakeAPI()
	api.updateErr["Parcels.MapServer"] = errors.New("edit rejected")
	input := restoreInput(",Parcels,MapServer,STARTED,2,4")

	sum, err := New(api, defaultExcluded()).Restore(strings.NewReader(input))
	require.NoError(t, err)

	assert.Empty(t, api.started)
	assert.Empty(t, api.stopped)
	assert.Equal(t, 1, sum.Failed)
}

func TestRestore_MalformedRowTallied(t *testing.T) {
	api := newFakeAPI()
	input := restoreInput(
		",Parcels,MapServer,STARTED,oops,4",
		",Roads,MapServer,STOPPED,1,1",
	)

	sum, err := New(api, defaultExcluded()).Restore(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 1, sum.BadRows)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, []string{"Roads.MapServer"}, api.stopped)
}

func TestRestore_UnreadableSnapshotFails(t *testing.T) {
	api := newFakeAPI()

	_, err := New(api, defaultExcluded()).Restore(iotest.ErrReader(errors.New("disk gone")))
	require.Error(t, err)
}

// ---- alternate exclusion policy ----

func TestExclusionPolicyIsInjected(t *testing.T) {
	api := newFakeAPI(
		arcgis.ServiceRef{Folder: "Hosted", Name: "X", Type: "FeatureServer"},
		arcgis.ServiceRef{Folder: "Staging", Name: "Y", Type: "MapServer"},
	)
	api.docs["Hosted/X.FeatureServer"] = map[string]any{"configuredState": "STARTED"}

	var buf bytes.Buffer
	sum, err := New(api, []string{"Staging"}).Save(&buf)
	require.NoError(t, err)

	// With an alternate policy, Hosted is fair game and Staging is not.
	assert.Contains(t, buf.String(), "Hosted,X,FeatureServer")
	assert.NotContains(t, buf.String(), "Staging")
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.Skipped)
}
