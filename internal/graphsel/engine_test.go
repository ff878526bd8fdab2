package graphsel

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moudsen/mailGraph/internal/logging"
	"github.com/moudsen/mailGraph/internal/models"
	"github.com/moudsen/mailGraph/internal/zabbix"
)

// fakeAPI only implements the calls the engine makes; the rest panic to catch
// unexpected usage.
type fakeAPI struct {
	hostGraphs []zabbix.Graph
	graphs     map[string]zabbix.Graph
	screens    map[string]zabbix.Screen
}

func (f *fakeAPI) GraphsByItems(_ context.Context, _ string, _ []string) ([]zabbix.Graph, error) {
	return f.hostGraphs, nil
}

func (f *fakeAPI) GraphByID(_ context.Context, id string) (zabbix.Graph, error) {
	g, ok := f.graphs[id]
	if !ok {
		return zabbix.Graph{}, fmt.Errorf("graph %s: %w", id, zabbix.ErrNotFound)
	}
	return g, nil
}

func (f *fakeAPI) ScreenByID(_ context.Context, id string) (zabbix.Screen, error) {
	s, ok := f.screens[id]
	if !ok {
		return zabbix.Screen{}, fmt.Errorf("screen %s: %w", id, zabbix.ErrNotFound)
	}
	return s, nil
}

func (f *fakeAPI) RecentProblems(context.Context, bool) ([]zabbix.Problem, error) {
	panic("not used")
}

func (f *fakeAPI) EventByID(context.Context, string) (zabbix.Event, error) {
	panic("not used")
}

func (f *fakeAPI) TriggerByID(context.Context, string) (zabbix.Trigger, error) {
	panic("not used")
}

func (f *fakeAPI) ItemByID(context.Context, string) (zabbix.Item, error) {
	panic("not used")
}

func (f *fakeAPI) HostByID(context.Context, string) (zabbix.Host, error) {
	panic("not used")
}

func (f *fakeAPI) MacrosByHost(context.Context, string) ([]zabbix.Macro, error) {
	panic("not used")
}

func caps(major int) zabbix.Capabilities {
	return zabbix.Capabilities{Major: major, SupportsScreens: major <= 5}
}

func newEngine(api zabbix.API, major int, exactOnly bool) *Engine {
	return New(api, caps(major), exactOnly, logging.New("", false))
}

func graphOn(id, name string, itemIDs ...string) zabbix.Graph {
	g := zabbix.Graph{GraphID: id, Name: name}
	for _, itemID := range itemIDs {
		g.Items = append(g.Items, zabbix.GraphItemRef{ItemID: itemID})
	}
	return g
}

func baseInput() Input {
	return Input{
		Functions: []zabbix.Function{{FunctionID: "900", ItemID: "23"}, {FunctionID: "901", ItemID: "24"}},
		HostID:    "5",
		ItemID:    "23",
	}
}

func TestExactMatchBeatsPartialMatch(t *testing.T) {
	api := &fakeAPI{hostGraphs: []zabbix.Graph{
		graphOn("70", "other item graph", "24"),
		graphOn("71", "alert item graph", "23"),
	}}

	result, err := newEngine(api, 6, false).Resolve(context.Background(), baseInput())
	require.NoError(t, err)

	require.NotNil(t, result.Primary)
	assert.Equal(t, "71", result.Primary.ID)
	assert.Equal(t, models.TierMatched, result.Primary.Tier)
}

func TestGraphOnAlertItemIsNeverPartial(t *testing.T) {
	// A graph containing the alert item classifies as an exact match even when
	// it also charts other function items.
	api := &fakeAPI{hostGraphs: []zabbix.Graph{
		graphOn("71", "combined graph", "23", "24"),
	}}

	result, err := newEngine(api, 6, false).Resolve(context.Background(), baseInput())
	require.NoError(t, err)

	require.NotNil(t, result.Primary)
	assert.Equal(t, models.TierMatched, result.Primary.Tier)
}

func TestPartialMatchUsedWithoutExactMatch(t *testing.T) {
	api := &fakeAPI{hostGraphs: []zabbix.Graph{
		graphOn("70", "other item graph", "24"),
	}}

	result, err := newEngine(api, 6, false).Resolve(context.Background(), baseInput())
	require.NoError(t, err)

	require.NotNil(t, result.Primary)
	assert.Equal(t, "70", result.Primary.ID)
	assert.Equal(t, models.TierOther, result.Primary.Tier)
}

func TestExactOnlySuppressesPartialMatch(t *testing.T) {
	api := &fakeAPI{hostGraphs: []zabbix.Graph{
		graphOn("70", "other item graph", "24"),
	}}

	result, err := newEngine(api, 6, true).Resolve(context.Background(), baseInput())
	require.NoError(t, err)
	assert.Nil(t, result.Primary)
}

func TestForcedGraphWins(t *testing.T) {
	api := &fakeAPI{
		hostGraphs: []zabbix.Graph{graphOn("71", "alert item graph", "23")},
		graphs:     map[string]zabbix.Graph{"55": graphOn("55", "forced graph")},
	}

	in := baseInput()
	in.ForcedGraphID = "55"

	result, err := newEngine(api, 6, false).Resolve(context.Background(), in)
	require.NoError(t, err)

	require.NotNil(t, result.Primary)
	assert.Equal(t, "55", result.Primary.ID)
	assert.Equal(t, models.TierForced, result.Primary.Tier)
}

func TestInvalidForcedGraphFallsBack(t *testing.T) {
	api := &fakeAPI{
		hostGraphs: []zabbix.Graph{graphOn("71", "alert item graph", "23")},
		graphs:     map[string]zabbix.Graph{},
	}

	in := baseInput()
	in.ForcedGraphID = "999"

	result, err := newEngine(api, 6, false).Resolve(context.Background(), in)
	require.NoError(t, err)

	require.NotNil(t, result.Primary)
	assert.Equal(t, "71", result.Primary.ID)
	assert.Equal(t, models.TierMatched, result.Primary.Tier)
}

func TestNoFunctionsNoGraph(t *testing.T) {
	api := &fakeAPI{}

	result, err := newEngine(api, 6, false).Resolve(context.Background(), Input{HostID: "5"})
	require.NoError(t, err)
	assert.Nil(t, result.Primary)
}

func TestScreenResolutionOrdersByRowThenColumn(t *testing.T) {
	api := &fakeAPI{
		screens: map[string]zabbix.Screen{
			"3": {
				ScreenID: "3",
				Name:     "Router overview",
				ScreenItems: []zabbix.ScreenItem{
					{ResourceType: "0", ResourceID: "82", X: "1", Y: "1"},
					{ResourceType: "0", ResourceID: "80", X: "0", Y: "0"},
					{ResourceType: "3", ResourceID: "99", X: "2", Y: "0"}, // plain text cell
					{ResourceType: "0", ResourceID: "81", X: "1", Y: "0"},
				},
			},
		},
		graphs: map[string]zabbix.Graph{
			"80": graphOn("80", "first"),
			"81": graphOn("81", "second"),
			"82": graphOn("82", "third"),
		},
	}

	in := baseInput()
	in.Functions = nil
	in.TriggerScreen = models.ScreenRef{ID: "3", Period: "1w", Header: "Last week"}

	result, err := newEngine(api, 5, false).Resolve(context.Background(), in)
	require.NoError(t, err)

	require.NotNil(t, result.TriggerScreen)
	assert.Equal(t, "Router overview", result.TriggerScreen.ScreenName)
	assert.Equal(t, "1w", result.TriggerScreen.Period)

	var ids []string
	for _, g := range result.TriggerScreen.Graphs {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"80", "81", "82"}, ids)
}

func TestScreensIgnoredOnModernAPI(t *testing.T) {
	api := &fakeAPI{
		screens: map[string]zabbix.Screen{
			"3": {ScreenID: "3", ScreenItems: []zabbix.ScreenItem{{ResourceType: "0", ResourceID: "80"}}},
		},
		graphs: map[string]zabbix.Graph{"80": graphOn("80", "first")},
	}

	in := baseInput()
	in.Functions = nil
	in.TriggerScreen = models.ScreenRef{ID: "3"}
	in.HostScreen = models.ScreenRef{ID: "4"}

	result, err := newEngine(api, 6, false).Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, result.TriggerScreen)
	assert.Nil(t, result.HostScreen)
}

func TestMissingScreenSkipped(t *testing.T) {
	api := &fakeAPI{screens: map[string]zabbix.Screen{}}

	in := baseInput()
	in.Functions = nil
	in.TriggerScreen = models.ScreenRef{ID: "404"}

	result, err := newEngine(api, 5, false).Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, result.TriggerScreen)
}

func TestDedupeItemIDs(t *testing.T) {
	fns := []zabbix.Function{
		{ItemID: "23"}, {ItemID: "24"}, {ItemID: "23"}, {ItemID: ""},
	}
	assert.Equal(t, []string{"23", "24"}, dedupeItemIDs(fns))
}
