package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moudsen/mailGraph/internal/logging"
	"github.com/moudsen/mailGraph/internal/models"
	"github.com/moudsen/mailGraph/internal/zabbix"
)

func TestApplyTagsCaseInsensitive(t *testing.T) {
	d := models.DisplayDirectives{}

	applyTags(&d, []zabbix.Tag{
		{Tag: "mailGraph.Graph", Value: "55"},
		{Tag: "MAILGRAPH.GRAPHWIDTH", Value: "900"},
		{Tag: "mailgraph.legend", Value: "1"},
	})

	assert.Equal(t, "55", d.ForcedGraphID)
	assert.Equal(t, 900, d.GraphWidth)
	assert.Equal(t, 1, d.ShowLegend)
}

func TestApplyTagsEmptyValueIgnored(t *testing.T) {
	d := models.DisplayDirectives{ForcedGraphID: "55"}

	applyTags(&d, []zabbix.Tag{{Tag: "mailGraph.graph", Value: "  "}})

	assert.Equal(t, "55", d.ForcedGraphID)
}

func TestApplyTagsPeriodList(t *testing.T) {
	d := models.DisplayDirectives{}

	applyTags(&d, []zabbix.Tag{
		{Tag: "mailGraph.periods", Value: "4h, 24h, 7d"},
		{Tag: "mailGraph.periods_headers", Value: "Four hours,One day"},
	})

	require.Len(t, d.Periods, 3)
	assert.Equal(t, models.PeriodSpec{Period: "4h", Header: "Four hours"}, d.Periods[0])
	assert.Equal(t, models.PeriodSpec{Period: "24h", Header: "One day"}, d.Periods[1])
	// No header supplied: the period doubles as header.
	assert.Equal(t, models.PeriodSpec{Period: "7d", Header: "7d"}, d.Periods[2])
}

func TestApplyTagsSinglePeriodWithHeader(t *testing.T) {
	d := models.DisplayDirectives{}

	applyTags(&d, []zabbix.Tag{
		{Tag: "mailGraph.period", Value: "12h"},
		{Tag: "mailGraph.period_header", Value: "Half a day"},
	})

	require.Len(t, d.Periods, 1)
	assert.Equal(t, models.PeriodSpec{Period: "12h", Header: "Half a day"}, d.Periods[0])
}

func TestApplyTagsScreenDirectives(t *testing.T) {
	d := models.DisplayDirectives{}

	applyTags(&d, []zabbix.Tag{
		{Tag: "mailGraph.screen", Value: "3"},
		{Tag: "mailGraph.screenPeriod", Value: "1w"},
		{Tag: "mailGraph.screenPeriodHeader", Value: "Last week"},
		{Tag: "mailGraph.hostScreen", Value: "4"},
	})

	assert.Equal(t, models.ScreenRef{ID: "3", Period: "1w", Header: "Last week"}, d.TriggerScreen)
	assert.Equal(t, "4", d.HostScreen.ID)
}

func TestApplyMacrosScreenDirectives(t *testing.T) {
	d := models.DisplayDirectives{}

	applyMacros(&d, []zabbix.Macro{
		{Macro: "{$MAILGRAPH.HOSTSCREEN}", Value: "9"},
		{Macro: "{$MAILGRAPH.HOSTSCREENPERIOD}", Value: "2d"},
		{Macro: "{$MAILGRAPH.HOSTSCREENPERIODHEADER}", Value: "Two days"},
	})

	assert.Equal(t, models.ScreenRef{ID: "9", Period: "2d", Header: "Two days"}, d.HostScreen)
}

// The precedence chain end to end: request < trigger tag < host tag < host
// macro, later sources winning for the fields they set.
func TestDirectivePrecedence(t *testing.T) {
	api := baseAPI()

	trigger := api.triggers["17"]
	trigger.Tags = []zabbix.Tag{{Tag: "mailGraph.period", Value: "12h"}}
	api.triggers["17"] = trigger

	host := api.hosts["5"]
	host.Tags = []zabbix.Tag{{Tag: "mailGraph.period", Value: "24h"}}
	api.hosts["5"] = host

	api.macros["5"] = []zabbix.Macro{{Macro: "{$MAILGRAPH.PERIOD}", Value: "7d"}}

	r := New(api, 8, logging.New("", false))
	req := baseRequest()
	req.Period = "4h"

	out, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, out.Directives.Periods, 1)
	assert.Equal(t, "7d", out.Directives.Periods[0].Period)
}

func TestHostTagOverridesTriggerTag(t *testing.T) {
	api := baseAPI()

	trigger := api.triggers["17"]
	trigger.Tags = []zabbix.Tag{{Tag: "mailGraph.graphWidth", Value: "600"}}
	api.triggers["17"] = trigger

	host := api.hosts["5"]
	host.Tags = []zabbix.Tag{{Tag: "mailGraph.graphWidth", Value: "800"}}
	api.hosts["5"] = host

	r := New(api, 8, logging.New("", false))
	out, err := r.Resolve(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, 800, out.Directives.GraphWidth)
}

func TestRequestDefaultsSurviveWithoutOverrides(t *testing.T) {
	r := New(baseAPI(), 8, logging.New("", false))

	out, err := r.Resolve(context.Background(), baseRequest())
	require.NoError(t, err)

	require.Len(t, out.Directives.Periods, 1)
	assert.Equal(t, "48h", out.Directives.Periods[0].Period)
	assert.Equal(t, 450, out.Directives.GraphWidth)
	assert.Equal(t, 120, out.Directives.GraphHeight)
}
