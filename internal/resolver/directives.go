package resolver

import (
	"strconv"
	"strings"

	"github.com/moudsen/mailGraph/internal/models"
	"github.com/moudsen/mailGraph/internal/zabbix"
)

// Directive tag names read from trigger and host tags. Matching is
// case-insensitive; values always win over whatever was set before, which is
// what gives tags their precedence over the request payload.
const (
	tagGraph             = "mailgraph.graph"
	tagPeriod            = "mailgraph.period"
	tagPeriodHeader      = "mailgraph.period_header"
	tagPeriods           = "mailgraph.periods"
	tagPeriodsHeaders    = "mailgraph.periods_headers"
	tagLegend            = "mailgraph.legend"
	tagGraphWidth        = "mailgraph.graphwidth"
	tagGraphHeight       = "mailgraph.graphheight"
	tagScreen            = "mailgraph.screen"
	tagScreenPeriod      = "mailgraph.screenperiod"
	tagScreenHeader      = "mailgraph.screenperiodheader"
	tagHostScreen        = "mailgraph.hostscreen"
	tagHostScreenPeriod  = "mailgraph.hostscreenperiod"
	tagHostScreenHeader  = "mailgraph.hostscreenperiodheader"
	tagDebug             = "mailgraph.debug"
	tagValueTruncate     = "mailgraph.valuetruncate"
)

// Host macro names honored as directives. Macros are applied after tags and
// therefore take final precedence.
const (
	macroPeriod           = "{$MAILGRAPH.PERIOD}"
	macroScreen           = "{$MAILGRAPH.SCREEN}"
	macroScreenPeriod     = "{$MAILGRAPH.SCREENPERIOD}"
	macroScreenHeader     = "{$MAILGRAPH.SCREENPERIODHEADER}"
	macroHostScreen       = "{$MAILGRAPH.HOSTSCREEN}"
	macroHostScreenPeriod = "{$MAILGRAPH.HOSTSCREENPERIOD}"
	macroHostScreenHeader = "{$MAILGRAPH.HOSTSCREENPERIODHEADER}"
)

// applyTags folds directive tags into the directives, later entries of the
// same tag overwriting earlier ones.
func applyTags(d *models.DisplayDirectives, tags []zabbix.Tag) {
	for _, tag := range tags {
		value := strings.TrimSpace(tag.Value)
		if value == "" {
			continue
		}

		switch strings.ToLower(tag.Tag) {
		case tagGraph:
			d.ForcedGraphID = value
		case tagPeriod:
			d.Periods = []models.PeriodSpec{{Period: value, Header: value}}
		case tagPeriodHeader:
			if len(d.Periods) > 0 {
				d.Periods[0].Header = value
			}
		case tagPeriods:
			d.Periods = parsePeriodList(value, nil)
		case tagPeriodsHeaders:
			d.Periods = applyHeaders(d.Periods, value)
		case tagLegend:
			d.ShowLegend = atoi(value)
		case tagGraphWidth:
			d.GraphWidth = atoi(value)
		case tagGraphHeight:
			d.GraphHeight = atoi(value)
		case tagScreen:
			d.TriggerScreen.ID = value
		case tagScreenPeriod:
			d.TriggerScreen.Period = value
		case tagScreenHeader:
			d.TriggerScreen.Header = value
		case tagHostScreen:
			d.HostScreen.ID = value
		case tagHostScreenPeriod:
			d.HostScreen.Period = value
		case tagHostScreenHeader:
			d.HostScreen.Header = value
		case tagDebug:
			d.Debug = value == "1" || strings.EqualFold(value, "true")
		case tagValueTruncate:
			d.TruncateLen = atoi(value)
		}
	}
}

// applyMacros folds host macros into the directives. Macros carry the
// period override and the screen-related directive set; they are applied
// last and therefore take final precedence.
func applyMacros(d *models.DisplayDirectives, macros []zabbix.Macro) {
	for _, macro := range macros {
		value := strings.TrimSpace(macro.Value)
		if value == "" {
			continue
		}

		switch strings.ToUpper(macro.Macro) {
		case macroPeriod:
			d.Periods = []models.PeriodSpec{{Period: value, Header: value}}
		case macroScreen:
			d.TriggerScreen.ID = value
		case macroScreenPeriod:
			d.TriggerScreen.Period = value
		case macroScreenHeader:
			d.TriggerScreen.Header = value
		case macroHostScreen:
			d.HostScreen.ID = value
		case macroHostScreenPeriod:
			d.HostScreen.Period = value
		case macroHostScreenHeader:
			d.HostScreen.Header = value
		}
	}
}

func parsePeriodList(periods string, headers []string) []models.PeriodSpec {
	var out []models.PeriodSpec
	for i, part := range strings.Split(periods, ",") {
		period := strings.TrimSpace(part)
		if period == "" {
			continue
		}
		header := period
		if i < len(headers) {
			header = headers[i]
		}
		out = append(out, models.PeriodSpec{Period: period, Header: header})
	}
	return out
}

func applyHeaders(periods []models.PeriodSpec, headers string) []models.PeriodSpec {
	parts := strings.Split(headers, ",")
	for i := range periods {
		if i < len(parts) {
			if header := strings.TrimSpace(parts[i]); header != "" {
				periods[i].Header = header
			}
		}
	}
	return periods
}

func atoi(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}
