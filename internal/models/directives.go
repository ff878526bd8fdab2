package models

// PeriodSpec is one requested graph time window with its display header.
type PeriodSpec struct {
	Period string
	Header string
}

// ScreenRef points at a legacy Zabbix screen with an optional period override.
// An empty ID means no screen was requested for that scope.
type ScreenRef struct {
	ID     string
	Period string
	Header string
}

// DisplayDirectives are the resolved rendering parameters for one run.
//
// They start from the request defaults and are then overwritten in strict
// precedence order: request payload, trigger tags, host tags, host macros.
// Each later source only touches the fields it explicitly sets, so the apply
// order must not be changed.
type DisplayDirectives struct {
	GraphWidth  int
	GraphHeight int
	ShowLegend  int

	// Periods is the ordered list of window/header pairs for the primary
	// graph, capped at the configured maximum.
	Periods []PeriodSpec

	// ForcedGraphID selects a specific graph regardless of item matching.
	// Empty means no override.
	ForcedGraphID string

	// TruncateLen limits item values in the mail body; 0 disables truncation.
	TruncateLen int

	Debug bool

	TriggerScreen ScreenRef
	HostScreen    ScreenRef
}

// DefaultDirectives seeds directives from the request payload.
func DefaultDirectives(req Request) DisplayDirectives {
	d := DisplayDirectives{
		GraphWidth:  req.GraphWidth,
		GraphHeight: req.GraphHeight,
		ShowLegend:  req.ShowLegend,
		Debug:       req.Debug,
	}

	if len(req.Periods) > 0 {
		for i, period := range req.Periods {
			header := period
			if i < len(req.PeriodsHeaders) {
				header = req.PeriodsHeaders[i]
			}
			d.Periods = append(d.Periods, PeriodSpec{Period: period, Header: header})
		}
	} else {
		d.Periods = []PeriodSpec{{Period: req.Period, Header: req.Period}}
	}

	return d
}

// CapPeriods silently drops trailing periods beyond max.
func (d *DisplayDirectives) CapPeriods(max int) {
	if max > 0 && len(d.Periods) > max {
		d.Periods = d.Periods[:max]
	}
}

// FirstPeriod returns the leading period pair, falling back to the built-in
// default when the list is somehow empty.
func (d *DisplayDirectives) FirstPeriod() PeriodSpec {
	if len(d.Periods) > 0 {
		return d.Periods[0]
	}
	return PeriodSpec{Period: "48h", Header: "48h"}
}
