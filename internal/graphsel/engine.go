// Package graphsel decides which graph(s) to embed for an alert: forced
// override, exact item match, partial match, or none — plus the legacy
// screen resolution for trigger and host scope.
package graphsel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/moudsen/mailGraph/internal/logging"
	"github.com/moudsen/mailGraph/internal/models"
	"github.com/moudsen/mailGraph/internal/zabbix"
)

// Engine classifies and selects graph candidates.
type Engine struct {
	api       zabbix.API
	caps      zabbix.Capabilities
	exactOnly bool
	log       *logging.Logger
}

// Input carries the resolved context the engine needs.
type Input struct {
	Functions     []zabbix.Function
	HostID        string
	ItemID        string
	ForcedGraphID string
	TriggerScreen models.ScreenRef
	HostScreen    models.ScreenRef
}

// Result is the selected primary candidate plus any screen-derived sets.
// Primary is nil when no graph applies.
type Result struct {
	Primary       *models.GraphCandidate
	TriggerScreen *models.ScreenGraphSet
	HostScreen    *models.ScreenGraphSet
}

// New builds an engine. With exactOnly set, partial-match graphs are never
// selected as primary.
func New(api zabbix.API, caps zabbix.Capabilities, exactOnly bool, log *logging.Logger) *Engine {
	return &Engine{api: api, caps: caps, exactOnly: exactOnly, log: log}
}

// Resolve runs the selection algorithm.
func (e *Engine) Resolve(ctx context.Context, in Input) (Result, error) {
	var result Result

	matched, other, err := e.classify(ctx, in)
	if err != nil {
		return result, err
	}

	result.Primary = e.selectPrimary(ctx, in.ForcedGraphID, matched, other)

	if e.caps.SupportsScreens {
		if result.TriggerScreen, err = e.resolveScreen(ctx, in.TriggerScreen); err != nil {
			return result, err
		}
		if result.HostScreen, err = e.resolveScreen(ctx, in.HostScreen); err != nil {
			return result, err
		}
	} else if in.TriggerScreen.ID != "" || in.HostScreen.ID != "" {
		// Directives may still carry screen ids on newer platforms; they are
		// ignored entirely there.
		e.log.Infof("> Screen directives ignored on API major %d", e.caps.Major)
	}

	return result, nil
}

// classify buckets the host's graphs into exact and partial matches against
// the trigger's function items.
func (e *Engine) classify(ctx context.Context, in Input) (matched, other []models.GraphCandidate, err error) {
	itemIDs := dedupeItemIDs(in.Functions)
	if len(itemIDs) == 0 {
		return nil, nil, nil
	}

	graphs, err := e.api.GraphsByItems(ctx, in.HostID, itemIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot retrieve graphs for host %s: %w", in.HostID, err)
	}

	wanted := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}

	for _, graph := range graphs {
		for _, member := range graph.Items {
			if !wanted[member.ItemID] {
				continue
			}
			if member.ItemID == in.ItemID {
				matched = append(matched, candidate(graph, models.TierMatched))
				e.log.Infof("+ Graph %s (%s) ### MATCH ###", graph.GraphID, graph.Name)
			} else {
				other = append(other, candidate(graph, models.TierOther))
				e.log.Infof("- Graph %s (%s) (other match)", graph.GraphID, graph.Name)
			}
		}
	}

	e.log.Infof("> Graphs found: %d matched, %d other", len(matched), len(other))
	return matched, other, nil
}

// selectPrimary picks exactly one candidate: a validated forced override
// first, else the first exact match, else the first partial match, else none.
func (e *Engine) selectPrimary(ctx context.Context, forcedID string, matched, other []models.GraphCandidate) *models.GraphCandidate {
	if forcedID != "" && forcedID != "0" {
		graph, err := e.api.GraphByID(ctx, forcedID)
		switch {
		case err == nil:
			forced := candidate(graph, models.TierForced)
			e.log.Infof("# Forced graph %s (%s)", graph.GraphID, graph.Name)
			return &forced
		case errors.Is(err, zabbix.ErrNotFound):
			e.log.Warnf("! Forced graph %s does not exist, falling back to item matching", forcedID)
		default:
			e.log.Warnf("! Forced graph %s lookup failed (%v), falling back to item matching", forcedID, err)
		}
	}

	if len(matched) > 0 {
		return &matched[0]
	}
	if len(other) > 0 && !e.exactOnly {
		return &other[0]
	}
	return nil
}

// resolveScreen expands a legacy screen reference into its ordered graph set,
// sorted by ascending row then ascending column. A screen with no graph cells
// yields an empty set without error.
func (e *Engine) resolveScreen(ctx context.Context, ref models.ScreenRef) (*models.ScreenGraphSet, error) {
	if ref.ID == "" {
		return nil, nil
	}

	screen, err := e.api.ScreenByID(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, zabbix.ErrNotFound) {
			e.log.Warnf("! Screen %s not found, skipping", ref.ID)
			return nil, nil
		}
		return nil, fmt.Errorf("cannot retrieve screen %s: %w", ref.ID, err)
	}

	cells := make([]zabbix.ScreenItem, 0, len(screen.ScreenItems))
	for _, cell := range screen.ScreenItems {
		if cell.ResourceType == "0" {
			cells = append(cells, cell)
		}
	}
	sort.SliceStable(cells, func(i, j int) bool {
		yi, yj := atoi(cells[i].Y), atoi(cells[j].Y)
		if yi != yj {
			return yi < yj
		}
		return atoi(cells[i].X) < atoi(cells[j].X)
	})

	set := &models.ScreenGraphSet{
		ScreenID:   screen.ScreenID,
		ScreenName: screen.Name,
		Period:     ref.Period,
		Header:     ref.Header,
	}
	for _, cell := range cells {
		graph, err := e.api.GraphByID(ctx, cell.ResourceID)
		if err != nil {
			e.log.Warnf("! Screen graph %s lookup failed (%v), skipping", cell.ResourceID, err)
			continue
		}
		set.Graphs = append(set.Graphs, candidate(graph, models.TierMatched))
	}

	e.log.Infof("> Screen %s resolved to %d graphs", screen.ScreenID, len(set.Graphs))
	return set, nil
}

func candidate(graph zabbix.Graph, tier models.MatchTier) models.GraphCandidate {
	return models.GraphCandidate{
		ID:   graph.GraphID,
		Name: graph.Name,
		Type: atoi(graph.GraphType),
		Tier: tier,
	}
}

// dedupeItemIDs collects the distinct item ids across the trigger functions,
// preserving first-seen order.
func dedupeItemIDs(functions []zabbix.Function) []string {
	seen := make(map[string]bool, len(functions))
	var out []string
	for _, fn := range functions {
		if fn.ItemID == "" || seen[fn.ItemID] {
			continue
		}
		seen[fn.ItemID] = true
		out = append(out, fn.ItemID)
	}
	return out
}

func atoi(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}
