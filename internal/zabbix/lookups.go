package zabbix

import (
	"context"
	"encoding/json"
	"fmt"
)

// API is the lookup surface the resolution layers consume. *Client implements
// it; tests substitute fakes.
type API interface {
	RecentProblems(ctx context.Context, recentOnly bool) ([]Problem, error)
	EventByID(ctx context.Context, eventID string) (Event, error)
	TriggerByID(ctx context.Context, triggerID string) (Trigger, error)
	ItemByID(ctx context.Context, itemID string) (Item, error)
	HostByID(ctx context.Context, hostID string) (Host, error)
	MacrosByHost(ctx context.Context, hostID string) ([]Macro, error)
	GraphsByItems(ctx context.Context, hostID string, itemIDs []string) ([]Graph, error)
	GraphByID(ctx context.Context, graphID string) (Graph, error)
	ScreenByID(ctx context.Context, screenID string) (Screen, error)
}

var _ API = (*Client)(nil)

func decodeList[T any](raw json.RawMessage, what string) ([]T, error) {
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return out, nil
}

func decodeOne[T any](raw json.RawMessage, what string) (T, error) {
	var zero T
	list, err := decodeList[T](raw, what)
	if err != nil {
		return zero, err
	}
	if len(list) == 0 {
		return zero, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return list[0], nil
}

// RecentProblems returns the most recent active problem, if any. With
// recentOnly set the lookup is restricted to problems in their recent state;
// the caller relaxes that filter on an empty result.
func (c *Client) RecentProblems(ctx context.Context, recentOnly bool) ([]Problem, error) {
	c.log.Infof("# Retrieve most recent PROBLEM (recent=%v)", recentOnly)
	params := map[string]any{
		"output":    "extend",
		"sortfield": "eventid",
		"sortorder": "DESC",
		"limit":     1,
	}
	if recentOnly {
		params["recent"] = true
	}
	raw, err := c.Call(ctx, "problem.get", params, true)
	if err != nil {
		return nil, err
	}
	return decodeList[Problem](raw, "problems")
}

// EventByID fetches one event with its acknowledge history expanded.
func (c *Client) EventByID(ctx context.Context, eventID string) (Event, error) {
	c.log.Infof("# Retrieve EVENT information")
	raw, err := c.Call(ctx, "event.get", map[string]any{
		"eventids":            eventID,
		"output":              "extend",
		"select_acknowledges": "extend",
	}, true)
	if err != nil {
		return Event{}, err
	}
	return decodeOne[Event](raw, "event "+eventID)
}

// TriggerByID fetches one trigger with functions and tags expanded.
func (c *Client) TriggerByID(ctx context.Context, triggerID string) (Trigger, error) {
	c.log.Infof("# Retrieve TRIGGER information")
	raw, err := c.Call(ctx, "trigger.get", map[string]any{
		"triggerids":        triggerID,
		"output":            "extend",
		"selectFunctions":   "extend",
		"selectTags":        "extend",
		"expandComment":     1,
		"expandDescription": 1,
		"expandExpression":  1,
	}, true)
	if err != nil {
		return Trigger{}, err
	}
	return decodeOne[Trigger](raw, "trigger "+triggerID)
}

// ItemByID fetches one item.
func (c *Client) ItemByID(ctx context.Context, itemID string) (Item, error) {
	c.log.Infof("# Retrieve ITEM information")
	raw, err := c.Call(ctx, "item.get", map[string]any{
		"itemids": itemID,
		"output":  "extend",
	}, true)
	if err != nil {
		return Item{}, err
	}
	return decodeOne[Item](raw, "item "+itemID)
}

// HostByID fetches one host with tags expanded.
func (c *Client) HostByID(ctx context.Context, hostID string) (Host, error) {
	c.log.Infof("# Retrieve HOST information")
	raw, err := c.Call(ctx, "host.get", map[string]any{
		"hostids":    hostID,
		"output":     "extend",
		"selectTags": "extend",
	}, true)
	if err != nil {
		return Host{}, err
	}
	return decodeOne[Host](raw, "host "+hostID)
}

// MacrosByHost fetches the user macros defined on a host.
func (c *Client) MacrosByHost(ctx context.Context, hostID string) ([]Macro, error) {
	c.log.Infof("# Retrieve HOST MACRO information")
	raw, err := c.Call(ctx, "usermacro.get", map[string]any{
		"hostids": hostID,
		"output":  "extend",
	}, true)
	if err != nil {
		return nil, err
	}
	return decodeList[Macro](raw, "host macros")
}

// GraphsByItems fetches the host's graphs containing at least one of the
// given items, with member-item lists expanded.
func (c *Client) GraphsByItems(ctx context.Context, hostID string, itemIDs []string) ([]Graph, error) {
	c.log.Infof("# Retrieve associated graphs")
	raw, err := c.Call(ctx, "graph.get", map[string]any{
		"hostids":     hostID,
		"itemids":     itemIDs,
		"output":      "extend",
		"selectItems": "extend",
	}, true)
	if err != nil {
		return nil, err
	}
	return decodeList[Graph](raw, "graphs")
}

// GraphByID fetches one graph explicitly, used to validate forced overrides.
func (c *Client) GraphByID(ctx context.Context, graphID string) (Graph, error) {
	c.log.Infof("# Retrieve GRAPH %s", graphID)
	raw, err := c.Call(ctx, "graph.get", map[string]any{
		"graphids":    graphID,
		"output":      "extend",
		"selectItems": "extend",
	}, true)
	if err != nil {
		return Graph{}, err
	}
	return decodeOne[Graph](raw, "graph "+graphID)
}

// ScreenByID fetches one legacy screen with its cells. Callers must gate this
// on Capabilities.SupportsScreens; newer platforms dropped the method.
func (c *Client) ScreenByID(ctx context.Context, screenID string) (Screen, error) {
	c.log.Infof("# Retrieve SCREEN %s", screenID)
	raw, err := c.Call(ctx, "screen.get", map[string]any{
		"screenids":         screenID,
		"output":            "extend",
		"selectScreenItems": "extend",
	}, true)
	if err != nil {
		return Screen{}, err
	}
	return decodeOne[Screen](raw, "screen "+screenID)
}
