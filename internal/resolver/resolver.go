// Package resolver walks Event → Trigger → Item → Host and turns the chain
// into the alert context and display directives for one run.
package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/moudsen/mailGraph/internal/logging"
	"github.com/moudsen/mailGraph/internal/models"
	"github.com/moudsen/mailGraph/internal/zabbix"
)

// Resolver performs the sequential dependent lookups for one alert. Any
// missing mandatory record is fatal for the run; this layer does not
// partially degrade.
type Resolver struct {
	api        zabbix.API
	log        *logging.Logger
	maxPeriods int
}

// Output is everything later stages need: the immutable alert context, the
// resolved directives, and the trigger functions feeding graph matching.
type Output struct {
	Context    models.AlertContext
	Directives models.DisplayDirectives
	Functions  []zabbix.Function
}

// New builds a resolver on top of the API client.
func New(api zabbix.API, maxPeriods int, log *logging.Logger) *Resolver {
	return &Resolver{api: api, log: log, maxPeriods: maxPeriods}
}

// Resolve runs the lookup chain for the request.
func (r *Resolver) Resolve(ctx context.Context, req models.Request) (*Output, error) {
	directives := models.DefaultDirectives(req)

	eventID, err := r.resolveEventID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	event, err := r.api.EventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("cannot retrieve event %s: %w", eventID, err)
	}

	trigger, err := r.api.TriggerByID(ctx, event.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("cannot retrieve trigger %s: %w", event.ObjectID, err)
	}
	applyTags(&directives, trigger.Tags)

	itemID := strings.TrimSpace(req.ItemID)
	if itemID == "" || itemID == "0" {
		if len(trigger.Functions) == 0 {
			return nil, fmt.Errorf("trigger %s has no functions to derive an item from", trigger.TriggerID)
		}
		itemID = trigger.Functions[0].ItemID
		r.log.Infof("> No item hint given, defaulting to item %s", itemID)
	}

	item, err := r.api.ItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("cannot retrieve item %s: %w", itemID, err)
	}

	host, err := r.api.HostByID(ctx, item.HostID)
	if err != nil {
		return nil, fmt.Errorf("cannot retrieve host %s: %w", item.HostID, err)
	}
	applyTags(&directives, host.Tags)

	macros, err := r.api.MacrosByHost(ctx, item.HostID)
	if err != nil {
		return nil, fmt.Errorf("cannot retrieve macros of host %s: %w", item.HostID, err)
	}
	applyMacros(&directives, macros)

	directives.CapPeriods(r.maxPeriods)

	alert := r.buildContext(req, event, trigger, item, host, directives.TruncateLen)

	return &Output{
		Context:    alert,
		Directives: directives,
		Functions:  trigger.Functions,
	}, nil
}

// resolveEventID handles the "no event id given" fallback: pick the most
// recent active problem, relaxing the recency filter on an empty first pass.
func (r *Resolver) resolveEventID(ctx context.Context, eventID int64) (string, error) {
	if eventID > 0 {
		return strconv.FormatInt(eventID, 10), nil
	}

	problems, err := r.api.RecentProblems(ctx, true)
	if err != nil {
		return "", fmt.Errorf("cannot look up recent problems: %w", err)
	}
	if len(problems) == 0 {
		problems, err = r.api.RecentProblems(ctx, false)
		if err != nil {
			return "", fmt.Errorf("cannot look up problems: %w", err)
		}
	}
	if len(problems) == 0 {
		return "", fmt.Errorf("no event id given and no active problems found")
	}

	r.log.Infof("> Using most recent problem event %s (%s)", problems[0].EventID, problems[0].Name)
	return problems[0].EventID, nil
}

func (r *Resolver) buildContext(req models.Request, event zabbix.Event, trigger zabbix.Trigger,
	item zabbix.Item, host zabbix.Host, truncate int) models.AlertContext {

	severity, _ := strconv.Atoi(event.Severity)
	eventValue, _ := strconv.Atoi(event.Value)

	severityLabel := SeverityLabel(severity)
	if eventValue == 0 {
		severityLabel = "Resolved"
	}

	alert := models.AlertContext{
		EventID:   event.EventID,
		TriggerID: trigger.TriggerID,
		ItemID:    item.ItemID,
		HostID:    host.HostID,

		EventName:     event.Name,
		EventOpData:   event.OpData,
		EventValue:    eventValue,
		Severity:      severity,
		SeverityLabel: severityLabel,
		StatusLabel:   StatusLabel(eventValue),
		Duration:      req.Duration,

		TriggerDescription: trigger.Description,
		TriggerComments:    trigger.Comments,

		ItemName:        item.Name,
		ItemKey:         item.Key,
		ItemDescription: item.Description,
		ItemLastValue:   displayValue(item.LastValue, truncate),
		ItemPrevValue:   displayValue(item.PrevValue, truncate),

		HostName:        host.Name,
		HostTechName:    host.Host,
		HostDescription: host.Description,
		HostError:       host.Error,

		Acks: decodeAcks(event.Acknowledges),
	}

	return alert
}

// displayValue substitutes structured-record values and applies the
// configured truncation with an ellipsis suffix.
func displayValue(value string, truncate int) string {
	if strings.HasPrefix(value, "<?xml") {
		return "[record]"
	}
	if truncate > 0 && len(value) > truncate {
		return value[:truncate] + " ..."
	}
	return value
}
