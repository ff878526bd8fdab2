// Package render assembles the data structure fed to the mail templates:
// one image descriptor per resolved graph per requested period, plus the
// contextual fields and backlink URLs.
package render

import (
	"context"
	"fmt"

	"github.com/moudsen/mailGraph/internal/graphsel"
	"github.com/moudsen/mailGraph/internal/logging"
	"github.com/moudsen/mailGraph/internal/models"
	"github.com/moudsen/mailGraph/internal/zabbix"
)

// MailData is the rendered-payload bundle: the flat field set consumed by the
// templates plus every image file to embed.
type MailData struct {
	Fields map[string]any
	Images []models.RenderedImage
}

// GraphBlock is one embedded chart as seen by the templates.
type GraphBlock struct {
	CID    string
	URL    string
	Header string
	Period string
	Name   string
}

// ScreenBlock is one resolved screen section for the templates.
type ScreenBlock struct {
	Name   string
	Header string
	Graphs []GraphBlock
}

// Assembler turns resolved context plus graph candidates into MailData.
type Assembler struct {
	fetcher   zabbix.GraphFetcher
	imagesURL string
	log       *logging.Logger
}

// New builds an assembler. imagesURL is the public prefix under which the
// generated images are reachable (used in plain-text bodies).
func New(fetcher zabbix.GraphFetcher, imagesURL string, log *logging.Logger) *Assembler {
	return &Assembler{fetcher: fetcher, imagesURL: imagesURL, log: log}
}

// Assemble fetches every required image and builds the template field set.
// A failed image fetch degrades to "no image" for that entry; it never aborts
// the run.
func (a *Assembler) Assemble(ctx context.Context, req models.Request, alert models.AlertContext,
	d models.DisplayDirectives, graphs graphsel.Result) *MailData {

	data := &MailData{Fields: map[string]any{}}

	a.addContextFields(data, req, alert)
	a.addPrimaryGraphs(ctx, data, d, graphs.Primary)

	if block := a.addScreen(ctx, data, d, graphs.TriggerScreen); block != nil {
		data.Fields["TRIGGERSCREEN"] = block
	}
	if block := a.addScreen(ctx, data, d, graphs.HostScreen); block != nil {
		data.Fields["HOSTSCREEN"] = block
	}

	return data
}

func (a *Assembler) addContextFields(data *MailData, req models.Request, alert models.AlertContext) {
	fields := data.Fields

	fields["baseURL"] = req.BaseURL

	fields["EVENT_ID"] = alert.EventID
	fields["EVENT_NAME"] = alert.EventName
	fields["EVENT_OPDATA"] = alert.EventOpData
	fields["EVENT_VALUE"] = alert.EventValue
	fields["EVENT_SEVERITY"] = alert.SeverityLabel
	fields["EVENT_STATUS"] = alert.StatusLabel
	fields["EVENT_DURATION"] = NiceDuration(alert.Duration)

	fields["TRIGGER_ID"] = alert.TriggerID
	fields["TRIGGER_DESCRIPTION"] = alert.TriggerDescription
	fields["TRIGGER_COMMENTS"] = alert.TriggerComments

	fields["ITEM_ID"] = alert.ItemID
	fields["ITEM_NAME"] = alert.ItemName
	fields["ITEM_KEY"] = alert.ItemKey
	fields["ITEM_DESCRIPTION"] = alert.ItemDescription
	fields["ITEM_LASTVALUE"] = alert.ItemLastValue
	fields["ITEM_PREVIOUSVALUE"] = alert.ItemPrevValue

	fields["HOST_ID"] = alert.HostID
	fields["HOST_NAME"] = alert.HostName
	fields["HOST_TECHNICALNAME"] = alert.HostTechName
	fields["HOST_DESCRIPTION"] = alert.HostDescription
	fields["HOST_ERROR"] = alert.HostError

	fields["ACKNOWLEDGES"] = alert.Acks

	base := req.BaseURL
	fields["TRIGGER_URL"] = fmt.Sprintf("%striggers.php?form=update&triggerid=%s", base, alert.TriggerID)
	fields["ITEM_URL"] = fmt.Sprintf("%sitems.php?form=update&hostid=%s&itemid=%s", base, alert.HostID, alert.ItemID)
	fields["HOST_URL"] = fmt.Sprintf("%shosts.php?form=update&hostid=%s", base, alert.HostID)
	fields["EVENTDETAILS_URL"] = fmt.Sprintf("%str_events.php?triggerid=%s&eventid=%s", base, alert.TriggerID, alert.EventID)
	fields["ACK_URL"] = fmt.Sprintf("%szabbix.php?action=acknowledge.edit&eventids%%5B%%5D=%s", base, alert.EventID)
	fields["HOSTPROBLEMS_URL"] = fmt.Sprintf("%szabbix.php?action=problem.view&filter_hostids%%5B%%5D=%s&filter_set=1", base, alert.HostID)

	// Caller-supplied custom fields pass through verbatim.
	for key, value := range req.Info {
		fields[key] = value
	}
}

// addPrimaryGraphs fetches one image per requested period for the selected
// primary candidate.
func (a *Assembler) addPrimaryGraphs(ctx context.Context, data *MailData, d models.DisplayDirectives, primary *models.GraphCandidate) {
	if primary == nil {
		data.Fields["GRAPHS"] = []GraphBlock{}
		return
	}

	data.Fields["GRAPH_ID"] = primary.ID
	data.Fields["GRAPH_NAME"] = primary.Name
	data.Fields["GRAPH_MATCH"] = primary.Tier.String()

	var blocks []GraphBlock
	for _, period := range d.Periods {
		image, ok := a.fetch(ctx, primary, d, period.Period)
		if !ok {
			continue
		}
		data.Images = append(data.Images, image)
		blocks = append(blocks, GraphBlock{
			CID:    image.CID(),
			URL:    a.imagesURL + image.Filename,
			Header: period.Header,
			Period: period.Period,
			Name:   primary.Name,
		})
	}
	data.Fields["GRAPHS"] = blocks

	if len(blocks) > 0 {
		// Single-graph template compatibility fields.
		data.Fields["GRAPH_CID"] = blocks[0].CID
		data.Fields["GRAPH_URL"] = blocks[0].URL
	}
}

// addScreen fetches one image per screen graph at the screen's single period,
// falling back to the first primary period and then to the period string as
// header.
func (a *Assembler) addScreen(ctx context.Context, data *MailData, d models.DisplayDirectives, set *models.ScreenGraphSet) *ScreenBlock {
	if set == nil || len(set.Graphs) == 0 {
		return nil
	}

	period := set.Period
	if period == "" {
		period = d.FirstPeriod().Period
	}
	header := set.Header
	if header == "" {
		header = period
	}

	block := &ScreenBlock{Name: set.ScreenName, Header: header}
	for i := range set.Graphs {
		graph := set.Graphs[i]
		image, ok := a.fetch(ctx, &graph, d, period)
		if !ok {
			continue
		}
		data.Images = append(data.Images, image)
		block.Graphs = append(block.Graphs, GraphBlock{
			CID:    image.CID(),
			URL:    a.imagesURL + image.Filename,
			Header: header,
			Period: period,
			Name:   graph.Name,
		})
	}

	if len(block.Graphs) == 0 {
		return nil
	}
	return block
}

func (a *Assembler) fetch(ctx context.Context, graph *models.GraphCandidate, d models.DisplayDirectives, period string) (models.RenderedImage, bool) {
	image, err := a.fetcher.FetchGraph(ctx, zabbix.GraphRequest{
		GraphID:    graph.ID,
		Width:      d.GraphWidth,
		Height:     d.GraphHeight,
		Type:       graph.Type,
		ShowLegend: d.ShowLegend,
		Period:     period,
	})
	if err != nil {
		a.log.Warnf("! No image for graph %s period %s: %v", graph.ID, period, err)
		return models.RenderedImage{}, false
	}
	return image, true
}
