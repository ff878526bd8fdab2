// Package dispatch sequences one notification run: resolve context, pick
// graphs, assemble the mail payload, render templates, and send.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/moudsen/mailGraph/internal/config"
	"github.com/moudsen/mailGraph/internal/graphsel"
	"github.com/moudsen/mailGraph/internal/logging"
	"github.com/moudsen/mailGraph/internal/models"
	"github.com/moudsen/mailGraph/internal/render"
	"github.com/moudsen/mailGraph/internal/resolver"
	"github.com/moudsen/mailGraph/internal/zabbix"
	"github.com/moudsen/mailGraph/pkg/mailer"
)

// Platform is the monitoring-platform surface one run needs: the version
// probe and session setup plus all lookups.
type Platform interface {
	zabbix.API
	ProbeVersion(ctx context.Context) (zabbix.Capabilities, error)
	Login(ctx context.Context) error
}

// Orchestrator drives one run end to end. All collaborators are injected so
// each invocation is a fresh, isolated unit.
type Orchestrator struct {
	cfg      config.Config
	platform Platform
	fetcher  zabbix.GraphFetcher
	sender   mailer.Sender
	log      *logging.Logger
}

// New builds an orchestrator from explicit collaborators.
func New(cfg config.Config, platform Platform, fetcher zabbix.GraphFetcher, sender mailer.Sender, log *logging.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, platform: platform, fetcher: fetcher, sender: sender, log: log}
}

// NewForRequest wires up the platform client, image fetcher and mailer for
// one inbound request. The platform root URL and proxy come from the request
// itself.
func NewForRequest(cfg config.Config, req models.Request, log *logging.Logger) (*Orchestrator, error) {
	client, err := zabbix.NewClient(req.BaseURL, zabbix.Options{
		APIUser:       cfg.Zabbix.APIUser,
		APIPass:       cfg.Zabbix.APIPass,
		APIToken:      cfg.Zabbix.APIToken,
		HTTPProxy:     req.HTTPProxy,
		TLSSkipVerify: cfg.Zabbix.TLSSkipVerify,
	}, log)
	if err != nil {
		return nil, err
	}

	fetcher := zabbix.NewImageFetcher(req.BaseURL, cfg.Zabbix.WebUser, cfg.Zabbix.WebPass,
		cfg.Paths.Images, cfg.Zabbix.TLSSkipVerify, log)

	sender := mailer.New(cfg.Mail.Server, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password,
		cfg.Mail.From, cfg.Mail.FromName)

	return New(cfg, client, fetcher, sender, log), nil
}

// Run executes the full sequence and returns the transport message id.
// Errors returned here are fatal run outcomes; no mail has been sent unless
// the error wraps the send step itself.
func (o *Orchestrator) Run(ctx context.Context, req models.Request) (string, error) {
	caps, err := o.platform.ProbeVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("cannot determine API version: %w", err)
	}

	if err := o.platform.Login(ctx); err != nil {
		return "", fmt.Errorf("error logging in to Zabbix: %w", err)
	}

	resolved, err := resolver.New(o.platform, o.cfg.Graph.MaxPeriods, o.log).Resolve(ctx, req)
	if err != nil {
		return "", err
	}
	alert := resolved.Context
	directives := resolved.Directives

	engine := graphsel.New(o.platform, caps, o.cfg.Graph.ExactOnly, o.log)
	graphs, err := engine.Resolve(ctx, graphsel.Input{
		Functions:     resolved.Functions,
		HostID:        alert.HostID,
		ItemID:        alert.ItemID,
		ForcedGraphID: directives.ForcedGraphID,
		TriggerScreen: directives.TriggerScreen,
		HostScreen:    directives.HostScreen,
	})
	if err != nil {
		// Graph selection is an optional enrichment; the notification still
		// goes out without images.
		o.log.Warnf("! Graph resolution failed, sending without images: %v", err)
		graphs = graphsel.Result{}
	}

	assembler := render.New(o.fetcher, o.cfg.Paths.ImagesURL, o.log)
	data := assembler.Assemble(ctx, req, alert, directives, graphs)

	templates, err := loadTemplates(o.cfg.Paths.Templates, req.Subject)
	if err != nil {
		return "", err
	}

	o.log.Infof("# Processing templates")
	data.Fields["LOG_HTML"] = o.log.TraceHTML()
	data.Fields["LOG_PLAIN"] = o.log.TracePlain()

	html, plain, subject, err := templates.render(data.Fields)
	if err != nil {
		return "", err
	}

	msg := mailer.Message{
		To:        req.Recipient,
		Subject:   subject,
		BodyHTML:  html,
		BodyPlain: plain,
	}
	for _, image := range data.Images {
		msg.Embeds = append(msg.Embeds, image.Path)
	}
	if directives.Debug {
		o.log.Infof("# Attaching logs to mail message")
		msg.Attachments = append(msg.Attachments,
			mailer.Attachment{Name: "log.html", MIME: "text/html", Content: []byte(o.log.TraceHTML())},
			mailer.Attachment{Name: "log.txt", MIME: "text/plain", Content: []byte(o.log.TracePlain())},
		)
	}

	o.log.Infof("# Sending message to %s", req.Recipient)
	messageID, err := o.sender.Send(msg)
	if err != nil {
		o.log.Errorf("! Mail send failed: %v", err)
		return "", fmt.Errorf("mail send failed: %w", err)
	}
	o.log.Infof("# Message ID = %s", messageID)

	if directives.Debug {
		o.dumpRun(alert.EventID, data.Fields)
	}

	return messageID, nil
}

// dumpRun persists the run trace and the rendered field set for postmortem
// diagnosis. Failures here only warn; the mail is already out.
func (o *Orchestrator) dumpRun(eventID string, fields map[string]any) {
	trimmed := make(map[string]any, len(fields))
	for key, value := range fields {
		if key == "LOG_HTML" || key == "LOG_PLAIN" {
			continue
		}
		trimmed[key] = value
	}

	extra, err := json.MarshalIndent(trimmed, "", "    ")
	if err != nil {
		o.log.Warnf("! Cannot serialize mail data for dump: %v", err)
		extra = nil
	}

	path := filepath.Join(o.cfg.Paths.Log, "log."+eventID+".dump")
	if err := o.log.Dump(path, string(extra)); err != nil {
		o.log.Warnf("! Cannot write log dump %s: %v", path, err)
	} else {
		o.log.Infof("# Log dumped to %s", path)
	}
}
