package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Request is the inbound notification payload, either POSTed by the Zabbix
// webhook script or synthesized from local configuration in CLI test mode.
// The webhook forwards several numeric fields as strings, so parsing is
// deliberately tolerant about scalar types.
type Request struct {
	EventID        int64
	ItemID         string
	Recipient      string
	BaseURL        string
	Duration       int64
	Subject        string
	GraphWidth     int
	GraphHeight    int
	ShowLegend     int
	Period         string
	Periods        []string
	PeriodsHeaders []string
	HTTPProxy      string
	Debug          bool

	// Info carries all "info*"-prefixed fields verbatim for the templates.
	Info map[string]string
}

// ParseRequest decodes the inbound JSON body into a Request.
// Only recipient and baseURL are mandatory; everything else has a default or
// is optional. An eventId of 0 means "pick the latest active problem".
func ParseRequest(body []byte) (Request, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Request{}, fmt.Errorf("invalid request body: %w", err)
	}

	req := Request{
		GraphWidth:  450,
		GraphHeight: 120,
		Period:      "48h",
		Info:        make(map[string]string),
	}

	req.EventID = asInt64(raw["eventId"])
	req.Duration = asInt64(raw["duration"])
	req.Recipient = asString(raw["recipient"])
	req.BaseURL = asString(raw["baseURL"])
	req.Subject = asString(raw["subject"])
	req.ItemID = asString(raw["itemId"])
	req.HTTPProxy = asString(raw["HTTPProxy"])

	if v, ok := raw["graphWidth"]; ok {
		req.GraphWidth = int(asInt64(v))
	}
	if v, ok := raw["graphHeight"]; ok {
		req.GraphHeight = int(asInt64(v))
	}
	if v, ok := raw["showLegend"]; ok {
		req.ShowLegend = int(asInt64(v))
	}
	if v, ok := raw["period"]; ok && asString(v) != "" {
		req.Period = asString(v)
	}
	if v := asString(raw["periods"]); v != "" {
		req.Periods = splitList(v)
	}
	if v := asString(raw["periods_headers"]); v != "" {
		req.PeriodsHeaders = splitList(v)
	}
	if v, ok := raw["debug"]; ok {
		req.Debug = asBool(v)
	}

	for key, value := range raw {
		if strings.HasPrefix(key, "info") {
			req.Info[key] = asString(value)
		}
	}

	if req.Recipient == "" {
		return Request{}, fmt.Errorf("missing recipient")
	}
	if req.BaseURL == "" {
		return Request{}, fmt.Errorf("missing baseURL")
	}
	if !strings.HasSuffix(req.BaseURL, "/") {
		req.BaseURL += "/"
	}

	return req, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func asString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatInt(int64(value), 10)
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}

func asInt64(v any) int64 {
	switch value := v.(type) {
	case float64:
		return int64(value)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		return n
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case float64:
		return value != 0
	case string:
		return value == "1" || strings.EqualFold(value, "true") || strings.EqualFold(value, "yes")
	default:
		return false
	}
}
