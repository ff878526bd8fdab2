package resolver

import (
	"strconv"
	"time"

	"github.com/moudsen/mailGraph/internal/models"
	"github.com/moudsen/mailGraph/internal/zabbix"
)

// severityLabels maps the platform's fixed 6-level severity codes.
var severityLabels = []string{
	"Not classified",
	"Information",
	"Warning",
	"Average",
	"High",
	"Disaster",
}

// statusLabels maps the event value to a display status.
var statusLabels = []string{"Recovered", "Triggered/Active"}

// SeverityLabel returns the label for a severity code, tolerating values
// outside the table.
func SeverityLabel(code int) string {
	if code >= 0 && code < len(severityLabels) {
		return severityLabels[code]
	}
	return "Unknown"
}

// StatusLabel returns the display status for an event value.
func StatusLabel(eventValue int) string {
	if eventValue >= 0 && eventValue < len(statusLabels) {
		return statusLabels[eventValue]
	}
	return "Unknown"
}

// ackActionLabels decodes the acknowledge action bitmask; each set bit
// contributes one label.
var ackActionLabels = []struct {
	bit   int
	label string
}{
	{0x0001, "close problem"},
	{0x0002, "acknowledge event"},
	{0x0004, "add message"},
	{0x0008, "change severity"},
	{0x0010, "unacknowledge event"},
	{0x0020, "suppress event"},
	{0x0040, "unsuppress event"},
	{0x0080, "change event rank to cause"},
	{0x0100, "change event rank to symptom"},
}

// AckActions expands an action bitmask into its labels.
func AckActions(mask int) []string {
	var out []string
	for _, action := range ackActionLabels {
		if mask&action.bit != 0 {
			out = append(out, action.label)
		}
	}
	return out
}

// decodeAcks converts raw acknowledge records into display entries.
func decodeAcks(acks []zabbix.Acknowledge) []models.AckEntry {
	out := make([]models.AckEntry, 0, len(acks))
	for _, ack := range acks {
		clock, _ := strconv.ParseInt(ack.Clock, 10, 64)
		mask, _ := strconv.Atoi(ack.Action)
		oldSev, _ := strconv.Atoi(ack.OldSeverity)
		newSev, _ := strconv.Atoi(ack.NewSeverity)

		actor := ack.Alias
		if ack.Name != "" || ack.Surname != "" {
			actor = ack.Name + " " + ack.Surname
		}

		out = append(out, models.AckEntry{
			Time:        time.Unix(clock, 0).Format("2006-01-02 15:04:05"),
			Actor:       actor,
			Message:     ack.Message,
			Actions:     AckActions(mask),
			OldSeverity: SeverityLabel(oldSev),
			NewSeverity: SeverityLabel(newSev),
		})
	}
	return out
}
