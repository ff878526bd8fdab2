package models

// AckEntry is one decoded acknowledge-history record on an event.
type AckEntry struct {
	Time        string
	Actor       string
	Message     string
	Actions     []string
	OldSeverity string
	NewSeverity string
}

// AlertContext holds the identifiers and display fields resolved for one
// notification. It is assembled once by the context resolver and read-only
// afterwards.
type AlertContext struct {
	EventID   string
	TriggerID string
	ItemID    string
	HostID    string

	EventName     string
	EventOpData   string
	EventValue    int
	Severity      int
	SeverityLabel string
	StatusLabel   string
	Duration      int64

	TriggerDescription string
	TriggerComments    string

	ItemName        string
	ItemKey         string
	ItemDescription string
	ItemLastValue   string
	ItemPrevValue   string

	HostName        string
	HostTechName    string
	HostDescription string
	HostError       string

	Acks []AckEntry
}
