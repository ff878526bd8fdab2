package zabbix

// The API serializes every identifier and numeric field as a string; these
// structs keep the wire representation and leave interpretation to callers.

// Tag is a key/value annotation on a trigger or host.
type Tag struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Function ties a trigger expression part to the item it evaluates.
type Function struct {
	FunctionID string `json:"functionid"`
	ItemID     string `json:"itemid"`
}

// Trigger is one alerting rule with its functions and tags expanded.
type Trigger struct {
	TriggerID   string     `json:"triggerid"`
	Description string     `json:"description"`
	Comments    string     `json:"comments"`
	Functions   []Function `json:"functions"`
	Tags        []Tag      `json:"tags"`
}

// Acknowledge is one raw acknowledge-history record on an event.
type Acknowledge struct {
	Clock       string `json:"clock"`
	Action      string `json:"action"`
	OldSeverity string `json:"old_severity"`
	NewSeverity string `json:"new_severity"`
	Alias       string `json:"alias"`
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	Message     string `json:"message"`
}

// Event is one firing or recovery instance of a trigger.
type Event struct {
	EventID      string        `json:"eventid"`
	Name         string        `json:"name"`
	OpData       string        `json:"opdata"`
	Severity     string        `json:"severity"`
	Clock        string        `json:"clock"`
	Value        string        `json:"value"`
	ObjectID     string        `json:"objectid"`
	Acknowledges []Acknowledge `json:"acknowledges"`
}

// Problem is one active problem entry.
type Problem struct {
	EventID  string `json:"eventid"`
	ObjectID string `json:"objectid"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Clock    string `json:"clock"`
}

// Item is one monitored metric on a host.
type Item struct {
	ItemID      string `json:"itemid"`
	HostID      string `json:"hostid"`
	Name        string `json:"name"`
	Key         string `json:"key_"`
	Description string `json:"description"`
	LastValue   string `json:"lastvalue"`
	PrevValue   string `json:"prevvalue"`
}

// Host is one monitored entity with its tags expanded.
type Host struct {
	HostID      string `json:"hostid"`
	Host        string `json:"host"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Error       string `json:"error"`
	Tags        []Tag  `json:"tags"`
}

// Macro is one user macro defined on a host.
type Macro struct {
	Macro string `json:"macro"`
	Value string `json:"value"`
}

// GraphItemRef is one member item of a graph.
type GraphItemRef struct {
	ItemID string `json:"itemid"`
}

// Graph is one rendered-visualization definition with its member items.
type Graph struct {
	GraphID   string         `json:"graphid"`
	Name      string         `json:"name"`
	GraphType string         `json:"graphtype"`
	Items     []GraphItemRef `json:"items"`
}

// ScreenItem is one cell of a legacy screen grid.
type ScreenItem struct {
	ResourceType string `json:"resourcetype"`
	ResourceID   string `json:"resourceid"`
	X            string `json:"x"`
	Y            string `json:"y"`
}

// Screen is one legacy screen with its cells expanded.
type Screen struct {
	ScreenID    string       `json:"screenid"`
	Name        string       `json:"name"`
	ScreenItems []ScreenItem `json:"screenitems"`
}
