package models

// MatchTier classifies how a graph was selected for the alert.
type MatchTier int

const (
	// TierForced means the graph was pinned by a mailGraph.graph directive.
	TierForced MatchTier = iota
	// TierMatched means the graph contains the primary item itself.
	TierMatched
	// TierOther means the graph contains another item from the trigger's
	// functions, but not the primary one.
	TierOther
)

func (t MatchTier) String() string {
	switch t {
	case TierForced:
		return "forced"
	case TierMatched:
		return "matched"
	case TierOther:
		return "other"
	default:
		return "unknown"
	}
}

// GraphCandidate is one selectable Zabbix graph.
type GraphCandidate struct {
	ID   string
	Name string
	// Type is the Zabbix graph type code: 0 normal, 1 stacked, 2 pie,
	// 3 exploded.
	Type int
	Tier MatchTier
}

// ScreenGraphSet is the ordered graph list attached to a legacy screen
// reference, sorted row-major by screen position.
type ScreenGraphSet struct {
	ScreenID   string
	ScreenName string
	Period     string
	Header     string
	Graphs     []GraphCandidate
}

// RenderedImage is one chart image persisted under the images directory.
type RenderedImage struct {
	// Filename is unique within and across runs (graph id, nanosecond
	// timestamp and period baked in).
	Filename string
	Path     string
	Size     int
	GraphID  string
	Period   string
}

// CID returns the content-id reference used to embed the image in HTML.
func (r RenderedImage) CID() string {
	return "cid:" + r.Filename
}
