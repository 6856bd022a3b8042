package schema

// Rect is an integer screen rectangle in window coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether the rectangle has no visible area.
func (r Rect) IsZero() bool {
	return r.Width <= 0 || r.Height <= 0
}

// TabSnapshot is a read-only view of one browser tab for transports. The
// browser controller owns the authoritative record; consumers rebuild their
// mirror from emitted events.
type TabSnapshot struct {
	ID           TabID  `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	IsLoading    bool   `json:"is_loading"`
	CanGoBack    bool   `json:"can_go_back"`
	CanGoForward bool   `json:"can_go_forward"`
}

// TabEventType describes tab lifecycle or surface state changes.
type TabEventType string

const (
	// TabEventCreated indicates a tab was created.
	TabEventCreated TabEventType = "created"
	// TabEventClosed indicates a tab was closed.
	TabEventClosed TabEventType = "closed"
	// TabEventActivated indicates a tab became active.
	TabEventActivated TabEventType = "activated"
	// TabEventNav indicates a navigation or history change on a tab.
	TabEventNav TabEventType = "nav"
	// TabEventLoading indicates a load-start or load-stop on a tab.
	TabEventLoading TabEventType = "loading"
	// TabEventTitle indicates a title change on a tab.
	TabEventTitle TabEventType = "title"
)

// TabEvent represents a change to a tab or the tab list. Every event
// carries the tab id; the UI cannot assume a single surface. A closed
// event for the active tab carries the replacement ActiveTab in the same
// event so consumers never observe a no-active-tab state.
type TabEvent struct {
	Type      TabEventType `json:"type"`
	Tab       TabSnapshot  `json:"tab"`
	ActiveTab TabID        `json:"active_tab"`
}

// TabList reports all tabs and the active id, ordered by creation.
type TabList struct {
	Tabs      []TabSnapshot `json:"tabs"`
	ActiveTab TabID         `json:"active_tab_id"`
}
