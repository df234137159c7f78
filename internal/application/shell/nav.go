package shell

// PageID names a navigation target.
type PageID string

const (
	PageTask       PageID = "task"
	PageShots      PageID = "shots"
	PageAttendance PageID = "attendance"
	PageLogs       PageID = "logs"
	PageLeaves     PageID = "leaves"
)

// NavItem is one side navigation entry.
type NavItem struct {
	ID    PageID
	Label string
	Path  string
	Icon  string
}

// NavItems lists the side navigation in display order.
var NavItems = []NavItem{
	{ID: PageTask, Label: "Task", Path: "/task", Icon: "clipboard-list"},
	{ID: PageShots, Label: "Shots", Path: "/shots", Icon: "film"},
	{ID: PageAttendance, Label: "Attendance", Path: "/attendance", Icon: "users"},
	{ID: PageLogs, Label: "Logs", Path: "/logs", Icon: "file-text"},
	{ID: PageLeaves, Label: "Leaves", Path: "/leaves", Icon: "calendar"},
}

// Mounted returns the page that renders for a navigation target.
// Only Shots and Attendance have pages of their own; everything else shows the dashboard.
func Mounted(id PageID) PageID {
	switch id {
	case PageShots, PageAttendance:
		return id
	default:
		return PageTask
	}
}
