package workstatus

// Status is the pipeline state shared by projects and shots.
// Raw values outside the known set parse to Unknown.
type Status string

// Known statuses. Values match the labels stored by the record store.
const (
	Active     Status = "Active"
	InProgress Status = "In Progress"
	Review     Status = "Review"
	Completed  Status = "Completed"
	Unknown    Status = "Unknown"
)

// All lists the known statuses in display order.
var All = []Status{Active, InProgress, Review, Completed}

// Style is the gradient pair used to render a status badge.
type Style struct {
	From string
	To   string
}

// styles maps each status to its badge gradient.
var styles = map[Status]Style{
	Active:     {From: "#00E5FF", To: "#7DF9FF"},
	InProgress: {From: "#FACC15", To: "#FCD34D"},
	Review:     {From: "#D97706", To: "#F59E0B"},
	Completed:  {From: "#16A34A", To: "#22C55E"},
}

// FallbackStyle is used for Unknown.
var FallbackStyle = Style{From: "#6B7280", To: "#9CA3AF"}

// Parse classifies a raw status string.
// PRE: none
// POST: Returns one of the known statuses on exact match, Unknown otherwise
func Parse(raw string) Status {
	for _, s := range All {
		if raw == string(s) {
			return s
		}
	}
	return Unknown
}

// IsKnown reports whether s is one of the enumerated statuses.
func (s Status) IsKnown() bool {
	_, ok := styles[s]
	return ok
}

// Style returns the badge gradient for s.
// POST: Unknown and unrecognised values return FallbackStyle
func (s Status) Style() Style {
	if st, ok := styles[s]; ok {
		return st
	}
	return FallbackStyle
}

// Label returns the text shown in a badge. Unknown statuses show the raw value.
func Label(s Status, raw string) string {
	if s.IsKnown() {
		return string(s)
	}
	if raw == "" {
		return string(Unknown)
	}
	return raw
}
