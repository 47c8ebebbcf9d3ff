package conversation

// Renderer tags which reply widget a message implies. RendererNone means
// the message renders with no dedicated widget.
type Renderer int

const (
	RendererNone Renderer = iota
	RendererInputQuery
	RendererAddEntry
	RendererSeeBeforeRelative
	RendererSeeYesterday
)

func (r Renderer) String() string {
	switch r {
	case RendererInputQuery:
		return "input-query"
	case RendererAddEntry:
		return "add-entry"
	case RendererSeeBeforeRelative:
		return "see-before-relative"
	case RendererSeeYesterday:
		return "see-yesterday"
	default:
		return "none"
	}
}

// SelectRenderer maps a message's data name onto its renderer. The table is
// total: unknown names, the explicit "undefined-intent", and the empty name
// all select RendererNone. Keep this table in lock-step with the command
// names in the intent package.
func SelectRenderer(name string) Renderer {
	switch name {
	case "input-query":
		return RendererInputQuery
	case "new-entry":
		return RendererAddEntry
	case "see-before-relative":
		return RendererSeeBeforeRelative
	case "see-yesterday":
		return RendererSeeYesterday
	default:
		return RendererNone
	}
}
