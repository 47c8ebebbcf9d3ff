package intent

import "cloud.google.com/go/civil"

// Command name constants. The renderer-selection table in the conversation
// package keys off the same names; keep the two in lock-step.
const (
	NameNewEntry          = "new-entry"
	NameUndefined         = "undefined-intent"
	NameSeeYesterday      = "see-yesterday"
	NameSeeBeforeRelative = "see-before-relative"
)

// Descriptor is the routing payload a Command carries for its consumer.
// Path names the navigation target; the remaining fields are the command's
// parameters, populated per variant.
type Descriptor struct {
	Path  string      `json:"path"`
	Date  *civil.Date `json:"date,omitempty"`
	Unit  string      `json:"unit,omitempty"`
	Value float64     `json:"value,omitempty"`
}

// Command is one resolved user intent out of a closed variant set:
// NewEntry, Undefined, SeeYesterday, SeeBeforeRelative. Adding a variant
// means extending both this set and the resolver's lookup; the sealed
// marker keeps the set closed at compile time.
type Command interface {
	// Name returns the command's wire name.
	Name() string
	// Descriptor returns the command's routing descriptor.
	Descriptor() Descriptor

	sealed()
}

// NewEntry starts a new ledger entry on the given date.
type NewEntry struct {
	Date civil.Date
}

func (NewEntry) Name() string { return NameNewEntry }

func (c NewEntry) Descriptor() Descriptor {
	d := c.Date
	return Descriptor{Path: "expense/new", Date: &d}
}

func (NewEntry) sealed() {}

// Undefined is the terminal fallback for anything the classifier produced
// that maps to no known command. It is a valid classification result, not
// an error.
type Undefined struct{}

func (Undefined) Name() string { return NameUndefined }

func (Undefined) Descriptor() Descriptor { return Descriptor{Path: "undefined-intent"} }

func (Undefined) sealed() {}

// SeeYesterday asks for yesterday's entries; the window is fixed at one day.
type SeeYesterday struct{}

func (SeeYesterday) Name() string { return NameSeeYesterday }

func (SeeYesterday) Descriptor() Descriptor {
	return Descriptor{Path: "expense/recent", Unit: "day", Value: 1}
}

func (SeeYesterday) sealed() {}

// SeeBeforeRelative asks for entries newer than Value Units ago.
type SeeBeforeRelative struct {
	Unit  string
	Value float64
}

func (SeeBeforeRelative) Name() string { return NameSeeBeforeRelative }

func (c SeeBeforeRelative) Descriptor() Descriptor {
	return Descriptor{Path: "expense/recent", Unit: c.Unit, Value: c.Value}
}

func (SeeBeforeRelative) sealed() {}
