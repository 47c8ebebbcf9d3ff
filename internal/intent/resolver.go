// Package intent maps classified entity bundles onto a closed set of
// executable commands.
package intent

import (
	"time"

	"cloud.google.com/go/civil"
)

// Resolver turns an EntityBundle into exactly one Command. Resolution is a
// pure mapping with no side effects; every input yields a defined output.
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a Resolver using the wall clock for date defaults.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverAt creates a Resolver with an injected clock.
func NewResolverAt(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// Resolve maps a bundle to a Command. A bundle with no intent entities, or
// whose first intent names nothing known, resolves to Undefined. The first
// intent entity is trusted as-is; confidence is never inspected.
func (r *Resolver) Resolve(bundle EntityBundle) Command {
	if len(bundle.Intent) == 0 {
		return Undefined{}
	}

	switch bundle.Intent[0].Value {
	case NameNewEntry:
		return r.newEntry(bundle)
	case NameSeeYesterday:
		return SeeYesterday{}
	case NameSeeBeforeRelative:
		return seeBeforeRelative(bundle)
	default:
		return Undefined{}
	}
}

// newEntry builds a NewEntry from the bundle's first datetime entity. An
// absent, malformed, or invalid datetime falls back to today.
func (r *Resolver) newEntry(bundle EntityBundle) Command {
	date := civil.DateOf(r.now())
	if len(bundle.Datetime) > 0 {
		if parsed, ok := parseEntityDate(bundle.Datetime[0].Value); ok {
			date = parsed
		}
	}
	return NewEntry{Date: date}
}

// seeBeforeRelative builds a SeeBeforeRelative from the bundle's first
// duration entity. Missing or malformed fields default to one day, the
// SeeYesterday window.
func seeBeforeRelative(bundle EntityBundle) Command {
	cmd := SeeBeforeRelative{Unit: "day", Value: 1}
	if len(bundle.Duration) > 0 {
		d := bundle.Duration[0]
		if d.Unit != "" {
			cmd.Unit = d.Unit
		}
		if d.Value > 0 {
			cmd.Value = d.Value
		}
	}
	return cmd
}

// parseEntityDate accepts the classifier's datetime encodings: a plain
// calendar date or a full RFC 3339 timestamp.
func parseEntityDate(value string) (civil.Date, bool) {
	if d, err := civil.ParseDate(value); err == nil {
		return d, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return civil.DateOf(t), true
	}
	return civil.Date{}, false
}
