package intent

// EntityBundle is the classifier's structured output for one query. All
// entity arrays may be absent or empty; consumers must tolerate both. The
// bundle is treated as untrusted input: malformed fields resolve to
// defaults, never to an error.
type EntityBundle struct {
	Intent   []IntentEntity   `json:"intent,omitempty"`
	Datetime []DatetimeEntity `json:"datetime,omitempty"`
	Duration []DurationEntity `json:"duration,omitempty"`
}

// IntentEntity is one classified intent candidate. Index 0 is assumed to be
// the highest-confidence candidate; the resolver does not re-rank.
type IntentEntity struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// DatetimeEntity is a classified point in time, ISO-8601 encoded.
type DatetimeEntity struct {
	Value      string  `json:"value"`
	Grain      string  `json:"grain"`
	Confidence float64 `json:"confidence"`
}

// DurationEntity is a classified relative time span ("3 days ago").
type DurationEntity struct {
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}
