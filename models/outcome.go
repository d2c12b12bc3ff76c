package models

// Outcome is the normalized record produced for one WorkItem.
// It is created once and never mutated after being appended to a ResultSet.
type Outcome struct {
	Label     string    `json:"label"`
	Target    string    `json:"target"`
	Operation Operation `json:"operation"`

	// Success is false when the operation failed or, for content
	// validation, when the page did not pass the content gate.
	Success bool `json:"success"`

	// Result is nil when the operation failed.
	Result OperationResult `json:"result"`

	// Error is populated only when the operation failed.
	Error *ErrorDetail `json:"error,omitempty"`

	// DurationMs is the wall time spent on the item, page acquisition included.
	DurationMs int64 `json:"duration_ms"`
}

// Rejected reports whether the operation succeeded but its content was
// judged unacceptable.
func (o Outcome) Rejected() bool {
	return !o.Success && o.Error == nil && o.Result != nil
}

// ResultSet is the ordered sequence of outcomes of a run, in worklist order.
type ResultSet []Outcome

// Summary counts outcomes by disposition.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Rejected int `json:"rejected"`
}

// Summarize counts the outcomes in rs. Rejected outcomes are also failures.
func (rs ResultSet) Summarize() Summary {
	s := Summary{Total: len(rs)}
	for _, o := range rs {
		switch {
		case o.Success:
			s.Passed++
		case o.Rejected():
			s.Rejected++
			s.Failed++
		default:
			s.Failed++
		}
	}
	return s
}

// AllPassed reports whether every outcome succeeded.
func (rs ResultSet) AllPassed() bool {
	for _, o := range rs {
		if !o.Success {
			return false
		}
	}
	return true
}

// Report is the JSON document written at the end of a run.
type Report struct {
	RunID     string    `json:"run_id"`
	StartedAt int64     `json:"started_at"` // unix timestamp
	Summary   Summary   `json:"summary"`
	Results   ResultSet `json:"results"`
}
