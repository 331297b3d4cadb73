package models

// Document is a catalog record for one processed document. The playback
// engine only reads these; field extraction itself happens elsewhere.
type Document struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Org       string `json:"org,omitempty" yaml:"org,omitempty"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
	CreatedTS int64  `json:"created_ts,omitempty" yaml:"created_ts,omitempty"`
	UpdatedTS int64  `json:"updated_ts,omitempty" yaml:"updated_ts,omitempty"`
}

// ValidationRule is a per-document flag (e.g. "missing information") that a
// completed conversation thread may resolve as its terminal side effect.
type ValidationRule struct {
	ID         string `json:"id" yaml:"id"`
	Doc        string `json:"doc" yaml:"doc"`
	Field      string `json:"field,omitempty" yaml:"field,omitempty"`
	Summary    string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Resolved   bool   `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	ResolvedTS int64  `json:"resolved_ts,omitempty" yaml:"resolved_ts,omitempty"`
}
