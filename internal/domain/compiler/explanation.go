package compiler

import "slices"

// Explanation says why a step exists and what it touches on the host.
type Explanation struct {
	summary    string
	detail     string
	references []string
}

// NewExplanation creates an Explanation. References are URLs such as the
// repository being cloned or the tool's documentation.
func NewExplanation(summary, detail string, references []string) Explanation {
	return Explanation{summary: summary, detail: detail, references: slices.Clone(references)}
}

// Summary is a one-line description.
func (e Explanation) Summary() string { return e.summary }

// Detail names the paths and commands involved.
func (e Explanation) Detail() string { return e.detail }

// References returns a copy of the reference URLs.
func (e Explanation) References() []string { return slices.Clone(e.references) }

// IsEmpty reports whether there is nothing to show.
func (e Explanation) IsEmpty() bool {
	return e.summary == "" && e.detail == ""
}

// Lines renders the explanation for the plan printer. Only the summary is
// shown unless ec is verbose.
func (e Explanation) Lines(ec ExplainContext) []string {
	var lines []string
	if e.summary != "" {
		lines = append(lines, e.summary)
	}
	if !ec.Verbose() {
		return lines
	}
	if e.detail != "" {
		lines = append(lines, e.detail)
	}
	for _, ref := range e.references {
		lines = append(lines, "see "+ref)
	}
	return lines
}
