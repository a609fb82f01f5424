package compiler

import "fmt"

// DiffType classifies the change a step would make.
type DiffType string

const (
	// DiffTypeAdd creates something that does not exist yet.
	DiffTypeAdd DiffType = "add"
	// DiffTypeModify updates something in place.
	DiffTypeModify DiffType = "modify"
	// DiffTypeRun executes a command whose effect cannot be previewed.
	DiffTypeRun DiffType = "run"
	// DiffTypeNone indicates no change is needed.
	DiffTypeNone DiffType = "none"
)

// String returns the string representation of the diff type.
func (d DiffType) String() string {
	return string(d)
}

// Diff describes a planned change for display in plan output.
type Diff struct {
	diffType DiffType
	resource string
	name     string
	detail   string
}

// NewDiff creates a new Diff. resource is the kind of thing touched
// ("repository", "model", "package"); detail is the source or target.
func NewDiff(diffType DiffType, resource, name, detail string) Diff {
	return Diff{
		diffType: diffType,
		resource: resource,
		name:     name,
		detail:   detail,
	}
}

// Type returns the diff type.
func (d Diff) Type() DiffType { return d.diffType }

// Resource returns the resource kind.
func (d Diff) Resource() string { return d.resource }

// Name returns the resource name.
func (d Diff) Name() string { return d.name }

// Detail returns the source or target of the change.
func (d Diff) Detail() string { return d.detail }

// Summary returns a one-line rendering of the diff.
func (d Diff) Summary() string {
	marker := " "
	switch d.diffType {
	case DiffTypeAdd:
		marker = "+"
	case DiffTypeModify:
		marker = "~"
	case DiffTypeRun:
		marker = ">"
	case DiffTypeNone:
	}
	if d.detail == "" {
		return fmt.Sprintf("%s %s %s", marker, d.resource, d.name)
	}
	return fmt.Sprintf("%s %s %s (%s)", marker, d.resource, d.name, d.detail)
}

// IsEmpty returns true if this diff represents no meaningful change.
func (d Diff) IsEmpty() bool {
	return (d.diffType == DiffTypeNone || d.diffType == "") && d.resource == "" && d.name == ""
}
