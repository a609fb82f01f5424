package compiler

// Sequence is an ordered list of steps with unique IDs.
type Sequence struct {
	steps []Step
	index map[string]int
}

// NewSequence creates an empty Sequence.
func NewSequence() *Sequence {
	return &Sequence{index: make(map[string]int)}
}

// Add appends a step. It fails if a step with the same ID exists.
func (s *Sequence) Add(step Step) error {
	id := step.ID().String()
	if _, exists := s.index[id]; exists {
		return NewStepDuplicateError("", id)
	}
	s.index[id] = len(s.steps)
	s.steps = append(s.steps, step)
	return nil
}

// Get returns the step with the given ID.
func (s *Sequence) Get(id StepID) (Step, bool) {
	i, ok := s.index[id.String()]
	if !ok {
		return nil, false
	}
	return s.steps[i], true
}

// Steps returns a copy of the steps in order.
func (s *Sequence) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Len returns the number of steps.
func (s *Sequence) Len() int {
	return len(s.steps)
}

// InPhase returns the steps of one phase, in order.
func (s *Sequence) InPhase(phase Phase) []Step {
	var out []Step
	for _, step := range s.steps {
		if step.Phase() == phase {
			out = append(out, step)
		}
	}
	return out
}
