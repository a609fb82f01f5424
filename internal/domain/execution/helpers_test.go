package execution

import (
	"errors"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
)

// testStep is a configurable step for executor and planner tests.
type testStep struct {
	id       compiler.StepID
	phase    compiler.Phase
	status   compiler.StepStatus
	checkErr error
	applyErr []error
	applied  int
	checked  int
	onApply  func()
}

func newTestStep(id string, phase compiler.Phase) *testStep {
	return &testStep{id: compiler.MustNewStepID(id), phase: phase, status: compiler.StatusNeedsApply}
}

func (s *testStep) ID() compiler.StepID   { return s.id }
func (s *testStep) Description() string   { return "Running " + s.id.String() }
func (s *testStep) Phase() compiler.Phase { return s.phase }
func (s *testStep) Plan(compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeRun, "test", s.id.String(), ""), nil
}

func (s *testStep) Check(compiler.RunContext) (compiler.StepStatus, error) {
	s.checked++
	return s.status, s.checkErr
}

func (s *testStep) Apply(compiler.RunContext) error {
	s.applied++
	if s.onApply != nil {
		s.onApply()
	}
	if len(s.applyErr) >= s.applied {
		return s.applyErr[s.applied-1]
	}
	return nil
}

func (s *testStep) Explain(compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(s.Description(), "", nil)
}

// testArtifactStep is a testStep producing a file.
type testArtifactStep struct {
	*testStep
	path    string
	retries int
}

func (s *testArtifactStep) Artifact() string { return s.path }
func (s *testArtifactStep) Retries() int     { return s.retries }

var errBoom = errors.New("boom")

func sequenceOf(steps ...compiler.Step) *compiler.Sequence {
	seq := compiler.NewSequence()
	for _, s := range steps {
		if err := seq.Add(s); err != nil {
			panic(err)
		}
	}
	return seq
}
