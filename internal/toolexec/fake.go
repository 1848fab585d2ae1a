package toolexec

import "context"

// FakeRunner is a scripted Runner for tests, grounded on the teacher's
// makemkv.Executor test doubles.
type FakeRunner struct {
	Results []Result
	Errs    []error
	Calls   []Command
}

func (f *FakeRunner) Run(_ context.Context, cmd Command) (Result, error) {
	f.Calls = append(f.Calls, cmd)
	idx := len(f.Calls) - 1
	var result Result
	var err error
	if idx < len(f.Results) {
		result = f.Results[idx]
	}
	if idx < len(f.Errs) {
		err = f.Errs[idx]
	}
	return result, err
}
